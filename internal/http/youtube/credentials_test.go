package youtube_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/civicarchive/councilcast/internal/http/youtube"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newTokenServer(t *testing.T) (*httptest.Server, *[]string) {
	grants := &[]string{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		*grants = append(*grants, r.Form.Get("grant_type"))

		switch r.Form.Get("grant_type") {
		case "authorization_code":
			if r.Form.Get("code") != "good-code" {
				w.WriteHeader(http.StatusBadRequest)
				fmt.Fprint(w, `{"error":"invalid_grant"}`)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"access_token":"first","refresh_token":"refresh-me","token_type":"Bearer","expires_in":3600}`)
		case "refresh_token":
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"access_token":"fresh","token_type":"Bearer","expires_in":3600}`)
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	t.Cleanup(srv.Close)

	return srv, grants
}

func writeSecrets(t *testing.T, dir string, tokenURL string) string {
	secrets := fmt.Sprintf(`{"installed":{"client_id":"id","client_secret":"secret","auth_uri":"https://accounts.example/auth","token_uri":%q,"redirect_uris":["http://localhost"]}}`, tokenURL)
	path := filepath.Join(dir, "client_secrets.json")
	require.NoError(t, os.WriteFile(path, []byte(secrets), 0o600))
	return path
}

func readToken(t *testing.T, path string) oauth2.Token {
	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var token oauth2.Token
	require.NoError(t, json.Unmarshal(raw, &token))
	return token
}

func TestCredentials_NonInteractiveWithoutToken(t *testing.T) {
	srv, grants := newTokenServer(t)
	dir := t.TempDir()
	creds := &youtube.Credentials{
		SecretsPath: writeSecrets(t, dir, srv.URL),
		TokenPath:   filepath.Join(dir, "token.json"),
	}

	_, err := creds.Client(context.Background())
	assert.ErrorIs(t, err, youtube.ErrInteractionDenied)
	assert.Empty(t, *grants)
}

func TestCredentials_MissingSecrets(t *testing.T) {
	creds := &youtube.Credentials{
		SecretsPath: filepath.Join(t.TempDir(), "nope.json"),
		TokenPath:   filepath.Join(t.TempDir(), "token.json"),
	}

	_, err := creds.Client(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCredentials_InteractiveConsentAcceptsRedirectURL(t *testing.T) {
	srv, grants := newTokenServer(t)
	dir := t.TempDir()
	out := &bytes.Buffer{}
	creds := &youtube.Credentials{
		SecretsPath: writeSecrets(t, dir, srv.URL),
		TokenPath:   filepath.Join(dir, "cache", "token.json"),
		Interactive: true,
		Prompt:      strings.NewReader("http://localhost/?state=councilcast&code=good-code&scope=upload\n"),
		Out:         out,
	}

	client, err := creds.Client(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, client)

	assert.Contains(t, out.String(), "https://accounts.example/auth")
	assert.Equal(t, []string{"authorization_code"}, *grants)
	assert.Equal(t, "first", readToken(t, creds.TokenPath).AccessToken)

	again, err := creds.Client(context.Background())
	require.NoError(t, err)
	assert.Same(t, client, again)
}

func TestCredentials_RejectedCode(t *testing.T) {
	srv, _ := newTokenServer(t)
	dir := t.TempDir()
	creds := &youtube.Credentials{
		SecretsPath: writeSecrets(t, dir, srv.URL),
		TokenPath:   filepath.Join(dir, "token.json"),
		Prompt:      strings.NewReader("bad-code\n"),
		Out:         &bytes.Buffer{},
	}

	assert.Error(t, creds.Authorize(context.Background()))
	assert.NoFileExists(t, creds.TokenPath)
}

func TestCredentials_RefreshedTokenIsPersisted(t *testing.T) {
	srv, grants := newTokenServer(t)
	dir := t.TempDir()
	tokenPath := filepath.Join(dir, "token.json")

	expired := oauth2.Token{
		AccessToken:  "stale",
		RefreshToken: "refresh-me",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(-time.Hour),
	}
	raw, err := json.Marshal(expired)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(tokenPath, raw, 0o600))

	creds := &youtube.Credentials{
		SecretsPath: writeSecrets(t, dir, srv.URL),
		TokenPath:   tokenPath,
	}

	_, err = creds.Client(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"refresh_token"}, *grants)
	cached := readToken(t, tokenPath)
	assert.Equal(t, "fresh", cached.AccessToken)
	assert.Equal(t, "refresh-me", cached.RefreshToken)
}
