package youtube

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/civicarchive/councilcast/pkg/logger"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

var (
	ErrNoToken           = errors.New("no cached token available")
	ErrInteractionDenied = errors.New("interactive authorization is disabled")
)

// Credentials lazily builds an OAuth2 client for the upload scope from
// a client secrets file and a cached token file. Tokens obtained via
// the console consent flow, and tokens refreshed by the client, are
// written back to TokenPath.
type Credentials struct {
	SecretsPath string
	TokenPath   string

	// Interactive allows falling back to the console consent flow when
	// no usable token is cached. Prompt is read for the authorization
	// code and Out receives the consent URL.
	Interactive bool
	Prompt      io.Reader
	Out         io.Writer

	// HTTPClient, if set, is used for token exchange and refresh.
	HTTPClient *http.Client

	mu     sync.Mutex
	client *http.Client
}

// Client returns the authorised client, initialising it on first use.
// A token is fetched eagerly so that any credential problem surfaces
// here rather than during the upload.
func (creds *Credentials) Client(ctx context.Context) (*http.Client, error) {
	creds.mu.Lock()
	defer creds.mu.Unlock()
	if creds.client != nil {
		return creds.client, nil
	}

	config, err := creds.oauthConfig()
	if err != nil {
		return nil, err
	}

	token, err := creds.loadToken()
	if err != nil {
		if !creds.Interactive {
			return nil, fmt.Errorf("%w (%v): run 'councilcast auth' first", ErrInteractionDenied, err)
		}

		log.Emit(logger.WARNING, "No usable token in %s (%v), starting console authorization\n", creds.TokenPath, err)
		if token, err = creds.consent(ctx, config); err != nil {
			return nil, err
		}
	}

	tokenCtx := creds.exchangeContext(context.WithoutCancel(ctx))
	source := &persistingTokenSource{
		base: config.TokenSource(tokenCtx, token),
		path: creds.TokenPath,
		last: token.AccessToken,
	}

	if _, err := source.Token(); err != nil {
		return nil, fmt.Errorf("failed to obtain access token: %w", err)
	}

	creds.client = oauth2.NewClient(tokenCtx, oauth2.ReuseTokenSource(nil, source))
	return creds.client, nil
}

// Authorize always runs the console consent flow and replaces the
// cached token, regardless of Interactive.
func (creds *Credentials) Authorize(ctx context.Context) error {
	config, err := creds.oauthConfig()
	if err != nil {
		return err
	}

	if _, err := creds.consent(ctx, config); err != nil {
		return err
	}

	creds.mu.Lock()
	creds.client = nil
	creds.mu.Unlock()
	return nil
}

func (creds *Credentials) oauthConfig() (*oauth2.Config, error) {
	secrets, err := os.ReadFile(creds.SecretsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read client secrets %s: %w", creds.SecretsPath, err)
	}

	config, err := google.ConfigFromJSON(secrets, UploadScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse client secrets %s: %w", creds.SecretsPath, err)
	}

	return config, nil
}

func (creds *Credentials) loadToken() (*oauth2.Token, error) {
	raw, err := os.ReadFile(creds.TokenPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoToken
	} else if err != nil {
		return nil, err
	}

	var token oauth2.Token
	if err := json.Unmarshal(raw, &token); err != nil {
		return nil, fmt.Errorf("token cache %s is corrupt: %w", creds.TokenPath, err)
	}
	if token.AccessToken == "" && token.RefreshToken == "" {
		return nil, ErrNoToken
	}

	return &token, nil
}

func (creds *Credentials) consent(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
	out := creds.Out
	if out == nil {
		out = os.Stdout
	}
	prompt := creds.Prompt
	if prompt == nil {
		prompt = os.Stdin
	}

	authURL := config.AuthCodeURL("councilcast", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	fmt.Fprintf(out, "Visit the URL below to authorize uploads, then paste the code (or the full redirect URL):\n\n%s\n\n> ", authURL)

	line, err := bufio.NewReader(prompt).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return nil, fmt.Errorf("failed to read authorization code: %w", err)
	}

	code, err := extractCode(line)
	if err != nil {
		return nil, err
	}

	token, err := config.Exchange(creds.exchangeContext(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	if err := saveToken(creds.TokenPath, token); err != nil {
		return nil, err
	}

	log.Emit(logger.SUCCESS, "Authorization token stored in %s\n", creds.TokenPath)
	return token, nil
}

func (creds *Credentials) exchangeContext(ctx context.Context) context.Context {
	if creds.HTTPClient == nil {
		return ctx
	}

	return context.WithValue(ctx, oauth2.HTTPClient, creds.HTTPClient)
}

// extractCode accepts either a bare authorization code, or the URL
// the browser was redirected to after consent.
func extractCode(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", errors.New("no authorization code provided")
	}

	if !strings.Contains(input, "://") {
		return input, nil
	}

	parsed, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("redirect URL is invalid: %w", err)
	}

	code := parsed.Query().Get("code")
	if code == "" {
		return "", errors.New("redirect URL does not contain an authorization code")
	}

	return code, nil
}

func saveToken(path string, token *oauth2.Token) error {
	raw, err := json.Marshal(token)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return fmt.Errorf("failed to write token cache %s: %w", path, err)
	}

	return nil
}

// persistingTokenSource writes tokens back to the cache whenever the
// underlying source hands out a new access token.
type persistingTokenSource struct {
	base oauth2.TokenSource
	path string

	mu   sync.Mutex
	last string
}

func (source *persistingTokenSource) Token() (*oauth2.Token, error) {
	token, err := source.base.Token()
	if err != nil {
		return nil, err
	}

	source.mu.Lock()
	defer source.mu.Unlock()
	if token.AccessToken != source.last {
		source.last = token.AccessToken
		if err := saveToken(source.path, token); err != nil {
			log.Emit(logger.WARNING, "Refreshed token could not be cached: %v\n", err)
		} else {
			log.Emit(logger.DEBUG, "Refreshed token written to %s\n", source.path)
		}
	}

	return token, nil
}
