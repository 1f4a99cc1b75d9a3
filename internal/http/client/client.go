package client

import (
	"crypto/tls"
	"net/http"
	"time"

	"github.com/civicarchive/councilcast/pkg/logger"
)

var log = logger.Get("HTTP")

const (
	DefaultUserAgent = "Mozilla/5.0 (compatible; councilcast)"
	DefaultReferer   = "https://cityofno.granicus.com/"
)

// Config controls the behaviour of the HTTP client shared by the
// listing fetcher and the artifact downloader.
type Config struct {
	// InsecureSkipVerify should only be set for archive hosts which
	// serve broken certificate chains. Setting it is logged loudly.
	InsecureSkipVerify bool          `yaml:"insecure_skip_verify" toml:"insecure_skip_verify" env:"HTTP_INSECURE_SKIP_VERIFY" env-default:"false"`
	Timeout            time.Duration `yaml:"timeout" toml:"timeout" env:"HTTP_TIMEOUT" env-default:"0s"`
	UserAgent          string        `yaml:"user_agent" toml:"user_agent" env:"HTTP_USER_AGENT"`
	Referer            string        `yaml:"referer" toml:"referer" env:"HTTP_REFERER"`
}

// New constructs a http.Client using the config provided. A zero
// Timeout means no client-side timeout is enforced.
func New(config Config) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if config.InsecureSkipVerify {
		log.Warnf("TLS certificate verification is DISABLED for archive requests\n")
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}

	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	referer := config.Referer
	if referer == "" {
		referer = DefaultReferer
	}

	return &http.Client{
		Timeout: config.Timeout,
		Transport: &headerTransport{
			next:      transport,
			userAgent: userAgent,
			referer:   referer,
		},
	}
}

// headerTransport sets the User-Agent and Referer headers on
// outbound requests which do not already specify them.
type headerTransport struct {
	next      http.RoundTripper
	userAgent string
	referer   string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" && req.Header.Get("Referer") != "" {
		return t.next.RoundTrip(req)
	}

	clone := req.Clone(req.Context())
	if clone.Header.Get("User-Agent") == "" {
		clone.Header.Set("User-Agent", t.userAgent)
	}
	if clone.Header.Get("Referer") == "" {
		clone.Header.Set("Referer", t.referer)
	}

	return t.next.RoundTrip(clone)
}
