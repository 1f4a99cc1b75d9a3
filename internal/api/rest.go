package api

import (
	"context"
	"crypto/subtle"
	"net/http"
	"sync"

	"github.com/civicarchive/councilcast/internal/api/cron"
	"github.com/civicarchive/councilcast/internal/api/meetings"
	"github.com/civicarchive/councilcast/internal/api/uploads"
	"github.com/civicarchive/councilcast/pkg/logger"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

var log = logger.Get("API")

type (
	RestConfig struct {
		HostAddr string `yaml:"host_address" toml:"host_address" env:"API_HOST_ADDR" env-default:"0.0.0.0:8080"`

		// CronSecret, when set, must be presented as a bearer token
		// to trigger a run.
		CronSecret string `yaml:"cron_secret" toml:"cron_secret" env:"API_CRON_SECRET"`
	}

	controller interface {
		SetRoutes(*echo.Group)
	}

	// The RestGateway is a thin-wrapper around the Echo HTTP router. It's sole responsibility
	// is to expose the run trigger and the read-only listing and history routes.
	RestGateway struct {
		config            *RestConfig
		ec                *echo.Echo
		cronController    controller
		meetingController controller
		uploadController  controller
	}
)

// NewRestGateway constructs the Echo router and populates it with all the
// routes defined by the various controllers.
func NewRestGateway(
	config *RestConfig,
	runner cron.Runner,
	meetingStore meetings.Store,
	uploadStore uploads.Store,
) *RestGateway {
	ec := echo.New()
	ec.OnAddRouteHandler = func(host string, route echo.Route, handler echo.HandlerFunc, middleware []echo.MiddlewareFunc) {
		log.Emit(logger.DEBUG, "Registered new route %s %s\n", route.Method, route.Path)
	}
	ec.HidePort = true
	ec.HideBanner = true

	gateway := &RestGateway{
		config:            config,
		ec:                ec,
		cronController:    cron.New(runner),
		meetingController: meetings.New(meetingStore),
		uploadController:  uploads.New(uploadStore),
	}

	ec.Use(middleware.Logger())
	ec.Use(middleware.Recover())
	ec.Pre(middleware.AddTrailingSlash())

	cronGroup := ec.Group("/api/cron")
	if config.CronSecret != "" {
		cronGroup.Use(cronSecretAuth(config.CronSecret))
	} else {
		log.Emit(logger.WARNING, "No cron secret configured, runs can be triggered by anyone who can reach %s\n", config.HostAddr)
	}
	gateway.cronController.SetRoutes(cronGroup)

	meetings := ec.Group("/api/meetings")
	gateway.meetingController.SetRoutes(meetings)

	uploads := ec.Group("/api/uploads")
	gateway.uploadController.SetRoutes(uploads)

	return gateway
}

// Handler exposes the underlying router, for use with httptest
// or an alternative server.
func (gateway *RestGateway) Handler() http.Handler {
	return gateway.ec
}

func (gateway *RestGateway) Run(parentCtx context.Context) error {
	ctx, ctxCancel := context.WithCancelCause(parentCtx)
	wg := &sync.WaitGroup{}

	// Start echo router
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Emit(logger.INFO, "Listening on %s\n", gateway.config.HostAddr)
		if err := gateway.ec.Start(gateway.config.HostAddr); err != nil && err != http.ErrServerClosed {
			ctxCancel(err)
		}
	}()

	// Start thread to listen for context cancellation
	go func(ec *echo.Echo) {
		<-ctx.Done()
		ec.Close()
	}(gateway.ec)

	wg.Wait()

	// Return cancellation cause if any, otherwise nil as parent context
	// cancellation is not an error case we should report.
	if cause := context.Cause(ctx); cause != ctx.Err() {
		return cause
	}

	return nil
}

func cronSecretAuth(secret string) echo.MiddlewareFunc {
	return middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		KeyLookup:  "header:" + echo.HeaderAuthorization,
		AuthScheme: "Bearer",
		Validator: func(key string, _ echo.Context) (bool, error) {
			return subtle.ConstantTimeCompare([]byte(key), []byte(secret)) == 1, nil
		},
		ErrorHandler: func(err error, _ echo.Context) error {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing cron secret")
		},
	})
}
