package cron

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/civicarchive/councilcast/pkg/logger"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/mitchellh/mapstructure"
)

var log = logger.Get("Cron")

type (
	// Params are the run options accepted as query parameters. Any
	// parameter which is omitted keeps its default.
	Params struct {
		Index           int    `mapstructure:"index"`
		PrivacyStatus   string `mapstructure:"privacy"`
		Transcribe      bool   `mapstructure:"transcribe"`
		UseMeetingTitle bool   `mapstructure:"meeting_title"`
		Keywords        string `mapstructure:"keywords"`
	}

	Summary struct {
		Message string    `json:"message"`
		RunID   uuid.UUID `json:"run_id"`
		Outcome string    `json:"outcome"`
		VideoID string    `json:"video_id,omitempty"`
	}

	Runner interface {
		DefaultParams() Params
		Trigger(ctx context.Context, params Params) (*Summary, error)
	}

	// Controller triggers a run per request. Only one run may be in
	// flight at a time; concurrent requests are rejected with 409.
	Controller struct {
		runner  Runner
		running sync.Mutex
	}
)

func New(runner Runner) *Controller {
	return &Controller{runner: runner}
}

func (controller *Controller) SetRoutes(eg *echo.Group) {
	eg.GET("/", controller.trigger)
}

func (controller *Controller) trigger(ec echo.Context) error {
	if !controller.running.TryLock() {
		return echo.NewHTTPError(http.StatusConflict, "A run is already in progress")
	}
	defer controller.running.Unlock()

	query := make(map[string]string)
	for key, values := range ec.QueryParams() {
		if len(values) > 0 {
			query[key] = values[0]
		}
	}

	params, err := DecodeParams(controller.runner.DefaultParams(), query)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	// Runs outlive the triggering request; a dropped connection must
	// not abandon an upload half way through.
	ctx := context.WithoutCancel(ec.Request().Context())
	summary, err := controller.runner.Trigger(ctx, params)
	if err != nil {
		log.Emit(logger.ERROR, "Triggered run failed: %v\n", err)
		return ec.JSON(http.StatusInternalServerError, Summary{Message: fmt.Sprintf("Error: %s", err)})
	}

	return ec.JSON(http.StatusOK, summary)
}

// DecodeParams overlays the query parameters on to the defaults
// provided. Values are converted loosely, so "1" and "true" are both
// accepted for boolean parameters. Unknown parameters are ignored.
func DecodeParams(defaults Params, query map[string]string) (Params, error) {
	params := defaults
	if err := mapstructure.WeakDecode(query, &params); err != nil {
		return defaults, fmt.Errorf("query parameters malformed: %w", err)
	}

	return params, nil
}
