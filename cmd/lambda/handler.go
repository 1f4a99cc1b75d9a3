package main

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/civicarchive/councilcast/internal"
	"github.com/civicarchive/councilcast/internal/api/cron"
	"github.com/civicarchive/councilcast/pkg/logger"
)

var log = logger.Get("Lambda")

// handler adapts API Gateway proxy events to a triggered run, with the
// same query parameters and bearer secret as the HTTP gateway.
type handler struct {
	runner cron.Runner
	secret string
}

func (h *handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if h.secret != "" && !h.authorized(req.Headers) {
		return respond(http.StatusUnauthorized, cron.Summary{Message: "invalid or missing cron secret"}), nil
	}

	params, err := cron.DecodeParams(h.runner.DefaultParams(), req.QueryStringParameters)
	if err != nil {
		return respond(http.StatusBadRequest, cron.Summary{Message: err.Error()}), nil
	}

	summary, err := h.runner.Trigger(ctx, params)
	if err != nil {
		log.Emit(logger.ERROR, "Triggered run failed: %v\n", err)
		return respond(http.StatusInternalServerError, cron.Summary{Message: fmt.Sprintf("Error: %s", err)}), nil
	}

	status := http.StatusOK
	switch summary.Outcome {
	case internal.OutcomeIndexOutOfRange.String(), internal.OutcomeNoVideo.String():
		status = http.StatusNotFound
	}

	return respond(status, *summary), nil
}

func (h *handler) authorized(headers map[string]string) bool {
	for key, value := range headers {
		if !strings.EqualFold(key, "Authorization") {
			continue
		}

		token, ok := strings.CutPrefix(value, "Bearer ")
		return ok && subtle.ConstantTimeCompare([]byte(token), []byte(h.secret)) == 1
	}

	return false
}

func respond(status int, summary cron.Summary) events.APIGatewayProxyResponse {
	body, err := json.Marshal(summary)
	if err != nil {
		body = []byte(`{"message":"response could not be encoded"}`)
		status = http.StatusInternalServerError
	}

	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}
}
