package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/civicarchive/councilcast/internal/api/cron"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRunner struct{ mock.Mock }

func (m *mockRunner) DefaultParams() cron.Params {
	return cron.Params{PrivacyStatus: "unlisted", UseMeetingTitle: true}
}

func (m *mockRunner) Trigger(ctx context.Context, params cron.Params) (*cron.Summary, error) {
	args := m.Called(params)
	summary, _ := args.Get(0).(*cron.Summary)
	return summary, args.Error(1)
}

func decode(t *testing.T, resp events.APIGatewayProxyResponse) cron.Summary {
	var summary cron.Summary
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &summary))
	return summary
}

func TestHandle_Uploaded(t *testing.T) {
	runner := new(mockRunner)
	runID := uuid.New()
	runner.On("Trigger", cron.Params{Index: 2, PrivacyStatus: "public", UseMeetingTitle: true}).
		Return(&cron.Summary{Message: "done", RunID: runID, Outcome: "uploaded", VideoID: "vid-1"}, nil)

	h := &handler{runner: runner}
	resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{
		QueryStringParameters: map[string]string{"index": "2", "privacy": "public"},
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Headers["Content-Type"])
	summary := decode(t, resp)
	assert.Equal(t, "vid-1", summary.VideoID)
	assert.Equal(t, runID, summary.RunID)
	runner.AssertExpectations(t)
}

func TestHandle_NothingToUpload(t *testing.T) {
	for _, outcome := range []string{"index_out_of_range", "no_video"} {
		runner := new(mockRunner)
		runner.On("Trigger", mock.Anything).Return(&cron.Summary{Outcome: outcome}, nil)

		resp, err := (&handler{runner: runner}).Handle(context.Background(), events.APIGatewayProxyRequest{})
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, outcome)
	}
}

func TestHandle_Failure(t *testing.T) {
	runner := new(mockRunner)
	runner.On("Trigger", mock.Anything).Return(nil, errors.New("quota exceeded"))

	resp, err := (&handler{runner: runner}).Handle(context.Background(), events.APIGatewayProxyRequest{})
	require.NoError(t, err)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Error: quota exceeded", decode(t, resp).Message)
}

func TestHandle_MalformedQuery(t *testing.T) {
	runner := new(mockRunner)
	resp, err := (&handler{runner: runner}).Handle(context.Background(), events.APIGatewayProxyRequest{
		QueryStringParameters: map[string]string{"index": "last"},
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	runner.AssertNotCalled(t, "Trigger", mock.Anything)
}

func TestHandle_Secret(t *testing.T) {
	runner := new(mockRunner)
	runner.On("Trigger", mock.Anything).Return(&cron.Summary{Outcome: "uploaded"}, nil)
	h := &handler{runner: runner, secret: "s3cret"}

	resp, _ := h.Handle(context.Background(), events.APIGatewayProxyRequest{})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = h.Handle(context.Background(), events.APIGatewayProxyRequest{Headers: map[string]string{"authorization": "Bearer wrong"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = h.Handle(context.Background(), events.APIGatewayProxyRequest{Headers: map[string]string{"authorization": "Bearer s3cret"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
