package internal

import (
	"context"
	"fmt"
	"os"

	"github.com/civicarchive/councilcast/internal/api/cron"
	"github.com/civicarchive/councilcast/internal/database"
	"github.com/civicarchive/councilcast/internal/download"
	"github.com/civicarchive/councilcast/internal/history"
	"github.com/civicarchive/councilcast/internal/http/client"
	"github.com/civicarchive/councilcast/internal/http/granicus"
	"github.com/civicarchive/councilcast/internal/http/youtube"
	"github.com/civicarchive/councilcast/internal/meeting"
	"github.com/civicarchive/councilcast/internal/transcribe"
	"github.com/civicarchive/councilcast/pkg/logger"
)

// App holds the fully wired components shared by every entry
// point (CLI, HTTP gateway and Lambda handler).
type App struct {
	Config      *Config
	Pipeline    *Pipeline
	Fetcher     *granicus.Fetcher
	Credentials *youtube.Credentials
	DB          *database.Manager
	History     *history.Store
	Metadata    *meeting.JSONStore
}

// New constructs the application from the config provided,
// connecting to the history database.
func New(config *Config) (*App, error) {
	log.Emit(logger.DEBUG, "Bootstrapping councilcast using config: %+v\n", config.Redacted())
	if err := config.EnsureWorkDir(); err != nil {
		return nil, err
	}

	httpClient := client.New(config.HTTP)
	fetcher := granicus.NewFetcher(httpClient, config.ListingURL)
	metadataStore := meeting.NewJSONStore(config.WorkDir)

	transcriber, err := transcribe.New(config.Transcription)
	if err != nil {
		log.Emit(logger.WARNING, "Transcription is unavailable, runs requesting it will fail: %v\n", err)
	}

	assembler := &meeting.Assembler{
		Downloader: download.New(httpClient, config.WorkDir),
		Store:      metadataStore,
	}
	if transcriber != nil {
		assembler.Transcriber = transcriber
	}

	credentials := &youtube.Credentials{
		SecretsPath: config.YouTube.SecretsPath,
		TokenPath:   config.YouTube.TokenPath,
		Interactive: config.YouTube.Interactive,
		Prompt:      os.Stdin,
		Out:         os.Stdout,
	}

	policy := youtube.DefaultPolicy()
	policy.MaxRetries = config.YouTube.MaxRetries

	db := database.New()
	if err := db.Connect(config.Database); err != nil {
		return nil, fmt.Errorf("failed to connect to history database: %w", err)
	}

	app := &App{
		Config:      config,
		Fetcher:     fetcher,
		Credentials: credentials,
		DB:          db,
		History:     history.NewStore(),
		Metadata:    metadataStore,
	}
	app.Pipeline = &Pipeline{
		Fetcher:     fetcher,
		Assembler:   assembler,
		Uploader:    youtube.NewUploader(credentials, policy, config.YouTube.Upload),
		History:     app,
		ArchiveName: config.ArchiveName,
		CategoryID:  config.YouTube.CategoryID,
	}

	return app, nil
}

// FetchMeetings returns the meetings with a video currently listed
// by the archive.
func (app *App) FetchMeetings(ctx context.Context) ([]meeting.Record, error) {
	return app.Fetcher.FetchMeetings(ctx)
}

// DefaultParams returns the configured run defaults for triggered runs.
func (app *App) DefaultParams() cron.Params {
	opts := app.Config.Run.Options()
	return cron.Params{
		Index:           opts.Index,
		PrivacyStatus:   opts.PrivacyStatus,
		Transcribe:      opts.Transcribe,
		UseMeetingTitle: opts.UseMeetingTitle,
		Keywords:        opts.Keywords,
	}
}

// Trigger processes a meeting on behalf of the HTTP gateway.
func (app *App) Trigger(ctx context.Context, params cron.Params) (*cron.Summary, error) {
	result, err := app.Pipeline.ProcessMeeting(ctx, RunOptions{
		Index:           params.Index,
		PrivacyStatus:   params.PrivacyStatus,
		Transcribe:      params.Transcribe,
		UseMeetingTitle: params.UseMeetingTitle,
		Keywords:        params.Keywords,
	})
	if err != nil {
		return nil, err
	}

	return &cron.Summary{
		Message: result.Message(),
		RunID:   result.RunID,
		Outcome: result.Outcome.String(),
		VideoID: result.VideoID,
	}, nil
}

// RecordUpload stores the upload in the history database.
func (app *App) RecordUpload(upload *history.Upload) error {
	return app.History.Record(app.DB.GetSqlxDb(), upload)
}

// Uploads returns the most recent uploads from the history database.
func (app *App) Uploads(limit int) ([]*history.Upload, error) {
	return app.History.List(app.DB.GetSqlxDb(), limit)
}

// UploadsForMeeting returns the uploads recorded for the meeting.
func (app *App) UploadsForMeeting(record meeting.Record) ([]*history.Upload, error) {
	return app.History.ForMeeting(app.DB.GetSqlxDb(), record.Title, record.Date)
}

func (app *App) Close() error {
	if app.DB == nil {
		return nil
	}

	return app.DB.Close()
}
