package transcribe

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/civicarchive/councilcast/pkg/logger"
)

var log = logger.Get("Transcribe")

const (
	EngineWhisper = "whisper"
	EngineOpenAI  = "openai"

	DefaultModel = "small.en"

	transcriptSuffix = "_transcription.txt"
)

type (
	// Engine is a black-box speech-to-text capability. Given the path
	// to a media file, it returns the plain-text transcript.
	Engine interface {
		Transcribe(ctx context.Context, mediaPath string) (string, error)
	}

	Config struct {
		Engine        string        `yaml:"engine" toml:"engine" env:"TRANSCRIPTION_ENGINE" env-default:"whisper" validate:"oneof=whisper openai"`
		Model         string        `yaml:"model" toml:"model" env:"TRANSCRIPTION_MODEL" env-default:"small.en"`
		WhisperBinary string        `yaml:"whisper_binary" toml:"whisper_binary" env:"TRANSCRIPTION_WHISPER_BINARY" env-default:"whisper"`
		APIBaseURL    string        `yaml:"api_base_url" toml:"api_base_url" env:"TRANSCRIPTION_API_BASE_URL" env-default:"https://api.openai.com/v1"`
		APIKey        string        `yaml:"api_key" toml:"api_key" env:"TRANSCRIPTION_API_KEY"`
		Timeout       time.Duration `yaml:"timeout" toml:"timeout" env:"TRANSCRIPTION_TIMEOUT" env-default:"0s"`
	}

	// Adapter invokes an Engine and stores the transcript beside the
	// media file it was produced from.
	Adapter struct {
		engine Engine
	}
)

// New constructs the Adapter for the engine named in the config. The
// OpenAI engine gets a client of its own which always verifies TLS and
// never carries the archive's headers.
func New(config Config) (*Adapter, error) {
	model := config.Model
	if model == "" {
		model = DefaultModel
	}

	switch config.Engine {
	case EngineWhisper, "":
		return NewAdapter(&WhisperCLI{Binary: config.WhisperBinary, Model: model}), nil
	case EngineOpenAI:
		if config.APIKey == "" {
			return nil, fmt.Errorf("transcription engine '%s' requires an API key", EngineOpenAI)
		}
		client := &http.Client{Timeout: config.Timeout}
		return NewAdapter(&OpenAI{Client: client, BaseURL: config.APIBaseURL, APIKey: config.APIKey, Model: model}), nil
	default:
		return nil, fmt.Errorf("unknown transcription engine '%s'", config.Engine)
	}
}

func NewAdapter(engine Engine) *Adapter {
	return &Adapter{engine: engine}
}

// TranscribeToFile transcribes the media and writes the text to
// '<media path without extension>_transcription.txt'. Errors from
// the engine are returned as-is.
func (adapter *Adapter) TranscribeToFile(ctx context.Context, mediaPath string) (string, error) {
	log.Emit(logger.NEW, "Transcribing %s\n", mediaPath)
	text, err := adapter.engine.Transcribe(ctx, mediaPath)
	if err != nil {
		return "", err
	}

	dest := TranscriptPath(mediaPath)
	if err := os.WriteFile(dest, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("failed to write transcript %s: %w", dest, err)
	}

	log.Emit(logger.SUCCESS, "Transcription saved: %s\n", dest)
	return dest, nil
}

func TranscriptPath(mediaPath string) string {
	return strings.TrimSuffix(mediaPath, filepath.Ext(mediaPath)) + transcriptSuffix
}
