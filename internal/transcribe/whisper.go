package transcribe

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/civicarchive/councilcast/pkg/logger"
)

// WhisperCLI runs the openai-whisper command line tool. The media
// file is handed over directly; whisper decodes the audio itself.
type WhisperCLI struct {
	Binary string
	Model  string
}

func (w *WhisperCLI) Transcribe(ctx context.Context, mediaPath string) (string, error) {
	outputDir, err := os.MkdirTemp("", "councilcast-whisper-*")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(outputDir)

	binary := w.Binary
	if binary == "" {
		binary = EngineWhisper
	}

	args := []string{
		mediaPath,
		"--model", w.Model,
		"--output_format", "txt",
		"--output_dir", outputDir,
		"--verbose", "False",
	}

	log.Emit(logger.DEBUG, "Running %s %s\n", binary, strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("whisper failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	base := strings.TrimSuffix(filepath.Base(mediaPath), filepath.Ext(mediaPath))
	text, err := os.ReadFile(filepath.Join(outputDir, base+".txt"))
	if err != nil {
		return "", fmt.Errorf("whisper produced no transcript: %w", err)
	}

	return strings.TrimSpace(string(text)), nil
}
