package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/roman-kulish/redgyro/internal/gcsv"
	"github.com/roman-kulish/redgyro/internal/preview"
)

// Preview renders the gyro plot of an existing gcsv log. The PNG is written to
// output, or next to the log when output is empty. It returns the PNG path.
func Preview(config *Config, logPath, output string, logger *slog.Logger) (string, error) {
	log, err := gcsv.ReadFile(logPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrFileNotFound, logPath)
		}
		return "", fmt.Errorf("reading %s: %w", logPath, err)
	}

	renderer, err := preview.NewRenderer(preview.RenderConfig{
		Width:  config.Preview.Width,
		Height: config.Preview.Height,
	})
	if err != nil {
		return "", fmt.Errorf("creating preview renderer: %w", err)
	}

	if output == "" {
		output = PreviewPath(logPath)
	}

	if err = renderPreview(renderer, log, output); err != nil {
		return "", err
	}

	logger.Info("wrote preview",
		slog.String("log", logPath),
		slog.String("output", output),
		slog.Int("samples", len(log.Samples)))

	return output, nil
}
