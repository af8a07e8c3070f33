// Package logging provides structured logging setup for relatorio.
package logging

import (
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
)

// Setup initializes the default slog logger.
// Dev mode uses tint's colored text output; prod uses JSON.
func Setup(devMode bool) {
	var handler slog.Handler
	if devMode {
		handler = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: "2006-01-02 15:04:05",
		})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	slog.SetDefault(slog.New(handler))
}
