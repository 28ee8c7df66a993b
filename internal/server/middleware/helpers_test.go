package middleware

import (
	"io"
	"log/slog"
)

// discardLogger логгер, который ничего не пишет
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
