// Package logging sets up the process logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
)

// New returns a text logger writing to w at the named level
func New(w io.Writer, level string) (*slog.Logger, error) {
	var lv slog.Level
	if err := lv.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lv})), nil
}
