package app

import (
	"io"
	"log/slog"
	"net/http"
)

func (a *App) StatusHandler() http.Handler {
	return a.statusHandler()
}

func NewLogger(level, format, file string, w io.Writer) (*slog.Logger, func() error) {
	return newLogger(level, format, file, w)
}
