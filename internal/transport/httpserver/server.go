package httpserver

import (
	"log/slog"
	"net/http"
	"time"

	"family-registry-go/internal/config"
	"family-registry-go/pkg/logger"
)

const readHeaderTimeout = 5 * time.Second

// New builds the API server. Write timeout must outlast the per-request
// timeout so a retried family transaction can still answer.
func New(cfg config.Config, handler http.Handler, log logger.Logger) *http.Server {
	writeTimeout := cfg.HTTP.WriteTimeout
	if cfg.HTTP.RequestTimeout > 0 && writeTimeout <= cfg.HTTP.RequestTimeout {
		writeTimeout = cfg.HTTP.RequestTimeout + 5*time.Second
	}
	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
		ErrorLog:          slog.NewLogLogger(log.Named("http").Handler(), slog.LevelError),
	}
}
