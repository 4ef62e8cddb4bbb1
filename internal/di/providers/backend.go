package providers

import (
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/listenupapp/readtrack/internal/backend"
	"github.com/listenupapp/readtrack/internal/config"
)

// BackendHandle wraps the backend client with shutdown capability.
type BackendHandle struct {
	*backend.Client
}

// Shutdown implements do.Shutdownable.
func (h *BackendHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideBackend provides the reading-tracker backend client.
func ProvideBackend(i do.Injector) (*BackendHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)

	client, err := backend.New(backend.Options{
		BaseURL:           cfg.Backend.URL,
		Timeout:           cfg.Backend.Timeout,
		RPS:               cfg.Backend.RPS,
		Burst:             cfg.Backend.Burst,
		SearchFullRecords: cfg.Cache.SearchFullRecords,
	}, log)
	if err != nil {
		return nil, err
	}

	log.Info("Backend client ready",
		"url", cfg.Backend.URL,
		"rps", cfg.Backend.RPS,
		"burst", cfg.Backend.Burst,
	)

	return &BackendHandle{Client: client}, nil
}
