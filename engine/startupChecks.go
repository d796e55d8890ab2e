package engine

import (
	"fmt"
	"strings"

	"github.com/drummonds/gopoppler/cairo"
	"github.com/drummonds/gopoppler/config"
	"github.com/drummonds/gopoppler/poppler"
)

// StartupChecks makes sure the native libraries the configured backends
// depend on can be loaded. A missing library is only fatal when a
// configured backend cannot work without it.
func (serverHandler *ServerHandler) StartupChecks() error {
	popplerErr := popplerChecks()
	cairoErr := cairoChecks()
	return backendChecks(serverHandler.ServerConfig, popplerErr, cairoErr)
}

func popplerChecks() error {
	if err := poppler.Init(); err != nil {
		Logger.Warn("poppler-glib not loaded, poppler backends will be unavailable", "error", err)
		return err
	}
	Logger.Info("poppler-glib loaded", "version", poppler.Version())
	return nil
}

func cairoChecks() error {
	if err := cairo.Init(); err != nil {
		Logger.Warn("cairo not loaded, poppler rendering will be unavailable", "error", err)
		return err
	}
	Logger.Info("cairo loaded")
	return nil
}

// backendChecks fails when a configured backend needs a library that did
// not load
func backendChecks(serverConfig config.ServerConfig, popplerErr, cairoErr error) error {
	render := strings.ToLower(serverConfig.RenderBackend)
	if render == "" || strings.HasPrefix(render, "poppler") {
		if popplerErr != nil {
			return fmt.Errorf("render backend %s: %w", serverConfig.RenderBackend, popplerErr)
		}
		if cairoErr != nil {
			return fmt.Errorf("render backend %s: %w", serverConfig.RenderBackend, cairoErr)
		}
	}
	text := strings.ToLower(serverConfig.TextBackend)
	if (text == "" || text == "poppler") && popplerErr != nil {
		return fmt.Errorf("text backend %s: %w", serverConfig.TextBackend, popplerErr)
	}
	return nil
}
