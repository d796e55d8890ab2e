package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/drummonds/gopoppler/config"
	"github.com/drummonds/gopoppler/engine"
	"github.com/drummonds/gopoppler/pdfrenderer"
	"github.com/drummonds/gopoppler/poppler"
)

// Logger is global since we will need it everywhere
var Logger *slog.Logger

// injectGlobals injects all of our globals into their packages
func injectGlobals(logger *slog.Logger) {
	Logger = logger
	config.Logger = logger
	engine.Logger = logger
	pdfrenderer.Logger = logger
	poppler.Logger = logger
}

func main() {
	serverConfig, logger := config.SetupServer()
	injectGlobals(logger)

	// check native libraries before any backend tries to load them
	serverHandler := engine.ServerHandler{ServerConfig: serverConfig}
	if err := serverHandler.StartupChecks(); err != nil {
		Logger.Error("Startup checks failed", "error", err)
		os.Exit(1)
	}

	renderer, err := pdfrenderer.NewRenderer(serverConfig.RenderBackend, serverConfig.RenderDPI)
	if err != nil {
		Logger.Error("Failed to create renderer", "backend", serverConfig.RenderBackend, "error", err)
		os.Exit(1)
	}
	defer renderer.Close()

	extractor, err := pdfrenderer.NewTextExtractor(serverConfig.TextBackend)
	if err != nil {
		Logger.Error("Failed to create text extractor", "backend", serverConfig.TextBackend, "error", err)
		os.Exit(1)
	}

	e := echo.New()
	e.HideBanner = true

	// JSON errors everywhere, this service has no HTML pages
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		message := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			message = fmt.Sprint(he.Message)
		}
		if c.Response().Committed {
			return
		}
		if code == http.StatusNotFound {
			message = "The requested API endpoint does not exist"
		}
		c.JSON(code, map[string]string{
			"error": message,
			"path":  c.Request().URL.Path,
		})
	}

	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.DefaultCORSConfig))

	serverHandler.Echo = e
	serverHandler.Renderer = renderer
	serverHandler.Extractor = extractor
	serverHandler.RegisterRoutes()

	if serverConfig.ListenAddrIP == "" {
		Logger.Info("No Ip Addr set, binding on ALL addresses")
	}

	// Try to start server with automatic port increment if port is in use
	maxRetries := 5
	startPort := serverConfig.ListenAddrPort
	for attempt := 0; attempt < maxRetries; attempt++ {
		addr := fmt.Sprintf("%s:%s", serverConfig.ListenAddrIP, serverConfig.ListenAddrPort)
		Logger.Info("Attempting to start server", "address", addr, "attempt", attempt+1)

		startErr := e.Start(addr)
		if startErr == nil || startErr == http.ErrServerClosed {
			return
		}
		if !isAddressInUse(startErr) {
			Logger.Error("Failed to start server", "error", startErr)
			os.Exit(1)
		}

		Logger.Warn("Port already in use, trying next port",
			"port", serverConfig.ListenAddrPort,
			"attempt", attempt+1,
			"max_attempts", maxRetries)
		portNum := 0
		fmt.Sscanf(serverConfig.ListenAddrPort, "%d", &portNum)
		serverConfig.ListenAddrPort = fmt.Sprintf("%d", portNum+1)
	}

	Logger.Error("Failed to find available port after maximum retries",
		"start_port", startPort,
		"end_port", serverConfig.ListenAddrPort,
		"max_retries", maxRetries)
	os.Exit(1)
}

// isAddressInUse checks if the error is due to address already in use
func isAddressInUse(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "address already in use")
}
