package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Logger is global since we will need it everywhere
var Logger *slog.Logger

// ServerConfig contains all of the service settings
type ServerConfig struct {
	ListenAddrIP   string
	ListenAddrPort string
	RenderBackend  string  // poppler, poppler-print, fitz or pdfium
	TextBackend    string  // poppler or plain
	RenderDPI      float64 // resolution used when rasterizing pages
	ThumbnailWidth int     // width images are resized to, 0 keeps the rendered size
	MaxUploadMB    int64
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intVal
}

// getEnvFloat gets a float environment variable with a default value
func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	floatVal, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return floatVal
}

// SetupServer loads configuration and returns ServerConfig and Logger
func SetupServer() (ServerConfig, *slog.Logger) {
	// Load .env file (silently ignore if doesn't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load("config.env")

	logger := setupLogging()
	Logger = logger

	serverConfig := ServerConfig{
		ListenAddrIP:   getEnv("SERVER_ADDR", ""),
		ListenAddrPort: getEnv("SERVER_PORT", "8002"),
		RenderBackend:  getEnv("RENDER_BACKEND", "poppler"),
		TextBackend:    getEnv("TEXT_BACKEND", "poppler"),
		RenderDPI:      getEnvFloat("RENDER_DPI", 150),
		ThumbnailWidth: getEnvInt("THUMBNAIL_WIDTH", 1024),
		MaxUploadMB:    int64(getEnvInt("MAX_UPLOAD_MB", 32)),
	}

	if serverConfig.RenderDPI <= 0 {
		logger.Warn("Invalid RENDER_DPI, using default", "dpi", serverConfig.RenderDPI)
		serverConfig.RenderDPI = 150
	}
	if serverConfig.ThumbnailWidth < 0 {
		serverConfig.ThumbnailWidth = 0
	}
	if serverConfig.MaxUploadMB <= 0 {
		serverConfig.MaxUploadMB = 32
	}

	logger.Info("Configuration loaded",
		"addr", serverConfig.ListenAddrIP,
		"port", serverConfig.ListenAddrPort,
		"renderBackend", serverConfig.RenderBackend,
		"textBackend", serverConfig.TextBackend,
		"dpi", serverConfig.RenderDPI)

	return serverConfig, logger
}

// setupLogging configures the application logger
func setupLogging() *slog.Logger {
	logLevel := getEnv("LOG_LEVEL", "info")
	var level slog.Level

	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handlerOptions := &slog.HandlerOptions{Level: level}

	logOutput := getEnv("LOG_OUTPUT", "stdout")
	var logWriter io.Writer = os.Stdout

	if logOutput == "file" {
		logPath, err := filepath.Abs(filepath.ToSlash(getEnv("LOG_FILE", "poppler-service.log")))
		if err != nil {
			fmt.Printf("Error creating log file path: %v\n", err)
		} else {
			logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
			if err != nil {
				fmt.Printf("Failed to open log file: %v\n", err)
			} else {
				logWriter = logFile
				fmt.Println("Logging to file: ", logPath)
			}
		}
	}

	if getEnv("LOG_FORMAT", "text") == "json" {
		return slog.New(slog.NewJSONHandler(logWriter, handlerOptions))
	}
	return slog.New(slog.NewTextHandler(logWriter, handlerOptions))
}
