package engine

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/disintegration/imaging"
	"github.com/drummonds/gopoppler/config"
	"github.com/drummonds/gopoppler/pdfrenderer"
	"github.com/drummonds/gopoppler/poppler"
	"github.com/labstack/echo/v4"
	"github.com/oklog/ulid/v2"
)

// Logger is global since we will need it everywhere
var Logger = slog.New(slog.DiscardHandler)

// ServerHandler will inject the variables needed into routes
type ServerHandler struct {
	Echo         *echo.Echo
	ServerConfig config.ServerConfig
	Renderer     pdfrenderer.Renderer
	Extractor    pdfrenderer.TextExtractor
}

// HealthResponse is returned by the health check
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// VersionResponse describes the native library and configured backends
type VersionResponse struct {
	Poppler       string `json:"poppler"`
	RenderBackend string `json:"renderBackend"`
	TextBackend   string `json:"textBackend"`
}

// PageInfo describes a single page
type PageInfo struct {
	Index  int     `json:"index"`
	Label  string  `json:"label,omitempty"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// InfoResponse carries document metadata and page sizes
type InfoResponse struct {
	ID string `json:"id"`
	poppler.Info
	PageSizes []PageInfo `json:"pageSizes"`
}

// ExtractTextResponse carries the text of every page
type ExtractTextResponse struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

// ToImageResponse carries one rendered page
type ToImageResponse struct {
	ID     string `json:"id"`
	Page   int    `json:"page"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Image  string `json:"image"` // base64 encoded PNG
	Error  string `json:"error,omitempty"`
}

// RegisterRoutes adds every service route to the echo instance
func (serverHandler *ServerHandler) RegisterRoutes() {
	e := serverHandler.Echo
	e.GET("/health", serverHandler.Health)
	e.GET("/api/version", serverHandler.GetVersion)
	e.POST("/api/pdf/info", serverHandler.GetInfo)
	e.POST("/api/pdf/extract-text", serverHandler.ExtractText)
	e.POST("/api/pdf/to-image", serverHandler.ToImage)
}

// Health reports that the service is up
// @Summary Health check
// @Tags Admin
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (serverHandler *ServerHandler) Health(context echo.Context) error {
	return context.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// GetVersion reports the poppler version and the configured backends
// @Summary Library version
// @Tags Admin
// @Produce json
// @Success 200 {object} VersionResponse
// @Router /api/version [get]
func (serverHandler *ServerHandler) GetVersion(context echo.Context) error {
	response := VersionResponse{Poppler: poppler.Version()}
	if serverHandler.Renderer != nil {
		response.RenderBackend = serverHandler.Renderer.Name()
	}
	if serverHandler.Extractor != nil {
		response.TextBackend = serverHandler.Extractor.Name()
	}
	return context.JSON(http.StatusOK, response)
}

// upload is a PDF posted as the multipart field "pdf"
type upload struct {
	id       ulid.ULID
	name     string
	data     []byte
	password string
}

func (serverHandler *ServerHandler) readUpload(context echo.Context) (*upload, error) {
	maxBytes := serverHandler.ServerConfig.MaxUploadMB << 20
	if maxBytes <= 0 {
		maxBytes = 32 << 20
	}
	request := context.Request()
	request.Body = http.MaxBytesReader(context.Response(), request.Body, maxBytes)

	file, header, err := request.FormFile("pdf")
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "No PDF file provided")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Failed to read PDF file")
	}
	if len(data) == 0 {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Uploaded PDF is empty")
	}
	u := &upload{
		id:       ulid.Make(),
		name:     header.Filename,
		data:     data,
		password: request.FormValue("password"),
	}
	Logger.Info("Received PDF", "id", u.id, "file", u.name, "size", len(data))
	return u, nil
}

// documentError maps binding errors onto HTTP errors
func documentError(id ulid.ULID, err error) error {
	var (
		nulErr  *poppler.NulError
		popErr  *poppler.Error
		loadErr *poppler.LoadError
	)
	switch {
	case errors.As(err, &loadErr):
		Logger.Error("Poppler unavailable", "id", id, "error", err)
		return echo.NewHTTPError(http.StatusServiceUnavailable, "PDF library unavailable")
	case errors.Is(err, poppler.ErrEmptyData), errors.Is(err, pdfrenderer.ErrPageRange),
		errors.As(err, &nulErr), errors.As(err, &popErr):
		Logger.Warn("Rejected document", "id", id, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		Logger.Error("Document processing failed", "id", id, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

// GetInfo returns metadata and page sizes for an uploaded PDF
// @Summary Document information
// @Tags PDF
// @Accept multipart/form-data
// @Produce json
// @Param pdf formData file true "PDF document"
// @Param password formData string false "Document password"
// @Success 200 {object} InfoResponse
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Router /api/pdf/info [post]
func (serverHandler *ServerHandler) GetInfo(context echo.Context) error {
	u, err := serverHandler.readUpload(context)
	if err != nil {
		return err
	}
	doc, err := poppler.NewFromData(u.data, u.password)
	if err != nil {
		return documentError(u.id, err)
	}
	defer doc.Close()

	response := InfoResponse{ID: u.id.String(), Info: doc.Info()}
	response.PageSizes = make([]PageInfo, 0, response.Pages)
	for i := 0; i < response.Pages; i++ {
		page, ok := doc.Page(i)
		if !ok {
			Logger.Warn("Page unavailable", "id", u.id, "page", i)
			continue
		}
		info := PageInfo{Index: i}
		info.Width, info.Height = page.Size()
		info.Label, _ = page.Label()
		page.Close()
		response.PageSizes = append(response.PageSizes, info)
	}
	return context.JSON(http.StatusOK, response)
}

// ExtractText returns the text of every page, separated by form feeds
// @Summary Extract text
// @Tags PDF
// @Accept multipart/form-data
// @Produce json
// @Param pdf formData file true "PDF document"
// @Param password formData string false "Document password (poppler backend only)"
// @Success 200 {object} ExtractTextResponse
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Router /api/pdf/extract-text [post]
func (serverHandler *ServerHandler) ExtractText(context echo.Context) error {
	u, err := serverHandler.readUpload(context)
	if err != nil {
		return err
	}
	extractor := serverHandler.Extractor
	if _, isPoppler := extractor.(*pdfrenderer.PopplerExtractor); isPoppler && u.password != "" {
		extractor = &pdfrenderer.PopplerExtractor{Password: u.password}
	}
	text, err := extractor.ExtractText(u.data)
	if err != nil {
		return documentError(u.id, err)
	}
	return context.JSON(http.StatusOK, ExtractTextResponse{ID: u.id.String(), Text: text})
}

// ToImage renders one page to a PNG
// @Summary Render a page
// @Tags PDF
// @Accept multipart/form-data
// @Produce json
// @Param pdf formData file true "PDF document"
// @Param password formData string false "Document password (poppler backends only)"
// @Param page formData int false "Zero-based page index"
// @Param width formData int false "Resize to this width in pixels"
// @Success 200 {object} ToImageResponse
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Router /api/pdf/to-image [post]
func (serverHandler *ServerHandler) ToImage(context echo.Context) error {
	u, err := serverHandler.readUpload(context)
	if err != nil {
		return err
	}
	pageIndex, err := formInt(context, "page", 0)
	if err != nil || pageIndex < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid page")
	}
	width, err := formInt(context, "width", serverHandler.ServerConfig.ThumbnailWidth)
	if err != nil || width < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid width")
	}

	renderer := serverHandler.Renderer
	if withPassword, ok := renderer.(pdfrenderer.PasswordRenderer); ok && u.password != "" {
		renderer = withPassword.WithPassword(u.password)
	}
	images, err := renderer.RenderPDF(u.data, pageIndex)
	if err != nil {
		return documentError(u.id, err)
	}
	img := images[0]
	if width > 0 && width != img.Bounds().Dx() {
		// Resize and sharpen the same way thumbnails always have been
		img = imaging.Sharpen(imaging.Resize(img, width, 0, imaging.Lanczos), 0.5)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return documentError(u.id, fmt.Errorf("failed to encode PNG: %w", err))
	}
	Logger.Debug("Rendered page", "id", u.id, "page", pageIndex, "backend", renderer.Name())

	return context.JSON(http.StatusOK, ToImageResponse{
		ID:     u.id.String(),
		Page:   pageIndex,
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
		Image:  base64.StdEncoding.EncodeToString(buf.Bytes()),
	})
}

func formInt(context echo.Context, key string, defaultValue int) (int, error) {
	value := context.FormValue(key)
	if value == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(value)
}
