package server

import (
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nptlong93/lookml-filter-dashboard-validator/internal/analyzer"
	"github.com/nptlong93/lookml-filter-dashboard-validator/internal/parser"
)

// ErrorResponse is the JSON error payload for failed requests.
type ErrorResponse struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message"`
}

// BatchItem is the per-file outcome of a batch analysis request.
type BatchItem struct {
	Filename string           `json:"filename"`
	Result   *analyzer.Result `json:"result,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// AnalyzeDashboard handles POST /api/v1/dashboards/analyze. It accepts
// one dashboard definition under the "file" form field and returns the
// full analysis result.
func (s *Server) AnalyzeDashboard(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		s.handleError(c, http.StatusBadRequest, "Invalid file upload", err)
		return
	}
	defer file.Close()

	result, err := s.analyzeUpload(file, header)
	if err != nil {
		status := http.StatusInternalServerError
		message := "Failed to analyze dashboard"
		switch {
		case errors.Is(err, errUploadTooLarge):
			status = http.StatusRequestEntityTooLarge
			message = "Uploaded file is too large"
		case isClientError(err):
			status = http.StatusUnprocessableEntity
			message = "Dashboard definition is invalid"
		}
		s.handleError(c, status, message, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// AnalyzeBatch handles POST /api/v1/dashboards/analyze/batch. It accepts
// multiple definitions under the "files" form field; per-file failures
// are reported inline and never fail the whole request.
func (s *Server) AnalyzeBatch(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		s.handleError(c, http.StatusBadRequest, "Invalid form data", err)
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		s.handleError(c, http.StatusBadRequest, "No files provided", nil)
		return
	}

	items := make([]BatchItem, len(files))
	for i, header := range files {
		items[i] = BatchItem{Filename: header.Filename}

		file, err := header.Open()
		if err != nil {
			items[i].Error = err.Error()
			continue
		}

		result, err := s.analyzeUpload(file, header)
		file.Close()
		if err != nil {
			items[i].Error = err.Error()
			continue
		}
		items[i].Result = result
	}

	c.JSON(http.StatusOK, gin.H{
		"count":   len(items),
		"results": items,
	})
}

// Healthz reports liveness.
func (s *Server) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": s.version,
	})
}

func (s *Server) analyzeUpload(file multipart.File, header *multipart.FileHeader) (*analyzer.Result, error) {
	start := time.Now()

	if s.config.MaxUploadBytes > 0 && header.Size > s.config.MaxUploadBytes {
		ObserveAnalysis(time.Since(start), OutcomeError)
		return nil, errUploadTooLarge
	}

	reader := io.Reader(file)
	if s.config.MaxUploadBytes > 0 {
		reader = io.LimitReader(file, s.config.MaxUploadBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		ObserveAnalysis(time.Since(start), OutcomeError)
		return nil, err
	}
	if s.config.MaxUploadBytes > 0 && int64(len(data)) > s.config.MaxUploadBytes {
		ObserveAnalysis(time.Since(start), OutcomeError)
		return nil, errUploadTooLarge
	}
	ObserveUpload(int64(len(data)))

	result, err := analyzer.Analyze(data, header.Filename, analyzer.Options{
		NonFilterableTypes: s.config.NonFilterableTypes,
		Verbose:            s.config.Verbose,
	})
	if err != nil {
		ObserveAnalysis(time.Since(start), OutcomeError)
		return nil, err
	}

	ObserveAnalysis(time.Since(start), OutcomeSuccess)
	return result, nil
}

var errUploadTooLarge = errors.New("uploaded file exceeds the size limit")

func isClientError(err error) bool {
	var malformed *parser.MalformedDefinitionError
	var duplicate *parser.DuplicateFilterError
	return errors.As(err, &malformed) || errors.As(err, &duplicate)
}

func (s *Server) handleError(c *gin.Context, status int, message string, err error) {
	slog.Warn(message,
		slog.String("path", c.Request.URL.Path),
		slog.Any("error", err),
	)

	response := ErrorResponse{
		Message: message,
	}
	if err != nil {
		response.Error = err.Error()
	}

	c.JSON(status, response)
}
