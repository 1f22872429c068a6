// Package handlers serves the upload-and-download front end: an export is
// posted to /upload, converted, and the workbook is fetched from /download/.
package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/jalad-shrimali/callreport/calllog"
	"github.com/jalad-shrimali/callreport/config"
	"github.com/jalad-shrimali/callreport/convert"
	"github.com/jalad-shrimali/callreport/metrics"
)

const multipartMemory = 8 << 20

// Server holds what every request needs.
type Server struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Recorder
}

// NewServer builds a Server. rec may be nil.
func NewServer(cfg *config.Config, logger *slog.Logger, rec *metrics.Recorder) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{cfg: cfg, logger: logger, metrics: rec}
}

// Routes returns the router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	r.Post("/upload", s.Upload)
	r.Handle("/download/*", http.StripPrefix("/download/",
		http.FileServer(http.Dir(s.cfg.Paths.OutputDir))))
	return r
}

// UploadResponse is returned after a successful conversion.
type UploadResponse struct {
	RunID     string          `json:"run_id"`
	Download  string          `json:"download"`
	RowsRead  int             `json:"rows_read"`
	Excluded  int             `json:"excluded"`
	Summary   calllog.Summary `json:"summary"`
	Callbacks int             `json:"callbacks"`
	Late      int             `json:"late_callbacks"`
	Warnings  []string        `json:"warnings,omitempty"`
}

// ErrorResponse describes a rejected upload.
type ErrorResponse struct {
	Status int    `json:"status"`
	Error  string `json:"error"`
	Kind   string `json:"kind,omitempty"`
	Line   int    `json:"line,omitempty"`
	Field  string `json:"field,omitempty"`
	Value  string `json:"value,omitempty"`
}

// Upload accepts a multipart form with the export in "file" and an optional
// exclusion list in "exclusions".
func (s *Server) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		status := http.StatusBadRequest
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			status = http.StatusRequestEntityTooLarge
		}
		s.fail(w, r, status, err)
		return
	}

	fh, hdr, err := r.FormFile("file")
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, fmt.Errorf("form field \"file\": %w", err))
		return
	}
	defer fh.Close()

	runID := uuid.NewString()
	logger := s.logger.With(
		slog.String("run_id", runID),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("upload", hdr.Filename))

	name := runID + "_callbacks.xlsx"
	rep, status, err := s.run(r, runID, fh, hdr.Filename, name, logger)
	if err != nil {
		s.fail(w, r, status, err)
		return
	}

	resp := UploadResponse{
		RunID:     runID,
		Download:  "/download/" + name,
		RowsRead:  rep.RowsRead,
		Excluded:  rep.Excluded,
		Summary:   rep.Summary,
		Callbacks: len(rep.Callbacks),
	}
	for _, cb := range rep.Callbacks {
		if cb.Exceeds(rep.DelayThreshold) {
			resp.Late++
		}
	}
	for _, warn := range rep.Warnings {
		resp.Warnings = append(resp.Warnings, warn.Error())
	}
	render.JSON(w, r, resp)
}

// run stores the uploaded files under the upload dir, converts them into
// output dir/name and removes the stored copies before returning. On failure
// it returns the HTTP status to answer with.
func (s *Server) run(r *http.Request, runID string, export io.Reader, filename, name string, logger *slog.Logger) (*calllog.Report, int, error) {
	for _, d := range []string{s.cfg.Paths.UploadDir, s.cfg.Paths.OutputDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, http.StatusInternalServerError, err
		}
	}

	src := filepath.Join(s.cfg.Paths.UploadDir, runID+"_"+safeName(filename, "calls.tsv"))
	if err := saveUploaded(export, src); err != nil {
		return nil, http.StatusInternalServerError, err
	}
	defer os.Remove(src)

	lf, lh, err := optionalFile(r, "exclusions")
	if err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("form field \"exclusions\": %w", err)
	}
	var listPath string
	if lf != nil {
		defer lf.Close()
		listPath = filepath.Join(s.cfg.Paths.UploadDir, runID+"_exclusions"+filepath.Ext(safeName(lh.Filename, "list.txt")))
		if err := saveUploaded(lf, listPath); err != nil {
			return nil, http.StatusInternalServerError, err
		}
		defer os.Remove(listPath)
	}

	in, err := os.Open(src)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	defer in.Close()

	rep, err := convert.Run(r.Context(), convert.Job{
		Input:      in,
		Output:     filepath.Join(s.cfg.Paths.OutputDir, name),
		Exclusions: listPath,
	}, s.cfg, logger, s.metrics)
	if err != nil {
		if convert.IsDataError(err) {
			return nil, http.StatusUnprocessableEntity, err
		}
		return nil, http.StatusInternalServerError, err
	}
	return rep, http.StatusOK, nil
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, err error) {
	resp := ErrorResponse{Status: status, Error: err.Error()}
	var ce *calllog.Error
	if errors.As(err, &ce) {
		resp.Kind = string(ce.Kind)
		resp.Line = ce.Row
		resp.Field = ce.Field
		resp.Value = ce.Value
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("upload failed", slog.Int("status", status), slog.String("error", err.Error()))
	}
	render.Status(r, status)
	render.JSON(w, r, resp)
}

// optionalFile is r.FormFile with an absent field reported as nil, nil.
func optionalFile(r *http.Request, key string) (multipart.File, *multipart.FileHeader, error) {
	f, hdr, err := r.FormFile(key)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil, nil
	}
	return f, hdr, err
}

// saveUploaded copies src to dst; a partial dst is removed on failure.
func saveUploaded(src io.Reader, dst string) error {
	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		os.Remove(dst)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(dst)
		return err
	}
	return nil
}

// safeName strips directories from a client-supplied file name.
func safeName(name, fallback string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return fallback
	}
	return name
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}
