package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"finsight/internal/analysis"
	"finsight/internal/cache"
	"finsight/internal/charts"
	"finsight/internal/core"
	fileingest "finsight/internal/ingest/file"
	"finsight/internal/log"
	"finsight/internal/session"
	"finsight/internal/storage"
)

var errMissingFile = errors.New("no file uploaded")

const maxUploadsListing = 200

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if !s.templatesLoaded(w, r) {
		return
	}
	data := struct {
		HasSession    bool
		Source        string
		SheetsEnabled bool
		MaxUploadMB   int64
	}{
		SheetsEnabled: s.sheets != nil,
		MaxUploadMB:   s.maxUpload >> 20,
	}
	if sess, err := s.store.Current(); err == nil {
		data.HasSession = true
		data.Source = sess.Source
	}
	s.render(w, r, "index.html", data)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Current()
	if err != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if !s.templatesLoaded(w, r) {
		return
	}

	data := struct {
		Session     *session.Session
		Report      core.AnalysisReport
		SavingsRate string
		Charts      []core.ChartKind
	}{
		Session: sess,
		Report:  sess.Report,
		Charts:  core.ChartKinds(),
	}
	if rate, ok := analysis.SavingsRate(sess.Report); ok {
		data.SavingsRate = rate.StringFixed(1)
	}
	s.render(w, r, "dashboard.html", data)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if r.ContentLength > s.maxUpload {
		s.writeError(w, r, &http.MaxBytesError{Limit: s.maxUpload}, log.OpUpload)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)

	src, err := s.readUpload(r)
	if err != nil {
		s.writeError(w, r, err, log.OpUpload)
		return
	}

	sess, err := s.svc.Ingest(ctx, src)
	if err != nil {
		s.writeError(w, r, err, log.OpUpload)
		return
	}
	s.countUpload()
	s.respondIngested(w, r, sess)
}

func (s *Server) readUpload(r *http.Request) (*fileingest.Source, error) {
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", errMissingFile, err)
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errMissingFile, err)
	}
	defer file.Close()

	if strings.TrimSpace(header.Filename) == "" {
		return nil, errMissingFile
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read upload %s: %w", header.Filename, err)
	}
	return fileingest.NewSource(header.Filename, data)
}

func (s *Server) handleImportSheets(w http.ResponseWriter, r *http.Request) {
	if s.sheets == nil {
		ErrorResponse(http.StatusNotFound, "google sheets import not configured").Write(w)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), importTimeout)
	defer cancel()

	sess, err := s.svc.Ingest(ctx, s.sheets)
	if err != nil {
		s.writeError(w, r, err, log.OpImport)
		return
	}
	s.countUpload()
	s.respondIngested(w, r, sess)
}

type ingestResponse struct {
	SessionID string `json:"session_id"`
	Source    string `json:"source"`
	RowsIn    int    `json:"rows_in"`
	RowsKept  int    `json:"rows_kept"`
}

func (s *Server) respondIngested(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if !wantsJSON(r) {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	NewResponse().JSON(ingestResponse{
		SessionID: sess.ID.String(),
		Source:    sess.Source,
		RowsIn:    sess.RowsIn,
		RowsKept:  sess.RowsKept(),
	}).Write(w)
}

type summaryResponse struct {
	SessionID string    `json:"session_id"`
	Source    string    `json:"source"`
	RowsIn    int       `json:"rows_in"`
	RowsKept  int       `json:"rows_kept"`
	CreatedAt time.Time `json:"created_at"`
	core.AnalysisReport
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Current()
	if err != nil {
		s.writeError(w, r, err, log.OpRender)
		return
	}
	NewResponse().JSON(summaryResponse{
		SessionID:      sess.ID.String(),
		Source:         sess.Source,
		RowsIn:         sess.RowsIn,
		RowsKept:       sess.RowsKept(),
		CreatedAt:      sess.CreatedAt,
		AnalysisReport: sess.Report,
	}).Write(w)
}

// handleChart serves /api/charts/{name} as a JSON table and
// /api/charts/{name}.png as a rendered image.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if base, ok := strings.CutSuffix(name, ".png"); ok {
		s.handleChartImage(w, r, base)
		return
	}

	table, _, err := s.store.Chart(name)
	if err != nil {
		s.writeError(w, r, err, log.OpRender)
		return
	}
	NewResponse().JSON(charts.NewDataset(table)).Write(w)
}

func (s *Server) handleChartImage(w http.ResponseWriter, r *http.Request, name string) {
	table, sess, err := s.store.Chart(name)
	if err != nil {
		s.writeError(w, r, err, log.OpRender)
		return
	}

	key := cache.ChartKey(sess.ID, table.Kind)
	img, ok := s.chartCache.Get(key)
	if ok {
		atomic.AddInt64(&s.metrics.chartHits, 1)
	} else {
		atomic.AddInt64(&s.metrics.chartMisses, 1)
		img, err = s.renderer.Render(table)
		if err != nil {
			s.writeError(w, r, err, log.OpRender)
			return
		}
		// a session may have been replaced while rendering; the key still
		// names the session the image was drawn from
		s.chartCache.Set(key, img)
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.Header().Set("Content-Length", strconv.Itoa(len(img)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img)
}

func (s *Server) handleUploads(w http.ResponseWriter, r *http.Request) {
	limit := storage.DefaultRecentLimit
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			ErrorResponse(http.StatusBadRequest, "invalid limit").Write(w)
			return
		}
		limit = min(n, maxUploadsListing)
	}

	recs, err := s.svc.Recent(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err, log.OpList)
		return
	}
	if recs == nil {
		recs = []storage.UploadRecord{}
	}
	NewResponse().JSON(map[string]any{"uploads": recs}).Write(w)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.metrics.started).Round(time.Second).String(),
	}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}
	checks["chart_cache"] = map[string]any{"entries": s.chartCache.Size()}
	checks["rate_limiter"] = map[string]any{"active_clients": s.rateLimiter.GetMetrics().ClientCount}
	checks["sheets"] = s.sheets != nil

	_, err := s.store.Current()
	NewResponse().Status(httpStatus).JSON(map[string]any{
		"status":         status,
		"session_active": err == nil,
		"timestamp":      time.Now().Format(time.RFC3339),
		"checks":         checks,
	}).Write(w)
}

// handleMetrics exposes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	traced := s.traceMiddleware.GetMetrics()
	limits := s.rateLimiter.GetMetrics()
	_, sessErr := s.store.Current()
	active := 0
	if sessErr == nil {
		active = 1
	}

	writeMetric(w, "http_requests_total", "counter", "Total number of HTTP requests", traced.TotalRequests)
	writeMetric(w, "datasets_ingested_total", "counter", "Datasets analyzed since start", atomic.LoadInt64(&s.metrics.uploads))
	writeMetric(w, "session_active", "gauge", "Whether a dataset is loaded", int64(active))
	writeMetric(w, "chart_cache_hits_total", "counter", "Chart image cache hits", atomic.LoadInt64(&s.metrics.chartHits))
	writeMetric(w, "chart_cache_misses_total", "counter", "Chart image cache misses", atomic.LoadInt64(&s.metrics.chartMisses))
	writeMetric(w, "chart_cache_entries", "gauge", "Cached chart images", int64(s.chartCache.Size()))
	writeMetric(w, "rate_limit_rejected_total", "counter", "Requests rejected by the rate limiter", limits.Rejected)
	writeMetric(w, "suspicious_requests_total", "counter", "Requests flagged by the detector", s.detector.SuspiciousCount())
	writeMetric(w, "uptime_seconds", "gauge", "Process uptime in seconds", int64(time.Since(s.metrics.started).Seconds()))
}

func writeMetric(w io.Writer, name, kind, help string, v int64) {
	fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %d\n\n", name, help, name, kind, name, v)
}

func (s *Server) templatesLoaded(w http.ResponseWriter, r *http.Request) bool {
	if s.templates != nil {
		return true
	}
	log.FromContext(r.Context()).WithComponent(log.ComponentTemplate).ErrorContext(r.Context(), "Templates not loaded",
		log.FieldPath, r.URL.Path)
	http.Error(w, "templates not loaded", http.StatusInternalServerError)
	return false
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			log.FieldError, err, "template", name)
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}

// writeError maps err to a status and JSON body. Client errors log at warn,
// server errors at error.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, op string) {
	status, msg := statusFor(err)
	logger := log.FromContext(r.Context())
	fields := log.NewFields().WithError(err).WithOperation(op)
	if name := r.PathValue("name"); name != "" {
		fields = fields.WithChart(name)
	}

	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed", fields.ToSlice()...)
	} else {
		logger.WarnContext(r.Context(), "Request rejected", fields.ToSlice()...)
	}

	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}
	ErrorResponse(status, msg).Write(w)
}
