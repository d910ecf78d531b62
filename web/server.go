// Package web serves the local read-only dashboard; it has no auth and is
// meant to listen on localhost.
package web

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"crimemap/choropleth"
	"crimemap/config"
	"crimemap/geo"
	"crimemap/importer"
	"crimemap/internal/ingest"
	"crimemap/internal/observability"
	"crimemap/output"
	"crimemap/report"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed templates/*.html
var templateFS embed.FS

const maxUploadBytes = 32 << 20

// Dependencies are the collaborators of a Server. Dataset and Boundaries may
// be nil when loading them failed; the affected views then report the data
// as unavailable.
type Dependencies struct {
	Importer   *ingest.Service
	Dataset    *report.Dataset
	Boundaries *geo.Boundaries
	Metrics    *observability.Metrics
	Logger     *slog.Logger
	Clock      clockwork.Clock
}

type Server struct {
	cfg        config.Config
	importer   *ingest.Service
	boundaries *geo.Boundaries
	metrics    *observability.Metrics
	logger     *slog.Logger
	clock      clockwork.Clock
	mux        *http.ServeMux

	mu      sync.RWMutex
	dataset *report.Dataset
}

type recordsResponse struct {
	Year    int             `json:"year"`
	Query   string          `json:"q,omitempty"`
	Count   int             `json:"count"`
	Records []report.Record `json:"records"`
}

type periodsResponse struct {
	Periods []int `json:"periods"`
	Latest  int   `json:"latest"`
}

type summaryResponse struct {
	Year    int            `json:"year"`
	Metric  report.Metric  `json:"metric"`
	Summary report.Summary `json:"summary"`
}

type legendResponse struct {
	Metric  report.Metric     `json:"metric"`
	Label   string            `json:"label"`
	Scale   string            `json:"scale"`
	Entries []geo.LegendEntry `json:"entries"`
}

type regionResponse struct {
	Region string         `json:"region"`
	Year   int            `json:"year"`
	Record *report.Record `json:"record"`
}

type importResponse struct {
	DatasetID      string         `json:"datasetId,omitempty"`
	Outcome        string         `json:"outcome"`
	RowsRead       int            `json:"rowsRead"`
	PeriodHeaders  int            `json:"periodHeaders"`
	RecordsEmitted int            `json:"recordsEmitted"`
	RowsSkipped    int            `json:"rowsSkipped"`
	Skipped        map[string]int `json:"skipped,omitempty"`
	Error          string         `json:"error,omitempty"`
}

type healthDataset struct {
	ID         string  `json:"id"`
	Source     string  `json:"source"`
	Records    int     `json:"records"`
	ImportedAt string  `json:"importedAt"`
	AgeSeconds float64 `json:"ageSeconds"`
}

type healthResponse struct {
	Status     string         `json:"status"`
	Dataset    *healthDataset `json:"dataset"`
	Boundaries int            `json:"boundaries"`
}

type errorResponse struct {
	Error string `json:"error"`
}

var errDatasetUnavailable = errors.New("dataset unavailable")

func NewServer(cfg config.Config, deps Dependencies) http.Handler {
	server := &Server{
		cfg:        cfg,
		importer:   deps.Importer,
		boundaries: deps.Boundaries,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		clock:      deps.Clock,
		dataset:    deps.Dataset,
	}
	if server.logger == nil {
		server.logger = slog.Default()
	}
	if server.clock == nil {
		server.clock = clockwork.NewRealClock()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", server.handleDashboard)
	mux.HandleFunc("GET /api/records", server.handleAPIRecords)
	mux.HandleFunc("GET /api/periods", server.handleAPIPeriods)
	mux.HandleFunc("GET /api/summary", server.handleAPISummary)
	mux.HandleFunc("GET /api/legend", server.handleAPILegend)
	mux.HandleFunc("GET /api/region", server.handleAPIRegion)
	mux.HandleFunc("GET /export.csv", server.handleExportCSV)
	mux.HandleFunc("GET /map.svg", server.handleMapSVG)
	mux.HandleFunc("POST /api/import", server.handleAPIImport)
	mux.HandleFunc("GET /healthz", server.handleHealthz)
	mux.Handle("GET /metrics", promhttp.Handler())
	server.mux = mux

	return server
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := s.clock.Now()
	recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(recorder, r)

	route := r.Pattern
	if route == "" {
		route = "unmatched"
	}
	s.metrics.ObserveRequest(route, strconv.Itoa(recorder.status), s.clock.Since(start))
}

func (s *Server) currentDataset() *report.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dataset
}

func (s *Server) swapDataset(dataset *report.Dataset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dataset = dataset
}

// view resolves the dataset and filter state shared by most handlers.
func (s *Server) view(r *http.Request) (*report.Dataset, viewQuery, []report.Record, error) {
	dataset := s.currentDataset()
	if dataset == nil {
		return nil, viewQuery{}, nil, errDatasetUnavailable
	}
	query, err := parseViewQuery(r.URL.Query(), dataset)
	if err != nil {
		return nil, viewQuery{}, nil, err
	}
	return dataset, query, dataset.Filter(query.Period, query.Search), nil
}

func (s *Server) writeViewError(w http.ResponseWriter, err error) {
	if errors.Is(err, errDatasetUnavailable) {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
}

func (s *Server) scaleFor(records []report.Record, metric report.Metric) geo.Scale {
	scale, err := geo.RecordScale(s.cfg.Map.Scale, records, metric)
	if err != nil {
		return geo.FixedScale()
	}
	return scale
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	dataset, query, records, err := s.view(r)
	if errors.Is(err, errDatasetUnavailable) {
		view := DashboardView{Title: s.cfg.Map.Title, Loading: true}
		if renderErr := renderTemplate(w, "dashboard.html", view); renderErr != nil {
			http.Error(w, renderErr.Error(), http.StatusInternalServerError)
		}
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	view := BuildDashboardView(s.cfg.Map.Title, dataset, s.boundaries, query, records, s.scaleFor(records, query.Metric))
	if err := renderTemplate(w, "dashboard.html", view); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleAPIRecords(w http.ResponseWriter, r *http.Request) {
	_, query, records, err := s.view(r)
	if err != nil {
		s.writeViewError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, recordsResponse{
		Year:    query.Period,
		Query:   query.Search,
		Count:   len(records),
		Records: records,
	})
}

func (s *Server) handleAPIPeriods(w http.ResponseWriter, _ *http.Request) {
	dataset := s.currentDataset()
	if dataset == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: errDatasetUnavailable.Error()})
		return
	}

	periods := dataset.Periods()
	if periods == nil {
		periods = []int{}
	}
	writeJSON(w, http.StatusOK, periodsResponse{Periods: periods, Latest: dataset.LatestPeriod()})
}

func (s *Server) handleAPISummary(w http.ResponseWriter, r *http.Request) {
	_, query, records, err := s.view(r)
	if err != nil {
		s.writeViewError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summaryResponse{
		Year:    query.Period,
		Metric:  query.Metric,
		Summary: report.Summarize(records, query.Metric),
	})
}

func (s *Server) handleAPILegend(w http.ResponseWriter, r *http.Request) {
	query := viewQuery{Metric: report.MetricTotal}
	var records []report.Record
	if dataset := s.currentDataset(); dataset != nil {
		var err error
		if query, err = parseViewQuery(r.URL.Query(), dataset); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		records = dataset.Filter(query.Period, query.Search)
	}

	mode := strings.ToLower(strings.TrimSpace(s.cfg.Map.Scale))
	if mode == "" {
		mode = geo.ScaleFixed
	}
	writeJSON(w, http.StatusOK, legendResponse{
		Metric:  query.Metric,
		Label:   query.Metric.Label(),
		Scale:   mode,
		Entries: s.scaleFor(records, query.Metric).Legend(),
	})
}

func (s *Server) handleAPIRegion(w http.ResponseWriter, r *http.Request) {
	if s.boundaries == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "boundaries unavailable"})
		return
	}

	lon, errLon := strconv.ParseFloat(strings.TrimSpace(r.URL.Query().Get("lon")), 64)
	lat, errLat := strconv.ParseFloat(strings.TrimSpace(r.URL.Query().Get("lat")), 64)
	if errLon != nil || errLat != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "lon and lat must be decimal degrees"})
		return
	}

	index := s.boundaries.RegionAt(lon, lat)
	if index < 0 {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no region at point"})
		return
	}

	response := regionResponse{Region: s.boundaries.Features[index].Name}
	if dataset := s.currentDataset(); dataset != nil {
		query, err := parseViewQuery(r.URL.Query(), dataset)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		response.Year = query.Period
		joined := geo.Join(dataset.Filter(query.Period, ""), s.boundaries)
		if record, ok := joined.Record(index); ok {
			response.Record = &record
		}
	}
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	_, query, records, err := s.view(r)
	if err != nil {
		s.writeViewError(w, err)
		return
	}

	quoting, err := output.ParseQuoting(s.cfg.Export.Quoting)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writer := &output.CSVWriter{Quoting: quoting}
	filename := output.ExportFileName(s.cfg.Export.FilePrefix, query.Period, writer.Extension())

	w.Header().Set("Content-Type", writer.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := writer.Write(w, records); err != nil {
		s.logger.Error("write csv export", "error", err)
	}
}

func (s *Server) handleMapSVG(w http.ResponseWriter, r *http.Request) {
	if s.boundaries == nil {
		http.Error(w, "boundaries unavailable", http.StatusServiceUnavailable)
		return
	}

	query := viewQuery{Metric: report.MetricTotal}
	var records []report.Record
	if dataset := s.currentDataset(); dataset != nil {
		var err error
		if query, err = parseViewQuery(r.URL.Query(), dataset); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		records = dataset.Filter(query.Period, query.Search)
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	err := choropleth.Render(w, "svg", s.boundaries, geo.Join(records, s.boundaries), s.scaleFor(records, query.Metric), choropleth.Options{
		Title:  s.cfg.Map.Title,
		Period: query.Period,
		Metric: query.Metric,
	})
	if err != nil {
		s.logger.Error("render map", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleAPIImport(w http.ResponseWriter, r *http.Request) {
	if s.importer == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "import disabled"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, fmt.Sprintf("parse multipart form: %v", err), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file upload", http.StatusBadRequest)
		return
	}
	defer file.Close()

	result, dataset, err := s.importer.ImportReader(r.Context(), file, header.Filename)
	response := importResponseFor(result)
	switch {
	case err == nil:
		s.swapDataset(dataset)
		response.DatasetID = dataset.ID
		writeJSON(w, http.StatusOK, response)
	case errors.Is(err, importer.ErrSheetNotFound), errors.Is(err, ingest.ErrNoRecords):
		response.Error = err.Error()
		if response.Outcome == "" {
			response.Outcome = "sheet_not_found"
		}
		writeJSON(w, http.StatusUnprocessableEntity, response)
	case result != nil:
		response.Error = err.Error()
		writeJSON(w, http.StatusInternalServerError, response)
	default:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
}

func importResponseFor(result *importer.Result) importResponse {
	if result == nil {
		return importResponse{}
	}
	skipped := make(map[string]int, len(result.Stats.Skipped))
	for reason, count := range result.Stats.Skipped {
		skipped[string(reason)] = count
	}
	return importResponse{
		Outcome:        string(result.Outcome),
		RowsRead:       result.Stats.RowsRead,
		PeriodHeaders:  result.Stats.PeriodHeaders,
		RecordsEmitted: result.Stats.RecordsEmitted,
		RowsSkipped:    result.Stats.RowsSkipped(),
		Skipped:        skipped,
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	response := healthResponse{Status: "ok"}
	if dataset := s.currentDataset(); dataset != nil {
		response.Dataset = &healthDataset{
			ID:         dataset.ID,
			Source:     dataset.Source,
			Records:    dataset.Len(),
			ImportedAt: dataset.ImportedAt.UTC().Format(time.RFC3339),
			AgeSeconds: s.clock.Since(dataset.ImportedAt).Seconds(),
		}
	} else {
		response.Status = "degraded"
	}
	if s.boundaries != nil {
		response.Boundaries = len(s.boundaries.Features)
	} else {
		response.Status = "degraded"
	}
	writeJSON(w, http.StatusOK, response)
}

func renderTemplate(w http.ResponseWriter, pageTemplate string, data any) error {
	tmpl, err := template.New("base.html").Funcs(template.FuncMap{
		"count":   formatCount,
		"decimal": formatDecimal,
		"swatch": func(value string) template.CSS {
			return template.CSS("background-color: " + value)
		},
	}).ParseFS(templateFS, "templates/base.html", "templates/"+pageTemplate)
	if err != nil {
		return fmt.Errorf("parse template %s: %w", pageTemplate, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base", data); err != nil {
		return fmt.Errorf("render template %s: %w", pageTemplate, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
