package web

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/camuig/robot-analytics/internal/analytics"
	"github.com/camuig/robot-analytics/internal/config"
	"github.com/camuig/robot-analytics/internal/ingest"
	"github.com/camuig/robot-analytics/internal/report"
	"github.com/camuig/robot-analytics/internal/sheet"
	"github.com/camuig/robot-analytics/internal/storage"
	"github.com/camuig/robot-analytics/internal/trades"
)

const recentUploadsLimit = 10

type Option struct {
	Value    string
	Label    string
	Selected bool
}

// BucketSlot describes one upload form. Previous is the last file recorded
// in the upload log when the bucket is empty in memory, e.g. after a restart.
type BucketSlot struct {
	Bucket   trades.Bucket
	Label    string
	FileName string
	Rows     int
	LoadedAt time.Time
	Previous *storage.UploadLog
}

type DashboardData struct {
	HasData  bool
	Error    string
	Notice   string
	Slots    []BucketSlot
	Groups   []Option
	Statuses []Option
	Periods  []Option
	Filter   analytics.FilterSpec
	RD       config.SliderConfig
	PackSize config.SliderConfig
	Combined *report.MetricsView
	ByBucket []report.BucketView
	Page     report.Page
	PrevURL  template.URL
	NextURL  template.URL
	CSVURL   template.URL
	Columns  []string
	Uploads  []storage.UploadLog
	Failed   int64
}

type metricsResponse struct {
	Filter   analytics.FilterSpec `json:"filter"`
	Combined *report.MetricsView  `json:"combined"`
	Raw      *analytics.Metrics   `json:"raw"`
	Buckets  []report.BucketView  `json:"buckets"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	s.renderDashboard(w, r, http.StatusOK, "")
}

func (s *Server) renderDashboard(w http.ResponseWriter, r *http.Request, status int, errMsg string) {
	q := r.URL.Query()
	spec := parseFilter(q, s.config.Filters)
	grid := spec.Categorical()
	all := s.store.Flatten()
	rows := analytics.Apply(all, grid)
	s.observe("dashboard", len(rows))

	data := DashboardData{
		HasData:  s.store.HasData(),
		Error:    errMsg,
		Notice:   q.Get("notice"),
		Slots:    s.slots(),
		Groups:   options(analytics.Groups(all), spec.Groups, nil),
		Statuses: options(trades.Statuses, spec.Statuses, nil),
		Periods:  options(trades.Periods, []string{spec.Period}, map[string]string{"": "Все"}),
		Filter:   spec,
		RD:       s.config.Filters.RD,
		PackSize: s.config.Filters.PackSize,
		ByBucket: report.FormatBuckets(analytics.ComputeByBucket(s.store, spec)),
		Page:     report.Paginate(rows, intParam(q, "page", 1), s.config.Web.PageSize),
		Columns:  report.RecordColumns,
	}
	if m := analytics.ComputeCombined(s.store, spec); m != nil {
		mv := report.FormatMetrics(*m)
		data.Combined = &mv
	}

	base := encodeFilter(spec)
	data.CSVURL = template.URL("/api/records.csv?" + encodeFilter(grid).Encode())
	if data.Page.HasPrev() {
		data.PrevURL = pageURL(base, data.Page.Prev())
	}
	if data.Page.HasNext() {
		data.NextURL = pageURL(base, data.Page.Next())
	}

	if s.history != nil {
		uploads, err := s.history.GetRecentUploads(recentUploadsLimit)
		if err != nil {
			s.logger.Error("get recent uploads", "error", err)
		}
		data.Uploads = uploads

		failed, err := s.history.CountFailedUploads()
		if err != nil {
			s.logger.Error("count failed uploads", "error", err)
		}
		data.Failed = failed
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.ExecuteTemplate(w, "dashboard.html", data); err != nil {
		s.logger.Error("execute template", "error", err)
	}
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes())

	res, status, err := s.upload(r)
	if err != nil {
		if wantsJSON(r) {
			writeJSON(w, status, map[string]string{"error": err.Error()})
			return
		}
		s.renderDashboard(w, r, status, "Ошибка при загрузке файла: "+err.Error())
		return
	}

	if wantsJSON(r) {
		writeJSON(w, http.StatusCreated, res)
		return
	}
	notice := url.Values{"notice": {res.Bucket.Label() + ": " + res.FileName}}
	http.Redirect(w, r, "/?"+notice.Encode(), http.StatusSeeOther)
}

func (s *Server) upload(r *http.Request) (*ingest.Result, int, error) {
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, http.StatusRequestEntityTooLarge, errors.New("file is too large")
		}
		return nil, http.StatusBadRequest, err
	}

	bucket, err := trades.ParseBucket(r.FormValue("bucket"))
	if err != nil {
		return nil, http.StatusBadRequest, err
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, http.StatusBadRequest, errors.New("no file selected")
	}
	defer file.Close()

	if !sheet.Supported(header.Filename) {
		return nil, http.StatusUnsupportedMediaType, sheet.ErrUnsupportedFormat
	}

	res, err := s.ingest.Upload(bucket, header.Filename, file)
	switch {
	case err == nil:
		return res, http.StatusCreated, nil
	case errors.Is(err, sheet.ErrUnsupportedFormat):
		return nil, http.StatusUnsupportedMediaType, err
	default:
		return nil, http.StatusUnprocessableEntity, err
	}
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	records, err := s.selectRecords(r.URL.Query())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	s.observe("records", len(records))

	q := r.URL.Query()
	if q.Has("page") {
		writeJSON(w, http.StatusOK, report.Paginate(records, intParam(q, "page", 1), intParam(q, "page_size", s.config.Web.PageSize)))
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleRecordsCSV(w http.ResponseWriter, r *http.Request) {
	records, err := s.selectRecords(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.observe("records_csv", len(records))

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="records.csv"`)
	if err := report.WriteRecordsCSV(w, records); err != nil {
		s.logger.Error("write records csv", "error", err)
	}
}

// selectRecords applies the grid filter to one bucket (bucket=...) or to
// all buckets pooled.
func (s *Server) selectRecords(q url.Values) ([]trades.TradeRecord, error) {
	spec := parseGridFilter(q)
	if b := q.Get("bucket"); b != "" {
		bucket, err := trades.ParseBucket(b)
		if err != nil {
			return nil, err
		}
		return analytics.Apply(s.store.Records(bucket), spec), nil
	}
	return analytics.Apply(s.store.Flatten(), spec), nil
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	spec := parseFilter(r.URL.Query(), s.config.Filters)

	resp := metricsResponse{
		Filter:  spec,
		Buckets: report.FormatBuckets(analytics.ComputeByBucket(s.store, spec)),
	}
	if m := analytics.ComputeCombined(s.store, spec); m != nil {
		mv := report.FormatMetrics(*m)
		resp.Combined = &mv
		resp.Raw = m
		s.observe("metrics", m.DealCount)
	} else {
		s.observe("metrics", 0)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGroups(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, analytics.Groups(s.store.Flatten()))
}

func (s *Server) handleUploads(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusOK, []storage.UploadLog{})
		return
	}
	uploads, err := s.history.GetRecentUploads(intParam(r.URL.Query(), "limit", recentUploadsLimit))
	if err != nil {
		s.logger.Error("get recent uploads", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to read upload history"})
		return
	}
	writeJSON(w, http.StatusOK, uploads)
}

func (s *Server) slots() []BucketSlot {
	slots := make([]BucketSlot, 0, len(s.store.Buckets()))
	for _, b := range s.store.Buckets() {
		slot := BucketSlot{Bucket: b, Label: b.Label()}
		if u, ok := s.store.LastUpload(b); ok {
			slot.FileName = u.FileName
			slot.Rows = u.Rows
			slot.LoadedAt = u.LoadedAt
		} else if s.history != nil {
			prev, err := s.history.GetLastSuccessfulUpload(string(b))
			if err != nil {
				s.logger.Error("get last upload", "bucket", string(b), "error", err)
			}
			slot.Previous = prev
		}
		slots = append(slots, slot)
	}
	return slots
}

func (s *Server) observe(endpoint string, n int) {
	if s.metrics == nil {
		return
	}
	s.metrics.FilterRequests.WithLabelValues(endpoint).Inc()
	s.metrics.FilteredRecords.Observe(float64(n))
}

func options(values, selected []string, labels map[string]string) []Option {
	sel := make(map[string]bool, len(selected))
	for _, v := range selected {
		sel[v] = true
	}
	out := make([]Option, 0, len(values))
	for _, v := range values {
		label := v
		if l, ok := labels[v]; ok {
			label = l
		}
		out = append(out, Option{Value: v, Label: label, Selected: sel[v]})
	}
	return out
}

func pageURL(base url.Values, page int) template.URL {
	q := url.Values{}
	for k, v := range base {
		q[k] = v
	}
	q.Set("page", formatInt(page))
	return template.URL("/?" + q.Encode())
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
