package web

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camuig/robot-analytics/internal/analytics"
	"github.com/camuig/robot-analytics/internal/config"
	"github.com/camuig/robot-analytics/internal/ingest"
	"github.com/camuig/robot-analytics/internal/logger"
	"github.com/camuig/robot-analytics/internal/observability"
	"github.com/camuig/robot-analytics/internal/periods"
	"github.com/camuig/robot-analytics/internal/storage"
	"github.com/camuig/robot-analytics/internal/trades"
)

const twoWeeksCSV = "group_name,rd_main_class,pack_size_round,total_profit2,for_analysis_group,trade_period\n" +
	"alpha,0.02,10,10,REAL,WEEKEND\n" +
	"alpha,0.02,20,-5,REAL,OTHER\n" +
	"beta,0.03,30,20,POSSIBLE,WEEKEND\n" +
	"beta,0.01,90,-5,RESTRICTED,OTHER\n" +
	"gamma,0.2,300,100,REAL,WEEKEND\n"

type memHistory struct {
	logs []storage.UploadLog
}

func (m *memHistory) SaveUpload(log *storage.UploadLog) error {
	m.logs = append(m.logs, *log)
	return nil
}

func (m *memHistory) GetRecentUploads(limit int) ([]storage.UploadLog, error) {
	out := make([]storage.UploadLog, 0, limit)
	for i := len(m.logs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.logs[i])
	}
	return out, nil
}

func (m *memHistory) GetLastSuccessfulUpload(bucket string) (*storage.UploadLog, error) {
	for i := len(m.logs) - 1; i >= 0; i-- {
		if m.logs[i].Bucket == bucket && m.logs[i].Status == storage.UploadStatusOK {
			log := m.logs[i]
			return &log, nil
		}
	}
	return nil, nil
}

func (m *memHistory) CountFailedUploads() (int64, error) {
	var n int64
	for _, l := range m.logs {
		if l.Status == storage.UploadStatusFailed {
			n++
		}
	}
	return n, nil
}

type testServer struct {
	store   *periods.Store
	history *memHistory
	handler http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := config.Default()
	log := logger.Discard()
	store := periods.NewStore()
	history := &memHistory{}
	metrics := observability.NewMetrics(nil)
	svc := ingest.NewService(store, history, nil, metrics, log)

	srv, err := NewServer(store, svc, history, metrics, cfg, log)
	require.NoError(t, err)

	return &testServer{store: store, history: history, handler: srv.Handler()}
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func uploadRequest(t *testing.T, bucket, fileName, body string, asJSON bool) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("bucket", bucket))
	fw, err := mw.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = fw.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if asJSON {
		req.Header.Set("Accept", "application/json")
	}
	return req
}

func (ts *testServer) load(t *testing.T) {
	t.Helper()
	rec := ts.do(uploadRequest(t, "2_weeks", "two-weeks.csv", twoWeeksCSV, true))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestUpload_JSON(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(uploadRequest(t, "2_weeks", "two-weeks.csv", twoWeeksCSV, true))

	require.Equal(t, http.StatusCreated, rec.Code)
	var res ingest.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 5, res.Rows)
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, res.Groups)
	assert.Len(t, ts.store.Records(trades.BucketTwoWeeks), 5)
}

func TestUpload_FormRedirects(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(uploadRequest(t, "1_month", "month.csv", twoWeeksCSV, false))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "notice=")
}

func TestUpload_Errors(t *testing.T) {
	tests := []struct {
		name     string
		bucket   string
		fileName string
		body     string
		status   int
	}{
		{"unknown bucket", "3_months", "a.csv", twoWeeksCSV, http.StatusBadRequest},
		{"unsupported extension", "2_weeks", "a.txt", twoWeeksCSV, http.StatusUnsupportedMediaType},
		{"empty file", "2_weeks", "a.csv", "group_name\n", http.StatusUnprocessableEntity},
		{"corrupt workbook", "2_weeks", "a.xlsx", "not a workbook", http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.load(t)

			rec := ts.do(uploadRequest(t, tt.bucket, tt.fileName, tt.body, true))

			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), "error")
			assert.Len(t, ts.store.Records(trades.BucketTwoWeeks), 5)
		})
	}
}

func TestUpload_FormErrorRendersMessage(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(uploadRequest(t, "2_weeks", "empty.csv", "", false))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Ошибка при загрузке файла")
}

func TestDashboard(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "Анализ коэффициента Шарпа")

	ts.load(t)
	rec = ts.do(httptest.NewRequest(http.MethodGet, "/?status=REAL&rd_min=0&rd_max=0.5&ps_min=0&ps_max=500", nil))

	body := rec.Body.String()
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body, "Анализ коэффициента Шарпа")
	assert.Contains(t, body, "two-weeks.csv")
	assert.Contains(t, body, "gamma")
	assert.Contains(t, body, "нет данных")
	assert.Contains(t, body, "История загрузок")
}

func TestDashboard_GridIgnoresZoneWindow(t *testing.T) {
	ts := newTestServer(t)
	ts.load(t)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/", nil))

	body := rec.Body.String()
	require.Equal(t, http.StatusOK, rec.Code)
	// gamma (rd 0.2, pack size 300) is outside the default window but stays in the grid
	assert.Contains(t, body, "5 записей")
	assert.Contains(t, body, "<td>0.20</td>")
	assert.NotContains(t, body, "rd_min=0.01")

	rec = ts.do(httptest.NewRequest(http.MethodGet, "/?status=REAL", nil))
	assert.Contains(t, rec.Body.String(), "3 записей")
}

func TestRecordsEndpoint_DefaultsToWholeRange(t *testing.T) {
	ts := newTestServer(t)
	ts.load(t)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/records?status=REAL", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var recs []trades.TradeRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &recs))
	require.Len(t, recs, 3)
	assert.Equal(t, "gamma", recs[2].GroupName)
	assert.InDelta(t, 0.2, recs[2].RDMainClass, 1e-9)
}

func TestDashboard_ShowsHistoryAfterRestart(t *testing.T) {
	ts := newTestServer(t)
	ts.history.logs = append(ts.history.logs,
		storage.UploadLog{BatchID: "old", Bucket: "1_month", FileName: "march.xlsx", Rows: 40, Status: storage.UploadStatusOK},
		storage.UploadLog{BatchID: "bad", Bucket: "2_weeks", FileName: "broken.xlsx", Status: storage.UploadStatusFailed, Error: "zip: not a valid zip file"},
	)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/", nil))

	body := rec.Body.String()
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body, "ранее: march.xlsx")
	assert.NotContains(t, body, "ранее: broken.xlsx")
	assert.Contains(t, body, "Неудачных загрузок: 1")
	assert.NotContains(t, body, "Анализ коэффициента Шарпа")
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.load(t)

	// default window rd [0.01, 0.03], pack size [0, 90] drops gamma
	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Combined struct {
			DealCount     int    `json:"deal_count"`
			TotalProfit   string `json:"total_profit"`
			WinPercentage string `json:"win_percentage"`
		} `json:"combined"`
		Raw     analytics.Metrics `json:"raw"`
		Buckets []struct {
			Bucket  string          `json:"bucket"`
			HasData bool            `json:"has_data"`
			Metrics json.RawMessage `json:"metrics"`
		} `json:"buckets"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, 4, resp.Combined.DealCount)
	assert.Equal(t, "20.00", resp.Combined.TotalProfit)
	assert.Equal(t, "50.0%", resp.Combined.WinPercentage)
	assert.InDelta(t, 5.0, resp.Raw.MeanProfit, 1e-9)

	require.Len(t, resp.Buckets, 3)
	assert.Equal(t, "2_weeks", resp.Buckets[0].Bucket)
	assert.True(t, resp.Buckets[0].HasData)
	assert.False(t, resp.Buckets[1].HasData)
	assert.Equal(t, "null", string(resp.Buckets[1].Metrics))
}

func TestRecordsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.load(t)

	q := url.Values{
		"group":  {"alpha", "beta"},
		"period": {"WEEKEND"},
		"rd_min": {"0"}, "rd_max": {"0.5"},
		"ps_min": {"0"}, "ps_max": {"500"},
	}
	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/records?"+q.Encode(), nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var recs []trades.TradeRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &recs))
	require.Len(t, recs, 2)
	assert.Equal(t, "alpha", recs[0].GroupName)
	assert.Equal(t, "beta", recs[1].GroupName)

	rec = ts.do(httptest.NewRequest(http.MethodGet, "/api/records?bucket=1_month", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))

	rec = ts.do(httptest.NewRequest(http.MethodGet, "/api/records?bucket=weekly", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecordsCSVEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.load(t)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/records.csv?group=gamma&rd_max=1&ps_max=1000", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "2_weeks,gamma,"))
}

func TestGroupsAndUploadsEndpoints(t *testing.T) {
	ts := newTestServer(t)
	ts.load(t)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/groups", nil))
	var groups []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &groups))
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, groups)

	rec = ts.do(httptest.NewRequest(http.MethodGet, "/api/uploads", nil))
	var uploads []storage.UploadLog
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &uploads))
	require.Len(t, uploads, 1)
	assert.Equal(t, "two-weeks.csv", uploads[0].FileName)
}

func TestPrometheusEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.load(t)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `robot_analytics_ingest_uploads_total{bucket="2_weeks",result="ok"} 1`)
}
