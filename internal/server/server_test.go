package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/adcorr-cli/internal/session"
)

const (
	ordersCSV = "Day,Orders\n2024-01-15,3\n2024-02-01,5\n2024-02-02,7\n"
	metaCSV   = "Day,Amount spent (DKK),Purchases\n2024-01-15,100,1\n2024-02-01,150,2\n2024-02-02,210,3\n"
)

func newTestServer(t *testing.T, maxUpload int64) *httptest.Server {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	sess := session.New(session.Config{Logger: log, OnLoad: m.Observe})
	ts := httptest.NewServer(New(sess, Options{MaxUploadBytes: maxUpload, Logger: log, Gatherer: reg}))
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, method, url, contentType, body string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(b)
}

func decode(t *testing.T, body string) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	return out
}

func loadBoth(t *testing.T, ts *httptest.Server) {
	t.Helper()
	resp, body := do(t, http.MethodPost, ts.URL+"/datasets/orders?name=shop.csv", "text/csv", ordersCSV)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	assert.Equal(t, false, decode(t, body)["ready"])

	resp, body = do(t, http.MethodPost, ts.URL+"/datasets/platforms/Meta", "text/csv", metaCSV)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	got := decode(t, body)
	assert.Equal(t, true, got["ready"])
	assert.Equal(t, "meta.csv", got["file"])
	assert.Equal(t, []any{"Spend", "Transactions"}, got["columns"])
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, 0)
	resp, body := do(t, http.MethodGet, ts.URL+"/healthz", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body)
}

func TestUploadAndReport(t *testing.T) {
	ts := newTestServer(t, 0)
	loadBoth(t, ts)

	resp, body := do(t, http.MethodGet, ts.URL+"/report?period=all", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	snap := decode(t, body)
	assert.Equal(t, "Spend", snap["metric"])
	assert.Equal(t, float64(3), snap["days"])

	resp, body = do(t, http.MethodGet, ts.URL+"/report?period=monthly:2024-02&format=md", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/markdown")
	assert.Contains(t, body, "February 2024 (2 of 3 days)")
	assert.Contains(t, body, "[CORRELATION SUMMARY]")
}

func TestReportRejectsUnknownPeriod(t *testing.T) {
	ts := newTestServer(t, 0)
	resp, body := do(t, http.MethodGet, ts.URL+"/report?period=weekly:2024-01", "", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_PERIOD", decode(t, body)["error_code"])
}

func TestUploadFormatErrorIs422(t *testing.T) {
	ts := newTestServer(t, 0)
	resp, body := do(t, http.MethodPost, ts.URL+"/datasets/orders", "text/csv", "Date,Sales\n2024-01-01,3\n")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	got := decode(t, body)
	assert.Equal(t, "FORMAT_ERROR", got["error_code"])
	assert.NotEmpty(t, got["request_id"])
}

func TestUploadRejectsJSONBody(t *testing.T) {
	ts := newTestServer(t, 0)
	resp, _ := do(t, http.MethodPost, ts.URL+"/datasets/orders", "application/json", `{"a":1}`)
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
}

func TestUploadTooLarge(t *testing.T) {
	ts := newTestServer(t, 16)
	resp, body := do(t, http.MethodPost, ts.URL+"/datasets/orders", "text/csv", ordersCSV)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	assert.Equal(t, "UPLOAD_TOO_LARGE", decode(t, body)["error_code"])
}

func TestFilterRoundTrip(t *testing.T) {
	ts := newTestServer(t, 0)

	resp, body := do(t, http.MethodPut, ts.URL+"/filter", "application/json", `{"period":"fortnightly"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	details := decode(t, body)["details"].([]any)
	require.Len(t, details, 1)
	assert.Equal(t, "period", details[0].(map[string]any)["field"])

	resp, _ = do(t, http.MethodPut, ts.URL+"/filter", "text/plain", `{}`)
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)

	resp, body = do(t, http.MethodPut, ts.URL+"/filter", "application/json", `{"period":"quarterly:2024-q1","metric":"Transactions"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	got := decode(t, body)
	assert.Equal(t, "quarterly:2024-Q1", got["period"])
	assert.Equal(t, "2024-Q1", got["label"])
	assert.Equal(t, "Transactions", got["metric"])

	// metric-only update keeps the period
	_, body = do(t, http.MethodPut, ts.URL+"/filter", "application/json", `{"metric":"Spend"}`)
	got = decode(t, body)
	assert.Equal(t, "quarterly:2024-Q1", got["period"])
	assert.Equal(t, "Spend", got["metric"])
}

func TestPeriodsNewestFirst(t *testing.T) {
	ts := newTestServer(t, 0)
	loadBoth(t, ts)

	_, body := do(t, http.MethodGet, ts.URL+"/periods?kind=monthly", "", "")
	var opts []periodOption
	require.NoError(t, json.Unmarshal([]byte(body), &opts))
	assert.Equal(t, []periodOption{
		{Spec: "monthly:2024-02", Label: "February 2024"},
		{Spec: "monthly:2024-01", Label: "January 2024"},
	}, opts)

	resp, _ := do(t, http.MethodGet, ts.URL+"/periods?kind=weekly", "", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAlignedCSV(t *testing.T) {
	ts := newTestServer(t, 0)
	loadBoth(t, ts)

	resp, body := do(t, http.MethodGet, ts.URL+"/aligned?period=monthly:2024-01&format=csv", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	lines := strings.Split(strings.TrimSpace(body), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Day,Orders,Spend,Transactions,Meta Spend,Meta Transactions", lines[0])
	assert.Equal(t, "2024-01-15,3,100,1,100,1", lines[1])
}

func TestMetricsCountUploads(t *testing.T) {
	ts := newTestServer(t, 0)
	loadBoth(t, ts)
	_, _ = do(t, http.MethodPost, ts.URL+"/datasets/platforms/Google", "text/csv", "Nope\n1\n")

	_, body := do(t, http.MethodGet, ts.URL+"/metrics", "", "")
	assert.Contains(t, body, `adcorr_uploads_total{outcome="accepted",source="orders"} 1`)
	assert.Contains(t, body, `adcorr_uploads_total{outcome="rejected",source="Google"} 1`)
	assert.Contains(t, body, `adcorr_rows_ingested_total{source="Meta"} 3`)
}
