package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/fleet-telemetry/internal/entity"
	"github.com/joseph-ayodele/fleet-telemetry/internal/export"
	"github.com/joseph-ayodele/fleet-telemetry/internal/metrics"
	"github.com/joseph-ayodele/fleet-telemetry/internal/pipeline"
	"github.com/joseph-ayodele/fleet-telemetry/internal/reconcile"
	"github.com/joseph-ayodele/fleet-telemetry/internal/repository"
	"github.com/joseph-ayodele/fleet-telemetry/internal/services"
)

func ptr[T any](v T) *T { return &v }

type fakeJob struct {
	got  atomic.Pointer[services.ProcessRequest]
	resp services.Response
}

func (f *fakeJob) Process(_ context.Context, req services.ProcessRequest) (services.Response, pipeline.Summary) {
	f.got.Store(&req)
	return f.resp, pipeline.Summary{}
}

type fakeAudit struct{}

func (fakeAudit) ProcessWorkbook(_ context.Context, r io.Reader) ([]byte, reconcile.Summary, error) {
	b, err := io.ReadAll(r)
	return append([]byte("annotated:"), b...), reconcile.Summary{Rows: 1}, err
}

func newTestServer(t *testing.T, job *fakeJob) *httptest.Server {
	t.Helper()
	store := repository.NewMemoryStore()
	seen := time.Date(2023, time.September, 12, 4, 11, 50, 0, time.UTC)
	require.NoError(t, store.InsertMany(context.Background(), []entity.LocationHistory{
		{GroupName: "AA112", RDT: ptr(seen), LandMark: "Depot", Lat: ptr(35.4878), Lng: ptr(73.8558), FileName: "AA112 trip.pdf"},
		{GroupName: "BB7", RDT: ptr(seen), LandMark: "Yard"},
	}))
	reg := prometheus.NewRegistry()
	metrics.New(reg).FileProcessed(metrics.StatusOK)

	s := New(Deps{
		Store:    store,
		Importer: job,
		PDF:      job,
		Audit:    fakeAudit{},
		Export:   export.NewService(store, nil),
		Gatherer: reg,
	})
	srv := httptest.NewServer(s.Router())
	t.Cleanup(srv.Close)
	return srv
}

func historyURL(base, path, group string) string {
	q := url.Values{}
	q.Set("groupName", group)
	q.Set("start", "2023-09-12 00:00:00")
	q.Set("end", "2023-09-12 23:59:59")
	return base + path + "?" + q.Encode()
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &fakeJob{})
	res, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "*", res.Header.Get("Access-Control-Allow-Origin"))
}

func TestMetrics(t *testing.T) {
	srv := newTestServer(t, &fakeJob{})
	res, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer res.Body.Close()
	body, _ := io.ReadAll(res.Body)
	assert.Contains(t, string(body), "fleet_telemetry_files_processed_total")
}

func TestLocationHistory(t *testing.T) {
	srv := newTestServer(t, &fakeJob{})
	for _, path := range []string{"/api/location-history", "/api/getLocationHistory/get"} {
		res, err := http.Get(historyURL(srv.URL, path, "AA112"))
		require.NoError(t, err)
		var recs []entity.LocationHistory
		require.NoError(t, json.NewDecoder(res.Body).Decode(&recs))
		res.Body.Close()
		require.Len(t, recs, 1, path)
		assert.Equal(t, "Depot", recs[0].LandMark)
	}

	res, err := http.Get(srv.URL + "/api/location-history?groupName=AA112&start=yesterday")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestLocationHistoryFieldNames(t *testing.T) {
	srv := newTestServer(t, &fakeJob{})
	res, err := http.Get(historyURL(srv.URL, "/api/getLocationHistory/get", "AA112"))
	require.NoError(t, err)
	defer res.Body.Close()
	var recs []map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&recs))
	require.Len(t, recs, 1)

	rec := recs[0]
	assert.Equal(t, "AA112", rec["groupName"])
	assert.Equal(t, "Depot", rec["landMark"])
	assert.Equal(t, 35.4878, rec["lat"])
	assert.Equal(t, "AA112 trip.pdf", rec["fileName"])
	for _, key := range []string{"rdt", "speed", "direction", "distance", "travelTime", "stopTime", "lng"} {
		assert.Contains(t, rec, key)
	}
	assert.Nil(t, rec["speed"])
	assert.NotContains(t, rec, "group_name")
	assert.NotContains(t, rec, "land_mark")
}

func TestProgressRoutes(t *testing.T) {
	s := New(Deps{Progress: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})})
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	for _, path := range []string{"/progress", "/ws/progress"} {
		res, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		res.Body.Close()
		assert.Equal(t, http.StatusTeapot, res.StatusCode, path)
	}
}

func TestLocationHistoryEmptyIsArray(t *testing.T) {
	srv := newTestServer(t, &fakeJob{})
	res, err := http.Get(historyURL(srv.URL, "/api/location-history", "ZZ1"))
	require.NoError(t, err)
	defer res.Body.Close()
	body, _ := io.ReadAll(res.Body)
	assert.Equal(t, "[]", strings.TrimSpace(string(body)))
}

func TestExport(t *testing.T) {
	srv := newTestServer(t, &fakeJob{})
	res, err := http.Get(historyURL(srv.URL, "/api/location-history/export", "AA112"))
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, xlsxContentType, res.Header.Get("Content-Type"))

	f, err := excelize.OpenReader(res.Body)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows(f.GetSheetList()[0])
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "AA112", rows[1][0])
}

func TestProcess(t *testing.T) {
	job := &fakeJob{resp: services.Response{Success: true, Message: services.MsgCompleted}}
	srv := newTestServer(t, job)

	res, err := http.Post(srv.URL+"/api/process", "application/json", strings.NewReader(`{"sourceFolder":"/in","outputFolder":"/out"}`))
	require.NoError(t, err)
	var resp services.Response
	require.NoError(t, json.NewDecoder(res.Body).Decode(&resp))
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.True(t, resp.Success)
	assert.Equal(t, "/out", job.got.Load().OutputFolder)

	res, err = http.Post(srv.URL+"/api/importexcel/process", "application/json", strings.NewReader(`{"reportFolder":"/in"}`))
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestProcessAcceptsUIFieldNames(t *testing.T) {
	job := &fakeJob{resp: services.Response{Success: true, Message: services.MsgCompleted}}
	srv := newTestServer(t, job)

	res, err := http.Post(srv.URL+"/api/process", "application/json", strings.NewReader(`{"pdfFolder":"/in","excelFolder":"/out"}`))
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, services.ProcessRequest{SourceFolder: "/in", OutputFolder: "/out"}, *job.got.Load())

	res, err = http.Post(srv.URL+"/api/importexcel/process", "application/json", strings.NewReader(`{"excelFolder":"/imports"}`))
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, services.ProcessRequest{SourceFolder: "/imports"}, *job.got.Load())
}

func TestProcessFailureIsServerError(t *testing.T) {
	job := &fakeJob{resp: services.Response{Message: "Error processing spreadsheets: gone"}}
	srv := newTestServer(t, job)
	res, err := http.Post(srv.URL+"/api/importexcel/process", "application/json", strings.NewReader(`{"sourceFolder":"/in"}`))
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
}

func TestPreflight(t *testing.T) {
	srv := newTestServer(t, &fakeJob{})
	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/process", nil)
	require.NoError(t, err)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusNoContent, res.StatusCode)
	assert.Equal(t, "*", res.Header.Get("Access-Control-Allow-Origin"))
}

func TestMasterExcelUpload(t *testing.T) {
	srv := newTestServer(t, &fakeJob{})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "master.xlsx")
	require.NoError(t, err)
	_, _ = part.Write([]byte("xlsx"))
	require.NoError(t, mw.Close())

	res, err := http.Post(srv.URL+"/api/excel/processMasterExcel", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, res.Header.Get("Content-Disposition"), "processed_master.xlsx")
	out, _ := io.ReadAll(res.Body)
	assert.Equal(t, "annotated:xlsx", string(out))
}
