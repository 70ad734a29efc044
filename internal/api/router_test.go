package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibp/labeld/internal/config"
	"github.com/ibp/labeld/internal/cups"
	"github.com/ibp/labeld/internal/discover"
	"github.com/ibp/labeld/internal/history"
	"github.com/ibp/labeld/internal/queue"
	"github.com/ibp/labeld/internal/usb"
)

type fakeCups struct {
	printers []cups.Printer
}

func (f *fakeCups) Printers(ctx context.Context) ([]cups.Printer, error) {
	return f.printers, nil
}

func (f *fakeCups) Submit(ctx context.Context, printer, path, title string) (int, error) {
	return 1, nil
}

func (f *fakeCups) State(ctx context.Context, jobID int) (cups.JobState, error) {
	return cups.StateCompleted, nil
}

func (f *fakeCups) MediaSize(ctx context.Context, printer string, dpi int) (int, int, error) {
	return 1050, 600, nil
}

type fakeEnum struct {
	devices []usb.Device
}

func (f *fakeEnum) Attached() ([]usb.Device, error) {
	return f.devices, nil
}

type testServer struct {
	router *gin.Engine
	queue  *queue.Queue
	store  *history.Store
}

func newTestServer(t *testing.T, printers []cups.Printer) *testServer {
	t.Helper()

	store, err := history.Open(filepath.Join(t.TempDir(), "labeld.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	enum := &fakeEnum{devices: []usb.Device{{VendorID: "0a5f", ProductID: "0001", Serial: "X123"}}}
	cache := discover.NewCache(&fakeCups{printers: printers}, enum, "", time.Minute)
	q := queue.New(4)

	cfg := &config.ServerConfig{
		AllowedOrigins:  []string{"http://ibp-server.local"},
		MaxPayloadBytes: 1 << 20,
		MaxFieldLength:  10000,
	}

	router := NewRouter(Dependencies{
		Config:  cfg,
		Cache:   cache,
		Queue:   q,
		History: store,
	})

	return &testServer{router: router, queue: q, store: store}
}

func attachedPrinter() []cups.Printer {
	return []cups.Printer{{Name: "Desk", DeviceURI: "usb://iDPRT/SP310?serial=X123"}}
}

func labelPayload(overrides map[string]any) string {
	fields := map[string]any{
		"package_id":           "PKG-2024-0001",
		"inmate_id":            "A123456",
		"inmate_name":          "John Doe",
		"inmate_jurisdiction":  "King County",
		"unit_name":            "Block C",
		"unit_shipping_method": "Ground",
	}
	for k, v := range overrides {
		if v == nil {
			delete(fields, k)
		} else {
			fields[k] = v
		}
	}
	data, _ := json.Marshal(fields)
	return url.Values{"data": {string(data)}}.Encode()
}

func postForm(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSubmit_ValidLabelQueued(t *testing.T) {
	srv := newTestServer(t, attachedPrinter())

	w := postForm(srv.router, labelPayload(nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"queued"`)
	assert.Contains(t, w.Body.String(), `"id"`)
	assert.Equal(t, 1, srv.queue.Len())
}

func TestSubmit_MissingKeys(t *testing.T) {
	srv := newTestServer(t, attachedPrinter())

	w := postForm(srv.router, labelPayload(map[string]any{
		"inmate_id": nil,
		"unit_name": nil,
	}))

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Missing required keys")
	assert.Contains(t, w.Body.String(), "inmate_id")
	assert.Contains(t, w.Body.String(), "unit_name")
	assert.Zero(t, srv.queue.Len())
}

func TestSubmit_NonStringField(t *testing.T) {
	srv := newTestServer(t, attachedPrinter())

	w := postForm(srv.router, labelPayload(map[string]any{"inmate_id": 12345}))

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Field 'inmate_id' must be a string")
}

func TestSubmit_FieldTooLong(t *testing.T) {
	srv := newTestServer(t, attachedPrinter())

	w := postForm(srv.router, labelPayload(map[string]any{
		"inmate_name": strings.Repeat("x", 10001),
	}))

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Field 'inmate_name' is too long")
}

func TestSubmit_PayloadTooLarge(t *testing.T) {
	srv := newTestServer(t, attachedPrinter())

	body := "data=" + strings.Repeat("x", (1<<20)+1)
	w := postForm(srv.router, body)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestSubmit_InvalidContentLength(t *testing.T) {
	srv := newTestServer(t, attachedPrinter())

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(labelPayload(nil)))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.ContentLength = -1
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid Content-Length")
}

func TestSubmit_MissingDataField(t *testing.T) {
	srv := newTestServer(t, attachedPrinter())

	w := postForm(srv.router, "other=value")

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Missing 'data' field")
}

func TestSubmit_InvalidJSON(t *testing.T) {
	srv := newTestServer(t, attachedPrinter())

	w := postForm(srv.router, url.Values{"data": {"{not json"}}.Encode())

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid JSON")
}

func TestSubmit_RejectionRecorded(t *testing.T) {
	srv := newTestServer(t, attachedPrinter())

	postForm(srv.router, labelPayload(map[string]any{"inmate_id": nil}))

	entries, err := srv.store.ListOutcomes(context.Background(), history.Filter{Outcome: history.OutcomeRejected})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "PKG-2024-0001", entries[0].PackageID)
	assert.Contains(t, entries[0].ErrorMessage, "Missing required keys")
}

func TestHealth_WithPrinters(t *testing.T) {
	srv := newTestServer(t, attachedPrinter())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Status   string `json:"status"`
		Service  string `json:"service"`
		Printers struct {
			Count int      `json:"count"`
			Names []string `json:"names"`
		} `json:"printers"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "labeld", resp.Service)
	assert.Equal(t, 1, resp.Printers.Count)
	assert.Equal(t, []string{"Desk"}, resp.Printers.Names)
}

func TestHealth_Degraded(t *testing.T) {
	srv := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"degraded"`)
}

func TestCORS_AllowedOrigin(t *testing.T) {
	srv := newTestServer(t, attachedPrinter())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://ibp-server.local")
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	assert.Equal(t, "http://ibp-server.local", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_UnknownOrigin(t *testing.T) {
	srv := newTestServer(t, attachedPrinter())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestAdminRoutes_AbsentWithoutAuth(t *testing.T) {
	srv := newTestServer(t, attachedPrinter())

	req := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
