package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JaimeStill/docbridge/internal/config"
	"github.com/JaimeStill/docbridge/internal/infrastructure"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	for _, key := range []string{
		"SHAREPOINT_TENANT_ID", "SHAREPOINT_CLIENT_ID", "SHAREPOINT_CLIENT_SECRET",
		"EXPORT_REMOTE_UPLOAD_ENABLED", "UPLOAD_DIR", "PUBLIC_URL",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg := &config.Config{}
	cfg.Storage.BasePath = filepath.Join(t.TempDir(), "uploads")
	cfg.Logging.Level = "error"
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize() failed: %v", err)
	}
	return cfg
}

func newTestHandler(t *testing.T) (http.Handler, *infrastructure.Infrastructure) {
	t.Helper()
	cfg := testConfig(t)

	infra, err := infrastructure.New(cfg, io.Discard)
	if err != nil {
		t.Fatalf("infrastructure.New() failed: %v", err)
	}
	return buildHandler(infra, cfg), infra
}

func start(t *testing.T, infra *infrastructure.Infrastructure) {
	t.Helper()
	if err := infra.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	infra.Lifecycle.WaitForStartup()
}

func TestProbes(t *testing.T) {
	handler, infra := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("healthz = %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable || rec.Body.String() != "NOT READY" {
		t.Errorf("readyz before start = %d %q", rec.Code, rec.Body.String())
	}

	start(t, infra)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/readyz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "READY" {
		t.Errorf("readyz after start = %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/readyz/", nil))
	if rec.Code != http.StatusMovedPermanently || rec.Header().Get("Location") != "/readyz" {
		t.Errorf("readyz/ = %d, Location %q, want redirect to /readyz", rec.Code, rec.Header().Get("Location"))
	}
}

func TestClassifyEndpoint(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest("POST", "/api/classify", strings.NewReader(`{"text":"Load report_2025.pdf from SharePoint"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var got map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got["kind"] != "fetch_file" || got["target_filename"] != "report_2025.pdf" {
		t.Errorf("classification = %v", got)
	}
}

func TestSharePointDisabled(t *testing.T) {
	handler, infra := newTestHandler(t)
	if infra.SharePoint != nil {
		t.Fatal("SharePoint client created without credentials")
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/sharepoint/files", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}

	body := `{"model":"llama3","messages":[{"role":"user","content":"browse sharepoint"}]}`
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/api/filter/inlet", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("inlet status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "SYSTEM NOTE") {
		t.Errorf("inlet body missing notice: %s", rec.Body.String())
	}
}

func TestExportRoundTrip(t *testing.T) {
	handler, infra := newTestHandler(t)
	start(t, infra)

	body := `{
		"model": "llama3",
		"messages": [
			{"role": "user", "content": "Summarize the Q3 results"},
			{"role": "assistant", "content": "Revenue grew 12%."},
			{"role": "user", "content": "export this to PDF"}
		]
	}`

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/api/filter/inlet", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("inlet status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Export File Ready") {
		t.Fatalf("inlet body = %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/exports", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}

	var page struct {
		Data []struct {
			Key string `json:"key"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatal(err)
	}
	entries := page.Data
	if len(entries) != 1 || !strings.HasPrefix(entries[0].Key, "export_conversation_") {
		t.Fatalf("entries = %+v", entries)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/exports/"+entries[0].Key, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("download status = %d", rec.Code)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")) {
		t.Error("download is not a PDF")
	}
}
