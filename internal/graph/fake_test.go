package graph_test

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/JaimeStill/docbridge/internal/attachments"
	"github.com/JaimeStill/docbridge/internal/graph"
	"github.com/JaimeStill/docbridge/pkg/lifecycle"
	"github.com/JaimeStill/docbridge/pkg/storage"
)

const (
	tenant = "tenant-1"
	siteID = "contoso.sharepoint.com,site-guid,web-guid"
	drive  = "drive-1"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

type remoteFile struct {
	id      string
	name    string
	content []byte
}

// fakeGraph serves the token endpoint and the subset of Graph the client uses.
type fakeGraph struct {
	t   *testing.T
	srv *httptest.Server

	mu        sync.Mutex
	exchanges int
	tokens    []string
	requests  map[string]int
	files     []remoteFile
	uploads   map[string][]byte
	session   []byte

	// behavior knobs
	rejectToken   string
	rejectAll     bool
	failDrives    int
	forbidSite    bool
	slow          time.Duration
	tokenStatus   int
	tokenGate     chan struct{}
	tokenStarted  chan struct{}
	shortLifetime bool
}

func newFakeGraph(t *testing.T) *fakeGraph {
	t.Helper()
	f := &fakeGraph{
		t:        t,
		requests: make(map[string]int),
		uploads:  make(map[string][]byte),
		files: []remoteFile{
			{id: "item-1", name: "report_2025.pdf", content: append([]byte("%PDF-1.4\n"), make([]byte, 250880-9)...)},
			{id: "item-2", name: "analysis.docx", content: make([]byte, 91136)},
		},
	}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeGraph) config() graph.Config {
	return graph.Config{
		Credentials:  graph.Credentials{TenantID: tenant, ClientID: "client", ClientSecret: "secret"},
		SiteURL:      "https://contoso.sharepoint.com/sites/Team",
		Folder:       "Shared",
		GraphURL:     f.srv.URL + "/v1.0",
		AuthorityURL: f.srv.URL,
		MaxRetries:   2,
		RetryInitial: time.Millisecond,
	}
}

func (f *fakeGraph) exchangeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.exchanges
}

func (f *fakeGraph) requestCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[key]
}

func newStore(t *testing.T) (*attachments.Store, storage.System) {
	t.Helper()

	cfg := &storage.Config{BasePath: "/uploads"}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatal(err)
	}
	sys, err := storage.NewWithFs(afero.NewMemMapFs(), cfg, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	lc := lifecycle.New()
	if err := sys.Start(lc); err != nil {
		t.Fatal(err)
	}
	lc.WaitForStartup()

	return attachments.New(sys, testLogger(), nil), sys
}

func newClient(t *testing.T, f *fakeGraph, cfg graph.Config) (*graph.Client, storage.System) {
	t.Helper()

	store, sys := newStore(t)
	exchanger := graph.NewClientCredentials(cfg.Credentials, cfg.AuthorityURL, f.srv.Client())
	tokens := graph.NewTokenCache(exchanger, time.Minute, 5*time.Second, testLogger())

	client, err := graph.New(cfg, tokens, f.srv.Client(), store, testLogger())
	if err != nil {
		t.Fatalf("graph.New() error = %v", err)
	}
	return client, sys
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func graphError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]any{"error": map[string]string{"code": code, "message": code}})
}

func (f *fakeGraph) serve(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	if path == "/"+tenant+"/oauth2/v2.0/token" {
		f.serveToken(w, r)
		return
	}

	f.mu.Lock()
	key := r.Method + " " + path
	f.requests[key]++
	count := f.requests[key]
	latest := ""
	if len(f.tokens) > 0 {
		latest = f.tokens[len(f.tokens)-1]
	}
	f.mu.Unlock()

	if f.slow > 0 {
		select {
		case <-time.After(f.slow):
		case <-r.Context().Done():
			return
		}
	}

	if !strings.HasPrefix(path, "/upload/") {
		auth := r.Header.Get("Authorization")
		if f.rejectAll || auth == "Bearer "+f.rejectToken || auth != "Bearer "+latest {
			graphError(w, http.StatusUnauthorized, "InvalidAuthenticationToken")
			return
		}
	}

	switch {
	case path == "/v1.0/sites/contoso.sharepoint.com:/sites/Team":
		if f.forbidSite {
			graphError(w, http.StatusForbidden, "accessDenied")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"id": siteID})

	case path == "/v1.0/sites/"+siteID+"/drives":
		if count <= f.failDrives {
			graphError(w, http.StatusServiceUnavailable, "serviceNotAvailable")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"value": []map[string]string{{"id": drive, "name": "Documents"}}})

	case path == "/v1.0/drives/"+drive+"/root:/Shared":
		writeJSON(w, http.StatusOK, map[string]any{"id": "folder-1", "name": "Shared", "folder": map[string]int{"childCount": 3}})

	case strings.HasPrefix(path, "/v1.0/drives/"+drive+"/root:/") && r.Method == http.MethodGet:
		graphError(w, http.StatusNotFound, "itemNotFound")

	case path == "/v1.0/drives/"+drive+"/items/folder-1/children", path == "/v1.0/drives/"+drive+"/root/children":
		f.serveChildren(w, r)

	case strings.HasPrefix(path, "/v1.0/drives/"+drive+"/items/") && strings.HasSuffix(path, "/content"):
		id := strings.TrimSuffix(strings.TrimPrefix(path, "/v1.0/drives/"+drive+"/items/"), "/content")
		for _, file := range f.files {
			if file.id == id {
				w.Header().Set("Content-Type", "application/octet-stream")
				w.Write(file.content)
				return
			}
		}
		graphError(w, http.StatusNotFound, "itemNotFound")

	case strings.HasSuffix(path, ":/content") && r.Method == http.MethodPut:
		name := strings.TrimSuffix(strings.TrimPrefix(path, "/v1.0/drives/"+drive+"/root:/"), ":/content")
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.uploads[name] = body
		f.mu.Unlock()
		writeJSON(w, http.StatusCreated, map[string]any{"id": "up-1", "name": strings.TrimPrefix(name, "Shared/"), "webUrl": "https://contoso.sharepoint.com/" + name})

	case strings.HasSuffix(path, ":/createUploadSession"):
		writeJSON(w, http.StatusOK, map[string]string{"uploadUrl": f.srv.URL + "/upload/session-1?tempauth=secret"})

	case path == "/upload/session-1":
		f.serveChunk(w, r)

	default:
		f.t.Errorf("unexpected request %s %s", r.Method, path)
		graphError(w, http.StatusBadRequest, "unexpected")
	}
}

func (f *fakeGraph) serveToken(w http.ResponseWriter, r *http.Request) {
	if f.tokenStarted != nil {
		select {
		case f.tokenStarted <- struct{}{}:
		default:
		}
	}
	if f.tokenGate != nil {
		<-f.tokenGate
	}

	if err := r.ParseForm(); err != nil || r.PostForm.Get("grant_type") != "client_credentials" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported_grant_type"})
		return
	}
	if r.PostForm.Get("scope") != graph.GraphScope {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_scope"})
		return
	}
	if f.tokenStatus != 0 {
		writeJSON(w, f.tokenStatus, map[string]string{"error": "invalid_client", "error_description": "bad secret"})
		return
	}

	f.mu.Lock()
	f.exchanges++
	tok := "tok-" + strconv.Itoa(f.exchanges)
	f.tokens = append(f.tokens, tok)
	f.mu.Unlock()

	expires := 3600
	if f.shortLifetime {
		expires = 30
	}
	writeJSON(w, http.StatusOK, map[string]any{"access_token": tok, "token_type": "Bearer", "expires_in": expires})
}

func (f *fakeGraph) serveChildren(w http.ResponseWriter, r *http.Request) {
	item := func(file remoteFile) map[string]any {
		return map[string]any{
			"id":                   file.id,
			"name":                 file.name,
			"size":                 len(file.content),
			"lastModifiedDateTime": "2025-10-01T09:30:00Z",
			"webUrl":               "https://contoso.sharepoint.com/Shared/" + file.name,
			"file":                 map[string]string{"mimeType": "application/octet-stream"},
		}
	}

	if r.URL.Query().Get("page") == "2" {
		var value []map[string]any
		for _, file := range f.files[1:] {
			value = append(value, item(file))
		}
		writeJSON(w, http.StatusOK, map[string]any{"value": value})
		return
	}

	value := []map[string]any{
		{"id": "sub-1", "name": "Archive", "folder": map[string]int{"childCount": 4}},
		item(f.files[0]),
	}
	next := fmt.Sprintf("%s%s?page=2", f.srv.URL, r.URL.Path)
	writeJSON(w, http.StatusOK, map[string]any{"value": value, "@odata.nextLink": next})
}

func (f *fakeGraph) serveChunk(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "" {
		f.t.Error("upload session chunk carried an Authorization header")
	}

	var start, end, total int
	if _, err := fmt.Sscanf(r.Header.Get("Content-Range"), "bytes %d-%d/%d", &start, &end, &total); err != nil {
		graphError(w, http.StatusBadRequest, "badRange")
		return
	}

	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	if start != len(f.session) || len(body) != end-start+1 {
		f.mu.Unlock()
		graphError(w, http.StatusBadRequest, "badChunk")
		return
	}
	f.session = append(f.session, body...)
	done := len(f.session) == total
	f.mu.Unlock()

	if !done {
		writeJSON(w, http.StatusAccepted, map[string]any{"nextExpectedRanges": []string{fmt.Sprintf("%d-", end+1)}})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": "up-2", "name": "big.pdf", "webUrl": "https://contoso.sharepoint.com/Shared/big.pdf"})
}
