package graph_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"regexp"
	"testing"
	"time"

	"github.com/JaimeStill/docbridge/internal/graph"
)

func TestNew_Disabled(t *testing.T) {
	cfg := graph.Config{SiteURL: "https://contoso.sharepoint.com/sites/Team"}
	cfg.Credentials = graph.Credentials{TenantID: "t", ClientID: "c"}

	_, err := graph.New(cfg, nil, nil, nil, testLogger())
	if !errors.Is(err, graph.ErrDisabled) {
		t.Errorf("New() error = %v, want ErrDisabled", err)
	}
}

func TestNew_InvalidSite(t *testing.T) {
	cfg := graph.Config{
		Credentials: graph.Credentials{TenantID: "t", ClientID: "c", ClientSecret: "s"},
		SiteURL:     "not a url",
	}
	if _, err := graph.New(cfg, nil, nil, nil, testLogger()); err == nil {
		t.Error("New() succeeded with an invalid site url")
	}
}

func TestListFiles(t *testing.T) {
	f := newFakeGraph(t)
	client, _ := newClient(t, f, f.config())

	files, err := client.ListFiles(context.Background(), "")
	if err != nil {
		t.Fatalf("ListFiles() error = %v", err)
	}

	if len(files) != 2 {
		t.Fatalf("got %d files, want 2 (folders skipped, both pages read): %+v", len(files), files)
	}
	if files[0].Name != "analysis.docx" || files[0].Size != 91136 {
		t.Errorf("files[0] = %+v", files[0])
	}
	if files[1].Name != "report_2025.pdf" || files[1].Size != 250880 {
		t.Errorf("files[1] = %+v", files[1])
	}
	if files[1].DriveID != "drive-1" || files[1].ModifiedAt.IsZero() {
		t.Errorf("descriptor metadata missing: %+v", files[1])
	}
}

func TestListFiles_Idempotent(t *testing.T) {
	f := newFakeGraph(t)
	client, _ := newClient(t, f, f.config())
	ctx := context.Background()

	first, err := client.ListFiles(ctx, "Shared")
	if err != nil {
		t.Fatal(err)
	}
	second, err := client.ListFiles(ctx, "Shared")
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("listings differ:\n%+v\n%+v", first, second)
	}
	if n := f.exchangeCount(); n != 1 {
		t.Errorf("token exchanges = %d, want 1 (cached)", n)
	}
	if n := f.requestCount("GET /v1.0/sites/" + siteID + "/drives"); n != 1 {
		t.Errorf("drive lookups = %d, want 1 (cached)", n)
	}
}

func TestListFiles_MissingFolder(t *testing.T) {
	f := newFakeGraph(t)
	client, _ := newClient(t, f, f.config())

	_, err := client.ListFiles(context.Background(), "Nope")
	if !errors.Is(err, graph.ErrNotFound) {
		t.Errorf("ListFiles() error = %v, want ErrNotFound", err)
	}
}

func TestListFiles_DefaultFolderFallsBackToRoot(t *testing.T) {
	f := newFakeGraph(t)
	cfg := f.config()
	cfg.Folder = "Documents"
	client, _ := newClient(t, f, cfg)

	files, err := client.ListFiles(context.Background(), "")
	if err != nil {
		t.Fatalf("ListFiles() error = %v", err)
	}
	if len(files) != 2 {
		t.Errorf("got %d files from library root, want 2", len(files))
	}
}

func TestFetchFile(t *testing.T) {
	f := newFakeGraph(t)
	client, sys := newClient(t, f, f.config())
	ctx := context.Background()

	att, err := client.FetchFile(ctx, "report_2025.pdf")
	if err != nil {
		t.Fatalf("FetchFile() error = %v", err)
	}

	pattern := regexp.MustCompile(`^sharepoint_report_2025_\d{14}\.pdf$`)
	if !pattern.MatchString(att.Key) {
		t.Errorf("Key = %q, want match %s", att.Key, pattern)
	}
	if att.OriginalName != "report_2025.pdf" || att.Size != 250880 {
		t.Errorf("attachment = %+v", att)
	}
	if att.ContentType != "application/pdf" {
		t.Errorf("ContentType = %q", att.ContentType)
	}

	got, err := sys.Retrieve(ctx, att.Key)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, f.files[0].content) {
		t.Error("downloaded content differs")
	}
}

func TestFetchFile_NotFoundCreatesNothing(t *testing.T) {
	f := newFakeGraph(t)
	client, sys := newClient(t, f, f.config())
	ctx := context.Background()

	for _, name := range []string{"missing.pdf", "REPORT_2025.pdf", "report_2025"} {
		_, err := client.FetchFile(ctx, name)
		if !errors.Is(err, graph.ErrNotFound) {
			t.Errorf("FetchFile(%q) error = %v, want ErrNotFound", name, err)
		}
	}

	entries, err := sys.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("storage has %d files, want none", len(entries))
	}
}

func TestFetch_LargeFileStreams(t *testing.T) {
	f := newFakeGraph(t)
	cfg := f.config()
	cfg.DownloadThreshold = 1024
	client, sys := newClient(t, f, cfg)
	ctx := context.Background()

	files, err := client.ListFiles(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	file, ok := graph.Match(files, "analysis.docx")
	if !ok {
		t.Fatal("Match() found nothing")
	}

	att, err := client.Fetch(ctx, file)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	got, err := sys.Retrieve(ctx, att.Key)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 91136 {
		t.Errorf("streamed %d bytes, want 91136", len(got))
	}
}

func TestRetry_TransientRecovers(t *testing.T) {
	f := newFakeGraph(t)
	f.failDrives = 2
	client, _ := newClient(t, f, f.config())

	if _, err := client.ListFiles(context.Background(), ""); err != nil {
		t.Fatalf("ListFiles() error = %v, want success after retries", err)
	}
	if n := f.requestCount("GET /v1.0/sites/" + siteID + "/drives"); n != 3 {
		t.Errorf("drive requests = %d, want 3", n)
	}
}

func TestRetry_TransientExhausted(t *testing.T) {
	f := newFakeGraph(t)
	f.failDrives = 100
	client, _ := newClient(t, f, f.config())

	_, err := client.ListFiles(context.Background(), "")
	if !errors.Is(err, graph.ErrTransient) || !graph.IsRetryable(err) {
		t.Fatalf("ListFiles() error = %v, want ErrTransient", err)
	}

	var serr *graph.StatusError
	if !errors.As(err, &serr) || serr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("error = %v, want StatusError 503", err)
	}
	if n := f.requestCount("GET /v1.0/sites/" + siteID + "/drives"); n != 3 {
		t.Errorf("drive requests = %d, want 1 + 2 retries", n)
	}
}

func TestForbiddenIsNotRetried(t *testing.T) {
	f := newFakeGraph(t)
	f.forbidSite = true
	client, _ := newClient(t, f, f.config())

	_, err := client.ListFiles(context.Background(), "")
	if !errors.Is(err, graph.ErrAuth) {
		t.Fatalf("ListFiles() error = %v, want ErrAuth", err)
	}
	if n := f.requestCount("GET /v1.0/sites/contoso.sharepoint.com:/sites/Team"); n != 1 {
		t.Errorf("site requests = %d, want 1", n)
	}
}

func TestUnauthorized_ForcesOneRefresh(t *testing.T) {
	f := newFakeGraph(t)
	f.rejectToken = "tok-1"
	client, _ := newClient(t, f, f.config())

	if _, err := client.ListFiles(context.Background(), ""); err != nil {
		t.Fatalf("ListFiles() error = %v", err)
	}
	if n := f.exchangeCount(); n != 2 {
		t.Errorf("token exchanges = %d, want 2 (initial + forced refresh)", n)
	}
}

func TestUnauthorized_Persistent(t *testing.T) {
	f := newFakeGraph(t)
	f.rejectAll = true
	client, _ := newClient(t, f, f.config())

	_, err := client.ListFiles(context.Background(), "")
	if !errors.Is(err, graph.ErrAuth) {
		t.Fatalf("ListFiles() error = %v, want ErrAuth", err)
	}
	if n := f.exchangeCount(); n != 2 {
		t.Errorf("token exchanges = %d, want exactly one forced refresh", n)
	}
}

func TestAuthenticate_Rejected(t *testing.T) {
	f := newFakeGraph(t)
	f.tokenStatus = http.StatusUnauthorized
	client, _ := newClient(t, f, f.config())

	_, err := client.Authenticate(context.Background())
	if !errors.Is(err, graph.ErrAuth) {
		t.Errorf("Authenticate() error = %v, want ErrAuth", err)
	}
}

func TestAuthenticate_Unreachable(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	dead.Close()

	f := newFakeGraph(t)
	cfg := f.config()
	cfg.AuthorityURL = dead.URL
	client, _ := newClient(t, f, cfg)

	_, err := client.Authenticate(context.Background())
	if !errors.Is(err, graph.ErrAuth) {
		t.Errorf("Authenticate() error = %v, want ErrAuth", err)
	}
}

func TestRequestTimeout(t *testing.T) {
	f := newFakeGraph(t)
	f.slow = 500 * time.Millisecond
	cfg := f.config()
	cfg.RequestTimeout = 50 * time.Millisecond
	cfg.MaxRetries = 1
	client, _ := newClient(t, f, cfg)

	start := time.Now()
	_, err := client.ListFiles(context.Background(), "")
	if !errors.Is(err, graph.ErrTimeout) {
		t.Fatalf("ListFiles() error = %v, want ErrTimeout", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("ListFiles() took %v, want bounded by request timeout", elapsed)
	}
}

func TestUpload_Simple(t *testing.T) {
	f := newFakeGraph(t)
	client, _ := newClient(t, f, f.config())

	data := []byte("%PDF-1.4 export")
	link, err := client.Upload(context.Background(), "export_conversation_20251019143005.pdf", data, "application/pdf")
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	if link.Target != "sharepoint" || link.URL == "" {
		t.Errorf("link = %+v", link)
	}

	f.mu.Lock()
	got := f.uploads["Shared/export_conversation_20251019143005.pdf"]
	f.mu.Unlock()
	if !bytes.Equal(got, data) {
		t.Errorf("uploaded %q, want %q", got, data)
	}
}

func TestUpload_Session(t *testing.T) {
	f := newFakeGraph(t)
	client, _ := newClient(t, f, f.config())

	data := bytes.Repeat([]byte{0xAB}, graph.UploadChunkSize+1024)
	link, err := client.Upload(context.Background(), "big.pdf", data, "application/pdf")
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if link.Name != "big.pdf" {
		t.Errorf("link = %+v", link)
	}

	f.mu.Lock()
	got := f.session
	f.mu.Unlock()
	if !bytes.Equal(got, data) {
		t.Errorf("session received %d bytes, want %d", len(got), len(data))
	}
}

func TestMatch(t *testing.T) {
	files := []graph.FileDescriptor{{Name: "Report.pdf"}, {Name: "report.pdf"}}

	got, ok := graph.Match(files, "report.pdf")
	if !ok || got.Name != "report.pdf" {
		t.Errorf("Match() = %+v, %v", got, ok)
	}
	if _, ok := graph.Match(files, "REPORT.PDF"); ok {
		t.Error("Match() must be case-sensitive")
	}
}
