// Package graph is the SharePoint file client. It talks to Microsoft Graph
// with a client-credentials token held in a single-flight TokenCache.
package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/oauth2"

	"github.com/JaimeStill/docbridge/internal/attachments"
)

const (
	// SimpleUploadLimit is the largest body sent with a single PUT.
	SimpleUploadLimit = 4 << 20

	// UploadChunkSize must be a multiple of 320 KiB.
	UploadChunkSize = 5 * 1024 * 1024

	maxErrorBody = 64 << 10
)

// FileDescriptor is one file in a remote folder listing.
type FileDescriptor struct {
	ID          string    `json:"id"`
	DriveID     string    `json:"drive_id"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ModifiedAt  time.Time `json:"modified_at"`
	MimeType    string    `json:"mime_type,omitempty"`
	WebURL      string    `json:"web_url,omitempty"`
	DownloadURL string    `json:"-"`
}

// RemoteLink points at an uploaded copy of a file.
type RemoteLink struct {
	Target string `json:"target"`
	Name   string `json:"name"`
	URL    string `json:"url"`
}

// Match returns the file whose name equals name exactly. Matching is case-sensitive.
func Match(files []FileDescriptor, name string) (FileDescriptor, bool) {
	for _, f := range files {
		if f.Name == name {
			return f, true
		}
	}
	return FileDescriptor{}, false
}

// Client lists, downloads, and uploads files in one SharePoint site.
type Client struct {
	cfg    Config
	http   *http.Client
	tokens *TokenCache
	store  *attachments.Store
	logger *slog.Logger

	mu      sync.Mutex
	driveID string
}

// New creates a client. Returns ErrDisabled when the credentials are incomplete.
func New(cfg Config, tokens *TokenCache, httpClient *http.Client, store *attachments.Store, logger *slog.Logger) (*Client, error) {
	if !cfg.Credentials.Complete() {
		return nil, ErrDisabled
	}

	cfg.applyDefaults()
	if _, err := cfg.siteRef(); err != nil {
		return nil, err
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		cfg:    cfg,
		http:   httpClient,
		tokens: tokens,
		store:  store,
		logger: logger.With("system", "graph"),
	}, nil
}

// Folder returns the configured default folder.
func (c *Client) Folder() string {
	return strings.Trim(c.cfg.Folder, "/")
}

// Authenticate returns a valid access token, exchanging credentials when needed.
func (c *Client) Authenticate(ctx context.Context) (*oauth2.Token, error) {
	return c.tokens.Token(ctx)
}

// ListFiles enumerates the files in folder, sorted by name. Subfolders are skipped.
// An empty folder lists the configured folder; when that folder does not exist
// the library root is listed instead.
func (c *Client) ListFiles(ctx context.Context, folder string) ([]FileDescriptor, error) {
	folder = strings.Trim(folder, "/")
	explicit := folder != ""
	if !explicit {
		folder = c.Folder()
	}

	driveID, err := c.drive(ctx)
	if err != nil {
		return nil, err
	}

	next := c.url("/drives/" + driveID + "/root/children")
	if folder != "" {
		var item driveItem
		err := c.call(ctx, request{method: http.MethodGet, url: c.url("/drives/" + driveID + "/root:/" + escapePath(folder))}, &item)
		switch {
		case errors.Is(err, ErrNotFound) && !explicit:
			c.logger.Debug("default folder missing, listing library root", "folder", folder)
		case err != nil:
			return nil, fmt.Errorf("resolve folder %s: %w", folder, err)
		case item.Folder == nil:
			return nil, fmt.Errorf("%w: %s is not a folder", ErrNotFound, folder)
		default:
			next = c.url("/drives/" + driveID + "/items/" + item.ID + "/children")
		}
	}

	var files []FileDescriptor
	for next != "" {
		var page itemPage
		if err := c.call(ctx, request{method: http.MethodGet, url: next}, &page); err != nil {
			return nil, fmt.Errorf("list %s: %w", folder, err)
		}
		for _, item := range page.Value {
			if item.Folder != nil || item.File == nil {
				continue
			}
			files = append(files, item.descriptor(driveID))
		}
		next = page.NextLink
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	c.logger.Info("listed folder", "folder", folder, "files", len(files))
	return files, nil
}

// FetchFile downloads the file named exactly name from the configured folder.
// Returns ErrNotFound without touching local storage when no file matches.
func (c *Client) FetchFile(ctx context.Context, name string) (*attachments.Attachment, error) {
	files, err := c.ListFiles(ctx, "")
	if err != nil {
		return nil, err
	}

	file, ok := Match(files, name)
	if !ok {
		return nil, fmt.Errorf("%w: file %s", ErrNotFound, name)
	}

	return c.Fetch(ctx, file)
}

// Fetch downloads file into the uploads directory under a disambiguated name.
// Files above the download threshold stream to disk; smaller ones are read into memory first.
func (c *Client) Fetch(ctx context.Context, file FileDescriptor) (*attachments.Attachment, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.DownloadTimeout)
	defer cancel()

	driveID := file.DriveID
	if driveID == "" {
		id, err := c.drive(ctx)
		if err != nil {
			return nil, err
		}
		driveID = id
	}

	req := request{method: http.MethodGet, url: c.url("/drives/" + driveID + "/items/" + file.ID + "/content")}
	stream := file.Size > c.cfg.DownloadThreshold

	var att *attachments.Attachment
	err := c.retry(ctx, "download "+file.Name, func() error {
		resp, err := c.attempt(ctx, ctx, req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		var src io.Reader = resp.Body
		if !stream {
			data, err := io.ReadAll(io.LimitReader(resp.Body, c.cfg.DownloadThreshold+1))
			if err != nil {
				return c.transportError(ctx, ctx, err)
			}
			if int64(len(data)) > c.cfg.DownloadThreshold {
				src = io.MultiReader(bytes.NewReader(data), resp.Body)
			} else {
				src = bytes.NewReader(data)
			}
		}

		att, err = c.store.Save(ctx, attachments.TagSharePoint, file.Name, src)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(fmt.Errorf("%w: download %s: %v", ErrTimeout, file.Name, err))
			}
			return backoff.Permanent(fmt.Errorf("save %s: %w", file.Name, err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("file downloaded",
		"name", file.Name,
		"key", att.Key,
		"size", att.Size,
		"streamed", stream,
	)
	return att, nil
}

// Upload writes data to the configured folder. Existing remote files are never
// replaced; Graph renames the upload instead.
func (c *Client) Upload(ctx context.Context, name string, data []byte, contentType string) (*RemoteLink, error) {
	driveID, err := c.drive(ctx)
	if err != nil {
		return nil, err
	}

	target := strings.Trim(c.Folder()+"/"+name, "/")
	base := c.url("/drives/" + driveID + "/root:/" + escapePath(target))

	var item driveItem
	if len(data) <= SimpleUploadLimit {
		req := request{
			method:      http.MethodPut,
			url:         base + ":/content?@microsoft.graph.conflictBehavior=rename",
			body:        data,
			contentType: contentType,
			timeout:     c.cfg.DownloadTimeout,
		}
		if err := c.call(ctx, req, &item); err != nil {
			return nil, fmt.Errorf("upload %s: %w", name, err)
		}
	} else {
		if err := c.uploadSession(ctx, base, data, &item); err != nil {
			return nil, fmt.Errorf("upload %s: %w", name, err)
		}
	}

	c.logger.Info("file uploaded", "name", item.Name, "size", len(data), "url", item.WebURL)
	return &RemoteLink{Target: "sharepoint", Name: item.Name, URL: item.WebURL}, nil
}

func (c *Client) uploadSession(ctx context.Context, base string, data []byte, item *driveItem) error {
	body, _ := json.Marshal(map[string]any{
		"item": map[string]any{"@microsoft.graph.conflictBehavior": "rename"},
	})

	var session struct {
		UploadURL string `json:"uploadUrl"`
	}
	create := request{method: http.MethodPost, url: base + ":/createUploadSession", body: body, contentType: "application/json"}
	if err := c.call(ctx, create, &session); err != nil {
		return fmt.Errorf("create upload session: %w", err)
	}
	if session.UploadURL == "" {
		return fmt.Errorf("create upload session: empty upload url")
	}

	total := len(data)
	for off := 0; off < total; off += UploadChunkSize {
		end := min(off+UploadChunkSize, total)
		chunk := request{
			method:      http.MethodPut,
			url:         session.UploadURL,
			body:        data[off:end],
			contentType: "application/octet-stream",
			header:      map[string]string{"Content-Range": fmt.Sprintf("bytes %d-%d/%d", off, end-1, total)},
			anonymous:   true,
			timeout:     c.cfg.DownloadTimeout,
		}

		var dst any
		if end == total {
			dst = item
		}
		if err := c.call(ctx, chunk, dst); err != nil {
			return fmt.Errorf("upload bytes %d-%d: %w", off, end-1, err)
		}
	}

	return nil
}

// drive resolves and caches the id of the site's first document library.
func (c *Client) drive(ctx context.Context) (string, error) {
	c.mu.Lock()
	id := c.driveID
	c.mu.Unlock()
	if id != "" {
		return id, nil
	}

	ref, err := c.cfg.siteRef()
	if err != nil {
		return "", err
	}

	var site struct {
		ID string `json:"id"`
	}
	if err := c.call(ctx, request{method: http.MethodGet, url: c.url("/sites/" + ref)}, &site); err != nil {
		return "", fmt.Errorf("resolve site: %w", err)
	}

	var drives struct {
		Value []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"value"`
	}
	if err := c.call(ctx, request{method: http.MethodGet, url: c.url("/sites/" + site.ID + "/drives")}, &drives); err != nil {
		return "", fmt.Errorf("resolve drive: %w", err)
	}
	if len(drives.Value) == 0 {
		return "", fmt.Errorf("%w: site has no document library", ErrNotFound)
	}

	id = drives.Value[0].ID
	c.mu.Lock()
	c.driveID = id
	c.mu.Unlock()

	c.logger.Debug("drive resolved", "site", site.ID, "drive", id, "name", drives.Value[0].Name)
	return id, nil
}

type request struct {
	method      string
	url         string
	body        []byte
	contentType string
	header      map[string]string
	timeout     time.Duration

	// anonymous requests go to pre-authenticated URLs and carry no bearer token.
	anonymous bool
}

// call runs req with retries and decodes the JSON response into v when v is non-nil.
func (c *Client) call(ctx context.Context, req request, v any) error {
	timeout := req.timeout
	if timeout <= 0 {
		timeout = c.cfg.RequestTimeout
	}

	return c.retry(ctx, req.method+" "+redact(req.url), func() error {
		actx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		resp, err := c.attempt(actx, ctx, req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if v == nil {
			io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			if actx.Err() != nil {
				return c.transportError(actx, ctx, err)
			}
			return backoff.Permanent(fmt.Errorf("decode %s response: %w", redact(req.url), err))
		}
		return nil
	})
}

func (c *Client) retry(ctx context.Context, op string, fn func() error) error {
	policy := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(c.cfg.RetryInitial),
		backoff.WithMaxElapsedTime(0),
	)
	b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(c.cfg.MaxRetries)), ctx)

	err := backoff.RetryNotify(fn, b, func(err error, next time.Duration) {
		c.logger.Warn("retrying graph call", "op", op, "error", err, "backoff", next)
	})
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, ErrTimeout) && !errors.Is(err, ErrAuth) {
		return fmt.Errorf("%w: %s: %v", ErrTimeout, op, err)
	}
	return err
}

// attempt sends req once. A 401 invalidates the token and retries exactly once
// with a freshly exchanged token. Non-retryable failures are wrapped in backoff.Permanent.
func (c *Client) attempt(ctx, parent context.Context, req request) (*http.Response, error) {
	var tok *oauth2.Token
	if !req.anonymous {
		t, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		tok = t
	}

	resp, err := c.roundTrip(ctx, req, tok)
	if err != nil {
		return nil, c.transportError(ctx, parent, err)
	}

	if resp.StatusCode == http.StatusUnauthorized && !req.anonymous {
		drain(resp)
		c.logger.Warn("graph rejected token, forcing refresh", "url", redact(req.url))
		c.tokens.Invalidate(tok)

		tok, err = c.tokens.Token(ctx)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		resp, err = c.roundTrip(ctx, req, tok)
		if err != nil {
			return nil, c.transportError(ctx, parent, err)
		}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	serr := statusError(req, resp)
	if retryableStatus(resp.StatusCode) {
		return nil, serr
	}
	return nil, backoff.Permanent(serr)
}

func (c *Client) roundTrip(ctx context.Context, req request, tok *oauth2.Token) (*http.Response, error) {
	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}

	hr, err := http.NewRequestWithContext(ctx, req.method, req.url, body)
	if err != nil {
		return nil, backoff.Permanent(err)
	}

	hr.Header.Set("Accept", "application/json")
	if req.contentType != "" {
		hr.Header.Set("Content-Type", req.contentType)
	}
	for k, v := range req.header {
		hr.Header.Set(k, v)
	}
	if tok != nil {
		tok.SetAuthHeader(hr)
	}

	return c.http.Do(hr)
}

// transportError classifies a network failure. An expired parent context is final;
// an expired attempt or a network error is retried.
func (c *Client) transportError(ctx, parent context.Context, err error) error {
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		return err
	}

	if perr := parent.Err(); perr != nil {
		if errors.Is(perr, context.DeadlineExceeded) {
			return backoff.Permanent(fmt.Errorf("%w: %v", ErrTimeout, err))
		}
		return backoff.Permanent(err)
	}

	var nerr net.Error
	if ctx.Err() != nil || (errors.As(err, &nerr) && nerr.Timeout()) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrTransient, err)
}

func (c *Client) url(path string) string {
	return strings.TrimSuffix(c.cfg.GraphURL, "/") + path
}

type driveItem struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModifiedDateTime"`
	WebURL       string    `json:"webUrl"`
	DownloadURL  string    `json:"@microsoft.graph.downloadUrl"`
	File         *struct {
		MimeType string `json:"mimeType"`
	} `json:"file"`
	Folder *struct {
		ChildCount int `json:"childCount"`
	} `json:"folder"`
}

func (i driveItem) descriptor(driveID string) FileDescriptor {
	d := FileDescriptor{
		ID:          i.ID,
		DriveID:     driveID,
		Name:        i.Name,
		Size:        i.Size,
		ModifiedAt:  i.LastModified,
		WebURL:      i.WebURL,
		DownloadURL: i.DownloadURL,
	}
	if i.File != nil {
		d.MimeType = i.File.MimeType
	}
	return d
}

type itemPage struct {
	Value    []driveItem `json:"value"`
	NextLink string      `json:"@odata.nextLink"`
}

func statusError(req request, resp *http.Response) *StatusError {
	defer resp.Body.Close()

	serr := &StatusError{
		Method:     req.method,
		Path:       redact(req.url),
		StatusCode: resp.StatusCode,
	}

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&body); err == nil {
		serr.Code = body.Error.Code
		serr.Message = body.Error.Message
	}
	return serr
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	resp.Body.Close()
}

func escapePath(p string) string {
	parts := strings.Split(strings.Trim(p, "/"), "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

// redact drops the query string, which carries tokens on pre-authenticated URLs.
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid url>"
	}
	u.RawQuery = ""
	return u.Path
}
