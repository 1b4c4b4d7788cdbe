package remote

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// HTTPClient abstracts HTTP transport for testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// WebDAVConfig configures a public-share WebDAV session.
type WebDAVConfig struct {
	// ShareURL is the public share link, e.g.
	// https://cloud.example.com/index.php/s/AbCdEfGh
	ShareURL string
	// Password is the share password.
	Password string
	// ListingTimeout bounds each PROPFIND (0 = 60s).
	ListingTimeout time.Duration
	// Client overrides the HTTP client (nil = http.DefaultClient-like).
	Client HTTPClient
}

// WebDAVSession talks to an ownCloud-style public share over WebDAV.
// The share token from the link is the basic-auth username and the share
// password is the basic-auth password against public.php/webdav.
//
// A WebDAVSession is stateful and not safe for concurrent use.
type WebDAVSession struct {
	endpoint *url.URL
	token    string
	password string
	listWait time.Duration
	client   HTTPClient
}

const propfindBody = `<?xml version="1.0" encoding="utf-8"?>
<d:propfind xmlns:d="DAV:">
  <d:prop>
    <d:displayname/>
    <d:resourcetype/>
    <d:getcontentlength/>
  </d:prop>
</d:propfind>`

// NewWebDAVSession builds a session from a share link. The link is parsed
// for the share token; no network traffic happens until Authenticate.
func NewWebDAVSession(cfg WebDAVConfig) (*WebDAVSession, error) {
	u, err := url.Parse(cfg.ShareURL)
	if err != nil {
		return nil, fmt.Errorf("parsing share URL %q: %w", cfg.ShareURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("share URL %q must be http(s)", cfg.ShareURL)
	}

	prefix, token, err := splitShareLink(u.Path)
	if err != nil {
		return nil, fmt.Errorf("share URL %q: %w", cfg.ShareURL, err)
	}

	endpoint := &url.URL{Scheme: u.Scheme, Host: u.Host, Path: prefix + "/public.php/webdav"}

	wait := cfg.ListingTimeout
	if wait <= 0 {
		wait = 60 * time.Second
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{}
	}

	return &WebDAVSession{
		endpoint: endpoint,
		token:    token,
		password: cfg.Password,
		listWait: wait,
		client:   client,
	}, nil
}

// splitShareLink extracts the installation prefix and share token from a
// share link path like /index.php/s/AbCdEfGh or /owncloud/s/AbCdEfGh.
func splitShareLink(p string) (prefix, token string, err error) {
	before, after, found := strings.Cut(p, "/s/")
	if !found {
		return "", "", fmt.Errorf("no /s/<token> segment in path %q", p)
	}
	token = strings.Trim(strings.SplitN(after, "/", 2)[0], "/")
	if token == "" {
		return "", "", fmt.Errorf("empty share token in path %q", p)
	}
	prefix = strings.TrimSuffix(before, "/index.php")
	prefix = strings.TrimSuffix(prefix, "/")
	return prefix, token, nil
}

// Authenticate verifies the token and password with a Depth:0 PROPFIND on
// the share root.
func (s *WebDAVSession) Authenticate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.listWait)
	defer cancel()

	req, err := s.newRequest(ctx, "PROPFIND", nil, strings.NewReader(propfindBody))
	if err != nil {
		return &Error{Op: OpAuth, Err: err}
	}
	req.Header.Set("Depth", "0")

	resp, err := s.client.Do(req)
	if err != nil {
		return &Error{Op: OpAuth, Err: err, Hint: "check network connectivity and the share URL"}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &Error{Op: OpAuth, Err: fmt.Errorf("HTTP %d", resp.StatusCode), Hint: "check the share password"}
	case resp.StatusCode >= 300:
		return &Error{Op: OpAuth, Err: fmt.Errorf("HTTP %d", resp.StatusCode), Hint: "check that the link is a password-protected public share"}
	}
	return nil
}

// ListChildren lists the immediate children of dir with a Depth:1 PROPFIND.
// WebDAV listings are complete in a single response, so the result is
// stable by construction.
func (s *WebDAVSession) ListChildren(ctx context.Context, dir []string) ([]Node, error) {
	remotePath := path.Join(dir...)

	ctx, cancel := context.WithTimeout(ctx, s.listWait)
	defer cancel()

	req, err := s.newRequest(ctx, "PROPFIND", dir, strings.NewReader(propfindBody))
	if err != nil {
		return nil, &Error{Op: OpList, Path: remotePath, Err: err}
	}
	req.Header.Set("Depth", "1")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &Error{Op: OpList, Path: remotePath, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusMultiStatus {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &Error{Op: OpList, Path: remotePath, Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}

	var ms multistatus
	if err := xml.NewDecoder(resp.Body).Decode(&ms); err != nil {
		return nil, &Error{Op: OpList, Path: remotePath, Err: fmt.Errorf("parsing listing: %w", err)}
	}

	selfPath := strings.TrimSuffix(s.endpoint.JoinPath(dir...).Path, "/")

	var nodes []Node
	for _, r := range ms.Responses {
		href, err := url.PathUnescape(r.Href)
		if err != nil {
			href = r.Href
		}
		href = strings.TrimSuffix(href, "/")
		if href == selfPath {
			continue // the collection itself
		}

		node := nodeFromResponse(r, href)
		node.Path = append(append([]string(nil), dir...), node.Name)
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func nodeFromResponse(r davResponse, href string) Node {
	node := Node{Kind: KindUnknown, Size: -1}

	for _, ps := range r.Propstat {
		if !strings.Contains(ps.Status, "200") {
			continue
		}
		if ps.Prop.DisplayName != "" {
			node.Name = ps.Prop.DisplayName
		}
		if rt := ps.Prop.ResourceType; rt != nil {
			if rt.Collection != nil {
				node.Kind = KindFolder
			} else {
				node.Kind = KindFile
			}
		}
		if ps.Prop.ContentLength != "" {
			if n, err := strconv.ParseInt(ps.Prop.ContentLength, 10, 64); err == nil {
				node.Size = n
			}
		}
	}

	if node.Name == "" {
		node.Name = path.Base(href)
	}
	return node
}

// webdavHandle tracks one in-flight GET transfer.
type webdavHandle struct {
	localPath string
	partPath  string
	cancel    context.CancelFunc
	done      chan error // buffered, written once by the transfer goroutine
}

func (h *webdavHandle) LocalPath() string { return h.localPath }

// StartDownload streams the file into localPath+".part" in the background
// and renames it onto localPath when the body is fully written.
func (s *WebDAVSession) StartDownload(ctx context.Context, node Node, localPath string) (Handle, error) {
	remotePath := node.RemotePath()

	ctx, cancel := context.WithCancel(ctx)
	req, err := s.newRequest(ctx, http.MethodGet, node.Path, nil)
	if err != nil {
		cancel()
		return nil, &Error{Op: OpDownload, Path: remotePath, Err: err}
	}

	h := &webdavHandle{
		localPath: localPath,
		partPath:  localPath + ".part",
		cancel:    cancel,
		done:      make(chan error, 1),
	}

	go func() {
		h.done <- s.transfer(req, remotePath, h)
	}()
	return h, nil
}

func (s *WebDAVSession) transfer(req *http.Request, remotePath string, h *webdavHandle) error {
	resp, err := s.client.Do(req)
	if err != nil {
		return &Error{Op: OpDownload, Path: remotePath, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &Error{Op: OpDownload, Path: remotePath, Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}

	part, err := os.Create(h.partPath)
	if err != nil {
		return &Error{Op: OpDownload, Path: remotePath, Err: fmt.Errorf("creating partial file: %w", err)}
	}

	if _, err := io.Copy(part, resp.Body); err != nil {
		_ = part.Close()
		_ = os.Remove(h.partPath)
		return &Error{Op: OpDownload, Path: remotePath, Err: fmt.Errorf("writing partial file: %w", err)}
	}
	if err := part.Sync(); err != nil {
		_ = part.Close()
		_ = os.Remove(h.partPath)
		return &Error{Op: OpDownload, Path: remotePath, Err: fmt.Errorf("syncing partial file: %w", err)}
	}
	if err := part.Close(); err != nil {
		_ = os.Remove(h.partPath)
		return &Error{Op: OpDownload, Path: remotePath, Err: fmt.Errorf("closing partial file: %w", err)}
	}

	// Atomic within the directory: a file at localPath is always complete.
	if err := os.Rename(h.partPath, h.localPath); err != nil {
		_ = os.Remove(h.partPath)
		return &Error{Op: OpDownload, Path: remotePath, Err: fmt.Errorf("renaming partial file: %w", err)}
	}
	return nil
}

// AwaitCompletion waits for the transfer behind h to land on disk. It
// watches the destination directory so completion is observed from the
// filesystem itself, the same signal the existence check trusts, rather
// than only from the transfer goroutine.
func (s *WebDAVSession) AwaitCompletion(ctx context.Context, handle Handle, timeout time.Duration) error {
	h, ok := handle.(*webdavHandle)
	if !ok {
		return &Error{Op: OpDownload, Err: fmt.Errorf("foreign handle %T", handle)}
	}

	var events chan fsnotify.Event
	watcher, err := fsnotify.NewWatcher()
	if err == nil {
		defer watcher.Close()
		if err := watcher.Add(filepath.Dir(h.localPath)); err == nil {
			events = watcher.Events
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case err := <-h.done:
			h.cancel()
			if err != nil {
				return err
			}
			if _, statErr := os.Stat(h.localPath); statErr != nil {
				return &Error{Op: OpDownload, Path: h.localPath, Err: fmt.Errorf("transfer finished but file is not on disk: %w", statErr)}
			}
			return nil
		case ev := <-events:
			// The rename onto the final name is the completion signal.
			if ev.Name == h.localPath && ev.Op&(fsnotify.Create|fsnotify.Rename) != 0 {
				if _, statErr := os.Stat(h.localPath); statErr == nil {
					h.cancel()
					return nil
				}
			}
		case <-timer.C:
			s.abort(h)
			return &Error{Op: OpDownload, Path: h.localPath, Err: ErrDownloadTimeout}
		case <-ctx.Done():
			s.abort(h)
			return ctx.Err()
		}
	}
}

// abort cancels the transfer, waits for the goroutine to finish and
// removes any partial file it left behind.
func (s *WebDAVSession) abort(h *webdavHandle) {
	h.cancel()
	<-h.done
	_ = os.Remove(h.partPath)
}

// Close releases the session's transport resources.
func (s *WebDAVSession) Close() error {
	if c, ok := s.client.(*http.Client); ok {
		c.CloseIdleConnections()
	}
	return nil
}

func (s *WebDAVSession) newRequest(ctx context.Context, method string, segments []string, body io.Reader) (*http.Request, error) {
	u := s.endpoint.JoinPath(segments...)
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(s.token, s.password)
	if body != nil {
		req.Header.Set("Content-Type", "application/xml; charset=utf-8")
	}
	return req, nil
}

// WebDAV multistatus decoding. Field tags match local names only, so any
// DAV: prefix the server uses is accepted.
type multistatus struct {
	XMLName   xml.Name      `xml:"multistatus"`
	Responses []davResponse `xml:"response"`
}

type davResponse struct {
	Href     string        `xml:"href"`
	Propstat []davPropstat `xml:"propstat"`
}

type davPropstat struct {
	Status string  `xml:"status"`
	Prop   davProp `xml:"prop"`
}

type davProp struct {
	DisplayName   string           `xml:"displayname"`
	ResourceType  *davResourceType `xml:"resourcetype"`
	ContentLength string           `xml:"getcontentlength"`
}

type davResourceType struct {
	Collection *struct{} `xml:"collection"`
}
