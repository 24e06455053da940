package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	neturl "net/url"
	"path"
	"strings"
	"time"
)

const maxOriginBody = 10 << 20

var errOriginNotFound = errors.New("origin: not found")

// originPage is one raw response from the origin.
type originPage struct {
	Status      int
	ContentType string
	Body        []byte
}

func (p *originPage) isHTML() bool {
	mt, _, err := mime.ParseMediaType(p.ContentType)
	if err != nil {
		return strings.HasPrefix(strings.ToLower(p.ContentType), "text/html")
	}
	return mt == "text/html"
}

type origin interface {
	Fetch(ctx context.Context, pagePath, rawQuery string) (*originPage, error)
}

func newOrigin(cfg Config) origin {
	if cfg.Upstream != "" {
		base, err := neturl.Parse(cfg.Upstream)
		if err == nil && base.Scheme != "" {
			return &upstreamOrigin{
				base:   base,
				client: &http.Client{Timeout: 20 * time.Second},
			}
		}
		cfg.Logger.Printf("ERR upstream %q is not an absolute URL; serving %s", cfg.Upstream, cfg.SiteDir)
	}
	return &dirOrigin{fsys: http.Dir(cfg.SiteDir)}
}

// dirOrigin serves files from a local site directory. Directory paths
// resolve to their index.html.
type dirOrigin struct {
	fsys http.FileSystem
}

func (o *dirOrigin) Fetch(_ context.Context, pagePath, _ string) (*originPage, error) {
	name := pagePath
	if strings.HasSuffix(name, "/") {
		name += "index.html"
	}
	body, err := o.read(name)
	if errors.Is(err, errIsDir) {
		name = path.Join(name, "index.html")
		body, err = o.read(name)
	}
	if err != nil {
		return nil, err
	}
	ct := mime.TypeByExtension(path.Ext(name))
	if ct == "" {
		ct = http.DetectContentType(body)
	}
	return &originPage{Status: http.StatusOK, ContentType: ct, Body: body}, nil
}

var errIsDir = errors.New("origin: is a directory")

func (o *dirOrigin) read(name string) ([]byte, error) {
	f, err := o.fsys.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errOriginNotFound
		}
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", name, err)
	}
	if st.IsDir() {
		return nil, errIsDir
	}
	body, err := io.ReadAll(io.LimitReader(f, maxOriginBody))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return body, nil
}

// upstreamOrigin fronts a remote site.
type upstreamOrigin struct {
	base   *neturl.URL
	client *http.Client
}

func (o *upstreamOrigin) Fetch(ctx context.Context, pagePath, rawQuery string) (*originPage, error) {
	target := upstreamURL(o.base, pagePath, rawQuery)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", target, err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,*/*;q=0.8")
	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", target, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, errOriginNotFound
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxOriginBody))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", target, err)
	}
	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = http.DetectContentType(body)
	}
	return &originPage{Status: resp.StatusCode, ContentType: ct, Body: body}, nil
}
