package handlers

import (
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/logger"
)

const (
	imageCacheControl = "public, immutable, max-age=31536000, s-maxage=31536000"
	defaultImageType  = "image/png"
	maxImageRedirects = 5
)

var errRedirectNotAllowed = errors.New("image redirect leaves allowed host")

// ImageProxy fetches player photos from a single allowed host so the
// browser can load them same-origin.
type ImageProxy struct {
	allowedHost string
	client      *http.Client
}

// NewImageProxy uses a copy of client whose redirects must stay on
// allowedHost.
func NewImageProxy(allowedHost string, client *http.Client) *ImageProxy {
	c := http.Client{Timeout: 15 * time.Second}
	if client != nil {
		c = *client
	}
	p := &ImageProxy{allowedHost: allowedHost}
	c.CheckRedirect = p.checkRedirect
	p.client = &c
	return p
}

func (p *ImageProxy) allowed(u *url.URL) bool {
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return p.allowedHost != "" && strings.EqualFold(u.Hostname(), p.allowedHost)
}

func (p *ImageProxy) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxImageRedirects {
		return errors.Newf("stopped after %d redirects", len(via))
	}
	if !p.allowed(req.URL) {
		return errors.Wrapf(errRedirectNotAllowed, "redirect to %s", req.URL.Host)
	}
	return nil
}

func (p *ImageProxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	raw := r.URL.Query().Get("url")
	if raw == "" {
		http.Error(w, "Missing url parameter", http.StatusBadRequest)
		return
	}
	target, err := url.Parse(raw)
	if err != nil || target.Host == "" || (target.Scheme != "http" && target.Scheme != "https") {
		http.Error(w, "Invalid url parameter", http.StatusBadRequest)
		return
	}
	if !p.allowed(target) {
		http.Error(w, "Host not allowed", http.StatusForbidden)
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target.String(), nil)
	if err != nil {
		http.Error(w, "Invalid url parameter", http.StatusBadRequest)
		return
	}
	resp, err := p.client.Do(req)
	if errors.Is(err, errRedirectNotAllowed) {
		logger.Warn("Image proxy refused off-host redirect", "error", err, "url", target.String())
		http.Error(w, "Host not allowed", http.StatusForbidden)
		return
	}
	if err != nil {
		logger.Error("Image proxy fetch failed", "error", err, "url", target.String())
		http.Error(w, "Failed to fetch image", http.StatusInternalServerError)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Warn("Image proxy upstream error", "status", resp.StatusCode, "url", target.String())
		http.Error(w, "Failed to fetch image", resp.StatusCode)
		return
	}

	for _, h := range []string{"Content-Type", "ETag", "Content-Length"} {
		if v := resp.Header.Get(h); v != "" {
			w.Header().Set(h, v)
		}
	}
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", defaultImageType)
	}
	w.Header().Set("Cache-Control", imageCacheControl)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, resp.Body); err != nil {
		logger.Debug("Image proxy copy interrupted", "error", err)
	}
}
