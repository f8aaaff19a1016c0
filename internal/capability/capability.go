// Package capability answers whether a model's weights can be used on this host.
package capability

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"modelhostd/internal/common/fsutil"
)

// Checker reports whether usable weights exist locally or are remotely accessible.
// Implementations must not panic; any failure reads as false.
type Checker interface {
	HasUsableWeights(modelPath string) bool
}

// Func adapts a plain function to Checker.
type Func func(modelPath string) bool

func (f Func) HasUsableWeights(modelPath string) bool { return f(modelPath) }

// Static always returns the same answer.
type Static bool

func (s Static) HasUsableWeights(string) bool { return bool(s) }

// Any returns true when one of the checkers does. Checkers run in order.
func Any(checkers ...Checker) Checker {
	return Func(func(modelPath string) bool {
		for _, c := range checkers {
			if c != nil && c.HasUsableWeights(modelPath) {
				return true
			}
		}
		return false
	})
}

// LocalWeights looks for a Hugging Face cache directory under Dir:
// <Dir>/models--<org>--<name>.
type LocalWeights struct {
	Dir string
}

func (l LocalWeights) HasUsableWeights(modelPath string) bool {
	if l.Dir == "" || strings.TrimSpace(modelPath) == "" {
		return false
	}
	return fsutil.PathExists(filepath.Join(l.Dir, CacheDirName(modelPath)))
}

// CacheDirName returns the cache directory name for a repository path.
func CacheDirName(modelPath string) string {
	return "models--" + strings.ReplaceAll(modelPath, "/", "--")
}

const defaultHubURL = "https://huggingface.co"

// HubAccess checks repository access against the Hugging Face API.
type HubAccess struct {
	baseURL string
	token   string
	timeout time.Duration
	client  *http.Client
	log     zerolog.Logger
}

// NewHubAccess constructs a hub checker. An empty baseURL uses huggingface.co.
func NewHubAccess(baseURL, token string, timeout time.Duration, log zerolog.Logger) *HubAccess {
	if baseURL == "" {
		baseURL = defaultHubURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &HubAccess{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		timeout: timeout,
		client:  &http.Client{Transport: tr},
		log:     log,
	}
}

func (h *HubAccess) HasUsableWeights(modelPath string) bool {
	modelPath = strings.Trim(strings.TrimSpace(modelPath), "/")
	if h == nil || modelPath == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()
	u := h.baseURL + "/api/models/" + escapeRepo(modelPath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		h.log.Debug().Err(err).Str("model_path", modelPath).Msg("hub request build failed")
		return false
	}
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		h.log.Warn().Err(err).Str("model_path", modelPath).Msg("hub access check failed")
		return false
	}
	defer resp.Body.Close()
	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	if !ok {
		h.log.Info().Int("status", resp.StatusCode).Str("model_path", modelPath).Msg("hub access denied")
	}
	return ok
}

// escapeRepo escapes each path segment but keeps the org/name separator.
func escapeRepo(p string) string {
	parts := strings.Split(p, "/")
	for i, s := range parts {
		parts[i] = url.PathEscape(s)
	}
	return strings.Join(parts, "/")
}
