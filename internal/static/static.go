// Package static serves the dashboard's compiled files from an ordered list
// of root directories.
package static

import (
	"errors"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/rs/zerolog"

	"modelhostd/internal/common/fsutil"
)

const indexFile = "index.html"

// Resolver looks a request path up in each root in order and serves the
// first regular file found.
type Resolver struct {
	roots []string
	log   zerolog.Logger
}

// New returns a resolver over roots. Empty entries are skipped and "~" is
// expanded.
func New(roots []string, log zerolog.Logger) (*Resolver, error) {
	r := &Resolver{log: log}
	for _, root := range roots {
		root = strings.TrimSpace(root)
		if root == "" {
			continue
		}
		p, err := fsutil.ExpandHome(root)
		if err != nil {
			return nil, err
		}
		r.roots = append(r.roots, p)
	}
	return r, nil
}

// Roots returns the configured roots in lookup order.
func (r *Resolver) Roots() []string { return append([]string(nil), r.roots...) }

// Resolve maps rel onto the first root holding a regular file with that
// name. A path escaping a root fails with fsutil.ErrOutsideRoot.
func (r *Resolver) Resolve(rel string) (string, error) {
	rel = strings.TrimPrefix(rel, "/")
	if rel == "" {
		rel = indexFile
	}
	for _, root := range r.roots {
		p, err := fsutil.SafeJoin(root, rel)
		if err != nil {
			return "", err
		}
		if fi, err := os.Stat(p); err == nil && fi.Mode().IsRegular() {
			return p, nil
		}
	}
	return "", os.ErrNotExist
}

func (r *Resolver) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	p, err := r.Resolve(req.URL.Path)
	if err != nil {
		msg := "No index.html found"
		if rel := strings.TrimPrefix(req.URL.Path, "/"); rel != "" {
			msg = `Path "` + rel + `" not found`
		}
		if errors.Is(err, fsutil.ErrOutsideRoot) {
			r.log.Warn().Str("path", req.URL.Path).Msg("rejected path outside static roots")
		}
		http.Error(w, msg, http.StatusNotFound)
		return
	}
	switch path.Ext(p) {
	case ".cjs":
		w.Header().Set("Content-Type", "text/javascript")
	case ".html":
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	}
	http.ServeFile(w, req, p)
}
