// Package demosite serves a stand-in looking-glass host: a small SPA page
// that hydrates its query form after load, and a speed-test endpoint
// streaming zero-filled files whose size is derived from the requested
// name. It exists for live injection runs and end-to-end tests; nothing
// in the injector depends on it.
package demosite

import (
	_ "embed"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

//go:embed page.html
var pageHTML []byte

// maxStreamBytes caps a single download at 10 GiB.
const maxStreamBytes = 10 << 30

var fileNameRE = regexp.MustCompile(`^([0-9]{1,4})(KB|MB|GB)\.bin$`)

var zeroChunk = make([]byte, 64<<10)

// Site is the demo host server.
type Site struct {
	logger *slog.Logger
}

// New creates a Site.
func New(logger *slog.Logger) *Site {
	if logger == nil {
		logger = slog.Default()
	}
	return &Site{logger: logger}
}

// Handler returns the routed HTTP handler.
func (s *Site) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handlePage)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/speedtest/{file}", s.handleSpeedTest)
	r.Head("/speedtest/{file}", s.handleSpeedTest)
	return r
}

func (s *Site) handlePage(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(pageHTML)
}

func (s *Site) handleSpeedTest(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "file")
	size, ok := parseSize(name)
	if !ok {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	if r.Method == http.MethodHead {
		return
	}

	remaining := size
	for remaining > 0 {
		n := int64(len(zeroChunk))
		if remaining < n {
			n = remaining
		}
		wrote, err := w.Write(zeroChunk[:n])
		if err != nil {
			// Client went away mid-download; normal for speed tests.
			s.logger.Debug("demosite: stream aborted", "file", name, "error", err)
			return
		}
		remaining -= int64(wrote)
	}
}

// parseSize maps names like 10MB.bin to byte counts.
func parseSize(name string) (int64, bool) {
	m := fileNameRE.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	var unit int64
	switch m[2] {
	case "KB":
		unit = 1 << 10
	case "MB":
		unit = 1 << 20
	case "GB":
		unit = 1 << 30
	}
	size := n * unit
	if size > maxStreamBytes {
		return 0, false
	}
	return size, true
}
