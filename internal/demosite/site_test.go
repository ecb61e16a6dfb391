package demosite_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hazyhaar/dominject/internal/demosite"
)

func serve(t *testing.T, method, path string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	demosite.New(nil).Handler().ServeHTTP(rec, req)
	return rec.Result()
}

func TestPage_ServesSPAShell(t *testing.T) {
	res := serve(t, http.MethodGet, "/")
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", res.StatusCode)
	}
	body, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	page := string(body)
	for _, marker := range []string{"<main>", "query-stack", "lg-color-mode"} {
		if !strings.Contains(page, marker) {
			t.Fatalf("page missing %q", marker)
		}
	}
}

func TestSpeedTest_StreamsExactSize(t *testing.T) {
	res := serve(t, http.MethodGet, "/speedtest/4KB.bin")
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", res.StatusCode)
	}
	if got := res.Header.Get("Content-Length"); got != "4096" {
		t.Fatalf("Content-Length = %q, want 4096", got)
	}
	body, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if len(body) != 4096 {
		t.Fatalf("body = %d bytes, want 4096", len(body))
	}
	for i, b := range body {
		if b != 0 {
			t.Fatalf("byte %d = %d, want 0", i, b)
		}
	}
}

func TestSpeedTest_HeadSendsHeadersOnly(t *testing.T) {
	res := serve(t, http.MethodHead, "/speedtest/10MB.bin")
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", res.StatusCode)
	}
	if got := res.Header.Get("Content-Length"); got != "10485760" {
		t.Fatalf("Content-Length = %q, want 10485760", got)
	}
	body, _ := io.ReadAll(res.Body)
	if len(body) != 0 {
		t.Fatalf("HEAD body = %d bytes, want 0", len(body))
	}
}

func TestSpeedTest_RejectsUnknownNames(t *testing.T) {
	for _, path := range []string{
		"/speedtest/evil.bin",
		"/speedtest/10TB.bin",
		"/speedtest/0MB.bin",
		"/speedtest/99999GB.bin",
		"/speedtest/10MB.exe",
	} {
		res := serve(t, http.MethodGet, path)
		res.Body.Close()
		if res.StatusCode != http.StatusNotFound {
			t.Fatalf("%s: status = %d, want 404", path, res.StatusCode)
		}
	}
}

func TestHealthz(t *testing.T) {
	res := serve(t, http.MethodGet, "/healthz")
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", res.StatusCode)
	}
}
