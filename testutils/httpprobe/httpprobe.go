// Package httpprobe holds helpers for tests that talk to a running labrun web server.
package httpprobe

import (
	"bufio"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"
)

// FreePort returns a TCP port that was free when it was probed.
func FreePort(t testing.TB) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to probe for a free port: %v", err)
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

// Do sends a request with the given method and returns the status code and body.
func Do(t testing.TB, method, url string) (int, string) {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		t.Fatalf("Failed to build %s %s: %v", method, url, err)
	}
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Failed to perform %s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response body: %v", err)
	}
	return resp.StatusCode, string(body)
}

// Get is Do with GET.
func Get(t testing.TB, url string) (int, string) {
	t.Helper()
	return Do(t, http.MethodGet, url)
}

// WaitForLine scans r until a line contains substr and reports whether it was
// seen before timeout. Every scanned line is passed to logf. drained is closed
// once r reaches EOF; callers must wait for it before releasing r.
func WaitForLine(r io.Reader, substr string, timeout time.Duration, logf func(format string, args ...any)) (found bool, drained <-chan struct{}) {
	seen := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		scanner := bufio.NewScanner(r)
		signaled := false
		for scanner.Scan() {
			line := scanner.Text()
			logf("[LABRUN] %s", line)
			if !signaled && strings.Contains(line, substr) {
				close(seen)
				signaled = true
			}
		}
	}()

	select {
	case <-seen:
		return true, done
	case <-done:
		return false, done
	case <-time.After(timeout):
		return false, done
	}
}
