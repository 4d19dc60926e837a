package labrun

import (
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/labrun/labrun/testutils/httpprobe"
)

// buildLabRun compiles cmd/labrun into a temp dir and returns the binary path.
func buildLabRun(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	goBin, err := exec.LookPath("go")
	if err != nil {
		t.Skip("go toolchain not found in PATH")
	}
	bin := filepath.Join(t.TempDir(), "labrun")
	build := exec.Command(goBin, "build", "-o", bin, "./cmd/labrun")
	if out, err := build.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build labrun: %v\n%s", err, out)
	}
	return bin
}

func TestIntegration_Simple(t *testing.T) {
	bin := buildLabRun(t)
	port := httpprobe.FreePort(t)
	token := time.Now().UnixNano()
	body := fmt.Sprintf("ok %v", token)

	workDir := t.TempDir()
	cmd := exec.Command(bin, "--port", fmt.Sprint(port), "--body", body)
	// sample.txt is written relative to the working directory.
	cmd.Dir = workDir

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		t.Fatalf("Failed to get stdout pipe: %v", err)
	}
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		t.Fatalf("Failed to start labrun: %v", err)
	}

	t.Log("Wait for the web server banner.")
	found, drained := httpprobe.WaitForLine(stdoutPipe, "Server is running!", 10*time.Second, t.Logf)
	t.Cleanup(func() {
		_ = cmd.Process.Kill()
		<-drained
		_ = cmd.Wait()
	})
	if !found {
		t.Fatal("labrun never reported a running server")
	}

	status, got := httpprobe.Get(t, fmt.Sprintf("http://localhost:%d/", port))
	if status != http.StatusOK {
		t.Errorf("Expected HTTP 200, got %d", status)
	}
	if got != body {
		t.Errorf("Expected response body %q, got %q", body, got)
	}

	content, err := os.ReadFile(filepath.Join(workDir, "sample.txt"))
	if err != nil {
		t.Errorf("Expected sample.txt in the working directory: %v", err)
	} else if strings.TrimSpace(string(content)) != "This is a test file for the lab." {
		t.Errorf("Unexpected sample.txt content %q", content)
	}

	t.Logf("Clean up: terminate the labrun process.")
	if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
		t.Fatalf("Failed to signal labrun process: %v", err)
	}
	<-drained
	if err := cmd.Wait(); err != nil {
		t.Fatalf("Expected labrun to exit cleanly, got: %v", err)
	}
}

// TestIntegration_WriteFailure makes sample.txt a directory, so the write
// fails before the server step and the process exits with an error.
func TestIntegration_WriteFailure(t *testing.T) {
	bin := buildLabRun(t)
	workDir := t.TempDir()
	if err := os.Mkdir(filepath.Join(workDir, "sample.txt"), 0755); err != nil {
		t.Fatal(err)
	}

	cmd := exec.Command(bin, "--port", fmt.Sprint(httpprobe.FreePort(t)))
	cmd.Dir = workDir
	out, err := cmd.CombinedOutput()
	if err == nil {
		t.Fatalf("Expected labrun to fail, output:\n%s", out)
	}
	if strings.Contains(string(out), "Server is running!") {
		t.Errorf("Expected no server banner, got:\n%s", out)
	}
}
