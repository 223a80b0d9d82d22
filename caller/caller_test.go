package caller

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"
)

func captureStdout(t *testing.T, f func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	old := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = old }()

	f()

	w.Close()
	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String()
}

func TestCallerdumpPrintsCallChain(t *testing.T) {
	out := captureStdout(t, func() {
		Callerdump(0)
	})
	if !strings.Contains(out, "caller_test.go") {
		t.Fatalf("expected dump to mention this test file, got %q", out)
	}
}
