package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

func TestUploadVideoReturnsPublicURL(t *testing.T) {
	var gotPath, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	local := filepath.Join(t.TempDir(), "out.mp4")
	os.WriteFile(local, []byte("mp4 bytes"), 0644)

	m := New(srv.URL, "secret", "renders")
	url, err := m.UploadVideo(context.Background(), local, "abc123")
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	if gotMethod != "PUT" {
		t.Errorf("expected PUT, got %s", gotMethod)
	}
	if gotPath != "/object/renders/abc123.mp4" {
		t.Errorf("unexpected object path %s", gotPath)
	}
	if !strings.HasSuffix(url, "/object/public/renders/abc123.mp4") {
		t.Errorf("unexpected public URL %s", url)
	}
}

func TestUploadRetriesTransientStatus(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	local := filepath.Join(t.TempDir(), "out.mp4")
	os.WriteFile(local, []byte("mp4 bytes"), 0644)

	m := New(srv.URL, "", "renders")
	if _, err := m.UploadVideo(context.Background(), local, "r1"); err != nil {
		t.Fatalf("expected retries to succeed, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

func TestUploadDoesNotRetryClientError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	local := filepath.Join(t.TempDir(), "out.mp4")
	os.WriteFile(local, []byte("mp4 bytes"), 0644)

	m := New(srv.URL, "bad-token", "renders")
	if _, err := m.UploadVideo(context.Background(), local, "r1"); err == nil {
		t.Fatal("expected error on 403")
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("403 must not retry, got %d attempts", calls)
	}
}

func TestRetryDelayBounded(t *testing.T) {
	for attempt := 1; attempt <= 10; attempt++ {
		d := retryDelay(attempt)
		if d < 0 || d > maxRetryDelay+maxRetryDelay/4 {
			t.Errorf("attempt %d: delay %v out of bounds", attempt, d)
		}
	}
}

func TestIsRetryable(t *testing.T) {
	if !isRetryableStatus(http.StatusBadGateway) {
		t.Error("502 should retry")
	}
	if isRetryableStatus(http.StatusBadRequest) {
		t.Error("400 should not retry")
	}
	if !isRetryableError(context.DeadlineExceeded) {
		t.Error("deadline exceeded should retry")
	}
}
