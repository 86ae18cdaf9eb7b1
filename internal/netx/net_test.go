package netx

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDownload(t *testing.T) {
	file := []byte("\xff\xd8jpeg")

	t.Run("success", func(t *testing.T) {
		var gotMethod string
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotMethod = r.Method
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(file)
		}))
		defer ts.Close()

		rc, ct, err := Download(context.Background(), ts.Client(), ts.URL, "image/jpeg")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer rc.Close()
		body, _ := io.ReadAll(rc)

		if gotMethod != http.MethodGet {
			t.Fatalf("method = %s, want GET", gotMethod)
		}
		if ct != "image/png" {
			t.Fatalf("content type = %q, want image/png", ct)
		}
		if string(body) != string(file) {
			t.Fatalf("body = %q, want %q", body, file)
		}
	})

	t.Run("fallback content type", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header()["Content-Type"] = nil
			_, _ = w.Write(nil)
		}))
		defer ts.Close()

		rc, ct, err := Download(context.Background(), nil, ts.URL, "image/jpeg")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		rc.Close()
		if ct != "image/jpeg" {
			t.Fatalf("content type = %q, want image/jpeg", ct)
		}
	})

	t.Run("non-200 -> error", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer ts.Close()

		_, _, err := Download(context.Background(), ts.Client(), ts.URL, "")
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if !strings.Contains(err.Error(), "download failed: 403") {
			t.Fatalf("error = %q, want to contain 403", err.Error())
		}
	})

	t.Run("network error", func(t *testing.T) {
		ts := httptest.NewServer(http.NotFoundHandler())
		url := ts.URL
		ts.Close()

		_, _, err := Download(context.Background(), nil, url, "")
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if strings.Contains(err.Error(), "download failed") {
			t.Fatalf("got wrong kind of error: %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ts := httptest.NewServer(http.NotFoundHandler())
		defer ts.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, _, err := Download(ctx, nil, ts.URL, "")
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("error = %v, want context.Canceled", err)
		}
	})
}
