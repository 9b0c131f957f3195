package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

func TestURL(t *testing.T) {
	s, err := newStore("minio.local:9000", "us-east-1", "reports", "a", "b", false)
	if err != nil {
		t.Fatal(err)
	}
	if got := s.URL("batches/x.json"); got != "http://minio.local:9000/reports/batches/x.json" {
		t.Errorf("url = %s", got)
	}
}

func TestPutJSON(t *testing.T) {
	var mu sync.Mutex
	var method, path, ctype, body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		method, path, ctype, body = r.Method, r.URL.Path, r.Header.Get("Content-Type"), string(b)
		mu.Unlock()
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s, err := newStore(strings.TrimPrefix(srv.URL, "http://"), "us-east-1", "reports", "a", "b", false)
	if err != nil {
		t.Fatal(err)
	}
	url, err := s.PutJSON(context.Background(), "/batches/b1.json", []byte(`{"id":"b1"}`))
	if err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	defer mu.Unlock()
	if method != http.MethodPut || path != "/reports/batches/b1.json" {
		t.Errorf("request = %s %s", method, path)
	}
	if ctype != "application/json" {
		t.Errorf("content type = %q", ctype)
	}
	if !strings.Contains(body, `{"id":"b1"}`) {
		t.Errorf("body = %q", body)
	}
	if url != srv.URL+"/reports/batches/b1.json" {
		t.Errorf("url = %s", url)
	}
}
