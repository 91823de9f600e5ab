package util

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestGetBytes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ok" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("0123456789"))
	}))
	defer srv.Close()
	ctx := context.Background()

	b, err := GetBytes(ctx, nil, srv.URL+"/ok", 10)
	if err != nil || string(b) != "0123456789" {
		t.Fatalf("got %q, %v", b, err)
	}
	if _, err := GetBytes(ctx, srv.Client(), srv.URL+"/ok", 9); err == nil {
		t.Fatal("limit not enforced")
	}
	if _, err := GetBytes(ctx, srv.Client(), srv.URL+"/missing", 0); err == nil {
		t.Fatal("404 accepted")
	}
}

func TestEnsureParent(t *testing.T) {
	file := filepath.Join(t.TempDir(), "a", "b", "out.png")
	if err := EnsureParent(file); err != nil {
		t.Fatal(err)
	}
	if fi, err := os.Stat(filepath.Dir(file)); err != nil || !fi.IsDir() {
		t.Fatalf("parent not created: %v", err)
	}
}
