package assetstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"hardware-catalog/internal/domain"
)

func TestHTTPStore_Upload(t *testing.T) {
	var gotPublicID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/image/upload" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		gotPublicID = r.FormValue("public_id")
		fmt.Fprintf(w, `{"public_id": %q, "secure_url": "https://cdn.example/%s.png"}`, gotPublicID, gotPublicID)
	}))
	defer srv.Close()

	store := NewHTTP(Config{Endpoint: srv.URL, Folder: "catalog-products"}, nil)
	ref, err := store.Upload(context.Background(), []byte("png-bytes"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if ref == "" || ref != gotPublicID {
		t.Fatalf("expected ref %q, got %q", gotPublicID, ref)
	}
	if !strings.HasPrefix(ref, "catalog-products/") {
		t.Fatalf("expected folder-scoped reference, got %q", ref)
	}
}

func TestHTTPStore_UploadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error": "boom"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	store := NewHTTP(Config{Endpoint: srv.URL, Folder: "catalog-products"}, nil)
	_, err := store.Upload(context.Background(), []byte("png-bytes"))
	if !errors.Is(err, domain.ErrUploadFailed) {
		t.Fatalf("expected upload failed error, got %v", err)
	}
}

func TestHTTPStore_DeleteAbsentObjectIsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/image/destroy" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"result": "not found"}`)
	}))
	defer srv.Close()

	store := NewHTTP(Config{Endpoint: srv.URL}, nil)
	if err := store.Delete(context.Background(), "catalog-products/gone"); err != nil {
		t.Fatalf("deleting an absent object must succeed, got %v", err)
	}
}

func TestHTTPStore_DeleteUnexpectedResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"result": "rate limited"}`)
	}))
	defer srv.Close()

	store := NewHTTP(Config{Endpoint: srv.URL}, nil)
	if err := store.Delete(context.Background(), "catalog-products/x"); err == nil {
		t.Fatalf("expected error for unexpected destroy result")
	}
}

func TestHTTPStore_DeleteEmptyRefIsNoop(t *testing.T) {
	store := NewHTTP(Config{Endpoint: "http://unreachable.invalid"}, nil)
	if err := store.Delete(context.Background(), ""); err != nil {
		t.Fatalf("empty ref must be a no-op, got %v", err)
	}
}
