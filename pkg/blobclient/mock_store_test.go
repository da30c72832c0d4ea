package blobclient

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/yourorg/go-blobstore-kit/pkg/sas"
	"github.com/yourorg/go-blobstore-kit/pkg/storeerr"
)

func TestMockBlobStore_ContainerLifecycle(t *testing.T) {
	store := NewMockBlobStore()
	ctx := context.Background()

	exists, err := store.ContainerExists(ctx, "media")
	if err != nil {
		t.Fatalf("ContainerExists: %v", err)
	}
	if exists {
		t.Error("container should not exist yet")
	}

	created, err := store.CreateContainer(ctx, "media")
	if err != nil {
		t.Fatalf("CreateContainer: %v", err)
	}
	if !created {
		t.Error("first create should report created")
	}

	created, err = store.CreateContainer(ctx, "media")
	if err != nil {
		t.Fatalf("CreateContainer repeat: %v", err)
	}
	if created {
		t.Error("repeat create should not report created")
	}

	exists, _ = store.ContainerExists(ctx, "media")
	if !exists {
		t.Error("container should exist after create")
	}

	deleted, err := store.DeleteContainer(ctx, "media")
	if err != nil {
		t.Fatalf("DeleteContainer: %v", err)
	}
	if !deleted {
		t.Error("delete of present container should report deleted")
	}

	deleted, err = store.DeleteContainer(ctx, "media")
	if err != nil {
		t.Fatalf("DeleteContainer repeat: %v", err)
	}
	if deleted {
		t.Error("delete of absent container should not report deleted")
	}
}

func TestMockBlobStore_UploadDownload(t *testing.T) {
	store := NewMockBlobStore()
	ctx := context.Background()

	url, err := store.Upload(ctx, "media", "photos/cat.jpg", strings.NewReader("cat bytes"), "image/jpeg")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if url != "mock://media/photos/cat.jpg" {
		t.Errorf("unexpected URL %q", url)
	}

	rc, err := store.Download(ctx, "media", "photos/cat.jpg")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if string(data) != "cat bytes" {
		t.Errorf("got body %q", data)
	}
}

func TestMockBlobStore_DownloadErrors(t *testing.T) {
	store := NewMockBlobStore()
	ctx := context.Background()

	_, err := store.Download(ctx, "missing", "x")
	if !storeerr.HasCode(err, storeerr.CodeContainerNotFound) {
		t.Errorf("expected ContainerNotFound, got %v", err)
	}

	if _, err := store.CreateContainer(ctx, "media"); err != nil {
		t.Fatalf("CreateContainer: %v", err)
	}
	_, err = store.Download(ctx, "media", "missing.jpg")
	if !storeerr.HasCode(err, storeerr.CodeBlobNotFound) {
		t.Errorf("expected BlobNotFound, got %v", err)
	}
	if !storeerr.IsNotFound(err) {
		t.Errorf("BlobNotFound should classify as not-found, got %v", err)
	}
}

func TestMockBlobStore_ListBlobs(t *testing.T) {
	store := NewMockBlobStore()
	ctx := context.Background()

	for _, name := range []string{"logs/b.txt", "logs/a.txt", "other/c.txt"} {
		if _, err := store.Upload(ctx, "media", name, strings.NewReader("x"), ""); err != nil {
			t.Fatalf("Upload %s: %v", name, err)
		}
	}

	items, err := store.ListBlobs(ctx, "media", "logs/")
	if err != nil {
		t.Fatalf("ListBlobs: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Name != "logs/a.txt" || items[1].Name != "logs/b.txt" {
		t.Errorf("expected sorted names, got %q %q", items[0].Name, items[1].Name)
	}
	if items[0].Properties.ContentLength != 1 {
		t.Errorf("expected length 1, got %d", items[0].Properties.ContentLength)
	}

	if _, err := store.ListBlobs(ctx, "missing", ""); !storeerr.HasCode(err, storeerr.CodeContainerNotFound) {
		t.Errorf("expected ContainerNotFound, got %v", err)
	}
}

func TestMockBlobStore_DeleteBlob(t *testing.T) {
	store := NewMockBlobStore()
	ctx := context.Background()

	if _, err := store.Upload(ctx, "media", "a.txt", strings.NewReader("x"), ""); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if err := store.DeleteBlob(ctx, "media", "a.txt"); err != nil {
		t.Fatalf("DeleteBlob: %v", err)
	}
	if _, err := store.Download(ctx, "media", "a.txt"); !storeerr.HasCode(err, storeerr.CodeBlobNotFound) {
		t.Errorf("expected BlobNotFound after delete, got %v", err)
	}

	// Deleting an absent blob is a no-op.
	if err := store.DeleteBlob(ctx, "media", "a.txt"); err != nil {
		t.Errorf("repeat delete should not fail: %v", err)
	}
}

func TestMockBlobStore_SASUnsupported(t *testing.T) {
	store := NewMockBlobStore()
	_, err := store.ContainerSASURL(context.Background(), "media", sas.ContainerPermissions{Read: true}, time.Now().Add(time.Hour))
	if err == nil {
		t.Fatal("expected an error")
	}
	if err != storeerr.ErrNoSharedKeyCredential {
		t.Errorf("expected ErrNoSharedKeyCredential, got %v", err)
	}
}
