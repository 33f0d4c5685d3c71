package assetstore

import (
	"context"
	"strings"
	"testing"
)

func TestInMemoryUploadDelete(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	a, err := s.Upload(ctx, "dress.jpg", "image/jpeg", strings.NewReader("JPEGDATA"))
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if a.AssetID == "" || a.URL == "" {
		t.Fatalf("expected asset reference, got %+v", a)
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 stored object, got %d", s.Len())
	}

	if err := s.Delete(ctx, a.AssetID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("expected empty store after delete, got %d", s.Len())
	}
}

func TestDeleteManyWaitsForAll(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	ids := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		a, err := s.Upload(ctx, "img.png", "image/png", strings.NewReader("PNG"))
		if err != nil {
			t.Fatalf("upload failed: %v", err)
		}
		ids = append(ids, a.AssetID)
	}

	if err := s.DeleteMany(ctx, ids); err != nil {
		t.Fatalf("delete many failed: %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("expected all objects deleted, %d remain", s.Len())
	}
}

func TestDeleteManyJoinsFailures(t *testing.T) {
	s := NewInMemoryStore()
	s.FailDelete = true

	err := s.DeleteMany(context.Background(), []string{"a", "b"})
	if err == nil {
		t.Fatalf("expected joined error from failing deletes")
	}
	if !strings.Contains(err.Error(), "delete asset") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDeleteManyEmptyIsNoop(t *testing.T) {
	s := NewInMemoryStore()
	if err := s.DeleteMany(context.Background(), nil); err != nil {
		t.Fatalf("expected nil for empty id list, got %v", err)
	}
}
