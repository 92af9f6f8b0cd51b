package blob

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestValidateRef(t *testing.T) {
	tests := []struct {
		ref     string
		wantErr bool
	}{
		{"artifacts/abc.json", false},
		{"abc.json", false},
		{"", true},
		{"/etc/passwd", true},
		{"../outside", true},
		{"artifacts/../../x", true},
		{"artifacts//x", true},
		{"a\\b", true},
		{".", true},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			err := ValidateRef(tt.ref)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRef(%q) error = %v, wantErr %v", tt.ref, err, tt.wantErr)
			}
		})
	}
}

func stores(t *testing.T) map[string]Store {
	t.Helper()
	fsStore, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}
	return map[string]Store{
		"fs":     fsStore,
		"memory": NewMemoryStore(),
	}
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Put(ctx, "artifacts/a.json", []byte(`[1]`)); err != nil {
				t.Fatalf("Put: %v", err)
			}
			if err := s.Put(ctx, "artifacts/b.json", []byte(`[2]`)); err != nil {
				t.Fatalf("Put: %v", err)
			}

			got, err := s.Get(ctx, "artifacts/a.json")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if string(got) != "[1]" {
				t.Errorf("Get = %q, want %q", got, "[1]")
			}

			refs, err := s.List(ctx)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if diff := cmp.Diff([]string{"artifacts/a.json", "artifacts/b.json"}, refs); diff != "" {
				t.Errorf("List mismatch (-want +got):\n%s", diff)
			}

			if err := s.Delete(ctx, "artifacts/a.json"); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if _, err := s.Get(ctx, "artifacts/a.json"); !errors.Is(err, ErrNotExist) {
				t.Errorf("Get after Delete error = %v, want ErrNotExist", err)
			}
			if err := s.Delete(ctx, "artifacts/a.json"); err != nil {
				t.Errorf("second Delete error = %v, want nil", err)
			}
		})
	}
}

func TestStore_PutOverwrites(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_ = s.Put(ctx, "x.json", []byte("old"))
			_ = s.Put(ctx, "x.json", []byte("new"))
			got, err := s.Get(ctx, "x.json")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if string(got) != "new" {
				t.Errorf("Get = %q, want %q", got, "new")
			}
		})
	}
}

func TestFSStore_RejectsEscapingRef(t *testing.T) {
	s, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}
	if err := s.Put(context.Background(), "../evil", []byte("x")); err == nil {
		t.Error("Put(../evil) succeeded, want error")
	}
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_ = s.Put(ctx, "a", []byte("abc"))

	got, _ := s.Get(ctx, "a")
	got[0] = 'z'

	again, _ := s.Get(ctx, "a")
	if string(again) != "abc" {
		t.Errorf("stored blob mutated through Get result: %q", again)
	}
}
