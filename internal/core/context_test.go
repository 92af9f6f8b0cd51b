package core

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSourceFromContext(t *testing.T) {
	if _, ok := SourceFromContext(context.Background()); ok {
		t.Error("SourceFromContext on empty context reported ok")
	}

	src := Source{Channel: "http", IPAddress: "10.0.0.1", UserAgent: "curl/8"}
	got, ok := SourceFromContext(ContextWithSource(context.Background(), src))
	if !ok {
		t.Fatal("SourceFromContext: not found")
	}
	if diff := cmp.Diff(src, got); diff != "" {
		t.Errorf("Source mismatch (-want +got):\n%s", diff)
	}
}

func TestSourceAttrs(t *testing.T) {
	if got := sourceAttrs(context.Background()); got != nil {
		t.Errorf("sourceAttrs(empty) = %v, want nil", got)
	}

	ctx := ContextWithSource(context.Background(), Source{Channel: "cli"})
	want := []any{"channel", "cli"}
	if diff := cmp.Diff(want, sourceAttrs(ctx)); diff != "" {
		t.Errorf("sourceAttrs mismatch (-want +got):\n%s", diff)
	}
}
