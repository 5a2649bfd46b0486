package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/divehq/dive/internal/model"
	"github.com/divehq/dive/internal/object"
	"github.com/divehq/dive/internal/testutil"
)

func TestSyncFile(t *testing.T) {
	tw := testutil.NewTestWorkspace(t).WithFile("a.md", "one").WithFile("b.md", "two").Build()
	ctx := context.Background()

	if err := tw.WS.Files.Put(ctx, tw.Abs("a.md"), object.PutRequest{Content: "one"}); err != nil {
		t.Fatal(err)
	}
	before, err := tw.WS.Store.GetObject(ctx, object.ShadowKey(tw.Abs("a.md")))
	if err != nil {
		t.Fatal(err)
	}

	w, err := New(Config{Files: tw.WS.Files, Database: tw.WS.Store})
	if err != nil {
		t.Fatal(err)
	}

	touched, err := w.SyncFile(ctx, "a.md")
	if err != nil || !touched {
		t.Fatalf("SyncFile(a.md) = %v, %v", touched, err)
	}
	after, err := tw.WS.Store.GetObject(ctx, object.ShadowKey(tw.Abs("a.md")))
	if err != nil {
		t.Fatal(err)
	}
	if after.UpdatedAt <= before.UpdatedAt {
		t.Fatalf("updated_at not bumped: %d -> %d", before.UpdatedAt, after.UpdatedAt)
	}

	// Files without a shadow row are left alone.
	touched, err = w.SyncFile(ctx, tw.Abs("b.md"))
	if err != nil || touched {
		t.Fatalf("SyncFile(b.md) = %v, %v", touched, err)
	}
}

func TestIgnored(t *testing.T) {
	tw := testutil.NewTestWorkspace(t).WithIgnore("**/build").Build()
	w, err := New(Config{Files: tw.WS.Files, Database: tw.WS.Store})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		rel  string
		want bool
	}{
		{rel: "notes/a.md", want: false},
		{rel: ".git/HEAD", want: true},
		{rel: "pkg/node_modules/x/index.js", want: true},
		{rel: "sub/build/out.o", want: true},
		{rel: "notes/.a.md.tmp-123", want: true},
	}
	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			if got := w.ignored(tw.Abs(tt.rel)); got != tt.want {
				t.Fatalf("ignored(%q) = %v, want %v", tt.rel, got, tt.want)
			}
		})
	}
	if !w.ignored(filepath.Join(filepath.Dir(tw.Path), "elsewhere.md")) {
		t.Fatal("path outside root not ignored")
	}
}

func TestStartPicksUpExternalWrites(t *testing.T) {
	tw := testutil.NewTestWorkspace(t).WithFile("watched.md", "v1").Build()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := tw.WS.Store.EnsureObject(ctx, mustRecord(t, tw, "watched.md")); err != nil {
		t.Fatal(err)
	}

	synced := make(chan string, 8)
	w, err := New(Config{
		Files:         tw.WS.Files,
		Database:      tw.WS.Store,
		DebounceDelay: 10 * time.Millisecond,
		OnSync: func(path string, touched bool, err error) {
			if touched && err == nil {
				synced <- path
			}
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	// Give the watcher time to register the root.
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		if err := os.WriteFile(tw.Abs("watched.md"), []byte("v2"), 0o644); err != nil {
			t.Fatal(err)
		}
		select {
		case path := <-synced:
			if path != tw.Abs("watched.md") {
				t.Fatalf("synced %q", path)
			}
			cancel()
			if err := <-done; err != nil {
				t.Fatalf("Start returned %v", err)
			}
			return
		case <-deadline:
			t.Fatal("external write was not synced")
		case <-tick.C:
		}
	}
}

func mustRecord(t *testing.T, tw *testutil.TestWorkspace, rel string) model.Object {
	t.Helper()
	rec, err := tw.WS.Objects.MetadataRecord(context.Background(), tw.FileID(rel))
	if err != nil {
		t.Fatal(err)
	}
	return rec
}
