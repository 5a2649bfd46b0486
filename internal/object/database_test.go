package object

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/divehq/dive/internal/model"
)

func TestDatabaseProvider(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	meta := newTestStore(t)
	fsp, root := newTestFS(t, meta)
	dbp := NewDatabaseProvider(meta, fsp)

	t.Run("put creates with defaults then updates", func(t *testing.T) {
		if err := dbp.Put(ctx, "note-1", PutRequest{Content: "first"}); err != nil {
			t.Fatalf("Put: %v", err)
		}
		res, err := dbp.Get(ctx, "note-1")
		if err != nil || res == nil {
			t.Fatalf("Get = %v, %v", res, err)
		}
		if res.Type != DefaultObjectType || res.Name != "note-1" || res.Content != "first" {
			t.Fatalf("created = %+v", res)
		}

		if err := dbp.Put(ctx, "note-1", PutRequest{Content: "second", Type: "canvas"}); err != nil {
			t.Fatalf("Put update: %v", err)
		}
		updated, _ := dbp.Get(ctx, "note-1")
		if updated.Content != "second" || updated.Type != DefaultObjectType {
			t.Fatalf("updated = %+v", updated)
		}
		if updated.UpdatedAt <= res.UpdatedAt {
			t.Fatalf("updated_at did not increase: %d -> %d", res.UpdatedAt, updated.UpdatedAt)
		}
	})

	t.Run("missing returns nil", func(t *testing.T) {
		res, err := dbp.Get(ctx, "nope")
		if err != nil || res != nil {
			t.Fatalf("Get = %v, %v", res, err)
		}
	})

	t.Run("search requires every term", func(t *testing.T) {
		for _, name := range []string{"alpha beta", "alpha gamma"} {
			if _, err := meta.CreateObject(ctx, model.Object{Type: "markdown", Name: name}); err != nil {
				t.Fatal(err)
			}
		}
		got, err := dbp.Search(ctx, "beta alpha", Filters{})
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 || got[0].Name != "alpha beta" || got[0].Icon != "database" {
			t.Fatalf("got %+v", got)
		}
	})

	t.Run("shadow rows read content from disk", func(t *testing.T) {
		path := filepath.Join(root, "shadow.md")
		if err := fsp.Put(ctx, path, PutRequest{Content: "on disk"}); err != nil {
			t.Fatal(err)
		}
		inner := ShadowKey(path)
		res, err := dbp.Get(ctx, inner)
		if err != nil || res == nil {
			t.Fatalf("Get shadow = %v, %v", res, err)
		}
		if res.Content != "on disk" || res.Icon != "file" {
			t.Fatalf("shadow = %+v", res)
		}

		if err := os.Remove(path); err != nil {
			t.Fatal(err)
		}
		res, err = dbp.Get(ctx, inner)
		if err != nil || res == nil {
			t.Fatalf("Get removed shadow = %v, %v", res, err)
		}
		if res.Content != nil || res.Properties["error"] != "file missing" {
			t.Fatalf("removed shadow = %+v", res)
		}
	})

	t.Run("put on shadow id writes the file", func(t *testing.T) {
		path := filepath.Join(root, "via-db.txt")
		if err := dbp.Put(ctx, ShadowKey(path), PutRequest{Content: "written"}); err != nil {
			t.Fatalf("Put shadow: %v", err)
		}
		b, err := os.ReadFile(path)
		if err != nil || string(b) != "written" {
			t.Fatalf("file = %q, %v", b, err)
		}
	})

	t.Run("registry addresses shadow rows through the database prefix", func(t *testing.T) {
		reg := NewRegistry(fsp, dbp)
		path := filepath.Join(root, "via-db.txt")
		id := NewID(ProviderDatabase, ShadowKey(path)).String()
		res, err := reg.Get(ctx, id)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if res.ID != id || res.Content != "written" {
			t.Fatalf("Get = %+v", res)
		}
	})
}
