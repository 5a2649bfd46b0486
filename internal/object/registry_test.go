package object

import (
	"context"
	"errors"
	"testing"
)

type fakeProvider struct {
	name    string
	results []Result
	records map[string]*Result
	err     error
	panics  bool
	puts    map[string]PutRequest
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Search(ctx context.Context, query string, filters Filters) ([]Result, error) {
	if f.panics {
		panic("boom")
	}
	if f.err != nil {
		return nil, f.err
	}
	return append([]Result(nil), f.results...), nil
}

func (f *fakeProvider) Get(ctx context.Context, innerID string) (*Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	res, ok := f.records[innerID]
	if !ok {
		return nil, nil
	}
	cp := *res
	return &cp, nil
}

func (f *fakeProvider) Put(ctx context.Context, innerID string, req PutRequest) error {
	if f.err != nil {
		return f.err
	}
	if f.puts == nil {
		f.puts = make(map[string]PutRequest)
	}
	f.puts[innerID] = req
	return nil
}

func TestParseID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in       string
		provider string
		inner    string
		wantErr  bool
	}{
		{in: "database:abc", provider: "database", inner: "abc"},
		{in: "filesystem:/tmp/a:b.md", provider: "filesystem", inner: "/tmp/a:b.md"},
		{in: "database:filesystem:/x", provider: "database", inner: "filesystem:/x"},
		{in: "nocolon", wantErr: true},
		{in: ":abc", wantErr: true},
		{in: "database:", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			id, err := ParseID(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidID) {
					t.Fatalf("ParseID(%q) error = %v, want ErrInvalidID", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseID(%q): %v", tt.in, err)
			}
			if id.Provider != tt.provider || id.Inner != tt.inner {
				t.Fatalf("ParseID(%q) = %+v", tt.in, id)
			}
			if id.String() != tt.in {
				t.Fatalf("String() = %q, want %q", id.String(), tt.in)
			}
		})
	}
}

func TestRegistrySearch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("prefixes ids with provider name", func(t *testing.T) {
		reg := NewRegistry(
			&fakeProvider{name: "b", results: []Result{{ID: "1", Name: "one"}}},
			&fakeProvider{name: "a", results: []Result{{ID: "x:y", Name: "nested"}}},
		)
		got := reg.Search(ctx, "q", Filters{}, SearchOptions{})
		if len(got) != 2 {
			t.Fatalf("got %d results, want 2", len(got))
		}
		if got[0].ID != "a:x:y" || got[0].ProviderID != "a" {
			t.Fatalf("first result = %+v", got[0])
		}
		if got[1].ID != "b:1" || got[1].ProviderID != "b" {
			t.Fatalf("second result = %+v", got[1])
		}
	})

	t.Run("isolates failing and panicking providers", func(t *testing.T) {
		reg := NewRegistry(
			&fakeProvider{name: "ok", results: []Result{{ID: "1"}, {ID: "2"}}},
			&fakeProvider{name: "broken", err: errors.New("disk on fire")},
			&fakeProvider{name: "crashy", panics: true},
		)
		got := reg.Search(ctx, "q", Filters{}, SearchOptions{})
		if len(got) != 2 {
			t.Fatalf("got %d results, want 2: %+v", len(got), got)
		}
		for _, r := range got {
			if r.ProviderID != "ok" {
				t.Fatalf("unexpected provider in %+v", r)
			}
		}
	})

	t.Run("no providers yields empty slice", func(t *testing.T) {
		got := NewRegistry().Search(ctx, "q", Filters{}, SearchOptions{})
		if got == nil || len(got) != 0 {
			t.Fatalf("got %#v, want empty non-nil slice", got)
		}
	})

	t.Run("recent and limit apply after merge", func(t *testing.T) {
		reg := NewRegistry(
			&fakeProvider{name: "a", results: []Result{{ID: "old", UpdatedAt: 1}, {ID: "new", UpdatedAt: 30}}},
			&fakeProvider{name: "b", results: []Result{{ID: "mid", UpdatedAt: 20}}},
		)
		got := reg.Search(ctx, "q", Filters{}, SearchOptions{Recent: true, Limit: 2})
		if len(got) != 2 {
			t.Fatalf("got %d results, want 2", len(got))
		}
		if got[0].ID != "a:new" || got[1].ID != "b:mid" {
			t.Fatalf("got %s, %s", got[0].ID, got[1].ID)
		}
	})
}

func TestRegistryGet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	fake := &fakeProvider{name: "fake", records: map[string]*Result{
		"a:b": {ID: "something-else", Name: "colon"},
	}}
	reg := NewRegistry(fake, &fakeProvider{name: "bad", err: errors.New("down")})

	res, err := reg.Get(ctx, "fake:a:b")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if res.ID != "fake:a:b" || res.ProviderID != "fake" || res.Name != "colon" {
		t.Fatalf("Get = %+v", res)
	}

	tests := []struct {
		id   string
		want error
	}{
		{id: "fake:missing", want: ErrNotFound},
		{id: "unknown:x", want: ErrProviderNotFound},
		{id: "noprefix", want: ErrInvalidID},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if _, err := reg.Get(ctx, tt.id); !errors.Is(err, tt.want) {
				t.Fatalf("Get(%q) error = %v, want %v", tt.id, err, tt.want)
			}
		})
	}

	if _, err := reg.Get(ctx, "bad:x"); err == nil {
		t.Fatal("expected provider error to propagate")
	}
}

func TestRegistryPut(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	fake := &fakeProvider{name: "fake"}
	reg := NewRegistry(fake)

	if err := reg.Put(ctx, "fake:doc:1", PutRequest{Content: "hi"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if got := fake.puts["doc:1"].Content; got != "hi" {
		t.Fatalf("put content = %v", got)
	}
	if err := reg.Put(ctx, "nope:1", PutRequest{}); !errors.Is(err, ErrProviderNotFound) {
		t.Fatalf("Put unknown provider error = %v", err)
	}
}

func TestRegistryRegister(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(&fakeProvider{name: "x", results: []Result{{ID: "first"}}})
	reg.Register(&fakeProvider{name: "x", results: []Result{{ID: "second"}}})
	reg.Register(&fakeProvider{name: "y"})

	if names := reg.Names(); len(names) != 2 || names[0] != "x" || names[1] != "y" {
		t.Fatalf("Names() = %v", names)
	}
	got := reg.Search(context.Background(), "q", Filters{}, SearchOptions{})
	if len(got) != 1 || got[0].ID != "x:second" {
		t.Fatalf("replacement provider not used: %+v", got)
	}

	reg.Unregister("y")
	if _, ok := reg.Provider("y"); ok {
		t.Fatal("provider y still registered")
	}
}

func TestRegistryMetadataRecord(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(&fakeProvider{name: "plain"})
	_, err := reg.MetadataRecord(context.Background(), "plain:1")
	if !errors.Is(err, ErrInvalidID) {
		t.Fatalf("MetadataRecord error = %v, want ErrInvalidID", err)
	}
	var _ MetadataRecorder = (*DatabaseProvider)(nil)
	var _ MetadataRecorder = (*FilesystemProvider)(nil)
}
