package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/divehq/dive/internal/canvas"
	"github.com/divehq/dive/internal/config"
	"github.com/divehq/dive/internal/object"
	"github.com/divehq/dive/internal/store"
	"github.com/divehq/dive/internal/workspace"
)

var captureStdoutMu sync.Mutex

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	captureStdoutMu.Lock()
	defer captureStdoutMu.Unlock()

	orig := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}

	os.Stdout = w

	outputCh := make(chan string, 1)
	errCh := make(chan error, 1)
	go func() {
		var buf bytes.Buffer
		_, copyErr := io.Copy(&buf, r)
		_ = r.Close()
		if copyErr != nil {
			errCh <- copyErr
			return
		}
		outputCh <- buf.String()
	}()

	fn()

	os.Stdout = orig
	_ = w.Close()
	select {
	case err := <-errCh:
		t.Fatalf("io.Copy: %v", err)
		return ""
	case output := <-outputCh:
		return output
	}
}

// setupTestConfig points the CLI at a temp storage dir and database and
// enables JSON output.
func setupTestConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		dir = resolved
	}

	c := config.Default()
	c.StorageDir = filepath.Join(dir, "storage")
	c.Database = filepath.Join(dir, "dive.db")
	if err := os.MkdirAll(c.StorageDir, 0o755); err != nil {
		t.Fatal(err)
	}

	prevCfg, prevJSON := cfg, jsonOutput
	cfg, jsonOutput = c, true
	t.Cleanup(func() {
		cfg, jsonOutput = prevCfg, prevJSON
	})
	return c
}

type envelope struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error *ErrorInfo      `json:"error"`
	Meta  *Meta           `json:"meta"`
}

// run executes cmd's RunE with flags and args and decodes the JSON envelope.
// Flags are reset afterwards.
func run(t *testing.T, cmd *cobra.Command, flags map[string][]string, args ...string) envelope {
	t.Helper()
	defer resetFlags(cmd)

	for name, values := range flags {
		for _, v := range values {
			if err := cmd.Flags().Set(name, v); err != nil {
				t.Fatalf("set --%s=%s: %v", name, v, err)
			}
		}
	}
	cmd.SetContext(context.Background())

	var runErr error
	out := captureStdout(t, func() {
		runErr = cmd.RunE(cmd, args)
	})
	if runErr != nil {
		t.Fatalf("%s %v: %v", cmd.Name(), args, runErr)
	}

	var resp envelope
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("%s: invalid JSON output: %v; out=%s", cmd.Name(), err, out)
	}
	return resp
}

func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	})
}

func decodeData[T any](t *testing.T, resp envelope) T {
	t.Helper()
	if !resp.OK {
		t.Fatalf("expected ok=true, got error %+v", resp.Error)
	}
	var v T
	if err := json.Unmarshal(resp.Data, &v); err != nil {
		t.Fatalf("decode data: %v; data=%s", err, resp.Data)
	}
	return v
}

func TestNoteLifecycle(t *testing.T) {
	setupTestConfig(t)

	created := decodeData[object.Result](t, run(t, newCmd,
		map[string][]string{"content": {"# Plan"}, "prop": {"status=draft"}}, "Plan"))
	if created.ProviderID != object.ProviderDatabase || created.Name != "Plan" || created.Type != "markdown" {
		t.Fatalf("created = %+v", created)
	}

	updated := decodeData[object.Result](t, run(t, putCmd,
		map[string][]string{"prop": {"priority=2"}}, created.ID))
	if updated.Content != "# Plan" {
		t.Fatalf("content not kept: %v", updated.Content)
	}
	if updated.Properties["status"] != "draft" || updated.Properties["priority"] != float64(2) {
		t.Fatalf("properties = %v", updated.Properties)
	}

	shown := decodeData[struct {
		Object object.Result `json:"object"`
	}](t, run(t, showCmd, nil, created.ID))
	if shown.Object.ID != created.ID {
		t.Fatalf("show returned %q", shown.Object.ID)
	}

	resp := run(t, showCmd, nil, "database:missing")
	if resp.OK || resp.Error == nil || resp.Error.Code != ErrObjectNotFound {
		t.Fatalf("show missing = %+v", resp)
	}
	resp = run(t, showCmd, nil, "nocolon")
	if resp.OK || resp.Error.Code != ErrInvalidInput {
		t.Fatalf("show bad id = %+v", resp.Error)
	}
}

func TestCanvasContentIsValidated(t *testing.T) {
	setupTestConfig(t)

	resp := run(t, newCmd, map[string][]string{
		"type":    {"canvas"},
		"content": {`{"nodes":[{"id":"a"}],"edges":[{"id":"e","from":"a","to":"zzz"}]}`},
	}, "Board")
	if resp.OK || resp.Error.Code != ErrValidationFailed {
		t.Fatalf("invalid canvas = %+v", resp)
	}

	board := decodeData[object.Result](t, run(t, newCmd, map[string][]string{
		"type":    {"canvas"},
		"content": {`{"nodes":[{"id":"a"},{"id":"b"}],"edges":[{"id":"e","from":"a","to":"b"}]}`},
	}, "Board"))
	doc, err := canvas.Decode(board.Content)
	if err != nil {
		t.Fatalf("stored canvas does not decode: %v", err)
	}
	if len(doc.Nodes) != 2 || len(doc.Edges) != 1 {
		t.Fatalf("doc = %+v", doc)
	}
}

func TestTagAndSearchFiles(t *testing.T) {
	c := setupTestConfig(t)
	path := filepath.Join(c.StorageDir, "plan.md")
	if err := os.WriteFile(path, []byte("ship it"), 0o644); err != nil {
		t.Fatal(err)
	}
	fileID := object.NewID(object.ProviderFilesystem, path).String()

	decodeData[map[string]any](t, run(t, tagCreateCmd, map[string][]string{"color": {"#f59e0b"}}, "todo"))
	resp := run(t, tagCreateCmd, nil, "todo")
	if resp.OK || resp.Error.Code != ErrTagExists {
		t.Fatalf("duplicate tag = %+v", resp)
	}

	decodeData[map[string]any](t, run(t, tagAttachCmd, nil, fileID, "#todo"))

	type searchData struct {
		Items []object.Result `json:"items"`
	}
	found := decodeData[searchData](t, run(t, searchCmd, map[string][]string{"tag": {"todo"}}))
	if len(found.Items) != 1 || found.Items[0].Name != "plan.md" {
		t.Fatalf("tag search = %+v", found.Items)
	}

	// The file matches by name, and so does its metadata row.
	byName := decodeData[searchData](t, run(t, searchCmd, nil, "plan"))
	ids := make(map[string]bool)
	for _, item := range byName.Items {
		ids[item.ID] = true
	}
	if !ids[fileID] || !ids["database:"+object.ShadowKey(path)] {
		t.Fatalf("name search = %+v", byName.Items)
	}

	resp = run(t, searchCmd, map[string][]string{"tag": {"nope"}})
	if resp.OK || resp.Error.Code != ErrTagNotFound {
		t.Fatalf("unknown tag = %+v", resp)
	}

	decodeData[map[string]any](t, run(t, tagDetachCmd, nil, fileID, "todo"))
	found = decodeData[searchData](t, run(t, searchCmd, map[string][]string{"tag": {"todo"}}))
	if len(found.Items) != 0 {
		t.Fatalf("detached file still tagged: %+v", found.Items)
	}
}

func TestRelateAndSeed(t *testing.T) {
	c := setupTestConfig(t)
	fixture := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(fixture, []byte(`
objects:
  - id: notes
    name: notes.md
    type: markdown
    content: "# Notes"
    tags: [draft]
  - id: board
    name: Brainstorm
    type: canvas
relations:
  - {source: notes, target: board, type: related}
`), 0o644); err != nil {
		t.Fatal(err)
	}

	report := decodeData[map[string]int](t, run(t, seedCmd, nil, fixture))
	if report["objects_created"] != 2 || report["relations_created"] != 1 {
		t.Fatalf("seed report = %v", report)
	}
	again := decodeData[map[string]int](t, run(t, seedCmd, nil, fixture))
	if again["objects_created"] != 0 || again["relations_created"] != 0 {
		t.Fatalf("reseed report = %v", again)
	}

	path := filepath.Join(c.StorageDir, "ref.pdf")
	if err := os.WriteFile(path, []byte("%PDF"), 0o644); err != nil {
		t.Fatal(err)
	}
	fileID := object.NewID(object.ProviderFilesystem, path).String()

	rel := decodeData[map[string]any](t, run(t, relateCmd,
		map[string][]string{"type": {"references"}, "data": {`{"page": 3}`}}, "database:notes", fileID))
	if rel["target_id"] != "database:"+object.ShadowKey(path) {
		t.Fatalf("relation = %v", rel)
	}

	type relationsData struct {
		Relations []struct {
			Type      string `json:"type"`
			Direction string `json:"direction"`
		} `json:"relations"`
	}
	views := decodeData[relationsData](t, run(t, relationsCmd, nil, "database:notes"))
	if len(views.Relations) != 2 {
		t.Fatalf("relations = %+v", views.Relations)
	}

	resp := run(t, relateCmd, nil, "database:notes", fileID)
	if resp.OK || resp.Error.Code != ErrMissingArgument {
		t.Fatalf("relate without type = %+v", resp)
	}
}

func TestUploadCommand(t *testing.T) {
	c := setupTestConfig(t)
	src := filepath.Join(t.TempDir(), "Team Photo.JPG")
	if err := os.WriteFile(src, []byte("jpeg"), 0o644); err != nil {
		t.Fatal(err)
	}

	out := decodeData[map[string]any](t, run(t, uploadCmd, nil, src))
	want := object.NewID(object.ProviderFilesystem, filepath.Join(c.StorageDir, "team-photo.jpg")).String()
	if out["id"] != want || out["size"] != float64(4) {
		t.Fatalf("upload = %v, want id %s", out, want)
	}

	resp := run(t, uploadCmd, nil, src)
	if resp.OK || resp.Error.Code != ErrObjectExists {
		t.Fatalf("second upload = %+v", resp)
	}
}

func TestPluginsCommand(t *testing.T) {
	setupTestConfig(t)

	all := decodeData[map[string][]map[string]any](t, run(t, pluginsCmd, nil))
	if len(all["plugins"]) != 7 {
		t.Fatalf("plugins = %d, want 7", len(all["plugins"]))
	}

	views := decodeData[struct {
		Views []struct {
			Name string `json:"name"`
		} `json:"views"`
	}](t, run(t, pluginsCmd, map[string][]string{"type": {"canvas"}}))
	if len(views.Views) == 0 {
		t.Fatal("expected a view for canvas")
	}
}

func TestConfigInitAndPath(t *testing.T) {
	prevPath, prevJSON := configPath, jsonOutput
	t.Cleanup(func() { configPath, jsonOutput = prevPath, prevJSON })
	configPath = filepath.Join(t.TempDir(), "nested", "config.toml")
	jsonOutput = true

	before := decodeData[map[string]any](t, run(t, configPathCmd, nil))
	if before["config_path"] != configPath || before["exists"] != false {
		t.Fatalf("path before init = %v", before)
	}

	created := decodeData[map[string]any](t, run(t, configInitCmd, nil))
	if created["created"] != true {
		t.Fatalf("init = %v", created)
	}
	if _, err := config.LoadFrom(configPath); err != nil {
		t.Fatalf("generated config does not load: %v", err)
	}

	again := decodeData[map[string]any](t, run(t, configInitCmd, nil))
	if again["created"] != false {
		t.Fatalf("second init = %v", again)
	}
}

func TestParseProps(t *testing.T) {
	tests := []struct {
		name    string
		pairs   []string
		want    map[string]any
		wantErr bool
	}{
		{name: "none", pairs: nil, want: nil},
		{name: "string", pairs: []string{"status=draft"}, want: map[string]any{"status": "draft"}},
		{name: "typed", pairs: []string{"n=2", "ok=true", `tags=["a"]`}, want: map[string]any{"n": float64(2), "ok": true, "tags": []any{"a"}}},
		{name: "equals in value", pairs: []string{"expr=a=b"}, want: map[string]any{"expr": "a=b"}},
		{name: "empty value", pairs: []string{"note="}, want: map[string]any{"note": ""}},
		{name: "missing equals", pairs: []string{"status"}, wantErr: true},
		{name: "empty key", pairs: []string{"=x"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseProps(tt.pairs)
			if tt.wantErr {
				if !errors.Is(err, workspace.ErrInvalidInput) {
					t.Fatalf("err = %v, want ErrInvalidInput", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Fatalf("parseProps = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("x: %w", object.ErrInvalidID), ErrInvalidInput},
		{object.ErrProviderNotFound, ErrProviderNotFound},
		{object.ErrNotFound, ErrObjectNotFound},
		{object.ErrExists, ErrObjectExists},
		{fmt.Errorf("%w: bad", canvas.ErrInvalidDocument), ErrValidationFailed},
		{store.ErrTagExists, ErrTagExists},
		{store.ErrRelationNotFound, ErrRelationNotFound},
		{errors.New("boom"), ErrInternal},
	}
	for _, tt := range tests {
		if got := errorCode(tt.err); got != tt.want {
			t.Errorf("errorCode(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}

func TestNumberedRefsFromLastSearch(t *testing.T) {
	c := setupTestConfig(t)
	path := filepath.Join(c.StorageDir, "report.md")
	if err := os.WriteFile(path, []byte("# Q3"), 0o644); err != nil {
		t.Fatal(err)
	}

	resp := run(t, showCmd, nil, "1")
	if resp.OK || resp.Error.Code != ErrRefNotFound {
		t.Fatalf("show before search = %+v", resp)
	}

	decodeData[map[string]any](t, run(t, searchCmd, nil, "report"))

	shown := decodeData[struct {
		Object object.Result `json:"object"`
	}](t, run(t, showCmd, nil, "1"))
	if shown.Object.ID != object.NewID(object.ProviderFilesystem, path).String() {
		t.Fatalf("show 1 = %q", shown.Object.ID)
	}

	resp = run(t, showCmd, nil, "#9")
	if resp.OK || resp.Error.Code != ErrRefNotFound {
		t.Fatalf("show out of range = %+v", resp)
	}
}

func TestHistoryCommand(t *testing.T) {
	c := setupTestConfig(t)

	resp := run(t, historyCmd, nil)
	if resp.OK || resp.Error.Code != ErrConfigInvalid {
		t.Fatalf("history with audit disabled = %+v", resp)
	}

	c.Audit = true
	note := decodeData[object.Result](t, run(t, newCmd, map[string][]string{"content": {"draft"}}, "Journal"))
	decodeData[object.Result](t, run(t, putCmd, map[string][]string{"content": {"final"}}, note.ID))
	decodeData[object.Result](t, run(t, newCmd, nil, "Other"))

	type entry struct {
		Op string `json:"op"`
		ID string `json:"id"`
	}
	all := decodeData[[]entry](t, run(t, historyCmd, nil))
	if len(all) != 3 {
		t.Fatalf("history = %+v", all)
	}
	scoped := decodeData[[]entry](t, run(t, historyCmd, map[string][]string{"since": {"1h"}}, note.ID))
	if len(scoped) != 2 || scoped[0].Op != "create" || scoped[1].Op != "update" {
		t.Fatalf("history %s = %+v", note.ID, scoped)
	}
}
