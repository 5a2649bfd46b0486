package object

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"maps"
	"mime"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/divehq/dive/internal/atomicfile"
	"github.com/divehq/dive/internal/model"
	"github.com/divehq/dive/internal/paths"
	"github.com/divehq/dive/internal/store"
)

// ReservedDirs are never descended into by filesystem searches.
var ReservedDirs = []string{".git", ".hg", ".svn", "node_modules", ".gemini"}

const (
	// MinQueryLength is the shortest query the filesystem provider answers.
	MinQueryLength = 2

	// DefaultSearchLimit caps filesystem search results.
	DefaultSearchLimit = 50

	fileType      = "file"
	directoryType = "directory"
)

// FilesystemConfig configures a FilesystemProvider.
type FilesystemConfig struct {
	// Root is the directory searched and used to resolve relative IDs.
	Root string

	// Ignore holds extra doublestar patterns. A directory or file is skipped
	// when a pattern matches its base name or its root-relative slash path.
	Ignore []string

	// SearchLimit caps search results; zero means DefaultSearchLimit.
	SearchLimit int

	// Confine rejects IDs that resolve outside Root.
	Confine bool
}

// FilesystemProvider serves files under a root directory. The filesystem is
// authoritative for bytes; properties and tags live in shadow rows of the
// metadata store keyed by "filesystem:<absolute path>".
type FilesystemProvider struct {
	root    string
	ignore  []string
	limit   int
	confine bool
	meta    *store.Database
}

// NewFilesystemProvider validates cfg and returns a provider. meta may be nil,
// in which case no shadow rows are read or written.
func NewFilesystemProvider(cfg FilesystemConfig, meta *store.Database) (*FilesystemProvider, error) {
	if cfg.Root == "" {
		return nil, errors.New("filesystem root is required")
	}
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve filesystem root: %w", err)
	}
	for _, pattern := range cfg.Ignore {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid ignore pattern %q", pattern)
		}
	}
	limit := cfg.SearchLimit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	return &FilesystemProvider{
		root:    root,
		ignore:  slices.Clone(cfg.Ignore),
		limit:   limit,
		confine: cfg.Confine,
		meta:    meta,
	}, nil
}

// Name implements Provider.
func (p *FilesystemProvider) Name() string { return ProviderFilesystem }

// Root returns the absolute root directory.
func (p *FilesystemProvider) Root() string { return p.root }

// ShadowKey returns the metadata row ID for an absolute file path.
func ShadowKey(absPath string) string {
	return model.ShadowPrefix + filepath.ToSlash(absPath)
}

func (p *FilesystemProvider) resolve(innerID string) (string, error) {
	path, err := paths.Resolve(p.root, innerID, p.confine)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidID, err)
	}
	return path, nil
}

// Ignored reports whether path (absolute, under root) is excluded from
// searches and watches.
func (p *FilesystemProvider) Ignored(path string) bool {
	base := filepath.Base(path)
	if slices.Contains(ReservedDirs, base) {
		return true
	}
	if len(p.ignore) == 0 {
		return false
	}
	rel, err := filepath.Rel(p.root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range p.ignore {
		if ok, _ := doublestar.Match(pattern, base); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// Search implements Provider. It walks the root depth-first and matches the
// query case-insensitively against base file names. Queries shorter than
// MinQueryLength return nothing.
//
// Tag filters return nothing: tagged files surface through their shadow rows
// in the database provider. The untagged filter drops files whose shadow row
// carries a tag.
func (p *FilesystemProvider) Search(ctx context.Context, query string, filters Filters) ([]Result, error) {
	if utf8.RuneCountInString(query) < MinQueryLength {
		return []Result{}, nil
	}
	if len(filters.Tags) > 0 || (filters.Type != "" && filters.Type != fileType) {
		return []Result{}, nil
	}
	if _, err := os.Stat(p.root); err != nil {
		return []Result{}, nil
	}

	needle := strings.ToLower(query)
	results := []Result{}
	untagged := filters.Untagged && p.meta != nil

	// Untagged candidates are checked against the store in batches.
	var pending []Result
	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		keys := make([]string, len(pending))
		for i, r := range pending {
			keys[i] = ShadowKey(r.ID)
		}
		tagged, err := p.meta.TaggedObjects(ctx, keys)
		if err != nil {
			return err
		}
		for i, r := range pending {
			if !tagged[keys[i]] {
				results = append(results, r)
			}
		}
		pending = pending[:0]
		return nil
	}

	err := filepath.WalkDir(p.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			slog.DebugContext(ctx, "Skipping unreadable path", "path", path, "err", err)
			if d != nil && d.IsDir() && path != p.root {
				return filepath.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if path != p.root && p.Ignored(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if p.Ignored(path) {
			return nil
		}
		if !strings.Contains(strings.ToLower(d.Name()), needle) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if !untagged {
			results = append(results, fileResult(path, info))
			if len(results) >= p.limit {
				return fs.SkipAll
			}
			return nil
		}
		pending = append(pending, fileResult(path, info))
		if len(results)+len(pending) >= p.limit {
			if err := flush(); err != nil {
				return err
			}
			if len(results) >= p.limit {
				return fs.SkipAll
			}
		}
		return nil
	})
	if err == nil && untagged {
		err = flush()
	}
	if err != nil {
		slog.WarnContext(ctx, "Filesystem search failed", "root", p.root, "err", err)
		return []Result{}, nil
	}
	if len(results) > p.limit {
		results = results[:p.limit]
	}
	return results, nil
}

func fileResult(path string, info fs.FileInfo) Result {
	modified := info.ModTime().UnixMilli()
	props := map[string]any{
		"size": info.Size(),
		"path": path,
	}
	typ := fileType
	if info.IsDir() {
		typ = directoryType
	} else if mt := mime.TypeByExtension(filepath.Ext(path)); mt != "" {
		props["mime"] = mt
	}
	return Result{
		ID:         path,
		Type:       typ,
		Name:       filepath.Base(path),
		Properties: props,
		CreatedAt:  modified,
		UpdatedAt:  modified,
		ProviderID: ProviderFilesystem,
		Icon:       typ,
	}
}

// DirEntry is the content of a directory record.
type DirEntry struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	IsDir     bool   `json:"is_directory"`
	Size      int64  `json:"size,omitempty"`
	UpdatedAt int64  `json:"updated_at"`
}

// Get implements Provider. Files are read in full; directories list their
// non-reserved entries. Shadow-row properties are layered over the stat
// properties and the shadow creation time is preferred.
func (p *FilesystemProvider) Get(ctx context.Context, innerID string) (*Result, error) {
	path, err := p.resolve(innerID)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	res := fileResult(path, info)
	if info.IsDir() {
		entries, err := p.listDir(path)
		if err != nil {
			return nil, err
		}
		res.Content = entries
	} else {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		res.Content = string(content)
	}

	if p.meta != nil {
		shadow, err := p.meta.GetObject(ctx, ShadowKey(path))
		switch {
		case err == nil:
			maps.Copy(res.Properties, shadow.Properties)
			res.CreatedAt = shadow.CreatedAt
		case !errors.Is(err, store.ErrObjectNotFound):
			return nil, fmt.Errorf("read shadow metadata: %w", err)
		}
	}
	return &res, nil
}

func (p *FilesystemProvider) listDir(dir string) ([]DirEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	out := make([]DirEntry, 0, len(entries))
	for _, e := range entries {
		full := filepath.Join(dir, e.Name())
		if p.Ignored(full) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		entry := DirEntry{
			Name:      e.Name(),
			Path:      full,
			IsDir:     e.IsDir(),
			UpdatedAt: info.ModTime().UnixMilli(),
		}
		if !e.IsDir() {
			entry.Size = info.Size()
		}
		out = append(out, entry)
	}
	return out, nil
}

// ReadContent returns the text content of the file at innerID.
func (p *FilesystemProvider) ReadContent(innerID string) (string, error) {
	path, err := p.resolve(innerID)
	if err != nil {
		return "", err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Put implements Provider. The file bytes are replaced atomically, then the
// shadow row is upserted. The two steps are not transactional: if the
// metadata write fails the new bytes stay on disk and the error is returned.
func (p *FilesystemProvider) Put(ctx context.Context, innerID string, req PutRequest) error {
	path, err := p.resolve(innerID)
	if err != nil {
		return err
	}

	var data []byte
	switch c := req.Content.(type) {
	case string:
		data = []byte(c)
	case []byte:
		data = c
	case nil:
	default:
		return fmt.Errorf("%w: filesystem content must be text, got %T", ErrInvalidContent, req.Content)
	}

	info, err := os.Stat(path)
	switch {
	case err == nil && info.IsDir():
		return fmt.Errorf("%w: %s is a directory", ErrInvalidContent, path)
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return err
	}
	// Nil content on an existing file is a metadata-only write.
	if req.Content != nil || err != nil {
		if err := atomicfile.WriteFile(path, data, 0); err != nil {
			return fmt.Errorf("write file: %w", err)
		}
	}

	if p.meta == nil {
		return nil
	}
	typ := req.Type
	if typ == "" {
		typ = fileType
	}
	// Nil properties keep the ones already recorded.
	if _, _, err := p.meta.UpsertObject(ctx, model.Object{
		ID:         ShadowKey(path),
		Type:       typ,
		Name:       filepath.Base(path),
		Properties: req.Properties,
	}); err != nil {
		return fmt.Errorf("upsert shadow metadata for %s: %w", path, err)
	}
	return nil
}

// Create writes r to a new file named name directly under the root and
// records a shadow row of type typ. An existing file is never replaced.
func (p *FilesystemProvider) Create(ctx context.Context, name string, r io.Reader, typ string) (string, int64, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", 0, fmt.Errorf("%w: bad file name %q", ErrInvalidID, name)
	}
	path := filepath.Join(p.root, name)
	if _, err := os.Lstat(path); err == nil {
		return "", 0, fmt.Errorf("%w: %s", ErrExists, path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", 0, err
	}

	// The early check avoids buffering a doomed upload; CreateFrom settles races.
	n, err := atomicfile.CreateFrom(path, r, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return "", 0, fmt.Errorf("%w: %s", ErrExists, path)
	}
	if err != nil {
		return "", 0, fmt.Errorf("write file: %w", err)
	}

	if p.meta != nil {
		if typ == "" {
			typ = fileType
		}
		if _, _, err := p.meta.UpsertObject(ctx, model.Object{
			ID:   ShadowKey(path),
			Type: typ,
			Name: name,
		}); err != nil {
			return path, n, fmt.Errorf("upsert shadow metadata for %s: %w", path, err)
		}
	}
	return path, n, nil
}

// MetadataRecord implements MetadataRecorder. The returned row may not exist
// yet; callers materialize it with store.EnsureObject.
func (p *FilesystemProvider) MetadataRecord(ctx context.Context, innerID string) (model.Object, error) {
	path, err := p.resolve(innerID)
	if err != nil {
		return model.Object{}, err
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return model.Object{}, fmt.Errorf("%w: %s", ErrNotFound, path)
	} else if err != nil {
		return model.Object{}, err
	}
	return model.Object{
		ID:   ShadowKey(path),
		Type: fileType,
		Name: filepath.Base(path),
	}, nil
}
