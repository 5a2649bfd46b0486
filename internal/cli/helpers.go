package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/divehq/dive/internal/lastresults"
	"github.com/divehq/dive/internal/workspace"
)

// parseProps parses k=v pairs. Values that decode as JSON keep their type
// (numbers, booleans, arrays, objects, quoted strings); anything else is
// stored as a plain string.
func parseProps(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	props := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: property %q must be key=value", workspace.ErrInvalidInput, pair)
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			v = raw
		}
		props[key] = v
	}
	return props, nil
}

// readContentFlags returns the --content value, or the contents of --file
// ("-" reads stdin). ok is false when neither flag was given.
func readContentFlags(content, file string, contentSet bool) (string, bool, error) {
	switch {
	case contentSet && file != "":
		return "", false, fmt.Errorf("%w: use either --content or --file", workspace.ErrInvalidInput)
	case contentSet:
		return content, true, nil
	case file == "-":
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", false, err
		}
		return string(data), true, nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", false, err
		}
		return string(data), true, nil
	}
	return "", false, nil
}

// resolveTags maps tag names or IDs to tag IDs. Unknown references are
// returned in missing.
func resolveTags(ctx context.Context, ws *workspace.Workspace, refs []string) (ids, missing []string, err error) {
	if len(refs) == 0 {
		return nil, nil, nil
	}
	tags, err := ws.Store.ListTags(ctx)
	if err != nil {
		return nil, nil, err
	}
	byRef := make(map[string]string, len(tags)*2)
	for _, t := range tags {
		byRef[t.ID] = t.ID
		byRef[strings.ToLower(t.Name)] = t.ID
	}
	for _, ref := range refs {
		ref = strings.TrimPrefix(strings.TrimSpace(ref), "#")
		if id, ok := byRef[ref]; ok {
			ids = append(ids, id)
		} else if id, ok := byRef[strings.ToLower(ref)]; ok {
			ids = append(ids, id)
		} else {
			missing = append(missing, ref)
		}
	}
	return ids, missing, nil
}

// resolveTag resolves a single tag name or ID.
func resolveTag(ctx context.Context, ws *workspace.Workspace, ref string) (string, error) {
	ids, missing, err := resolveTags(ctx, ws, []string{ref})
	if err != nil {
		return "", err
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("tag %q not found", missing[0])
	}
	return ids[0], nil
}

// structuredContent decodes JSON text for types whose content is a document
// rather than text.
func structuredContent(typ, text string) any {
	if typ != "canvas" {
		return text
	}
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return text
	}
	return v
}

// stateDir holds CLI state such as the last search results.
func stateDir() string {
	return filepath.Dir(getConfig().Database)
}

// resolveRef maps a result number from the last search ("2", "#2") to its
// composite ID. Other refs are returned unchanged.
func resolveRef(ref string) (string, error) {
	return lastresults.Resolve(stateDir(), ref)
}
