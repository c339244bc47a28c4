package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"text/template"
	"time"
)

// versionWidth is the zero padded width of sequential migration versions
const versionWidth = 6

var pairTemplate = template.Must(template.New("migration").Parse(`-- {{.Pair.Name}} ({{.Direction}})
-- Created: {{.Pair.Created.Format "2006-01-02T15:04:05Z07:00"}}
{{- with .Pair.Description}}
-- {{if eq $.Direction "down"}}Rollback for {{end}}{{.}}
{{- end}}

-- Write your {{.Direction}} migration SQL here. Every fiscal table carries
-- tenant_id; index it together with the lookup key.

`))

// Pair is a freshly written up/down migration
type Pair struct {
	Version     string
	Name        string
	Description string
	Created     time.Time
	UpPath      string
	DownPath    string
}

// Create writes an empty up/down pair numbered after the highest version
// already in dir
func Create(dir, name, description string) (*Pair, error) {
	slug := sanitizeName(name)
	if slug == "" {
		return nil, fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create migrations directory: %w", err)
	}

	existing, err := List(dir)
	if err != nil {
		return nil, err
	}
	next, err := nextVersion(existing)
	if err != nil {
		return nil, err
	}

	version := fmt.Sprintf("%0*d", versionWidth, next)
	base := filepath.Join(dir, version+"_"+slug)
	p := &Pair{
		Version:     version,
		Name:        name,
		Description: description,
		Created:     time.Now(),
		UpPath:      base + ".up.sql",
		DownPath:    base + ".down.sql",
	}

	if err := p.write(p.UpPath, "up"); err != nil {
		return nil, err
	}
	if err := p.write(p.DownPath, "down"); err != nil {
		_ = os.Remove(p.UpPath)
		return nil, err
	}
	return p, nil
}

// write creates path exclusively so an existing migration is never overwritten
func (p *Pair) write(path, direction string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s migration: %w", direction, err)
	}
	defer f.Close()

	return pairTemplate.Execute(f, struct {
		Pair      *Pair
		Direction string
	}{p, direction})
}

func nextVersion(existing []string) (uint64, error) {
	var highest uint64
	for _, base := range existing {
		prefix, _, _ := strings.Cut(base, "_")
		v, err := strconv.ParseUint(prefix, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("migration %q does not start with a numeric version", base)
		}
		highest = max(highest, v)
	}
	return highest + 1, nil
}

// sanitizeName lowercases name and joins its words with underscores
func sanitizeName(name string) string {
	words := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	})
	kept := words[:0]
	for _, w := range words {
		w = strings.Map(func(r rune) rune {
			if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
				return r
			}
			return -1
		}, w)
		if w != "" {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, "_")
}

// List returns the base names of the up migrations in dir, ordered by
// version. A missing directory yields an empty list.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if base, ok := strings.CutSuffix(entry.Name(), ".up.sql"); ok && !entry.IsDir() {
			names = append(names, base)
		}
	}
	slices.Sort(names)
	return names, nil
}
