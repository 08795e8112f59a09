// Package msgcat renders user-facing text from YAML templates. English
// defaults are embedded; files in an override directory replace single keys.
package msgcat

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"slices"
	"strings"
	"sync"
	"text/template"

	yaml "gopkg.in/yaml.v3"
)

//go:embed messages.en.yaml
var embedded embed.FS

var ErrUnknownKey = errors.New("unknown message key")

// Catalog holds parsed templates under flattened keys such as
// "outcome.checkmate". Execution uses missingkey=error, so absent template
// data is reported instead of rendering "<no value>".
type Catalog struct {
	mu        sync.RWMutex
	templates map[string]*template.Template
}

// New loads the embedded messages and then every *.yaml / *.yml file in
// overrideDir, when set. A key defined by two override files is an error.
func New(overrideDir string) (*Catalog, error) {
	c := &Catalog{templates: make(map[string]*template.Template)}
	if err := c.load(embedded, false); err != nil {
		return nil, fmt.Errorf("msgcat: embedded: %w", err)
	}
	if dir := strings.TrimSpace(overrideDir); dir != "" {
		if err := c.load(os.DirFS(dir), true); err != nil {
			return nil, fmt.Errorf("msgcat: %s: %w", dir, err)
		}
	}
	return c, nil
}

func (c *Catalog) load(fsys fs.FS, strict bool) error {
	names, err := yamlFiles(fsys)
	if err != nil {
		return err
	}
	owner := make(map[string]string)
	parsed := make(map[string]*template.Template)
	for _, name := range names {
		raw, err := fs.ReadFile(fsys, name)
		if err != nil {
			return err
		}
		var doc map[string]any
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		flat := make(map[string]string)
		if err := flatten("", doc, flat); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		for key, text := range flat {
			if prev, dup := owner[key]; dup && strict {
				return fmt.Errorf("key %q defined in both %s and %s", key, prev, name)
			}
			owner[key] = name
			t, err := template.New(key).Option("missingkey=error").Parse(text)
			if err != nil {
				return fmt.Errorf("%s: %s: %w", name, key, err)
			}
			parsed[key] = t
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for k, t := range parsed {
		c.templates[k] = t
	}
	return nil
}

func yamlFiles(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(path.Ext(e.Name())) {
		case ".yaml", ".yml":
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	return names, nil
}

func flatten(prefix string, node any, out map[string]string) error {
	switch v := node.(type) {
	case nil:
		return nil
	case string:
		if prefix == "" {
			return errors.New("top-level value must be a mapping")
		}
		out[prefix] = v
		return nil
	case map[string]any:
		for k, child := range v {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			if err := flatten(key, child, out); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%s: want string, got %T", prefix, node)
	}
}

func (c *Catalog) lookup(key string) (*template.Template, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.templates[strings.TrimSpace(key)]
	return t, ok
}

func (c *Catalog) Has(key string) bool {
	_, ok := c.lookup(key)
	return ok
}

// Render executes the template stored under key with data.
func (c *Catalog) Render(key string, data any) (string, error) {
	t, ok := c.lookup(key)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

// RenderOr is Render with a fallback for any failure.
func (c *Catalog) RenderOr(key string, data any, fallback string) string {
	s, err := c.Render(key, data)
	if err != nil {
		return fallback
	}
	return s
}
