package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultLayout is used when an item names no layout or an unknown one.
const DefaultLayout = "default"

//go:embed layouts/*.html
var builtinLayouts embed.FS

// partialsFile holds the shared head/foot/entries definitions.
const partialsFile = "base"

// RenderFunc writes a page.
type RenderFunc func(w io.Writer, p *Page) error

// Registry maps layout names to render functions.
type Registry struct {
	base    *template.Template
	layouts map[string]RenderFunc
}

// NewRegistry returns a registry holding the built-in layouts: default,
// post, index and tag.
func NewRegistry() (*Registry, error) {
	raw, err := builtinLayouts.ReadFile("layouts/" + partialsFile + ".html")
	if err != nil {
		return nil, fmt.Errorf("read builtin partials: %w", err)
	}
	base, err := template.New(partialsFile).Funcs(funcMap()).Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("parse builtin partials: %w", err)
	}

	r := &Registry{base: base, layouts: make(map[string]RenderFunc)}

	entries, err := builtinLayouts.ReadDir("layouts")
	if err != nil {
		return nil, fmt.Errorf("list builtin layouts: %w", err)
	}
	for _, e := range entries {
		name := strings.TrimSuffix(e.Name(), path.Ext(e.Name()))
		if name == partialsFile {
			continue
		}
		src, err := builtinLayouts.ReadFile("layouts/" + e.Name())
		if err != nil {
			return nil, fmt.Errorf("read builtin layout %s: %w", name, err)
		}
		if err := r.parse(name, string(src)); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds or replaces a layout.
func (r *Registry) Register(name string, fn RenderFunc) {
	r.layouts[name] = fn
}

// Names lists the registered layouts in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.layouts))
	for n := range r.layouts {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Lookup resolves a layout name. An empty name selects the default layout;
// an unregistered name also selects it and reports fellBack.
func (r *Registry) Lookup(name string) (fn RenderFunc, resolved string, fellBack bool) {
	if name == "" {
		return r.layouts[DefaultLayout], DefaultLayout, false
	}
	if fn, ok := r.layouts[name]; ok {
		return fn, name, false
	}
	return r.layouts[DefaultLayout], DefaultLayout, true
}

// Render writes p through the named layout.
func (r *Registry) Render(w io.Writer, name string, p *Page) error {
	fn, resolved, _ := r.Lookup(name)
	if fn == nil {
		return fmt.Errorf("layout %q: no default layout registered", resolved)
	}
	return fn(w, p)
}

// LoadDir registers every *.html file in dir under its file stem. A file
// named base.html replaces the shared partials for layouts loaded after it.
// A missing directory is not an error.
func (r *Registry) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read layouts dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".html") {
			continue
		}
		files = append(files, e.Name())
	}
	// partials first so user layouts see user overrides
	sort.SliceStable(files, func(i, j int) bool {
		return stem(files[i]) == partialsFile && stem(files[j]) != partialsFile
	})

	for _, f := range files {
		src, err := os.ReadFile(filepath.Join(dir, f))
		if err != nil {
			return fmt.Errorf("read layout %s: %w", f, err)
		}
		name := stem(f)
		if name == partialsFile {
			base, err := r.base.Clone()
			if err != nil {
				return fmt.Errorf("clone partials: %w", err)
			}
			if _, err := base.Parse(string(src)); err != nil {
				return fmt.Errorf("parse layout %s: %w", f, err)
			}
			r.base = base
			continue
		}
		if err := r.parse(name, string(src)); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) parse(name, src string) error {
	set, err := r.base.Clone()
	if err != nil {
		return fmt.Errorf("clone partials for %s: %w", name, err)
	}
	tpl, err := set.New(name).Parse(src)
	if err != nil {
		return fmt.Errorf("parse layout %s: %w", name, err)
	}
	r.layouts[name] = func(w io.Writer, p *Page) error {
		if err := tpl.Execute(w, p); err != nil {
			return fmt.Errorf("execute layout %s: %w", name, err)
		}
		return nil
	}
	return nil
}

func stem(file string) string {
	return strings.TrimSuffix(file, filepath.Ext(file))
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"absURL": AbsURL,
		"lower":  strings.ToLower,
	}
}

// AbsURL joins a base URL and a site-relative path.
func AbsURL(base, rel string) string {
	if base == "" {
		return rel
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(rel, "/")
}
