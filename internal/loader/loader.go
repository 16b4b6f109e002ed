// Package loader resolves textual imports into a single combined AST. The
// host embeds the core by supplying an Importer; a process-local set of
// canonicalized paths makes loading idempotent across the same path, which
// doubles as cycle prevention.
package loader

import (
	"context"
	"fmt"

	"github.com/rationlp/rationlp/internal/ast"
	"github.com/rationlp/rationlp/internal/parser"
	"golang.org/x/sync/errgroup"
)

// ErrorKind tags the category of a loader failure.
type ErrorKind int

const (
	ErrIO ErrorKind = iota
	ErrParse
)

// Error is returned by Load when a source unit cannot be read or parsed.
type Error struct {
	Kind ErrorKind
	Path string
	Msg  string
}

func (e *Error) Error() string {
	switch e.Kind {
	case ErrIO:
		return fmt.Sprintf("%s: io error: %s", e.Path, e.Msg)
	default:
		return fmt.Sprintf("%s: parse error: %s", e.Path, e.Msg)
	}
}

// Importer is the host's minimal file-system contract: read a source unit,
// canonicalize a path to a stable dedup key, and resolve an import path
// relative to the importing file.
type Importer interface {
	Read(path string) (string, error)
	Canonicalize(path string) (string, error)
	Resolve(fromPath, importPath string) (string, error)
}

// Loader walks import graphs for a single load call tree. It is not safe
// for concurrent Load calls from multiple goroutines on the same instance;
// concurrent invocations need independent loader instances.
type Loader struct {
	importer Importer
	loaded   map[string]bool
}

// New constructs a Loader backed by importer.
func New(importer Importer) *Loader {
	return &Loader{importer: importer, loaded: map[string]bool{}}
}

// Load reads path, recursively resolves every import it (transitively)
// references, and returns the merged Program. Loading the same canonical
// path twice (directly or transitively) is a no-op the second time.
func (l *Loader) Load(path string) (*ast.Program, error) {
	canon, err := l.importer.Canonicalize(path)
	if err != nil {
		return nil, &Error{Kind: ErrIO, Path: path, Msg: err.Error()}
	}
	if l.loaded[canon] {
		return &ast.Program{}, nil
	}
	l.loaded[canon] = true

	prog, err := l.readAndParse(path)
	if err != nil {
		return nil, err
	}
	combined := &ast.Program{}
	if err := l.expand(path, prog, combined); err != nil {
		return nil, err
	}
	return combined, nil
}

func (l *Loader) readAndParse(path string) (*ast.Program, error) {
	src, err := l.importer.Read(path)
	if err != nil {
		return nil, &Error{Kind: ErrIO, Path: path, Msg: err.Error()}
	}
	prog, err := parser.Parse(src)
	if err != nil {
		return nil, &Error{Kind: ErrParse, Path: path, Msg: err.Error()}
	}
	return prog, nil
}

type pendingImport struct {
	imp  *ast.Import
	path string
}

// expand appends prog's own declarations to combined, then reads every
// sibling import prog references concurrently (read-ahead only; nothing is
// merged until every sibling has been read), and finally merges and
// recurses into each one in source order so the result is deterministic.
func (l *Loader) expand(path string, prog *ast.Program, combined *ast.Program) error {
	for _, item := range prog.Items {
		if item.Import == nil {
			combined.Items = append(combined.Items, item)
		}
	}

	var toLoad []pendingImport
	for _, item := range prog.Items {
		if item.Import == nil {
			continue
		}
		rpath, err := l.importer.Resolve(path, item.Import.Path)
		if err != nil {
			return &Error{Kind: ErrIO, Path: item.Import.Path, Msg: err.Error()}
		}
		rcanon, err := l.importer.Canonicalize(rpath)
		if err != nil {
			return &Error{Kind: ErrIO, Path: rpath, Msg: err.Error()}
		}
		if l.loaded[rcanon] {
			continue
		}
		l.loaded[rcanon] = true
		toLoad = append(toLoad, pendingImport{imp: item.Import, path: rpath})
	}
	if len(toLoad) == 0 {
		return nil
	}

	children := make([]*ast.Program, len(toLoad))
	g, _ := errgroup.WithContext(context.Background())
	for i, pend := range toLoad {
		i, pend := i, pend
		g.Go(func() error {
			p, err := l.readAndParse(pend.path)
			if err != nil {
				return err
			}
			children[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, pend := range toLoad {
		filtered := filterSelections(children[i], pend.imp.Selections)
		if err := l.expand(pend.path, filtered, combined); err != nil {
			return err
		}
	}
	return nil
}

// filterSelections restricts an imported program's top-level declarations to
// the names requested by `{ name, name, ... }`; `{ * }` or no selection at
// all imports everything. Import items always pass through unfiltered so
// nested imports still expand.
func filterSelections(prog *ast.Program, sel *ast.ImportSelections) *ast.Program {
	if sel == nil || sel.Kind == ast.SelectAll {
		return prog
	}
	allowed := make(map[string]bool, len(sel.Names))
	for _, n := range sel.Names {
		allowed[n] = true
	}
	out := &ast.Program{}
	for _, item := range prog.Items {
		switch {
		case item.Import != nil:
			out.Items = append(out.Items, item)
		case item.Nutrient != nil && allowed[item.Nutrient.Name]:
			out.Items = append(out.Items, item)
		case item.Ingredient != nil && allowed[item.Ingredient.Name]:
			out.Items = append(out.Items, item)
		case item.Formula != nil && allowed[item.Formula.Name]:
			out.Items = append(out.Items, item)
		}
	}
	return out
}
