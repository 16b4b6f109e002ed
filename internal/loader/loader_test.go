package loader

import (
	"fmt"
	"path"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// memImporter is an in-memory Importer for deterministic unit tests; import
// paths are treated as slash-separated keys into files, joined the same way
// a filesystem would join a relative path against a directory. Read is
// called from concurrent goroutines for sibling imports, so the read
// counter is guarded by mu.
type memImporter struct {
	files map[string]string
	mu    sync.Mutex
	reads map[string]int
}

func newMemImporter(files map[string]string) *memImporter {
	return &memImporter{files: files, reads: map[string]int{}}
}

func (m *memImporter) Read(p string) (string, error) {
	m.mu.Lock()
	m.reads[p]++
	m.mu.Unlock()
	src, ok := m.files[p]
	if !ok {
		return "", fmt.Errorf("no such file: %s", p)
	}
	return src, nil
}

func (m *memImporter) Canonicalize(p string) (string, error) {
	return path.Clean(p), nil
}

func (m *memImporter) Resolve(fromPath, importPath string) (string, error) {
	return path.Join(path.Dir(fromPath), importPath), nil
}

func TestLoadMergesImports(t *testing.T) {
	files := map[string]string{
		"root.rlp": `
import ./nutrients.rlp
ingredient corn { cost 100 nutrients { protein 8 } }
`,
		"nutrients.rlp": `nutrient protein { unit pct }`,
	}
	l := New(newMemImporter(files))
	prog, err := l.Load("root.rlp")
	require.NoError(t, err)

	var names []string
	for _, item := range prog.Items {
		switch {
		case item.Nutrient != nil:
			names = append(names, item.Nutrient.Name)
		case item.Ingredient != nil:
			names = append(names, item.Ingredient.Name)
		}
	}
	require.ElementsMatch(t, []string{"protein", "corn"}, names)
}

func TestLoadIsIdempotentAcrossDiamondImports(t *testing.T) {
	files := map[string]string{
		"root.rlp": `
import ./a.rlp
import ./b.rlp
`,
		"a.rlp":      `import ./shared.rlp`,
		"b.rlp":      `import ./shared.rlp`,
		"shared.rlp": `nutrient protein { }`,
	}
	imp := newMemImporter(files)
	l := New(imp)
	prog, err := l.Load("root.rlp")
	require.NoError(t, err)
	require.Len(t, prog.Items, 1)
	require.Equal(t, 1, imp.reads["shared.rlp"])
}

func TestLoadSelectionFiltersNames(t *testing.T) {
	files := map[string]string{
		"root.rlp": `import ./nutrients.rlp { protein }`,
		"nutrients.rlp": `
nutrient protein { }
nutrient calcium { }
`,
	}
	l := New(newMemImporter(files))
	prog, err := l.Load("root.rlp")
	require.NoError(t, err)
	require.Len(t, prog.Items, 1)
	require.Equal(t, "protein", prog.Items[0].Nutrient.Name)
}

func TestLoadMissingFileReturnsIOError(t *testing.T) {
	l := New(newMemImporter(map[string]string{}))
	_, err := l.Load("missing.rlp")
	require.Error(t, err)
	var le *Error
	require.ErrorAs(t, err, &le)
	require.Equal(t, ErrIO, le.Kind)
}
