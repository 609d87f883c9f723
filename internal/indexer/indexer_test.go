package indexer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codescope/internal/embedder"
	"codescope/internal/storage"
	"codescope/pkg/types"
)

func setupIndexer(t *testing.T, files map[string]string, cfg Config) (*Indexer, *storage.SQLiteStorage) {
	t.Helper()

	root := t.TempDir()
	for rel, content := range files {
		abs := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
		require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
	}

	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	emb, err := embedder.New(embedder.Config{Provider: embedder.ProviderLocal})
	require.NoError(t, err)

	cfg.Root = root
	idx, err := New(store, emb, cfg)
	require.NoError(t, err)
	return idx, store
}

func TestIndexRepository_RelativeImportResolved(t *testing.T) {
	idx, store := setupIndexer(t, map[string]string{
		"src/a.js": "export function helper() { return 1; }\n",
		"src/b.js": "import { helper } from './a';\n\nexport function main() { return helper(); }\n",
	}, Config{})

	ctx := context.Background()
	stats, err := idx.IndexRepository(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.FilesProcessed)
	assert.Equal(t, 0, stats.FilesFailed)
	assert.Empty(t, stats.Errors)

	a, err := store.GetFile(ctx, "src/a.js")
	require.NoError(t, err)
	b, err := store.GetFile(ctx, "src/b.js")
	require.NoError(t, err)

	deps, err := store.DependenciesByFile(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, deps, 1)
	assert.Equal(t, "./a", deps[0].ImportPath)
	assert.False(t, deps[0].IsExternal)
	require.NotNil(t, deps[0].TargetFileID)
	assert.Equal(t, a.ID, *deps[0].TargetFileID)
}

func TestIndexRepository_ExternalImportUnresolved(t *testing.T) {
	idx, store := setupIndexer(t, map[string]string{
		"main.py": "import os\n\ndef run():\n    return os.getcwd()\n",
	}, Config{})

	ctx := context.Background()
	_, err := idx.IndexRepository(ctx, false)
	require.NoError(t, err)

	f, err := store.GetFile(ctx, "main.py")
	require.NoError(t, err)
	deps, err := store.DependenciesByFile(ctx, f.ID)
	require.NoError(t, err)
	require.Len(t, deps, 1)
	assert.True(t, deps[0].IsExternal)
	assert.Nil(t, deps[0].TargetFileID)
}

func TestIndexRepository_SkipsUnchanged(t *testing.T) {
	idx, store := setupIndexer(t, map[string]string{
		"a.go": "package a\n\nfunc A() int { return 1 }\n",
		"b.go": "package a\n\nfunc B() int { return 2 }\n",
	}, Config{})

	ctx := context.Background()
	first, err := idx.IndexRepository(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 2, first.FilesProcessed)

	before, err := store.GetFile(ctx, "a.go")
	require.NoError(t, err)

	second, err := idx.IndexRepository(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 0, second.FilesProcessed)
	assert.Equal(t, 2, second.FilesSkipped)

	after, err := store.GetFile(ctx, "a.go")
	require.NoError(t, err)
	assert.True(t, after.IndexedAt.Equal(before.IndexedAt), "skipped file keeps its indexed_at")
}

func TestIndexRepository_ForceReindexesEverything(t *testing.T) {
	idx, _ := setupIndexer(t, map[string]string{
		"a.go": "package a\n\nfunc A() int { return 1 }\n",
	}, Config{})

	ctx := context.Background()
	_, err := idx.IndexRepository(ctx, false)
	require.NoError(t, err)

	stats, err := idx.IndexRepository(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesProcessed)
	assert.Equal(t, 0, stats.FilesSkipped)
}

func TestIndexRepository_IgnoredPaths(t *testing.T) {
	idx, store := setupIndexer(t, map[string]string{
		"app.js":                 "function app() { return 1; }\n",
		"node_modules/dep/x.js":  "function hidden() {}\n",
		".git/config":            "[core]\n",
		"image.png":              "not indexable",
		"docs/readme.md":         "# readme\n\nplain text, no symbols\n",
		"bundle.min.js":          "function m(){}\n",
		"sub/.codescope/tmp.txt": "scratch",
	}, Config{})

	ctx := context.Background()
	stats, err := idx.IndexRepository(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.FilesProcessed) // app.js and docs/readme.md

	files, err := store.ListFiles(ctx)
	require.NoError(t, err)
	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.FilePath)
	}
	assert.ElementsMatch(t, []string{"app.js", "docs/readme.md"}, paths)
}

func TestIndexRepository_SymbolsAndEmbeddings(t *testing.T) {
	code := "VERSION = \"1.0\"\n\nclass Store:\n    def __init__(self):\n        self.items = {}\n\n    def add(self, item):\n        self.items[item.id] = item\n"
	idx, store := setupIndexer(t, map[string]string{"store.py": code}, Config{})

	ctx := context.Background()
	stats, err := idx.IndexRepository(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesProcessed)
	assert.Greater(t, stats.Symbols, 0)
	assert.Greater(t, stats.Chunks, 0)

	f, err := store.GetFile(ctx, "store.py")
	require.NoError(t, err)
	assert.Equal(t, string(types.LangPython), f.Language)

	symbols, err := store.SymbolsByFile(ctx, f.ID)
	require.NoError(t, err)
	names := make([]string, 0, len(symbols))
	for _, s := range symbols {
		names = append(names, s.Name)
	}
	assert.Contains(t, names, "Store")
	assert.Contains(t, names, "add")

	embeddings, err := store.EmbeddingsByFile(ctx, f.ID)
	require.NoError(t, err)
	require.NotEmpty(t, embeddings)
	for i, e := range embeddings {
		assert.Equal(t, i, e.ChunkIndex)
		assert.Len(t, e.Vector, embedder.LocalDimension)
		assert.Equal(t, string(types.LangPython), e.Metadata.Language)
	}
}

func TestIndexRepository_LockedWhileRunning(t *testing.T) {
	idx, _ := setupIndexer(t, map[string]string{"a.go": "package a\n"}, Config{})

	require.True(t, idx.lock.TryAcquire())
	defer idx.lock.Release()

	_, err := idx.IndexRepository(context.Background(), false)
	assert.ErrorIs(t, err, ErrIndexInProgress)
}

func TestIndexRepository_SizeCeiling(t *testing.T) {
	idx, store := setupIndexer(t, map[string]string{
		"small.js": "function ok() { return 1; }\n",
		"big.js":   "// " + string(make([]byte, 200)) + "\n",
	}, Config{MaxFileSize: 100})

	ctx := context.Background()
	stats, err := idx.IndexRepository(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesProcessed)
	assert.Equal(t, 1, stats.FilesSkipped)

	_, err = store.GetFile(ctx, "big.js")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUpdateFile_ReplacesDerivedRows(t *testing.T) {
	idx, store := setupIndexer(t, map[string]string{
		"m.js": "function old() { return 1; }\n",
	}, Config{})

	ctx := context.Background()
	require.NoError(t, idx.IndexFile(ctx, "m.js"))

	f, err := store.GetFile(ctx, "m.js")
	require.NoError(t, err)
	firstID := f.ID

	abs := filepath.Join(idx.Root(), "m.js")
	require.NoError(t, os.WriteFile(abs, []byte("function fresh() { return 2; }\n"), 0o644))
	// mtime must move forward for change detection elsewhere; UpdateFile
	// itself re-indexes unconditionally
	future := time.Now().Add(time.Second)
	require.NoError(t, os.Chtimes(abs, future, future))

	require.NoError(t, idx.UpdateFile(ctx, "m.js"))

	f, err = store.GetFile(ctx, "m.js")
	require.NoError(t, err)
	assert.Equal(t, firstID, f.ID, "path keeps its row across updates")
	assert.Contains(t, f.Content, "fresh")

	symbols, err := store.SymbolsByFile(ctx, f.ID)
	require.NoError(t, err)
	require.Len(t, symbols, 1)
	assert.Equal(t, "fresh", symbols[0].Name)
}

func TestRemoveFile(t *testing.T) {
	idx, store := setupIndexer(t, map[string]string{
		"gone.js": "function gone() {}\n",
	}, Config{})

	ctx := context.Background()
	require.NoError(t, idx.IndexFile(ctx, "gone.js"))
	require.NoError(t, idx.RemoveFile(ctx, "gone.js"))

	_, err := store.GetFile(ctx, "gone.js")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Removing an unindexed path is a no-op
	assert.NoError(t, idx.RemoveFile(ctx, "never-indexed.js"))
}

func TestIndexFile_MissingFile(t *testing.T) {
	idx, _ := setupIndexer(t, nil, Config{})
	err := idx.IndexFile(context.Background(), "does-not-exist.js")
	assert.Error(t, err)
}

func TestIgnoreSet_Match(t *testing.T) {
	set := NewIgnoreSet("generated/**")

	assert.True(t, set.Match(".git/config"))
	assert.True(t, set.Match("node_modules/pkg/index.js"))
	assert.True(t, set.Match("deep/nested/bundle.min.js"))
	assert.True(t, set.Match("generated/api.js"))
	assert.False(t, set.Match("src/app.js"))
	assert.False(t, set.Match("minify.js"))

	assert.True(t, set.MatchDir("node_modules"))
	assert.True(t, set.MatchDir(".git"))
	assert.False(t, set.MatchDir("src"))
}

func TestLoadIgnoreSet_RepositoryFile(t *testing.T) {
	root := t.TempDir()
	content := "# comment\n\nsecrets/**\n*.generated.ts\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, IgnoreFileName), []byte(content), 0o644))

	set, err := LoadIgnoreSet(root)
	require.NoError(t, err)
	assert.True(t, set.Match("secrets/key.pem"))
	assert.True(t, set.Match("src/api.generated.ts"))
	assert.False(t, set.Match("src/api.ts"))
}

func TestCandidateTargets(t *testing.T) {
	js := candidateTargets("src/a.js", "./utils", types.LangJavaScript)
	assert.Contains(t, js, "src/utils")
	assert.Contains(t, js, "src/utils.js")
	assert.Contains(t, js, "src/utils/index.js")

	py := candidateTargets("app/main.py", ".models", types.LangPython)
	assert.Contains(t, py, "app/models.py")

	pyUp := candidateTargets("app/sub/worker.py", "..models", types.LangPython)
	assert.Contains(t, pyUp, "app/models.py")

	rs := candidateTargets("src/main.rs", "crate::store", types.LangRust)
	assert.Contains(t, rs, "src/store.rs")

	// Paths escaping the repository never resolve
	assert.Nil(t, candidateTargets("a.js", "../../outside", types.LangJavaScript))
}

func TestIndexLock(t *testing.T) {
	var lock IndexLock
	assert.True(t, lock.TryAcquire())
	assert.False(t, lock.TryAcquire())
	lock.Release()
	assert.True(t, lock.TryAcquire())
}
