package persist

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bmerritt/revdoc/internal/tree"
)

func seededDomain(t *testing.T, root, name string) *Domain {
	t.Helper()
	ctx := context.Background()
	d := Open(root, name)
	require.NoError(t, d.EnsureSeeded(ctx, tree.Object{"n": tree.Int(0)}))
	id, err := d.AllocateNextID(ctx, "second")
	require.NoError(t, err)
	require.NoError(t, d.WriteDoc(id, tree.Object{"n": tree.Int(1)}))
	require.NoError(t, d.SetActive(ctx, id, "promote"))
	return d
}

func TestExportZip_ImportZip_ReplaceRoundTrip(t *testing.T) {
	srcRoot := t.TempDir()
	d := seededDomain(t, srcRoot, "demo")
	zipPath := filepath.Join(t.TempDir(), "demo.zip")

	require.NoError(t, d.ExportZip(zipPath, false))

	dstRoot := t.TempDir()
	target, err := ImportZip(dstRoot, zipPath, "demo", StrategyReplace)
	require.NoError(t, err)
	assert.Equal(t, "demo", target)

	imported := Open(dstRoot, "demo")
	srcIdx, err := d.ReadIndex()
	require.NoError(t, err)
	dstIdx, err := imported.ReadIndex()
	require.NoError(t, err)
	assert.Equal(t, srcIdx, dstIdx)

	for _, id := range []string{"0001", "0002"} {
		want, err := os.ReadFile(d.DocPath(id))
		require.NoError(t, err)
		got, err := os.ReadFile(imported.DocPath(id))
		require.NoError(t, err)
		assert.Equal(t, want, got, "revision %s should round-trip byte-identical", id)
	}
}

func TestExportZip_SkipsLockSentinel(t *testing.T) {
	root := t.TempDir()
	d := seededDomain(t, root, "demo")
	require.NoError(t, os.WriteFile(d.lockPath(), []byte("pid=1\n"), 0o644))

	zipPath := filepath.Join(t.TempDir(), "demo.zip")
	require.NoError(t, d.ExportZip(zipPath, false))

	zr, err := zip.OpenReader(zipPath)
	require.NoError(t, err)
	defer zr.Close()
	for _, member := range zr.File {
		assert.NotEqual(t, "demo/.lock", member.Name)
	}
}

func TestExportZip_RefusesOverwrite(t *testing.T) {
	root := t.TempDir()
	d := seededDomain(t, root, "demo")
	zipPath := filepath.Join(t.TempDir(), "demo.zip")

	require.NoError(t, d.ExportZip(zipPath, false))
	err := d.ExportZip(zipPath, false)
	require.Error(t, err)
	var derr *DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, ErrCodeExists, derr.Code)

	require.NoError(t, d.ExportZip(zipPath, true))
}

func TestImportZip_NewDomainSuffix(t *testing.T) {
	root := t.TempDir()
	d := seededDomain(t, root, "demo")
	zipPath := filepath.Join(t.TempDir(), "demo.zip")
	require.NoError(t, d.ExportZip(zipPath, false))

	target, err := ImportZip(root, zipPath, "demo", StrategyNewDomain)
	require.NoError(t, err)
	assert.Equal(t, "demo_1", target)

	target, err = ImportZip(root, zipPath, "demo", StrategyNewDomain)
	require.NoError(t, err)
	assert.Equal(t, "demo_2", target)

	names, err := DomainNames(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"demo", "demo_1", "demo_2"}, names)
}

func TestImportZip_MergeOverwrites(t *testing.T) {
	srcRoot := t.TempDir()
	d := seededDomain(t, srcRoot, "demo")
	zipPath := filepath.Join(t.TempDir(), "demo.zip")
	require.NoError(t, d.ExportZip(zipPath, false))

	dstRoot := t.TempDir()
	dst := Open(dstRoot, "demo")
	require.NoError(t, dst.EnsureSeeded(context.Background(), tree.Object{"n": tree.Int(99)}))
	require.NoError(t, dst.WriteDoc("0007", tree.Object{}))

	target, err := ImportZip(dstRoot, zipPath, "demo", StrategyMerge)
	require.NoError(t, err)
	assert.Equal(t, "demo", target)

	// Archive content replaced the colliding seed revision...
	doc, err := dst.ReadDoc("0001")
	require.NoError(t, err)
	assert.True(t, tree.Equal(tree.Object{"n": tree.Int(0)}, doc))

	// ...while pre-existing revisions outside the archive survive.
	_, err = dst.ReadDoc("0007")
	require.NoError(t, err)
}

func TestImportZip_InvalidStrategy(t *testing.T) {
	_, err := ImportZip(t.TempDir(), "whatever.zip", "demo", ImportStrategy("sideload"))
	require.Error(t, err)
	var derr *DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, ErrCodeInvalidArchive, derr.Code)
}

func TestImportZip_MissingArchive(t *testing.T) {
	_, err := ImportZip(t.TempDir(), filepath.Join(t.TempDir(), "nope.zip"), "demo", StrategyMerge)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestImportZip_RejectsUnsafeMemberPaths(t *testing.T) {
	zipPath := filepath.Join(t.TempDir(), "evil.zip")
	out, err := os.Create(zipPath)
	require.NoError(t, err)
	zw := zip.NewWriter(out)
	w, err := zw.Create("demo/../escape.json")
	require.NoError(t, err)
	_, err = w.Write([]byte("{}"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, out.Close())

	root := t.TempDir()
	_, err = ImportZip(root, zipPath, "demo", StrategyMerge)
	require.Error(t, err)
	var derr *DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, ErrCodeInvalidArchive, derr.Code)
}

func TestCopyTo(t *testing.T) {
	srcRoot := t.TempDir()
	d := seededDomain(t, srcRoot, "demo")
	dstRoot := t.TempDir()

	dstDir, err := d.CopyTo(dstRoot, true, false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dstRoot, "demo"), dstDir)

	copied := Open(dstRoot, "demo")
	ids, err := copied.ListDocIDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"0001", "0002"}, ids)

	// Without overwrite a second copy is refused.
	_, err = d.CopyTo(dstRoot, true, false)
	require.Error(t, err)
	var derr *DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, ErrCodeExists, derr.Code)

	_, err = d.CopyTo(dstRoot, false, true)
	require.NoError(t, err)
	ids, err = copied.ListDocIDs()
	require.NoError(t, err)
	assert.Empty(t, ids, "index-only copy should not carry revision files")
}
