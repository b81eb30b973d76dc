package pipeline

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func TestGlob(t *testing.T) {
	tmpDir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpDir)
	ctx := vcontext.Background()

	for _, name := range []string{"b.bed.gz", "a.bed.gz", "notes.txt"} {
		assert.NoError(t, ioutil.WriteFile(filepath.Join(tmpDir, name), []byte("x"), 0644))
	}
	assert.NoError(t, os.Mkdir(filepath.Join(tmpDir, "sub.bed.gz"), 0755))

	paths, err := glob(ctx, tmpDir, "*.bed.gz")
	assert.NoError(t, err)
	expect.EQ(t, paths, []string{filepath.Join(tmpDir, "a.bed.gz"), filepath.Join(tmpDir, "b.bed.gz")})

	path, err := globOne(ctx, tmpDir, "*.bed.gz")
	assert.NoError(t, err)
	expect.EQ(t, path, filepath.Join(tmpDir, "a.bed.gz"))

	missing := filepath.Join(tmpDir, "missing")
	paths, err = glob(ctx, missing, "*.bed.gz")
	assert.NoError(t, err)
	expect.EQ(t, len(paths), 0)

	_, err = globOne(ctx, missing, "*.bed.gz")
	expect.True(t, errors.Is(errors.NotExist, err), "got %v", err)
	_, err = globOne(ctx, tmpDir, "*.gff.gz")
	expect.True(t, errors.Is(errors.NotExist, err), "got %v", err)
}
