package fsutil

import (
	"path/filepath"
	"testing"

	"github.com/specialistvlad/ceresflow/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindFilesByExtension(t *testing.T) {
	root := testutil.WriteFiles(t, map[string]string{
		"b.hcl":            "",
		"a.hcl":            "",
		"nested/c.cfpack":  "",
		"nested/notes.txt": "",
	})

	files, err := FindFilesByExtension(root, ".hcl", ".cfpack")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "a.hcl"),
		filepath.Join(root, "b.hcl"),
		filepath.Join(root, "nested", "c.cfpack"),
	}, files)

	single := filepath.Join(root, "b.hcl")
	files, err = FindFilesByExtension(single, ".hcl")
	require.NoError(t, err)
	assert.Equal(t, []string{single}, files)

	_, err = FindFilesByExtension(filepath.Join(root, "nested", "notes.txt"), ".hcl")
	assert.Error(t, err)
	_, err = FindFilesByExtension(filepath.Join(root, "missing"), ".hcl")
	assert.Error(t, err)
	assert.Panics(t, func() { _, _ = FindFilesByExtension(root) })
}
