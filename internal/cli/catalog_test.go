package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/irx/internal/catalog"
)

func writeCatalog(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "catalog.cue"), []byte(src), 0644))
	return dir
}

func executeCatalogValidate(t *testing.T, format, dir string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewCatalogCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"validate", dir})
	err := cmd.Execute()
	return buf.String(), err
}

func TestCatalogValidate_Valid(t *testing.T) {
	dir := writeCatalog(t, `package catalog

dialect: shape: ops: {
	reshape: traits: ["Pure"]
	yield: traits: ["IsTerminator"]
}
`)

	out, err := executeCatalogValidate(t, "text", dir)
	require.NoError(t, err)
	assert.Equal(t, "✓ Catalog valid: 1 dialect(s): shape\n", out)

	out, err = executeCatalogValidate(t, "json", dir)
	require.NoError(t, err)
	var resp struct {
		Status string        `json:"status"`
		Data   CatalogResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, []string{"shape"}, resp.Data.Dialects)
}

func TestCatalogValidate_CompileError(t *testing.T) {
	dir := writeCatalog(t, "package catalog\n\ndialect: shape: ops: {}\n")

	out, err := executeCatalogValidate(t, "json", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string        `json:"status"`
		Data   CatalogResult `json:"data"`
		Error  *CLIError     `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	require.NotNil(t, resp.Data.Error)
	assert.Equal(t, "dialect.shape.ops", resp.Data.Error.Field)
	assert.Equal(t, ErrCodeCatalogCompile, resp.Error.Code)
}

func TestCatalogValidate_ConflictsWithBuiltin(t *testing.T) {
	dir := writeCatalog(t, "package catalog\n\ndialect: arith: ops: constant: {}\n")

	out, err := executeCatalogValidate(t, "text", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Catalog invalid")
	assert.Contains(t, out, ErrCodeCatalogLoad)
	assert.Contains(t, out, "already loaded")
}

func TestCatalogValidate_MissingDir(t *testing.T) {
	out, err := executeCatalogValidate(t, "text", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error ["+catalog.ErrCodeNotFound+"]")
}
