package testutil

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetProjectRoot(t *testing.T) {
	root, err := GetProjectRoot()
	require.NoError(t, err)
	assert.True(t, FileExists(filepath.Join(root, "go.mod")))
}

func TestEnsureDir(t *testing.T) {
	testDir := filepath.Join(CreateTempDir(t), "test", "nested", "dir")

	require.NoError(t, EnsureDir(testDir))
	assert.True(t, DirExists(testDir))
	assert.False(t, DirExists(filepath.Join(testDir, "missing")))
	assert.False(t, FileExists("/non/existent/file"))
}

func TestWriteDocument(t *testing.T) {
	path := WriteDocument(t, CreateTempDir(t), "docs/contract.json", ContractDocument())
	assert.True(t, FileExists(path))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(DocumentJSON(t, ContractDocument()), &decoded))
	pages, ok := decoded["pages"].([]any)
	require.True(t, ok)
	assert.Len(t, pages, 2)
	assert.NotContains(t, decoded, "doc_type")
}

func TestLine(t *testing.T) {
	tok := Line("Итого", 10, 20, 100, 15)
	assert.Equal(t, [4]int{10, 20, 110, 35}, tok.BBox)
	assert.InDelta(t, 0.9, tok.Conf, 1e-9)
}

func TestGradientImageRoundTrip(t *testing.T) {
	img := CreateGradientImage(300, 20)
	path := filepath.Join(CreateTempDir(t), "gradient.png")
	SaveImage(t, img, path)

	loaded := LoadImage(t, path)
	assert.Equal(t, img.Bounds(), loaded.Bounds())
	r, g, _, _ := loaded.At(260, 7).RGBA()
	assert.Equal(t, uint32(260%256), r>>8)
	assert.Equal(t, uint32(7), g>>8)
}
