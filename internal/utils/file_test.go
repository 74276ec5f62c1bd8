package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOutputFilename(t *testing.T) {
	tests := []struct {
		name, input, dir, prefix, suffix, format, want string
	}{
		{name: "explicit format", input: "in/photo.png", dir: "out", suffix: "_fx", format: "webp", want: filepath.Join("out", "photo_fx.webp")},
		{name: "keeps extension", input: "photo.JPG", dir: "out", prefix: "p_", want: filepath.Join("out", "p_photo.jpg")},
		{name: "no extension", input: "photo", dir: "out", want: filepath.Join("out", "photo.jpg")},
		{name: "separators in suffix", input: "photo.png", dir: "out", suffix: "_a/b", format: "png", want: filepath.Join("out", "photo_a_b.png")},
		{name: "parent prefix", input: "photo.png", dir: "out", prefix: "../", format: "png", want: filepath.Join("out", "_photo.png")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GenerateOutputFilename(tt.input, tt.dir, tt.prefix, tt.suffix, tt.format))
		})
	}
}

func TestSidecarPath(t *testing.T) {
	assert.Equal(t, filepath.Join("dir", "photo.landmarks.json"), SidecarPath(filepath.Join("dir", "photo.jpg"), "landmarks", "json"))
	assert.Equal(t, "photo.mask.png", SidecarPath("photo.webp", "mask", "png"))
}

func TestListImageFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.jpg", "a.png", "a.mask.png", "notes.txt", filepath.Join("sub", "c.webp")} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	}

	files, err := ListImageFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.png"),
		filepath.Join(dir, "b.jpg"),
		filepath.Join(dir, "sub", "c.webp"),
	}, files)
}

func TestFileHelpers(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.png")
	require.NoError(t, os.WriteFile(file, nil, 0644))

	assert.True(t, FileExists(file))
	assert.False(t, FileExists(dir))
	assert.True(t, DirExists(dir))
	assert.False(t, DirExists(file))

	nested := filepath.Join(dir, "x", "y")
	require.NoError(t, EnsureDir(nested))
	assert.True(t, DirExists(nested))

	assert.True(t, IsImageFile("a.JPEG"))
	assert.False(t, IsImageFile("a.json"))
	assert.Equal(t, "a_b_c", SanitizeFilename(" a/b:c. "))
	assert.Equal(t, "1.5 KB", FormatFileSize(1536))
	assert.Equal(t, "12 B", FormatFileSize(12))
}
