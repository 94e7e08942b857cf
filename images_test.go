package bdd2yolo

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestImage saves a uniform width x height image to path.
func writeTestImage(t *testing.T, path string, width, height int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	img := imaging.New(width, height, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
	require.NoError(t, imaging.Save(img, path))
}

func TestLocateImages(t *testing.T) {
	dir := t.TempDir()
	writeTestImage(t, filepath.Join(dir, "video-a", "video-a-0000001.jpg"), 8, 4)
	writeTestImage(t, filepath.Join(dir, "flat.png"), 8, 4)

	data := []AnnotatedFile{
		{Name: "video-a-0000001.jpg", VideoName: "video-a"},
		{Name: "flat.png", VideoName: "video-b"},
		{Name: "flat.png"},
	}
	require.NoError(t, LocateImages(data, dir))
	assert.Equal(t, filepath.Join(dir, "video-a", "video-a-0000001.jpg"), data[0].FilePath)
	assert.Equal(t, filepath.Join(dir, "flat.png"), data[1].FilePath)
	assert.Equal(t, filepath.Join(dir, "flat.png"), data[2].FilePath)

	err := LocateImages([]AnnotatedFile{{Name: "missing.jpg"}}, dir)
	assert.Error(t, err)
}

func TestExportImages(t *testing.T) {
	dir := t.TempDir()
	imageDir := filepath.Join(dir, "images")
	outDir := filepath.Join(dir, "out")
	writeTestImage(t, filepath.Join(imageDir, "v", "v-1.png"), 64, 36)
	writeTestImage(t, filepath.Join(imageDir, "v", "v-2.png"), 36, 64)

	data := []AnnotatedFile{
		{Name: "v-1.png", VideoName: "v"},
		{Name: "v-2.png", VideoName: "v"},
	}
	require.NoError(t, LocateImages(data, imageDir))

	opts := DefaultImageOptions()
	opts.ResizeLonger = 32
	opts.Workers = 2
	require.NoError(t, ExportImages(data, outDir, opts, newRecordingLog(t)))

	assert.Equal(t, filepath.Join(outDir, "v-1.jpg"), data[0].FilePath)
	cfg, format, err := decodeImageConfig(data[0].FilePath)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 32, cfg.Width)
	assert.Equal(t, 18, cfg.Height)

	cfg, _, err = decodeImageConfig(data[1].FilePath)
	require.NoError(t, err)
	assert.Equal(t, 18, cfg.Width)
	assert.Equal(t, 32, cfg.Height)
}

func TestExportImagesPNGNoResize(t *testing.T) {
	dir := t.TempDir()
	writeTestImage(t, filepath.Join(dir, "in", "a.jpg"), 20, 10)

	data := []AnnotatedFile{{Name: "a.jpg"}}
	require.NoError(t, LocateImages(data, filepath.Join(dir, "in")))

	opts := DefaultImageOptions()
	opts.Encoding = "png"
	require.NoError(t, ExportImages(data, filepath.Join(dir, "out"), opts, newRecordingLog(t)))

	cfg, format, err := decodeImageConfig(filepath.Join(dir, "out", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 20, cfg.Width)
	assert.Equal(t, 10, cfg.Height)
}

func TestExportImagesErrors(t *testing.T) {
	dir := t.TempDir()
	log := newRecordingLog(t)

	opts := DefaultImageOptions()
	opts.Encoding = "bmp"
	assert.Error(t, ExportImages(nil, dir, opts, log))

	opts = DefaultImageOptions()
	opts.JPEGQuality = 0
	assert.Error(t, ExportImages(nil, dir, opts, log))

	// Not located.
	assert.Error(t, ExportImages([]AnnotatedFile{{Name: "a.jpg"}}, dir, DefaultImageOptions(), log))

	// Not an image.
	path := filepath.Join(dir, "a.jpg")
	require.NoError(t, os.WriteFile(path, []byte("text"), 0644))
	data := []AnnotatedFile{{Name: "a.jpg", FilePath: path}}
	assert.Error(t, ExportImages(data, filepath.Join(dir, "out"), DefaultImageOptions(), log))
}

func TestRunWithImageExport(t *testing.T) {
	root, cfg := newTestDataset(t)
	imageDir := filepath.Join(root, "frames")
	for _, name := range []string{"a-1.jpg", "b-1.jpg", "b-2.jpg"} {
		writeTestImage(t, filepath.Join(imageDir, name), 16, 9)
	}
	cfg.Partitions = cfg.Partitions[:1]
	cfg.Partitions[0].ImageDir = imageDir
	cfg.Partitions[0].ImageOutDir = filepath.Join(root, "yolo", "images")

	_, err := Run(cfg, newRecordingLog(t))
	require.NoError(t, err)

	for _, name := range []string{"a-1.jpg", "b-1.jpg", "b-2.jpg"} {
		_, err := os.Stat(filepath.Join(cfg.Partitions[0].ImageOutDir, name))
		assert.NoError(t, err, name)
	}
}
