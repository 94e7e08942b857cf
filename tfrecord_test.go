package bdd2yolo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTFRecordLabelMapText(t *testing.T) {
	text := tfRecordLabelMapText()
	assert.Contains(t, text, "item {\n  name: \"bicycle\"\n  id: 1\n}\n")
	assert.Contains(t, text, "item {\n  name: \"other person\"\n  id: 5\n}\n")
	assert.Contains(t, text, "item {\n  name: \"truck\"\n  id: 11\n}\n")

	path := filepath.Join(t.TempDir(), "label_map.pbtxt")
	require.NoError(t, WriteTFRecordLabelMap(path))
	enc, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, text, string(enc))
}

func TestTFRecordShardPath(t *testing.T) {
	assert.Equal(t, "train.record", tfRecordShardPath("train.record", 0, 1))
	assert.Equal(t, "train.record-00001-of-00003", tfRecordShardPath("train.record", 1, 3))
}

func TestToTFRecord(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.png")
	writeTestImage(t, path, 64, 36)

	fileData := AnnotatedFile{
		Name:     "a.jpg",
		FilePath: path,
		Annotations: []Annotation{
			{Label: "car", Coords: [4]float64{320, 180, 640, 360}, Truncated: true},
			{Label: "airplane", Coords: [4]float64{0, 0, 1, 1}},
			{Label: "pedestrian", Coords: [4]float64{0, 0, 640, 720}, Crowd: true},
		},
	}

	f, err := toTFRecord(fileData, 1280, 720)
	require.NoError(t, err)
	assert.Equal(t, 64, f["image/width"])
	assert.Equal(t, 36, f["image/height"])
	assert.Equal(t, "png", f["image/format"])
	assert.Equal(t, "a", f["image/source_id"])
	assert.Equal(t, []float32{0.25, 0}, f["image/object/bbox/xmin"])
	assert.Equal(t, []float32{0.25, 0}, f["image/object/bbox/ymin"])
	assert.Equal(t, []float32{0.5, 0.5}, f["image/object/bbox/xmax"])
	assert.Equal(t, []float32{0.5, 1}, f["image/object/bbox/ymax"])
	assert.Equal(t, []string{"car", "pedestrian"}, f["image/object/class/text"])
	assert.Equal(t, []int64{3, 7}, f["image/object/class/label"])
	assert.Equal(t, []int64{1, 0}, f["image/object/truncated"])
	assert.Equal(t, []int64{0, 1}, f["image/object/group_of"])
}

func TestWriteTFRecord(t *testing.T) {
	dir := t.TempDir()
	data := make([]AnnotatedFile, 3)
	for i, name := range []string{"a.png", "b.png", "c.png"} {
		path := filepath.Join(dir, name)
		writeTestImage(t, path, 16, 9)
		data[i] = AnnotatedFile{
			Name:        name,
			FilePath:    path,
			Annotations: []Annotation{{Label: "bus", Coords: [4]float64{0, 0, 640, 360}}},
		}
	}

	recordPath := filepath.Join(dir, "train.record")
	require.NoError(t, WriteTFRecord(recordPath, data, 2, 1280, 720, newRecordingLog(t)))

	for i := 0; i < 2; i++ {
		info, err := os.Stat(tfRecordShardPath(recordPath, i, 2))
		require.NoError(t, err)
		assert.NotZero(t, info.Size())
	}
	_, err := os.Stat(tfRecordShardPath(recordPath, 2, 2))
	assert.True(t, os.IsNotExist(err))
}

func TestRunWithTFRecord(t *testing.T) {
	root, cfg := newTestDataset(t)
	imageDir := filepath.Join(root, "frames")
	writeTestImage(t, filepath.Join(imageDir, "v-1.jpg"), 16, 9)
	writeTestImage(t, filepath.Join(imageDir, "w-1.jpg"), 16, 9)
	writeFixture(t, filepath.Join(root, "bdd", "val"), "w.json", `[
  {"name": "w-1.jpg", "labels": [{"category": "airplane", "box2d": {"x1": 0, "y1": 0, "x2": 1, "y2": 1}}]}
]`)

	cfg.Partitions = cfg.Partitions[1:]
	cfg.Partitions[0].ImageDir = imageDir
	cfg.Partitions[0].TFRecordPath = filepath.Join(root, "val.record")
	cfg.TFRecordLabelMapPath = filepath.Join(root, "label_map.pbtxt")

	log := newRecordingLog(t)
	stats, err := Run(cfg, log)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Skipped)

	// The unknown category is reported once, although both outputs drop it.
	require.Len(t, log.Warnings(), 1)
	assert.Contains(t, log.Warnings()[0], "airplane")

	info, err := os.Stat(cfg.Partitions[0].TFRecordPath)
	require.NoError(t, err)
	assert.NotZero(t, info.Size())

	enc, err := os.ReadFile(cfg.TFRecordLabelMapPath)
	require.NoError(t, err)
	assert.Equal(t, tfRecordLabelMapText(), string(enc))
}
