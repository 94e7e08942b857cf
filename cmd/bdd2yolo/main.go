// Converts BDD100K box annotations (JSON) to YOLO label files, for a train and a validation
// partition.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/akamensky/argparse"
	"github.com/cyclopcam/logs"
	"github.com/sensorable/bdd2yolo"
)

func main() {
	logger, err := logs.NewLog()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to create logger:", err)
		os.Exit(1)
	}
	defer logger.Close()

	if err := loadEnv(); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
	trainCountDefault, err := envInt(envTrainCount, 0)
	if err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
	valCountDefault, err := envInt(envValCount, 0)
	if err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}

	parser := argparse.NewParser("bdd2yolo", "Convert BDD100K box annotations to YOLO label files")

	// Path arguments.
	trainDir := parser.String("", "train", &argparse.Options{
		Help: "Directory with the train partition's BDD JSON files", Default: envString(envTrainDir, "")})
	valDir := parser.String("", "val", &argparse.Options{
		Help: "Directory with the validation partition's BDD JSON files", Default: envString(envValDir, "")})
	trainOutDir := parser.String("", "train-out", &argparse.Options{
		Help: "Output directory for the train labels", Default: envString(envTrainOutDir, "")})
	valOutDir := parser.String("", "val-out", &argparse.Options{
		Help: "Output directory for the validation labels", Default: envString(envValOutDir, "")})
	trainCount := parser.Int("", "train-count", &argparse.Options{
		Help: "Number of train JSON files to convert, in file name order", Default: trainCountDefault})
	valCount := parser.Int("", "val-count", &argparse.Options{
		Help: "Number of validation JSON files to convert, in file name order", Default: valCountDefault})

	// Image size.
	width := parser.Float("", "width", &argparse.Options{
		Help: "Image width in pixels", Default: float64(bdd2yolo.DefaultImageWidth)})
	height := parser.Float("", "height", &argparse.Options{
		Help: "Image height in pixels", Default: float64(bdd2yolo.DefaultImageHeight)})

	// Image export.
	trainImages := parser.String("", "train-images", &argparse.Options{
		Help: "Directory with the train frame images (needed for image export and TFRecord)"})
	valImages := parser.String("", "val-images", &argparse.Options{
		Help: "Directory with the validation frame images (needed for image export and TFRecord)"})
	trainImagesOut := parser.String("", "train-images-out", &argparse.Options{
		Help: "Output directory for the exported train images"})
	valImagesOut := parser.String("", "val-images-out", &argparse.Options{
		Help: "Output directory for the exported validation images"})
	resizeLonger := parser.Int("", "resize-longer", &argparse.Options{
		Help: "Target length of the longer image side (0 keeps the aspect ratio)", Default: 0})
	resizeShorter := parser.Int("", "resize-shorter", &argparse.Options{
		Help: "Target length of the shorter image side (0 keeps the aspect ratio)", Default: 0})
	imageEnc := parser.Selector("", "image-enc", []string{"jpg", "png"}, &argparse.Options{
		Help: "Encoding of exported images", Default: "jpg"})
	jpegQuality := parser.Int("", "jpeg-quality", &argparse.Options{
		Help: "JPEG quality of exported images [1, 100]", Default: 90})

	// Additional outputs.
	trainRecord := parser.String("", "train-tfrecord", &argparse.Options{
		Help: "TFRecord output file for the train partition"})
	valRecord := parser.String("", "val-tfrecord", &argparse.Options{
		Help: "TFRecord output file for the validation partition"})
	labelMap := parser.String("", "tfrecord-label-map", &argparse.Options{
		Help: "Output file for the TFRecord label map"})
	numShards := parser.Int("", "num-shards", &argparse.Options{
		Help: "Number of shard files per TFRecord output", Default: 1})
	dataYAML := parser.String("", "data-yaml", &argparse.Options{
		Help: "Output file for the YOLO dataset descriptor"})

	if err := parser.Parse(os.Args); err != nil {
		logger.Errorf("%v", parser.Usage(err))
		os.Exit(1)
	}

	cfg := bdd2yolo.DefaultConfig(cleanPath(*trainDir), cleanPath(*valDir), cleanPath(*trainOutDir),
		cleanPath(*valOutDir), *trainCount, *valCount)
	cfg.ImageWidth = *width
	cfg.ImageHeight = *height

	train, val := &cfg.Partitions[0], &cfg.Partitions[1]
	train.ImageDir, val.ImageDir = cleanPath(*trainImages), cleanPath(*valImages)
	train.ImageOutDir, val.ImageOutDir = cleanPath(*trainImagesOut), cleanPath(*valImagesOut)
	train.TFRecordPath, val.TFRecordPath = cleanPath(*trainRecord), cleanPath(*valRecord)

	cfg.ImageOptions.ResizeLonger = *resizeLonger
	cfg.ImageOptions.ResizeShorter = *resizeShorter
	cfg.ImageOptions.Encoding = *imageEnc
	cfg.ImageOptions.JPEGQuality = *jpegQuality
	cfg.TFRecordShards = *numShards
	cfg.TFRecordLabelMapPath = cleanPath(*labelMap)
	cfg.DataYAMLPath = cleanPath(*dataYAML)

	if err := cfg.Validate(); err != nil {
		logger.Errorf("Invalid arguments: %v", err)
		logger.Errorf("%v", parser.Usage(nil))
		os.Exit(1)
	}

	if _, err := bdd2yolo.Run(cfg, logger); err != nil {
		logger.Errorf("Conversion failed: %v", err)
		logger.Close()
		os.Exit(1)
	}
}

// cleanPath cleans non-empty paths. Empty paths stay empty, as they disable optional outputs.
func cleanPath(path string) string {
	if path == "" {
		return ""
	}
	return filepath.Clean(path)
}
