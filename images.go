package bdd2yolo

// Export of the labelled frames next to the label files.

import (
	"context"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/cyclopcam/logs"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // Register the WebP decoder for imaging.Open.
	"golang.org/x/sync/errgroup"
)

// ImageOptions configures the image export.
type ImageOptions struct {
	ResizeLonger  int    // The target length for the longer side (0 keeps the aspect ratio).
	ResizeShorter int    // The target length for the shorter side (0 keeps the aspect ratio).
	Encoding      string // "jpg" or "png".
	JPEGQuality   int    // [1, 100].
	Workers       int    // The number of images processed concurrently.
}

// DefaultImageOptions returns options that re-encode images as JPEG without resizing.
func DefaultImageOptions() ImageOptions {
	return ImageOptions{
		Encoding:    "jpg",
		JPEGQuality: 90,
		Workers:     runtime.NumCPU(),
	}
}

// fileExt returns the output file extension for the encoding.
func (o ImageOptions) fileExt() (string, error) {
	switch strings.ToLower(o.Encoding) {
	case "", "jpg", "jpeg":
		return ".jpg", nil
	case "png":
		return ".png", nil
	}
	return "", fmt.Errorf("unsupported output encoding %q", o.Encoding)
}

// LocateImages sets the FilePath of every element of data to its image in imageDir. Frames of a
// video sequence are looked up in the "<imageDir>/<videoName>/" subdirectory first.
func LocateImages(data []AnnotatedFile, imageDir string) error {
	for i := range data {
		d := &data[i]

		candidates := make([]string, 0, 2)
		if d.VideoName != "" {
			candidates = append(candidates, filepath.Join(imageDir, d.VideoName, d.Name))
		}
		candidates = append(candidates, filepath.Join(imageDir, d.Name))

		d.FilePath = ""
		for _, path := range candidates {
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				d.FilePath = path
				break
			}
		}
		if d.FilePath == "" {
			return fmt.Errorf("no image for %q in %q", d.Name, imageDir)
		}
	}

	return nil
}

// ExportImages resizes all located images and writes them to imageOutDir as "<stem>.<ext>",
// matching the label file names. FilePath is updated to the exported image.
//
// YOLO coordinates are relative to the image size, so the labels stay valid after resizing.
func ExportImages(data []AnnotatedFile, imageOutDir string, opts ImageOptions, log logs.Log) error {
	fileExt, err := opts.fileExt()
	if err != nil {
		return err
	}
	if opts.JPEGQuality < 1 || opts.JPEGQuality > 100 {
		return fmt.Errorf("invalid JPEG quality %d", opts.JPEGQuality)
	}
	if err := os.MkdirAll(imageOutDir, 0755); err != nil {
		return fmt.Errorf("cannot create directory %q: %w", imageOutDir, err)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	log.Infof("Exporting %d images to %v", len(data), imageOutDir)

	// Limit the number of goroutines in flight, as they load potentially large images into memory.
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(workers)
	for i := range data {
		if ctx.Err() != nil {
			break
		}
		d := &data[i]
		g.Go(func() error {
			return exportImage(d, imageOutDir, fileExt, opts)
		})
	}

	return g.Wait()
}

// exportImage processes the image described by d.
func exportImage(d *AnnotatedFile, imageOutDir, fileExt string, opts ImageOptions) error {
	if d.FilePath == "" {
		return fmt.Errorf("no image located for %q", d.Name)
	}

	img, err := imaging.Open(d.FilePath)
	if err != nil {
		return fmt.Errorf("failed to load %q: %w", d.FilePath, err)
	}

	if opts.ResizeLonger > 0 || opts.ResizeShorter > 0 {
		img = resizeImage(img, opts.ResizeLonger, opts.ResizeShorter, imaging.Box, imaging.Linear)
	}

	outPath := filepath.Join(imageOutDir, d.Stem()+fileExt)
	if err := imaging.Save(img, outPath, imaging.JPEGQuality(opts.JPEGQuality)); err != nil {
		return fmt.Errorf("failed to save %q: %w", outPath, err)
	}

	d.FilePath = outPath
	return nil
}

// resizeImage resamples the image to match the longer and shorter sides (one may be 0, which keeps
// the aspect ratio).
func resizeImage(img image.Image, longerSide, shorterSide int,
	downsamplingFilter, upsamplingFilter imaging.ResampleFilter) image.Image {

	imgBounds := img.Bounds()
	imgWidth := imgBounds.Dx()
	imgHeight := imgBounds.Dy()

	imgLonger := imgWidth
	imgShorter := imgHeight
	isLandscape := true
	if imgHeight > imgWidth {
		imgLonger = imgHeight
		imgShorter = imgWidth
		isLandscape = false
	}

	// Calculate the target dimensions.
	if longerSide <= 0 {
		longerSide = int(math.Round(float64(shorterSide) * (float64(imgLonger) / float64(imgShorter))))
	} else if shorterSide <= 0 {
		shorterSide = int(math.Round(float64(longerSide) * (float64(imgShorter) / float64(imgLonger))))
	}

	// Select the filter based on the direction of the rescaling operation.
	var filter imaging.ResampleFilter
	if longerSide*shorterSide < imgWidth*imgHeight {
		filter = downsamplingFilter
	} else {
		filter = upsamplingFilter
	}

	if isLandscape {
		return imaging.Resize(img, longerSide, shorterSide, filter)
	}
	return imaging.Resize(img, shorterSide, longerSide, filter)
}

// decodeImageConfig opens the file at path and returns the results of image.DecodeConfig.
func decodeImageConfig(path string) (config image.Config, format string, err error) {
	file, err := os.Open(path)
	if err != nil {
		return image.Config{}, "", err
	}
	defer closeWithErrCheck(file, &err)

	return image.DecodeConfig(file)
}
