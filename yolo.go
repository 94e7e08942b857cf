package bdd2yolo

// YOLO (darknet txt) specific functionality.

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cyclopcam/logs"
)

// NormalizedBox is a box given by its center and size as ratios of the image size.
type NormalizedBox struct {
	CenterX float64
	CenterY float64
	Width   float64
	Height  float64
}

// NormalizeBox converts absolute corner coordinates (x1, y1, x2, y2) to a NormalizedBox for an
// image of the given size. Values are not clamped: boxes outside the image produce ratios outside
// [0, 1] and inverted boxes produce a negative width or height.
func NormalizeBox(coords [4]float64, imageWidth, imageHeight float64) NormalizedBox {
	return Annotation{Coords: coords}.Normalize(imageWidth, imageHeight)
}

// Normalize returns the box of a relative to an image of the given size. See NormalizeBox.
func (a Annotation) Normalize(imageWidth, imageHeight float64) NormalizedBox {
	return NormalizedBox{
		CenterX: (a.Coords[0] + a.Coords[2]) / 2 / imageWidth,
		CenterY: (a.Coords[1] + a.Coords[3]) / 2 / imageHeight,
		Width:   a.Width() / imageWidth,
		Height:  a.Height() / imageHeight,
	}
}

// YOLOAnnotation is a single annotation within a YOLO file.
type YOLOAnnotation struct {
	ClassID ClassID
	NormalizedBox
}

// String formats the annotation as one YOLO label line.
func (a YOLOAnnotation) String() string {
	return fmt.Sprintf("%d %.6f %.6f %.6f %.6f", a.ClassID, a.CenterX, a.CenterY, a.Width, a.Height)
}

// YOLOAnnotatedFile defines the YOLO annotation structure for a single image.
type YOLOAnnotatedFile struct {
	Annotations []YOLOAnnotation
	Stem        string // The output file name without the ".txt" extension.
}

// Lines returns the formatted label lines in annotation order.
func (f YOLOAnnotatedFile) Lines() []string {
	lines := make([]string, len(f.Annotations))
	for i, a := range f.Annotations {
		lines[i] = a.String()
	}
	return lines
}

// Text returns the label file content: the lines joined by newlines, without a trailing newline.
// It is empty if the image has no annotations.
func (f YOLOAnnotatedFile) Text() string {
	return strings.Join(f.Lines(), "\n")
}

// ConvertFile converts the annotations of one image to YOLO format, for an image of the given
// size.
//
// Annotations with a category outside the vocabulary are skipped with a warning; the number of
// skipped annotations is returned. The order of the remaining annotations is kept.
func ConvertFile(fileData AnnotatedFile, imageWidth, imageHeight float64, log logs.Log) (
	YOLOAnnotatedFile, int) {

	yoloFileData := YOLOAnnotatedFile{
		Annotations: make([]YOLOAnnotation, 0, len(fileData.Annotations)),
		Stem:        fileData.Stem(),
	}

	skipped := 0
	for _, a := range fileData.Annotations {
		classID, ok := ResolveCategory(a.Label)
		if !ok {
			log.Warnf("Unknown category %q in %q, skipping this label", a.Label, fileData.Name)
			skipped++
			continue
		}

		yoloFileData.Annotations = append(yoloFileData.Annotations, YOLOAnnotation{
			ClassID:       classID,
			NormalizedBox: a.Normalize(imageWidth, imageHeight),
		})
	}

	return yoloFileData, skipped
}

// ToYOLO converts the intermediate representation to YOLO format. All images are assumed to have
// the same size. Returns the converted data and the total number of skipped annotations.
func ToYOLO(data []AnnotatedFile, imageWidth, imageHeight float64, log logs.Log) (
	[]YOLOAnnotatedFile, int) {

	yoloData := make([]YOLOAnnotatedFile, 0, len(data))
	skipped := 0
	for _, fileData := range data {
		yoloFileData, n := ConvertFile(fileData, imageWidth, imageHeight, log)
		yoloData = append(yoloData, yoloFileData)
		skipped += n
	}

	return yoloData, skipped
}

// WriteYOLO writes data to dirPath, one "<stem>.txt" file per element. The directory is created
// if it does not exist. Existing label files are overwritten.
func WriteYOLO(dirPath string, data []YOLOAnnotatedFile, log logs.Log) error {
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return fmt.Errorf("cannot create directory %q: %w", dirPath, err)
	}

	for _, fileData := range data {
		filePath := filepath.Join(dirPath, fileData.Stem+".txt")
		if err := os.WriteFile(filePath, []byte(fileData.Text()), 0644); err != nil {
			return fmt.Errorf("cannot write file %q: %w", filePath, err)
		}
		log.Infof("Processed: %v", fileData.Stem)
	}

	return nil
}
