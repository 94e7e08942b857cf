package bdd2yolo

// The intermediate annotation metadata representation.

// Annotation is the intermediate representation of an object label.
type Annotation struct {
	Coords    [4]float64 // Absolute x1, y1, x2, y2 offsets from the top-left corner.
	Label     string     // The category name, unresolved.
	Truncated bool       // The object extends beyond the image.
	Crowd     bool       // The box covers a group of objects.
}

// Width is the object width from a.Coords. Negative for inverted boxes.
func (a Annotation) Width() float64 {
	return a.Coords[2] - a.Coords[0]
}

// Height is the object height from a.Coords. Negative for inverted boxes.
func (a Annotation) Height() float64 {
	return a.Coords[3] - a.Coords[1]
}

// AnnotatedFile is the intermediate representation of the labels for one image.
type AnnotatedFile struct {
	Annotations []Annotation // The annotations, in input order.
	FilePath    string       // The image file, if it has been located on disk.
	Name        string       // The image name as given by the label source.
	VideoName   string       // The video sequence the frame belongs to (may be empty).
}

// Stem returns the output key for the image: the base name of f.Name without its extension.
func (f AnnotatedFile) Stem() string {
	return stem(f.Name)
}

// AnnotatedFiles is the annotation metadata for a list of images.
type AnnotatedFiles []AnnotatedFile

// NumAnnotations returns the total number of annotations over all files.
func (data AnnotatedFiles) NumAnnotations() int {
	n := 0
	for _, f := range data {
		n += len(f.Annotations)
	}
	return n
}
