package bdd2yolo

// BDD100K (Scalabel) box annotation specific functionality.

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrMissingField is returned when a required field is absent from a BDD record.
var ErrMissingField = errors.New("missing required field")

// BDDBox2D is an axis-aligned box given by its top-left and bottom-right corners in pixels.
type BDDBox2D struct {
	X1 *float64 `json:"x1"`
	Y1 *float64 `json:"y1"`
	X2 *float64 `json:"x2"`
	Y2 *float64 `json:"y2"`
}

// BDDLabel is a single object annotation within a BDD frame.
//
// Only category and box2d are required. The optional attributes are decoded leniently: values of an
// unexpected type are ignored rather than failing the file.
type BDDLabel struct {
	Category   *string         `json:"category"`
	Attributes json.RawMessage `json:"attributes,omitempty"`
	Box2D      *BDDBox2D       `json:"box2d"`
}

// BDDFrame defines the BDD annotation structure for a single image.
type BDDFrame struct {
	Name      *string         `json:"name"`
	VideoName json.RawMessage `json:"videoName,omitempty"` // Optional, lenient like BDDLabel.Attributes.
	Labels    *[]BDDLabel     `json:"labels"`
}

// FromBDD reads and parses the BDD annotations from the JSON file at path.
func FromBDD(path string) ([]AnnotatedFile, error) {
	enc, err := readFile(path)
	if err != nil {
		return nil, err
	}

	data, err := ParseBDD(bytes.NewReader(enc))
	if err != nil {
		return nil, fmt.Errorf("failed to parse BDD input from %q: %w", path, err)
	}
	return data, nil
}

// ParseBDD decodes a JSON array of BDD frames from r and converts it to the intermediate
// representation. Frames and labels keep their input order. Anything but whitespace after the array
// is an error.
func ParseBDD(r io.Reader) ([]AnnotatedFile, error) {
	dec := json.NewDecoder(r)

	var frames []BDDFrame
	if err := dec.Decode(&frames); err != nil {
		return nil, err
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); err != io.EOF {
		if err == nil {
			err = errors.New("unexpected data after the top-level array")
		}
		return nil, fmt.Errorf("trailing data: %w", err)
	}

	data := make([]AnnotatedFile, 0, len(frames))
	for i, frame := range frames {
		fileData, err := frame.toIR()
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		data = append(data, fileData)
	}

	return data, nil
}

// toIR validates the frame and converts it to an AnnotatedFile.
func (frame BDDFrame) toIR() (AnnotatedFile, error) {
	if frame.Name == nil {
		return AnnotatedFile{}, fmt.Errorf("%w %q", ErrMissingField, "name")
	}
	if frame.Labels == nil {
		return AnnotatedFile{}, fmt.Errorf("%q: %w %q", *frame.Name, ErrMissingField, "labels")
	}

	labels := *frame.Labels
	fileData := AnnotatedFile{
		Annotations: make([]Annotation, 0, len(labels)),
		Name:        *frame.Name,
		VideoName:   optionalString(frame.VideoName),
	}
	for j, l := range labels {
		a, err := l.toIR()
		if err != nil {
			return AnnotatedFile{}, fmt.Errorf("%q: label %d: %w", *frame.Name, j, err)
		}
		fileData.Annotations = append(fileData.Annotations, a)
	}

	return fileData, nil
}

// toIR validates the label and converts it to an Annotation.
func (l BDDLabel) toIR() (Annotation, error) {
	if l.Category == nil {
		return Annotation{}, fmt.Errorf("%w %q", ErrMissingField, "category")
	}
	if l.Box2D == nil {
		return Annotation{}, fmt.Errorf("%w %q", ErrMissingField, "box2d")
	}

	a := Annotation{Label: *l.Category}
	for i, c := range []struct {
		name string
		v    *float64
	}{
		{"box2d.x1", l.Box2D.X1},
		{"box2d.y1", l.Box2D.Y1},
		{"box2d.x2", l.Box2D.X2},
		{"box2d.y2", l.Box2D.Y2},
	} {
		if c.v == nil {
			return Annotation{}, fmt.Errorf("%w %q", ErrMissingField, c.name)
		}
		a.Coords[i] = *c.v
	}

	// Attributes that are not an object, or flags that are not booleans, read as false.
	var attrs map[string]json.RawMessage
	if json.Unmarshal(l.Attributes, &attrs) == nil {
		a.Truncated = optionalBool(attrs["truncated"])
		a.Crowd = optionalBool(attrs["crowd"])
	}

	return a, nil
}

// optionalString returns the JSON string in raw, or "" if raw is absent or not a string.
func optionalString(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

// optionalBool returns the JSON boolean in raw, or false if raw is absent or not a boolean.
func optionalBool(raw json.RawMessage) bool {
	var b bool
	if json.Unmarshal(raw, &b) != nil {
		return false
	}
	return b
}
