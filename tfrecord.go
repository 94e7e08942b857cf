package bdd2yolo

// TFRecord object detection specific functionality.

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/cyclopcam/logs"
	"github.com/golang/protobuf/proto"
	"github.com/ryszard/tfutils/go/example"
	"github.com/ryszard/tfutils/go/tfrecord"
	"github.com/ryszard/tfutils/proto/tensorflow/core/example" // package tensorflow
)

// TFFeatureMap maps feature names to their values. Values must be convertible to
// tensorflow.Feature.
type TFFeatureMap map[string]interface{}

// tfRecordLabelID returns the label map id for the class. Id 0 is reserved for the background
// class by the TensorFlow object detection API.
func tfRecordLabelID(id ClassID) int64 {
	return int64(id) + 1
}

// toTFRecord converts the intermediate representation for a single image to a TFRecord feature map.
// The annotation coordinates are relative to a sourceWidth x sourceHeight image; the encoded image
// may have been resized since.
//
// Annotations with unknown categories are left out. They are reported once, when the labels are
// converted to YOLO format.
func toTFRecord(fileData AnnotatedFile, sourceWidth, sourceHeight float64) (TFFeatureMap, error) {
	// Get the image width and height.
	img, format, err := decodeImageConfig(fileData.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to decode the image metadata: %w", err)
	}

	// Read the image data.
	imgData, err := readFile(fileData.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read the image: %w", err)
	}

	// Prepare the feature map for the per image data.
	f := make(TFFeatureMap, 16)
	f["image/height"] = img.Height
	f["image/width"] = img.Width
	f["image/filename"] = fileData.Name
	f["image/source_id"] = fileData.Stem()
	f["image/encoded"] = imgData
	f["image/format"] = format

	// Prepare the per label data.
	numLabels := len(fileData.Annotations)
	xmins := make([]float32, 0, numLabels)
	ymins := make([]float32, 0, numLabels)
	xmaxs := make([]float32, 0, numLabels)
	ymaxs := make([]float32, 0, numLabels)
	classes := make([]string, 0, numLabels)
	classIDs := make([]int64, 0, numLabels)
	truncated := make([]int64, 0, numLabels)
	groupOf := make([]int64, 0, numLabels)
	for _, a := range fileData.Annotations {
		classID, ok := ResolveCategory(a.Label)
		if !ok {
			continue
		}

		xmins = append(xmins, float32(a.Coords[0]/sourceWidth))
		ymins = append(ymins, float32(a.Coords[1]/sourceHeight))
		xmaxs = append(xmaxs, float32(a.Coords[2]/sourceWidth))
		ymaxs = append(ymaxs, float32(a.Coords[3]/sourceHeight))
		classes = append(classes, a.Label)
		classIDs = append(classIDs, tfRecordLabelID(classID))
		truncated = append(truncated, boolFeature(a.Truncated))
		groupOf = append(groupOf, boolFeature(a.Crowd))
	}
	f["image/object/bbox/xmin"] = xmins
	f["image/object/bbox/ymin"] = ymins
	f["image/object/bbox/xmax"] = xmaxs
	f["image/object/bbox/ymax"] = ymaxs
	f["image/object/class/text"] = classes
	f["image/object/class/label"] = classIDs
	f["image/object/truncated"] = truncated
	f["image/object/group_of"] = groupOf

	return f, nil
}

// boolFeature encodes a flag the way the object detection API expects it.
func boolFeature(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// tfRecordShardPath returns the path of shard idx out of numShards. A single shard is written to
// recordFilePath itself.
func tfRecordShardPath(recordFilePath string, idx, numShards int) string {
	if numShards <= 1 {
		return recordFilePath
	}
	return fmt.Sprintf("%s-%05d-of-%05d", recordFilePath, idx, numShards)
}

// WriteTFRecord does a streaming conversion, serialisation and file write for the annotation data
// to one or more TFRecord files stored under recordFilePath (with suffixes added when numShards>1).
//
// The images must have been located (see LocateImages). Coordinates are normalised by sourceWidth
// and sourceHeight.
func WriteTFRecord(recordFilePath string, data []AnnotatedFile, numShards int,
	sourceWidth, sourceHeight float64, log logs.Log) (err error) {
	defer func() {
		if e := recover(); e != nil {
			err = fmt.Errorf("conversion to TensorFlow Example failed: %v", e)
		}
	}()

	if numShards <= 0 {
		numShards = 1
	}
	if len(data) == 0 {
		return nil
	}

	var shardFile *os.File
	defer func() {
		if shardFile != nil {
			closeWithErrCheck(shardFile, &err)
		}
	}()

	shardSize := int(math.Ceil(float64(len(data)) / float64(numShards)))
	shardIdx := -1

	// Convert and serialise one data element at a time.
	for i, fileData := range data {
		// Check if a new shard file needs to be opened for writing.
		if i%shardSize == 0 {
			shardIdx++

			// Close the previous shard file.
			if shardFile != nil {
				closeErr := shardFile.Close()
				shardFile = nil
				if closeErr != nil {
					return closeErr
				}
			}

			shardPath := tfRecordShardPath(recordFilePath, shardIdx, numShards)
			f, err := os.Create(shardPath)
			if err != nil {
				return fmt.Errorf("failed to create shard at %q: %w", shardPath, err)
			}
			shardFile = f
		}

		features, err := toTFRecord(fileData, sourceWidth, sourceHeight)
		if err != nil {
			return fmt.Errorf("failed to convert %q: %w", fileData.FilePath, err)
		}
		tfExample := example.New(features)

		if err := writeTFRecordExample(shardFile, tfExample); err != nil {
			return fmt.Errorf("failed to write example for %q: %w", fileData.FilePath, err)
		}
	}

	log.Infof("Wrote %d TFRecord examples to %v", len(data), recordFilePath)
	return nil
}

// writeTFRecordExample serialises the example and writes it as a TFRecord to w.
func writeTFRecordExample(w io.Writer, e *tensorflow.Example) error {
	enc, err := proto.Marshal(e)
	if err != nil {
		return err
	}

	return tfrecord.Write(w, enc)
}

// WriteTFRecordLabelMap writes the category vocabulary as a StringIntLabelMap in prototxt format to
// path.
func WriteTFRecordLabelMap(path string) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create the label map file %q: %w", path, err)
	}
	defer closeWithErrCheck(file, &err)

	if _, err := io.WriteString(file, tfRecordLabelMapText()); err != nil {
		return fmt.Errorf("failed to write the label map %q: %w", path, err)
	}
	return nil
}

// tfRecordLabelMapText renders the label map, one item per category in class index order.
func tfRecordLabelMapText() string {
	var b []byte
	for i, name := range CategoryNames() {
		b = append(b, "item {\n  name: "...)
		b = strconv.AppendQuote(b, name)
		b = append(b, "\n  id: "...)
		b = strconv.AppendInt(b, tfRecordLabelID(ClassID(i)), 10)
		b = append(b, "\n}\n"...)
	}
	return string(b)
}
