package bdd2yolo

// Batch conversion of BDD label directories into YOLO label directories.

import (
	"errors"
	"fmt"

	"github.com/cyclopcam/logs"
)

// The frame size of the BDD100K videos.
const (
	DefaultImageWidth  = 1280
	DefaultImageHeight = 720
)

// Partition names used by DefaultConfig.
const (
	TrainPartition = "train"
	ValPartition   = "val"
)

// Partition is one dataset split, converted from one directory of BDD JSON files.
type Partition struct {
	Name      string
	LabelDir  string // The input directory with the BDD JSON files.
	OutputDir string // The output directory for the YOLO label files.
	Count     int    // The number of JSON files to convert, taken in file name order.

	ImageDir     string // Optional: the input directory with the frame images.
	ImageOutDir  string // Optional: the output directory for exported images.
	TFRecordPath string // Optional: the TFRecord output file.
}

// Config configures a conversion run.
type Config struct {
	Partitions  []Partition // Converted in order.
	ImageWidth  float64     // The width of all images in pixels.
	ImageHeight float64     // The height of all images in pixels.

	ImageOptions         ImageOptions // Used by partitions with an ImageOutDir.
	TFRecordShards       int          // The number of shards per TFRecord file.
	TFRecordLabelMapPath string       // Required if any partition writes a TFRecord.
	DataYAMLPath         string       // Optional: where to write the YOLO dataset descriptor.
}

// DefaultConfig returns the configuration for the train and validation partitions of a 1280x720
// BDD dataset.
func DefaultConfig(trainDir, valDir, trainOutDir, valOutDir string, trainCount, valCount int) Config {
	return Config{
		Partitions: []Partition{
			{Name: TrainPartition, LabelDir: trainDir, OutputDir: trainOutDir, Count: trainCount},
			{Name: ValPartition, LabelDir: valDir, OutputDir: valOutDir, Count: valCount},
		},
		ImageWidth:     DefaultImageWidth,
		ImageHeight:    DefaultImageHeight,
		ImageOptions:   DefaultImageOptions(),
		TFRecordShards: 1,
	}
}

// Validate checks the configuration for errors that would otherwise surface mid-run.
func (cfg Config) Validate() error {
	if len(cfg.Partitions) == 0 {
		return errors.New("no partitions to convert")
	}
	if cfg.ImageWidth <= 0 || cfg.ImageHeight <= 0 {
		return fmt.Errorf("invalid image size %vx%v", cfg.ImageWidth, cfg.ImageHeight)
	}

	needLabelMap := false
	for _, p := range cfg.Partitions {
		switch {
		case p.LabelDir == "":
			return fmt.Errorf("partition %q: missing label input directory", p.Name)
		case p.OutputDir == "":
			return fmt.Errorf("partition %q: missing label output directory", p.Name)
		case sameDir(p.LabelDir, p.OutputDir):
			return fmt.Errorf("partition %q: the label input and output paths cannot be identical",
				p.Name)
		case p.Count < 0:
			return fmt.Errorf("partition %q: invalid file count %d", p.Name, p.Count)
		case p.ImageOutDir != "" && p.ImageDir == "":
			return fmt.Errorf("partition %q: image export requires an image input directory", p.Name)
		case sameDir(p.ImageDir, p.ImageOutDir):
			return fmt.Errorf("partition %q: the image input and output paths cannot be identical",
				p.Name)
		case p.TFRecordPath != "" && p.ImageDir == "":
			return fmt.Errorf("partition %q: TFRecord output requires an image input directory",
				p.Name)
		}
		if p.TFRecordPath != "" {
			needLabelMap = true
		}
	}
	if needLabelMap && cfg.TFRecordLabelMapPath == "" {
		return errors.New("missing TFRecord label map path")
	}

	return nil
}

// Stats counts what a conversion run processed.
type Stats struct {
	Files   int // JSON files read.
	Images  int // Label files written.
	Labels  int // Label lines written.
	Skipped int // Labels skipped because of an unknown category.
}

func (s *Stats) add(o Stats) {
	s.Files += o.Files
	s.Images += o.Images
	s.Labels += o.Labels
	s.Skipped += o.Skipped
}

// Run converts all partitions of cfg in order. Conversion stops at the first error; the returned
// Stats cover the work done until then.
func Run(cfg Config, log logs.Log) (Stats, error) {
	if err := cfg.Validate(); err != nil {
		return Stats{}, err
	}

	var total Stats
	for _, p := range cfg.Partitions {
		stats, err := convertPartition(cfg, p, log)
		total.add(stats)
		if err != nil {
			return total, fmt.Errorf("partition %q: %w", p.Name, err)
		}
		log.Infof("Partition %v: %d files, %d images, %d labels, %d skipped labels",
			p.Name, stats.Files, stats.Images, stats.Labels, stats.Skipped)
	}

	if cfg.TFRecordLabelMapPath != "" {
		if err := WriteTFRecordLabelMap(cfg.TFRecordLabelMapPath); err != nil {
			return total, err
		}
	}

	if cfg.DataYAMLPath != "" {
		if err := WriteDataYAML(cfg.DataYAMLPath, cfg.dataYAML()); err != nil {
			return total, err
		}
		log.Infof("Wrote dataset descriptor to %v", cfg.DataYAMLPath)
	}

	log.Infof("Conversion complete: %d files, %d images, %d labels, %d skipped labels",
		total.Files, total.Images, total.Labels, total.Skipped)
	return total, nil
}

// dataYAML builds the dataset descriptor from the train and validation partitions. Exported images
// are preferred, as YOLO tools look for the labels next to them.
func (cfg Config) dataYAML() DataYAML {
	dirs := make(map[string]string, len(cfg.Partitions))
	for _, p := range cfg.Partitions {
		if p.ImageOutDir != "" {
			dirs[p.Name] = p.ImageOutDir
		} else {
			dirs[p.Name] = p.OutputDir
		}
	}
	return NewDataYAML(dirs[TrainPartition], dirs[ValPartition])
}

// convertPartition converts the first p.Count JSON files of p.LabelDir.
func convertPartition(cfg Config, p Partition, log logs.Log) (Stats, error) {
	var stats Stats

	files, err := filesByExtInDir(p.LabelDir, ".json")
	if err != nil {
		return stats, err
	}
	if len(files) > p.Count {
		files = files[:p.Count]
	}
	log.Infof("Converting %d JSON files from %v", len(files), p.LabelDir)

	var tfRecordData []AnnotatedFile
	for _, path := range files {
		data, err := FromBDD(path)
		if err != nil {
			return stats, err
		}

		yoloData, skipped := ToYOLO(data, cfg.ImageWidth, cfg.ImageHeight, log)
		if err := WriteYOLO(p.OutputDir, yoloData, log); err != nil {
			return stats, err
		}

		stats.Files++
		stats.Images += len(yoloData)
		stats.Skipped += skipped
		stats.Labels += AnnotatedFiles(data).NumAnnotations() - skipped

		if p.ImageDir != "" {
			if err := LocateImages(data, p.ImageDir); err != nil {
				return stats, err
			}
			if p.ImageOutDir != "" {
				if err := ExportImages(data, p.ImageOutDir, cfg.ImageOptions, log); err != nil {
					return stats, err
				}
			}
			if p.TFRecordPath != "" {
				tfRecordData = append(tfRecordData, data...)
			}
		}

		log.Infof("Processed file %v: %d images, %d skipped labels", path, len(yoloData), skipped)
	}

	if p.TFRecordPath != "" {
		err := WriteTFRecord(p.TFRecordPath, tfRecordData, cfg.TFRecordShards, cfg.ImageWidth,
			cfg.ImageHeight, log)
		if err != nil {
			return stats, err
		}
	}

	return stats, nil
}
