package bdd2yolo

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DataYAML is the dataset descriptor read by YOLO training tools.
type DataYAML struct {
	Train string   `yaml:"train"`
	Val   string   `yaml:"val"`
	NC    int      `yaml:"nc"`
	Names []string `yaml:"names"`
}

// NewDataYAML returns the descriptor for the given train and validation directories with the
// category vocabulary as class names.
func NewDataYAML(trainDir, valDir string) DataYAML {
	return DataYAML{
		Train: trainDir,
		Val:   valDir,
		NC:    NumCategories,
		Names: CategoryNames(),
	}
}

// WriteDataYAML writes the descriptor to outFile.
func WriteDataYAML(outFile string, data DataYAML) error {
	enc, err := yaml.Marshal(data)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outFile, enc, 0644); err != nil {
		return fmt.Errorf("cannot write file %q: %w", outFile, err)
	}
	return nil
}
