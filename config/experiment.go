package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ProviderSpec lists the models to run against one provider.
type ProviderSpec struct {
	Models []string `yaml:"models" validate:"required,min=1,dive,required"`
}

// Experiment is one named run declared in the experiments file. It is
// immutable for the duration of a run.
type Experiment struct {
	Name        string                  `yaml:"name" validate:"required"`
	Description string                  `yaml:"description"`
	Providers   map[string]ProviderSpec `yaml:"providers" validate:"required,min=1,dive"`
	Prompts     []string                `yaml:"prompts" validate:"required,min=1,dive,required"`
}

type experimentsFile struct {
	Experiments []Experiment `yaml:"experiments" validate:"required,min=1,dive"`
}

var validate = validator.New()

// LoadExperiments reads and validates the declarative experiments file.
// A malformed file is the one fatal configuration error in the system.
func LoadExperiments(path string) ([]Experiment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading experiments file: %w", err)
	}

	var file experimentsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing experiments file %s: %w", path, err)
	}

	if err := validate.Struct(&file); err != nil {
		return nil, fmt.Errorf("invalid experiments file %s: %w", path, err)
	}

	return file.Experiments, nil
}

// FindExperiment selects one experiment by name.
func FindExperiment(experiments []Experiment, name string) (Experiment, error) {
	for _, exp := range experiments {
		if exp.Name == name {
			return exp, nil
		}
	}
	return Experiment{}, fmt.Errorf("no experiment found with name: %s", name)
}
