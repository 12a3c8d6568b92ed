package config

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"shelflife/domain/stability"
	"shelflife/internal/errors"
)

// conditionsFile is the on-disk shape of CONDITIONS_FILE:
//
//	conditions:
//	  25C_60RH: long_term
//	  5C: long_term
//	  40C_75RH: accelerated
type conditionsFile struct {
	Conditions map[string]string `yaml:"conditions"`
}

// ParseConditions decodes a YAML category table
func ParseConditions(r io.Reader) (stability.ConditionTable, error) {
	var file conditionsFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil && err != io.EOF {
		return nil, errors.Wrap(errors.InvalidInput(err.Error()), "failed to decode conditions file")
	}

	table := make(stability.ConditionTable, len(file.Conditions))
	for condition, raw := range file.Conditions {
		category, err := stability.ParseCategory(raw)
		if err != nil {
			return nil, errors.InvalidInput(fmt.Sprintf("condition %s: %v", condition, err))
		}
		table[condition] = category
	}
	return table, nil
}

// LoadConditions returns the default table, overlaid with path's entries when path is set
func LoadConditions(path string) (stability.ConditionTable, error) {
	table := stability.DefaultConditions()
	if path == "" {
		return table, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open conditions file %s", path)
	}
	defer f.Close()

	extra, err := ParseConditions(f)
	if err != nil {
		return nil, err
	}
	return table.Merge(extra), nil
}
