package pattern

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rxtech-lab/argo-options/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ParseDefinition decodes a definition from JSON or YAML. The format is
// picked from the file extension; anything but .json is read as YAML.
func ParseDefinition(data []byte, filename string) (*Definition, error) {
	var def Definition

	var err error
	if strings.EqualFold(filepath.Ext(filename), ".json") {
		err = json.Unmarshal(data, &def)
	} else {
		err = yaml.Unmarshal(data, &def)
	}

	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodePatternLoadFailed, err, "failed to decode %s", filename)
	}

	if err := def.Validate(); err != nil {
		return nil, err
	}

	return &def, nil
}

// LoadDefinitionFile reads a single definition file.
func LoadDefinitionFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodePatternLoadFailed, err, "failed to read %s", path)
	}

	return ParseDefinition(data, path)
}

// LoadDefinitions reads every .json, .yaml and .yml file in dir, sorted by
// pattern id. Duplicate ids are rejected.
func LoadDefinitions(dir string) ([]*Definition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodePatternLoadFailed, err, "failed to read pattern directory %s", dir)
	}

	var defs []*Definition

	seen := map[string]string{}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".json", ".yaml", ".yml":
		default:
			continue
		}

		path := filepath.Join(dir, entry.Name())

		def, err := LoadDefinitionFile(path)
		if err != nil {
			return nil, err
		}

		if other, dup := seen[def.ID]; dup {
			return nil, errors.Newf(errors.ErrCodeInvalidDefinition, "pattern id %q defined in both %s and %s", def.ID, other, path)
		}

		seen[def.ID] = path
		defs = append(defs, def)
	}

	SortDefinitions(defs)

	return defs, nil
}

// SortDefinitions orders definitions by id, which is the evaluation order.
func SortDefinitions(defs []*Definition) {
	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })
}
