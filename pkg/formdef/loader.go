package formdef

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Store holds definitions keyed by id. It is safe for concurrent readers when
// treated as immutable after loading.
type Store struct {
	definitions map[string]Definition
}

// Parse decodes a definition. Sources ending in .toml are read as TOML;
// anything else is tried as JSON, then YAML. source is used in error messages.
func Parse(data []byte, source string) (Definition, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return Definition{}, fmt.Errorf("formdef: file %s is empty", source)
	}

	var def Definition
	if strings.EqualFold(filepath.Ext(source), ".toml") {
		if err := toml.Unmarshal(data, &def); err != nil {
			return Definition{}, fmt.Errorf("formdef: parse %s: invalid TOML: %w", source, err)
		}
	} else if err := json.Unmarshal(data, &def); err != nil {
		def = Definition{}
		if yerr := yaml.Unmarshal(data, &def); yerr != nil {
			return Definition{}, fmt.Errorf("formdef: parse %s: invalid JSON or YAML: %w", source, yerr)
		}
	}
	def.Source = source

	if err := def.Validate(); err != nil {
		return Definition{}, fmt.Errorf("formdef: %s: %w", source, err)
	}
	return def, nil
}

// LoadFile reads and parses a single definition file.
func LoadFile(path string) (Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, fmt.Errorf("formdef: read %s: %w", path, err)
	}
	return Parse(data, path)
}

// LoadFS walks fsys and parses every .json, .yaml, .yml and .toml file. A nil fsys
// yields an empty store.
func LoadFS(fsys fs.FS) (*Store, error) {
	store := &Store{definitions: make(map[string]Definition)}
	if fsys == nil {
		return store, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isDefinitionFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("formdef: read %s: %w", path, err)
		}
		def, err := Parse(data, path)
		if err != nil {
			return err
		}
		if existing, ok := store.definitions[def.ID]; ok {
			return fmt.Errorf("formdef: duplicate definition %q (files %s, %s)", def.ID, existing.Source, path)
		}
		store.definitions[def.ID] = def
		return nil
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

// Definition returns the definition registered under id.
func (s *Store) Definition(id string) (Definition, bool) {
	if s == nil {
		return Definition{}, false
	}
	def, ok := s.definitions[id]
	return def, ok
}

// IDs lists the stored definition ids in sorted order.
func (s *Store) IDs() []string {
	if s == nil {
		return nil
	}
	ids := make([]string, 0, len(s.definitions))
	for id := range s.definitions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Empty reports whether the store holds any definitions.
func (s *Store) Empty() bool {
	return s == nil || len(s.definitions) == 0
}

func isDefinitionFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml", ".toml":
		return true
	default:
		return false
	}
}
