package registry

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/ethereum-optimism/infra/op-keyword/types"
)

// initFile holds the settings of a directory suite
const initFile = "__init__"

// LoadSuite loads a suite file, or a directory of suite files. A directory
// becomes a suite with one child suite per file or subdirectory; its own
// settings come from an optional __init__.yaml.
func (r *Registry) LoadSuite(path string) (*types.SuiteModel, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load suite: %w", err)
	}
	var suite *types.SuiteModel
	if info.IsDir() {
		suite, err = loadSuiteDir(path)
	} else {
		suite, err = loadSuiteFile(path)
	}
	if err != nil {
		return nil, err
	}
	r.config.Log.Debug("Suite loaded", "suite", suite.Name, "source", path, "tests", suite.TestCount())
	return suite, nil
}

func loadSuiteFile(path string) (*types.SuiteModel, error) {
	suite, err := decodeSuiteFile(path)
	if err != nil {
		return nil, err
	}
	if suite.Name == "" {
		suite.Name = suiteName(path)
	}
	return suite, nil
}

func decodeSuiteFile(path string) (*types.SuiteModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite file: %w", err)
	}
	var suite types.SuiteModel
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&suite); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse suite file %s: %w", path, err)
	}
	suite.Source = path
	return &suite, nil
}

func loadSuiteDir(path string) (*types.SuiteModel, error) {
	suite := &types.SuiteModel{}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite directory: %w", err)
	}
	for _, entry := range entries {
		child := filepath.Join(path, entry.Name())
		if entry.IsDir() {
			sub, err := loadSuiteDir(child)
			if err != nil {
				return nil, err
			}
			suite.Suites = append(suite.Suites, *sub)
			continue
		}
		if !isSuiteFile(entry.Name()) {
			continue
		}
		if trimExt(entry.Name()) == initFile {
			settings, err := decodeSuiteFile(child)
			if err != nil {
				return nil, err
			}
			if len(settings.Tests) > 0 || len(settings.Suites) > 0 {
				return nil, fmt.Errorf("suite initialization file %s cannot contain tests or suites", child)
			}
			settings.Suites = suite.Suites
			suite = settings
			continue
		}
		sub, err := loadSuiteFile(child)
		if err != nil {
			return nil, err
		}
		suite.Suites = append(suite.Suites, *sub)
	}
	if suite.TestCount() == 0 {
		return nil, fmt.Errorf("suite directory %s contains no tests", path)
	}
	suite.Source = path
	if suite.Name == "" {
		suite.Name = suiteName(path)
	}
	return suite, nil
}

func isSuiteFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

func trimExt(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// suiteName derives a suite name from a path: "01__my_suite.yaml" becomes
// "My Suite".
func suiteName(path string) string {
	base := trimExt(filepath.Base(path))
	if _, rest, ok := strings.Cut(base, "__"); ok && rest != "" {
		base = rest
	}
	words := strings.Fields(strings.ReplaceAll(base, "_", " "))
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		if unicode.IsLower(r) {
			words[i] = string(unicode.ToUpper(r)) + w[size:]
		}
	}
	return strings.Join(words, " ")
}

// LoadVariableFile loads variables from a YAML or TOML file. Top-level keys
// become variables in file order; a key without decoration is a scalar
// variable, so "host" is the same as "${host}".
func (r *Registry) LoadVariableFile(path string) ([]types.Variable, error) {
	var (
		vars []types.Variable
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		vars, err = loadYAMLVariables(path)
	case ".toml":
		vars, err = loadTOMLVariables(path)
	default:
		return nil, fmt.Errorf("unsupported variable file %s: expected .yaml, .yml or .toml", path)
	}
	if err != nil {
		return nil, err
	}
	r.config.Log.Debug("Variable file loaded", "source", path, "variables", len(vars))
	return vars, nil
}

func loadYAMLVariables(path string) ([]types.Variable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read variable file: %w", err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse variable file %s: %w", path, err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("variable file %s must contain a mapping", path)
	}
	vars := make([]types.Variable, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		var value any
		if err := root.Content[i+1].Decode(&value); err != nil {
			return nil, fmt.Errorf("failed to decode variable '%s': %w", root.Content[i].Value, err)
		}
		vars = append(vars, types.Variable{Name: decorate(root.Content[i].Value), Value: value})
	}
	return vars, nil
}

func loadTOMLVariables(path string) ([]types.Variable, error) {
	var values map[string]any
	meta, err := toml.DecodeFile(path, &values)
	if err != nil {
		return nil, fmt.Errorf("failed to parse variable file %s: %w", path, err)
	}
	var vars []types.Variable
	for _, key := range meta.Keys() {
		if len(key) != 1 {
			continue
		}
		vars = append(vars, types.Variable{Name: decorate(key[0]), Value: values[key[0]]})
	}
	return vars, nil
}

func decorate(name string) string {
	if len(name) > 3 && strings.ContainsRune("$@&", rune(name[0])) && name[1] == '{' && strings.HasSuffix(name, "}") {
		return name
	}
	return "${" + name + "}"
}
