package file

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hjson/hjson-go/v4"
	"gopkg.in/yaml.v3"
)

// Extensions lists the document formats understood by the file adapters, in
// lookup order.
var Extensions = []string{".json", ".yaml", ".yml", ".hjson"}

// decodeFile reads a JSON, YAML or Hjson document into plain Go values.
func decodeFile(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return decode(filepath.Ext(path), data)
}

func decode(ext string, data []byte) (any, error) {
	var doc any
	switch strings.ToLower(ext) {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("invalid json: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("invalid yaml: %w", err)
		}
	case ".hjson":
		if err := hjson.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("invalid hjson: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported document format %q", ext)
	}
	return doc, nil
}

// find returns the first existing "<dir>/<name><ext>" for the known extensions.
func find(dir, name string) (string, bool) {
	for _, ext := range Extensions {
		path := filepath.Join(dir, name+ext)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

// validName rejects names that would escape the base directory.
func validName(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if name != filepath.Base(name) || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid name %q", name)
	}
	return nil
}

// names lists the distinct document base names in dir, sorted.
func names(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}

	seen := make(map[string]bool)
	out := []string{}
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), "tmp-") {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if !known(ext) {
			continue
		}
		base := strings.TrimSuffix(entry.Name(), ext)
		if !seen[base] {
			seen[base] = true
			out = append(out, base)
		}
	}
	// os.ReadDir is already sorted by file name
	return out, nil
}

func known(ext string) bool {
	for _, e := range Extensions {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}

