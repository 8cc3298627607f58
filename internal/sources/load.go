package sources

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// registryFile is the on-disk shape of a registry override.
type registryFile struct {
	// Replace drops the built-in table instead of extending it.
	Replace bool    `yaml:"replace"`
	Sources []Entry `yaml:"sources"`
}

// LoadRegistry builds the process-wide registry. An empty path yields the
// built-in table. Entries from the file extend the built-in table unless
// the file sets replace: true; a file entry whose domain is already
// registered overrides the built-in one.
func LoadRegistry(path string, logger *zap.Logger) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if path == "" {
		r := Default()
		logger.Info("Using built-in source registry", zap.Int("sources", r.Len()))
		return r, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read source registry %s: %w", path, err)
	}
	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse source registry %s: %w", path, err)
	}

	entries := file.Sources
	if !file.Replace {
		entries = mergeEntries(defaultEntries, file.Sources)
	}
	r, err := NewRegistry(entries)
	if err != nil {
		return nil, fmt.Errorf("build source registry from %s: %w", path, err)
	}
	logger.Info("Loaded source registry",
		zap.String("path", path),
		zap.Bool("replace", file.Replace),
		zap.Int("sources", r.Len()),
	)
	return r, nil
}

// mergeEntries overlays extra onto base by normalized domain. Overrides keep
// the base position; new domains are appended.
func mergeEntries(base, extra []Entry) []Entry {
	out := make([]Entry, len(base))
	copy(out, base)
	pos := make(map[string]int, len(out))
	for i, e := range out {
		pos[normalizeHost(e.Domain)] = i
	}
	for _, e := range extra {
		key := normalizeHost(e.Domain)
		if i, ok := pos[key]; ok {
			out[i] = e
			continue
		}
		pos[key] = len(out)
		out = append(out, e)
	}
	return out
}
