package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/use-agent/oppscout/models"
)

// ErrRegistryNotFound is returned when the registry file does not exist.
var ErrRegistryNotFound = errors.New("config: source registry file not found")

// RegistryFile is the on-disk form of a source registry:
//
//	sources:
//	  - id: screen_australia
//	    url: https://www.screenaustralia.gov.au
//	    description: Screen Australia
//	    endpoints: [/funding-and-support]
type RegistryFile struct {
	Sources []models.Source `yaml:"sources"`
}

// DefaultRegistry returns the built-in Australian screen and arts funding
// sources. The slice is freshly allocated on every call.
func DefaultRegistry() []models.Source {
	return []models.Source{
		{
			ID:          "screen_australia",
			BaseURL:     "https://www.screenaustralia.gov.au",
			Description: "Screen Australia funding and support",
			Endpoints: []string{
				"/funding-and-support",
				"/funding-and-support/documentary",
				"/funding-and-support/feature-films",
			},
		},
		{
			ID:          "creative_australia",
			BaseURL:     "https://creative.gov.au",
			Description: "Creative Australia investment and development",
			Endpoints:   []string{"/investment-and-development"},
		},
		{
			ID:          "vicscreen",
			BaseURL:     "https://vicscreen.vic.gov.au",
			Description: "VicScreen funding programs",
			Endpoints:   []string{"/funding"},
		},
		{
			ID:          "screen_nsw",
			BaseURL:     "https://www.screen.nsw.gov.au",
			Description: "Screen NSW funding",
			Endpoints:   []string{"/funding"},
		},
		{
			ID:          "screen_queensland",
			BaseURL:     "https://screenqueensland.com.au",
			Description: "Screen Queensland funding",
			Endpoints:   []string{"/funding"},
		},
		{
			ID:          "documentary_australia",
			BaseURL:     "https://documentaryaustralia.com.au",
			Description: "Documentary Australia grants and philanthropy",
			Endpoints:   []string{"/apply-for-funding"},
		},
	}
}

// LoadRegistry reads and validates a YAML registry file.
func LoadRegistry(path string) ([]models.Source, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-provided path
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRegistryNotFound, path)
		}
		return nil, fmt.Errorf("config: read registry: %w", err)
	}

	var rf RegistryFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("config: parse registry %s: %w", path, err)
	}
	if err := ValidateRegistry(rf.Sources); err != nil {
		return nil, err
	}
	return rf.Sources, nil
}

// ResolveRegistry loads path, or returns the built-in registry when path is
// empty.
func ResolveRegistry(path string) ([]models.Source, error) {
	if path == "" {
		return DefaultRegistry(), nil
	}
	return LoadRegistry(path)
}

// ValidateRegistry checks that every source has a unique id, an absolute
// base URL and at least one endpoint.
func ValidateRegistry(sources []models.Source) error {
	if len(sources) == 0 {
		return errors.New("config: registry has no sources")
	}
	seen := make(map[string]bool, len(sources))
	for i, s := range sources {
		if strings.TrimSpace(s.ID) == "" {
			return fmt.Errorf("config: source #%d has no id", i+1)
		}
		if seen[s.ID] {
			return fmt.Errorf("config: duplicate source id %q", s.ID)
		}
		seen[s.ID] = true
		if len(s.Endpoints) == 0 {
			return fmt.Errorf("config: source %q has no endpoints", s.ID)
		}
		if _, err := s.EndpointURL(s.Endpoints[0]); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	return nil
}

// SelectSources returns the sources named by ids, in registry order. An empty
// ids list selects the whole registry. Unknown ids are an error.
func SelectSources(registry []models.Source, ids []string) ([]models.Source, error) {
	if len(ids) == 0 {
		return registry, nil
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	out := make([]models.Source, 0, len(ids))
	for _, s := range registry {
		if want[s.ID] {
			out = append(out, s)
			delete(want, s.ID)
		}
	}
	if len(want) > 0 {
		unknown := make([]string, 0, len(want))
		for _, id := range ids {
			if want[id] {
				unknown = append(unknown, id)
				delete(want, id)
			}
		}
		return nil, fmt.Errorf("config: unknown source ids: %s", strings.Join(unknown, ", "))
	}
	return out, nil
}
