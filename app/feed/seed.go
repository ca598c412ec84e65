package feed

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Feeds []SeedFeed `yaml:"feeds"`
}

// LoadSeedFile reads the startup feed definitions. A missing file is not
// an error; running without a seed file is supported.
func LoadSeedFile(path string) ([]SeedFeed, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var sf seedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	for i := range sf.Feeds {
		if sf.Feeds[i].URL == "" {
			return nil, fmt.Errorf("seed feed %d is missing a url", i+1)
		}
		if sf.Feeds[i].Priority == 0 {
			sf.Feeds[i].Priority = 5
		}
		if sf.Feeds[i].Category == "" {
			sf.Feeds[i].Category = "RSS"
		}
	}

	return sf.Feeds, nil
}
