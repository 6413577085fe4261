package storage

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hoanghai1803/whatif/internal/models"
)

// sourcesFile is the on-disk layout of a feed source seed file:
//
//	sources:
//	  - name: Phys.org
//	    url: https://phys.org/rss-feed/
//	    priority: 1
//	    status: active
//	    fetch_limit: 3
type sourcesFile struct {
	Sources []struct {
		Name       string `yaml:"name"`
		URL        string `yaml:"url"`
		Priority   int    `yaml:"priority"`
		Status     string `yaml:"status"`
		FetchLimit int    `yaml:"fetch_limit"`
	} `yaml:"sources"`
}

// LoadSourcesFile reads feed sources from a YAML seed file. Entries without a
// name or URL are rejected, as are unknown status values.
func LoadSourcesFile(path string) ([]models.FeedSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sources file: %w", err)
	}

	var f sourcesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing sources file: %w", err)
	}

	sources := make([]models.FeedSource, 0, len(f.Sources))
	for i, entry := range f.Sources {
		if entry.Name == "" || entry.URL == "" {
			return nil, fmt.Errorf("sources[%d]: name and url are required", i)
		}
		status := models.SourceStatus(entry.Status)
		if status == "" {
			status = models.StatusInactive
		}
		if !status.Valid() {
			return nil, fmt.Errorf("sources[%d]: invalid status %q", i, entry.Status)
		}
		sources = append(sources, models.FeedSource{
			Name:       entry.Name,
			URL:        entry.URL,
			Priority:   entry.Priority,
			Status:     status,
			FetchLimit: entry.FetchLimit,
		})
	}
	return sources, nil
}
