package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Watch describes a single saved search. Exactly one of URL (an OLX search
// results page) or Feed (an RSS/Atom feed) must be set.
type Watch struct {
	Name     string   `yaml:"name"`
	URL      string   `yaml:"url"`
	Feed     string   `yaml:"feed"`
	Pages    int      `yaml:"pages"`
	Limit    int      `yaml:"limit"`
	Keywords []string `yaml:"keywords"`
	MinPrice int64    `yaml:"min_price"`
	MaxPrice int64    `yaml:"max_price"`
	Timeout  Duration `yaml:"timeout"`
}

// Duration wraps time.Duration so watch timeouts can be written as "20s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	d.Duration = parsed
	return nil
}

func (w Watch) Validate() error {
	if w.Name == "" {
		return errors.New("watch name is required")
	}
	if w.URL == "" && w.Feed == "" {
		return fmt.Errorf("watch %q: either url or feed is required", w.Name)
	}
	if w.URL != "" && w.Feed != "" {
		return fmt.Errorf("watch %q: url and feed are mutually exclusive", w.Name)
	}
	return nil
}

type watchesFile struct {
	Watches []Watch `yaml:"watches"`
}

// LoadWatches reads a watch list from a YAML file.
func LoadWatches(path string) ([]Watch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var parsed watchesFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(parsed.Watches) == 0 {
		return nil, fmt.Errorf("%s contains no watches", path)
	}

	names := make(map[string]struct{}, len(parsed.Watches))
	for _, w := range parsed.Watches {
		if err := w.Validate(); err != nil {
			return nil, err
		}
		if _, dup := names[w.Name]; dup {
			return nil, fmt.Errorf("duplicate watch name %q", w.Name)
		}
		names[w.Name] = struct{}{}
	}

	return parsed.Watches, nil
}

// ResolveWatches loads the configured watches file, falling back to a single
// watch built from OLX_QUERY_URL and OLX_TITLE_KEYWORDS when the file does
// not exist.
func (c Config) ResolveWatches() ([]Watch, error) {
	watches, err := LoadWatches(c.WatchesFile)
	if err == nil {
		return watches, nil
	}
	if !os.IsNotExist(err) {
		return nil, err
	}

	return []Watch{{
		Name:     "default",
		URL:      c.QueryURL,
		Keywords: c.Keywords,
	}}, nil
}
