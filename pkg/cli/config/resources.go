package config

import (
	"os"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"

	"github.com/neuro86/neuro86/pkg/domain/model"
	"github.com/neuro86/neuro86/pkg/utils/logging"
)

// Resources holds CLI flags for the curated content file
type Resources struct {
	path string
}

// Flags returns CLI flags for resources configuration
func (x *Resources) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "resources-file",
			Usage:       "Path to the TOML file with research entries and facilities",
			Sources:     cli.EnvVars("NEURO86_RESOURCES_FILE"),
			Destination: &x.path,
		},
	}
}

// Configure loads and validates the resource file. Returns nil when no file is
// configured; the server then omits the research and facility endpoints.
func (x *Resources) Configure() (*model.ResourceSet, error) {
	if x.path == "" {
		return nil, nil
	}

	resources, err := LoadResources(x.path)
	if err != nil {
		return nil, err
	}

	logging.Default().Info("Loaded resources",
		"path", x.path,
		"research", len(resources.Research),
		"facilities", len(resources.Facilities),
	)
	return resources, nil
}

// LoadResources reads a resource file from disk
func LoadResources(path string) (*model.ResourceSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read resources file", goerr.V("path", path))
	}

	var resources model.ResourceSet
	if err := toml.Unmarshal(data, &resources); err != nil {
		return nil, goerr.Wrap(err, "failed to parse resources file", goerr.V("path", path))
	}

	if err := ValidateResources(&resources); err != nil {
		return nil, goerr.Wrap(err, "invalid resources file", goerr.V("path", path))
	}

	return &resources, nil
}

// ValidateResources checks required fields and duplicate entries
func ValidateResources(resources *model.ResourceSet) error {
	seenURLs := make(map[string]bool)
	for i, item := range resources.Research {
		if item.Title == "" {
			return goerr.New("research entry has no title", goerr.V("index", i))
		}
		if item.URL == "" {
			return goerr.New("research entry has no url", goerr.V("title", item.Title))
		}
		if seenURLs[item.URL] {
			return goerr.New("duplicate research url", goerr.V("url", item.URL))
		}
		seenURLs[item.URL] = true
	}

	seenFacilities := make(map[string]bool)
	for i, f := range resources.Facilities {
		if f.Name == "" {
			return goerr.New("facility entry has no name", goerr.V("index", i))
		}
		if len(f.State) != 2 || f.State != strings.ToUpper(f.State) {
			return goerr.New("facility state must be an uppercase two-letter code",
				goerr.V("name", f.Name),
				goerr.V("state", f.State),
			)
		}
		key := f.State + "/" + f.Name
		if seenFacilities[key] {
			return goerr.New("duplicate facility", goerr.V("name", f.Name), goerr.V("state", f.State))
		}
		seenFacilities[key] = true
	}

	return nil
}
