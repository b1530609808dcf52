package heuristics

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// catalogFile is the on-disk override format. Each list replaces the
// built-in table when non-empty and extends it when given under "extra".
type catalogFile struct {
	Version string `yaml:"version"`

	Replace struct {
		ArtifactDirs      []string `yaml:"artifact_dirs"`
		InstallerCommands []string `yaml:"installer_commands"`
		AllowedRegistries []string `yaml:"allowed_registries"`
		MonorepoMarkers   []string `yaml:"monorepo_markers"`
		ComposeFileNames  []string `yaml:"compose_file_names"`
		ExcludedDirs      []string `yaml:"excluded_dirs"`
	} `yaml:"replace"`

	Extra struct {
		ArtifactDirs      []string `yaml:"artifact_dirs"`
		InstallerCommands []string `yaml:"installer_commands"`
		AllowedRegistries []string `yaml:"allowed_registries"`
		MonorepoMarkers   []string `yaml:"monorepo_markers"`
		ComposeFileNames  []string `yaml:"compose_file_names"`
		ExcludedDirs      []string `yaml:"excluded_dirs"`
	} `yaml:"extra"`
}

// Load returns the default catalog merged with an optional YAML override
// file. The returned version string is the override's version when set,
// otherwise CatalogVersion.
func Load(path string) (Catalog, string, error) {
	cat := Default()
	if path == "" {
		return cat, CatalogVersion, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cat, CatalogVersion, fmt.Errorf("read catalog: %w", err)
	}
	var cf catalogFile
	if err := yaml.Unmarshal(b, &cf); err != nil {
		return cat, CatalogVersion, fmt.Errorf("parse catalog yaml: %w", err)
	}

	replace := func(dst *[]string, repl, extra []string) {
		if len(repl) > 0 {
			*dst = repl
		}
		*dst = append(*dst, extra...)
	}
	replace(&cat.ArtifactDirs, cf.Replace.ArtifactDirs, cf.Extra.ArtifactDirs)
	replace(&cat.InstallerCommands, cf.Replace.InstallerCommands, cf.Extra.InstallerCommands)
	replace(&cat.AllowedRegistries, cf.Replace.AllowedRegistries, cf.Extra.AllowedRegistries)
	replace(&cat.MonorepoMarkers, cf.Replace.MonorepoMarkers, cf.Extra.MonorepoMarkers)
	replace(&cat.ComposeFileNames, cf.Replace.ComposeFileNames, cf.Extra.ComposeFileNames)
	replace(&cat.ExcludedDirs, cf.Replace.ExcludedDirs, cf.Extra.ExcludedDirs)

	version := CatalogVersion
	if cf.Version != "" {
		version = cf.Version
	}
	return cat, version, nil
}
