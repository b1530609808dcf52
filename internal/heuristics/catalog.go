package heuristics

import "strings"

// CatalogVersion identifies the built-in lookup tables. Bump when any
// table changes so stored runs can be compared meaningfully.
const CatalogVersion = "2024.2"

// Catalog bundles the lookup tables the analyzers match against. Keeping
// them out of the scoring code means they can be extended (or overridden
// from a YAML file) without touching the algorithms.
type Catalog struct {
	// ArtifactDirs are conventional build-output directory names. A COPY
	// whose source starts with one of these needs a pre-built artifact
	// and cannot build from a fresh clone.
	ArtifactDirs []string

	// InstallerCommands are substrings that identify a dependency-install
	// step inside RUN instructions, across ecosystems.
	InstallerCommands []string

	// AllowedRegistries are public registry hosts (first path segment of
	// a base-image reference) that the pipeline can pull from anonymously.
	AllowedRegistries []string

	// MonorepoMarkers are root-level file names of multi-project build
	// tools. Their presence short-circuits classification.
	MonorepoMarkers []string

	// ComposeFileNames are the default Compose file names, in lookup order.
	ComposeFileNames []string

	// ExcludedDirs are path segments under which discovered Dockerfiles
	// are ignored (tests, examples, CI fixtures, deploy manifests).
	ExcludedDirs []string
}

// Default returns the built-in catalog. Callers get a fresh copy; the
// tables are never mutated in place.
func Default() Catalog {
	return Catalog{
		ArtifactDirs: []string{
			"dist", "build", "out", "target", "node_modules", ".next",
		},
		InstallerCommands: []string{
			"npm install", "npm ci", "yarn install", "yarn --frozen-lockfile",
			"pnpm install", "pnpm i ",
			"pip install", "pip3 install", "poetry install", "pipenv install",
			"go mod download", "go build", "go install",
			"bundle install", "composer install",
			"mvn ", "gradle", "./gradlew",
			"cargo build", "cargo install",
			"dotnet restore", "dotnet publish",
			"mix deps.get", "sbt ",
		},
		AllowedRegistries: []string{
			"docker.io", "ghcr.io", "gcr.io", "quay.io",
			"registry.k8s.io", "public.ecr.aws", "mcr.microsoft.com",
			"registry.access.redhat.com",
			// Docker Hub namespaces common enough to trust without a host.
			"library", "bitnami",
		},
		MonorepoMarkers: []string{
			"lerna.json", "nx.json", "turbo.json", "rush.json",
			"pnpm-workspace.yaml", "WORKSPACE", "WORKSPACE.bazel",
			"pants.toml",
		},
		ComposeFileNames: []string{
			"docker-compose.yml", "docker-compose.yaml",
			"compose.yml", "compose.yaml",
		},
		ExcludedDirs: []string{
			"test", "tests", "testdata", "example", "examples",
			".github", ".gitlab", "ci", "deploy", "deployment", "deployments",
			"docs", "vendor",
		},
	}
}

// HasArtifactDir reports whether the first path segment of a COPY source
// names a known build-artifact directory.
func (c Catalog) HasArtifactDir(src string) (string, bool) {
	seg := firstSegment(src)
	for _, d := range c.ArtifactDirs {
		if strings.EqualFold(seg, d) {
			return d, true
		}
	}
	return "", false
}

// HasInstaller reports whether the concatenated RUN text contains a known
// dependency-installer invocation.
func (c Catalog) HasInstaller(runText string) (string, bool) {
	lower := strings.ToLower(runText)
	for _, cmd := range c.InstallerCommands {
		if strings.Contains(lower, strings.ToLower(cmd)) {
			return strings.TrimSpace(cmd), true
		}
	}
	return "", false
}

// AllowedBaseImage reports whether a base-image reference is pull-able by
// the pipeline: a path-less official image (node:18), a reference whose
// first segment is an allow-listed host or namespace, or a reference
// still parameterised by a build arg (judged elsewhere).
func (c Catalog) AllowedBaseImage(ref string) bool {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.Contains(ref, "$") {
		return true // variable bases are the ARG edge case, not a registry problem
	}
	if !strings.Contains(ref, "/") {
		return true // official image shorthand
	}
	seg := firstSegment(ref)
	for _, allowed := range c.AllowedRegistries {
		if strings.EqualFold(seg, allowed) {
			return true
		}
	}
	return false
}

// MonorepoHits returns the subset of marker files present in a root
// listing, in catalog order.
func (c Catalog) MonorepoHits(rootFiles []string) []string {
	present := make(map[string]bool, len(rootFiles))
	for _, f := range rootFiles {
		present[f] = true
	}
	var hits []string
	for _, m := range c.MonorepoMarkers {
		if present[m] {
			hits = append(hits, m)
		}
	}
	return hits
}

// ExcludedPath reports whether a repository-relative path sits under one
// of the excluded directories.
func (c Catalog) ExcludedPath(path string) bool {
	for _, seg := range strings.Split(path, "/") {
		for _, d := range c.ExcludedDirs {
			if strings.EqualFold(seg, d) {
				return true
			}
		}
	}
	return false
}

func firstSegment(s string) string {
	s = strings.TrimPrefix(strings.TrimSpace(s), "./")
	s = strings.TrimPrefix(s, "/")
	if i := strings.IndexAny(s, "/:"); i != -1 {
		return s[:i]
	}
	return s
}
