package ir

import "time"

const Version = "1.0"

// Severity levels for flags. Green is informational (a good signal),
// yellow is fixable without blocking, red blocks the pipeline.
const (
	SeverityGreen  = "GREEN"
	SeverityYellow = "YELLOW"
	SeverityRed    = "RED"
)

// Verdict tiers. Skip tiers carry a reason suffix (e.g. "skip:monorepo").
const (
	TierRecommended = "recommended"
	TierStretch     = "stretch"
	TierMaybe       = "maybe"

	TierSkipMonorepo      = "skip:monorepo"
	TierSkipNoDockerfiles = "skip:no-dockerfiles"
	TierSkipNoAnalyzable  = "skip:no-analyzable-dockerfiles"
	TierSkipLowScore      = "skip:low-score"
)

// Run is one triage pass over a set of candidate repositories.
type Run struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	Source    string    `json:"source,omitempty"`
	IRVersion string    `json:"ir_version,omitempty"`

	CatalogVersion string             `json:"catalog_version,omitempty"`
	Verdicts       []CandidateVerdict `json:"verdicts"`
}

// Flag is one human-readable signal emitted during analysis.
type Flag struct {
	Severity string `json:"severity"` // GREEN|YELLOW|RED
	Message  string `json:"message"`
	Path     string `json:"path,omitempty"` // Dockerfile it came from, when applicable
}

// EdgeCase is a build feature the downstream workflow generator cannot
// yet translate. Identity is by ID: two edge cases with the same ID are
// the same finding regardless of which file surfaced them.
type EdgeCase struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	FixHint     string `json:"fix_hint"` // subsystem that would need a change
}

// DockerfileAnalysis is the structural read of a single Dockerfile.
type DockerfileAnalysis struct {
	Path          string     `json:"path"`
	Score         int        `json:"score"` // clamped to [0,100]
	Flags         []Flag     `json:"flags,omitempty"`
	SelfContained bool       `json:"self_contained"`
	MultiStage    bool       `json:"multi_stage"`
	BaseImages    []string   `json:"base_images,omitempty"`
	ExposePorts   []string   `json:"expose_ports,omitempty"`
	EdgeCases     []EdgeCase `json:"edge_cases,omitempty"`
}

// ComposeService is one service extracted from a Compose file. Only
// services declaring a build directive are retained by the parser.
type ComposeService struct {
	Name         string   `json:"name"`
	HasBuild     bool     `json:"has_build"`
	BuildContext string   `json:"build_context,omitempty"`
	Dockerfile   string   `json:"dockerfile,omitempty"` // override path, may be empty
	DependsOn    []string `json:"depends_on,omitempty"`
	Ports        []string `json:"ports,omitempty"`
}

// CandidateVerdict is the terminal artifact for one repository.
type CandidateVerdict struct {
	Repo       string     `json:"repo"`
	Score      int        `json:"score"`
	Tier       string     `json:"tier"`
	Flags      []Flag     `json:"flags,omitempty"`
	EdgeCases  []EdgeCase `json:"edge_cases,omitempty"`
	Actionable bool       `json:"actionable"`

	Dockerfiles []DockerfileAnalysis `json:"dockerfiles,omitempty"`
	Services    []ComposeService     `json:"services,omitempty"`
}

// NamedFile pairs a repository-relative path with fetched content.
type NamedFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// RepoInput carries everything the classifier needs for one repository.
// The retrieval layer (gitsource/localsource) fills it; the classifier
// performs no I/O of its own.
type RepoInput struct {
	Repo        string      `json:"repo"`
	RootFiles   []string    `json:"root_files,omitempty"`
	Compose     *NamedFile  `json:"compose,omitempty"` // first recognized compose file with a build directive
	Dockerfiles []NamedFile `json:"dockerfiles,omitempty"`
}

// SkipReason extracts the reason suffix from a skip tier ("" otherwise).
func SkipReason(tier string) string {
	const p = "skip:"
	if len(tier) > len(p) && tier[:len(p)] == p {
		return tier[len(p):]
	}
	return ""
}

// Bucket maps a tier onto one of the four report buckets.
func Bucket(tier string) string {
	if SkipReason(tier) != "" {
		return "skip"
	}
	return tier
}
