// Package classify combines per-file analyses into one CandidateVerdict
// per repository. Evaluation is pure: same inputs, same verdict, no I/O
// and no shared state across repositories.
package classify

import (
	"strings"

	"github.com/codewithboateng/dockscout/internal/compose"
	"github.com/codewithboateng/dockscout/internal/dockerfile"
	"github.com/codewithboateng/dockscout/internal/edgecase"
	"github.com/codewithboateng/dockscout/internal/heuristics"
	"github.com/codewithboateng/dockscout/internal/ir"
)

// Classifier evaluates RepoInputs against a heuristics catalog.
type Classifier struct {
	Catalog  heuristics.Catalog
	analyzer *dockerfile.Analyzer
}

// New returns a classifier over the given catalog.
func New(cat heuristics.Catalog) *Classifier {
	return &Classifier{
		Catalog:  cat,
		analyzer: &dockerfile.Analyzer{Catalog: cat},
	}
}

// Evaluate produces exactly one verdict for one repository.
func (c *Classifier) Evaluate(in ir.RepoInput) ir.CandidateVerdict {
	v := ir.CandidateVerdict{Repo: in.Repo}

	// Monorepo short-circuit: such repositories' Dockerfiles are rarely
	// buildable from a fresh, isolated clone.
	if hits := c.Catalog.MonorepoHits(in.RootFiles); len(hits) > 0 {
		v.Score = 0
		v.Tier = ir.TierSkipMonorepo
		v.Flags = []ir.Flag{{
			Severity: ir.SeverityRed,
			Message:  "monorepo build-tool markers at root: " + strings.Join(hits, ", "),
		}}
		return v
	}

	hasComposeBuild := false
	if in.Compose != nil && compose.HasBuildDirective(in.Compose.Content) {
		hasComposeBuild = true
		v.Services = compose.ParseServices(in.Compose.Content)
	}

	if !hasComposeBuild && len(in.Dockerfiles) == 0 {
		v.Score = 0
		v.Tier = ir.TierSkipNoDockerfiles
		return v
	}

	// Analyze every discovered Dockerfile. A candidate with no stage
	// declaration (no FROM) is treated as not analyzable.
	for _, df := range in.Dockerfiles {
		res := c.analyzer.Analyze(df.Path, df.Content)
		if len(res.BaseImages) == 0 {
			continue
		}
		v.Dockerfiles = append(v.Dockerfiles, res)
	}

	if len(in.Dockerfiles) > 0 && len(v.Dockerfiles) == 0 {
		if hasComposeBuild {
			v.Score = 20
		}
		v.Tier = ir.TierSkipNoAnalyzable
		v.EdgeCases = c.composeEdgeCases(in, nil)
		return v
	}

	// Aggregate score: average per-Dockerfile, bonuses for a compose
	// build file and a genuine multi-service layout, a penalty per
	// Dockerfile that needs pre-built artifacts.
	var sum, notSelfContained int
	for _, df := range v.Dockerfiles {
		sum += df.Score
		if !df.SelfContained {
			notSelfContained++
		}
		v.Flags = append(v.Flags, df.Flags...)
	}
	score := 0
	if n := len(v.Dockerfiles); n > 0 {
		score = sum / n
	}
	if hasComposeBuild {
		score += 10
	}
	if len(v.Dockerfiles) >= 2 {
		score += 5
	}
	score -= 15 * notSelfContained
	v.Score = clamp(score, 0, 100)

	v.EdgeCases = c.composeEdgeCases(in, v.Dockerfiles)
	v.Tier = tierFor(v)
	v.Actionable = actionable(v.Flags)
	return v
}

// composeEdgeCases unions edge cases from every Dockerfile and the
// compose detector, deduplicated by id in first-seen order.
func (c *Classifier) composeEdgeCases(in ir.RepoInput, analyses []ir.DockerfileAnalysis) []ir.EdgeCase {
	seen := map[string]bool{}
	var out []ir.EdgeCase
	add := func(ecs []ir.EdgeCase) {
		for _, ec := range ecs {
			if seen[ec.ID] {
				continue
			}
			seen[ec.ID] = true
			out = append(out, ec)
		}
	}
	for _, df := range analyses {
		add(df.EdgeCases)
	}
	if in.Compose != nil {
		add(edgecase.DetectCompose(in.Compose.Content))
	}
	return out
}

func actionable(flags []ir.Flag) bool {
	hasYellow := false
	for _, f := range flags {
		switch f.Severity {
		case ir.SeverityRed:
			return false
		case ir.SeverityYellow:
			hasYellow = true
		}
	}
	return hasYellow
}

func clamp(x, lo, hi int) int {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
