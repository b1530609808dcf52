// Package dockerfile reads raw Dockerfile text into structural facts and
// a 0-100 buildability score. Analysis is deterministic, does no I/O and
// never fails: syntax that matches no pattern simply contributes no
// signal.
package dockerfile

import (
	"fmt"
	"strings"

	"github.com/codewithboateng/dockscout/internal/edgecase"
	"github.com/codewithboateng/dockscout/internal/heuristics"
	"github.com/codewithboateng/dockscout/internal/ir"
)

const baseScore = 50

// Analyzer scores Dockerfiles against a heuristics catalog.
type Analyzer struct {
	Catalog heuristics.Catalog
}

// New returns an analyzer over the default catalog.
func New() *Analyzer {
	return &Analyzer{Catalog: heuristics.Default()}
}

type instruction struct {
	keyword string // upper-cased
	args    string // remainder, continuations joined
}

// Analyze produces the structural read of one Dockerfile.
func (a *Analyzer) Analyze(path, content string) ir.DockerfileAnalysis {
	res := ir.DockerfileAnalysis{Path: path, Score: baseScore}

	instrs := scan(content)

	// Stage declarations. BaseImages is a set in first-seen order: a
	// multi-stage build reusing one image names it once.
	var stages, stageAliases int
	seenImage := make(map[string]bool)
	for _, in := range instrs {
		if in.keyword != "FROM" {
			continue
		}
		img, alias := parseFrom(in.args)
		if img != "" {
			stages++
			if !seenImage[img] {
				seenImage[img] = true
				res.BaseImages = append(res.BaseImages, img)
			}
		}
		if alias {
			stageAliases++
		}
	}
	res.MultiStage = stages > 1
	if res.MultiStage {
		res.Score += 15
	}
	if stageAliases > 0 {
		res.Score += 5
	}

	// Copy instructions: plain copies from artifact directories block the
	// pipeline; aliased (--from=) copies are the healthy multi-stage shape.
	var copiesArtifacts, aliasedCopies bool
	for _, in := range instrs {
		if in.keyword != "COPY" {
			continue
		}
		flags, args := splitFlags(in.args)
		if hasFromFlag(flags) {
			aliasedCopies = true
			continue
		}
		for _, src := range copySources(args) {
			if dir, ok := a.Catalog.HasArtifactDir(src); ok {
				res.Flags = append(res.Flags, ir.Flag{
					Severity: ir.SeverityRed,
					Message:  fmt.Sprintf("copies pre-built artifacts from %s/, not buildable from a fresh clone", dir),
					Path:     path,
				})
				res.Score -= 30
				copiesArtifacts = true
				break
			}
		}
	}
	if aliasedCopies && !copiesArtifacts {
		res.Flags = append(res.Flags, ir.Flag{
			Severity: ir.SeverityGreen,
			Message:  "proper multi-stage build: copies from a builder stage",
			Path:     path,
		})
		res.Score += 5
	}

	// Dependency install step.
	var runText strings.Builder
	for _, in := range instrs {
		if in.keyword == "RUN" {
			runText.WriteString(in.args)
			runText.WriteByte('\n')
		}
	}
	installer, hasInstaller := a.Catalog.HasInstaller(runText.String())
	if hasInstaller {
		res.Flags = append(res.Flags, ir.Flag{
			Severity: ir.SeverityGreen,
			Message:  "installs dependencies (" + installer + ")",
			Path:     path,
		})
		res.Score += 10
	}

	// Exposed ports.
	for _, in := range instrs {
		if in.keyword != "EXPOSE" {
			continue
		}
		for _, p := range strings.Fields(in.args) {
			if i := strings.IndexByte(p, '/'); i != -1 {
				p = p[:i]
			}
			if p != "" {
				res.ExposePorts = append(res.ExposePorts, p)
			}
		}
	}
	if len(res.ExposePorts) > 0 {
		res.Flags = append(res.Flags, ir.Flag{
			Severity: ir.SeverityGreen,
			Message:  "declares exposed ports: " + strings.Join(res.ExposePorts, ", "),
			Path:     path,
		})
		res.Score += 5
	}

	// Process entry.
	if hasAny(instrs, "CMD", "ENTRYPOINT") {
		res.Score += 5
	} else {
		res.Flags = append(res.Flags, ir.Flag{
			Severity: ir.SeverityYellow,
			Message:  "no CMD or ENTRYPOINT declared",
			Path:     path,
		})
		res.Score -= 5
	}

	// Fixable-but-not-blocking patterns. Flags only, no score change.
	res.Flags = append(res.Flags, a.fixableFlags(path, content, runText.String())...)

	// Unknown base registries.
	for _, img := range res.BaseImages {
		if !a.Catalog.AllowedBaseImage(img) {
			res.Flags = append(res.Flags, ir.Flag{
				Severity: ir.SeverityYellow,
				Message:  "base image " + img + " is not on the public-registry allowlist",
				Path:     path,
			})
			res.Score -= 5
		}
	}

	res.EdgeCases = edgecase.DetectDockerfile(content)
	res.SelfContained = !copiesArtifacts && (hasInstaller || res.MultiStage)
	res.Score = clamp(res.Score, 0, 100)
	return res
}

// fixableFlags detects known-fixable build patterns the pipeline would
// trip over. Each yields a yellow flag only.
func (a *Analyzer) fixableFlags(path, content, runText string) []ir.Flag {
	var out []ir.Flag
	yellow := func(msg string) {
		out = append(out, ir.Flag{Severity: ir.SeverityYellow, Message: msg, Path: path})
	}

	lowerRun := strings.ToLower(runText)
	if strings.Contains(lowerRun, "poetry install") && !strings.Contains(lowerRun, "--no-root") {
		yellow("poetry install without --no-root")
	}
	if containsAnyFold(content, "$TARGETARCH", "$TARGETPLATFORM", "$BUILDPLATFORM",
		"${TARGETARCH", "${TARGETPLATFORM", "${BUILDPLATFORM") {
		yellow("uses BuildKit platform build args (TARGETARCH/BUILDPLATFORM), empty outside BuildKit")
	}
	if strings.Contains(lowerRun, "go build") && !strings.Contains(lowerRun, "-buildvcs=false") {
		yellow("go build without -buildvcs=false (fails without a .git directory)")
	}
	if (strings.Contains(lowerRun, "npm install") || strings.Contains(lowerRun, "npm ci")) &&
		!strings.Contains(content, "npm_config_cache") {
		yellow("npm install without a cache redirect (ENV npm_config_cache=/tmp/.npm)")
	}
	return out
}

func containsAnyFold(s string, subs ...string) bool {
	upper := strings.ToUpper(s)
	for _, sub := range subs {
		if strings.Contains(upper, strings.ToUpper(sub)) {
			return true
		}
	}
	return false
}

// scan splits Dockerfile text into instructions, joining backslash
// continuations and skipping comments and blank lines.
func scan(content string) []instruction {
	var instrs []instruction
	var buf strings.Builder
	flush := func() {
		text := strings.TrimSpace(buf.String())
		buf.Reset()
		if text == "" {
			return
		}
		kw := text
		rest := ""
		if i := strings.IndexAny(text, " \t"); i != -1 {
			kw, rest = text[:i], strings.TrimSpace(text[i+1:])
		}
		kw = strings.ToUpper(kw)
		if !isKeyword(kw) {
			return
		}
		instrs = append(instrs, instruction{keyword: kw, args: rest})
	}

	continued := false
	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimRight(raw, "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if continued {
			buf.WriteByte(' ')
		} else {
			flush()
		}
		if strings.HasSuffix(trimmed, "\\") {
			buf.WriteString(strings.TrimSuffix(trimmed, "\\"))
			continued = true
		} else {
			buf.WriteString(trimmed)
			continued = false
		}
	}
	flush()
	return instrs
}

func isKeyword(kw string) bool {
	switch kw {
	case "FROM", "RUN", "COPY", "ADD", "EXPOSE", "CMD", "ENTRYPOINT",
		"ARG", "ENV", "WORKDIR", "USER", "LABEL", "VOLUME", "HEALTHCHECK",
		"SHELL", "STOPSIGNAL", "ONBUILD", "MAINTAINER":
		return true
	}
	return false
}

// parseFrom extracts the image reference of a stage declaration, skipping
// --platform flags and stopping at the AS alias keyword.
func parseFrom(args string) (image string, hasAlias bool) {
	fields := strings.Fields(args)
	for i, f := range fields {
		if strings.HasPrefix(f, "--") {
			continue
		}
		if image == "" {
			image = f
			continue
		}
		if strings.EqualFold(f, "AS") && i+1 < len(fields) {
			hasAlias = true
			break
		}
	}
	return image, hasAlias
}

// splitFlags separates leading --flag tokens from positional args.
func splitFlags(args string) (flags, rest []string) {
	fields := strings.Fields(args)
	for i, f := range fields {
		if strings.HasPrefix(f, "--") {
			flags = append(flags, f)
			continue
		}
		rest = fields[i:]
		break
	}
	return flags, rest
}

func hasFromFlag(flags []string) bool {
	for _, f := range flags {
		if strings.HasPrefix(strings.ToLower(f), "--from=") {
			return true
		}
	}
	return false
}

// copySources returns all but the final (destination) argument.
func copySources(args []string) []string {
	if len(args) < 2 {
		return nil
	}
	return args[:len(args)-1]
}

func hasAny(instrs []instruction, keywords ...string) bool {
	for _, in := range instrs {
		for _, kw := range keywords {
			if in.keyword == kw {
				return true
			}
		}
	}
	return false
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
