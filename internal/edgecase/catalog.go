// Package edgecase catalogs build features the downstream workflow
// generator does not yet translate into deployment configuration. Each
// entry has a stable id; two matches with the same id are the same
// finding regardless of which file they came from.
package edgecase

import (
	"regexp"
	"sort"
	"strings"

	"github.com/codewithboateng/dockscout/internal/ir"
)

// Stable edge-case ids.
const (
	BuildArgBaseImage = "build-arg-base-image"
	Healthcheck       = "healthcheck"
	BuildKitMounts    = "buildkit-mounts"
	AddRemoteURL      = "add-remote-url"
	CopyFlags         = "copy-flags"

	ComposeBuildArgs   = "compose-build-args"
	ComposeBuildTarget = "compose-build-target"
	ComposeEnvFile     = "compose-env-file"
	ComposeProfiles    = "compose-profiles"
	ComposeExtends     = "compose-extends"
	ComposeHealthcheck = "compose-healthcheck"
	ComposeDeployRes   = "compose-deploy-resources"
	ComposeInclude     = "compose-include"
)

var defs = map[string]ir.EdgeCase{
	BuildArgBaseImage: {
		ID:          BuildArgBaseImage,
		Description: "build arg declared before the first FROM (parameterised base image)",
		FixHint:     "workflow generator: pass ARG values through to the Kaniko build via --build-arg",
	},
	Healthcheck: {
		ID:          Healthcheck,
		Description: "Dockerfile declares a HEALTHCHECK instruction",
		FixHint:     "manifest translation: map HEALTHCHECK onto a readiness probe",
	},
	BuildKitMounts: {
		ID:          BuildKitMounts,
		Description: "RUN uses BuildKit --mount", // type list appended at detect time
		FixHint:     "build protocol: Kaniko ignores BuildKit mounts; secret mounts need the secrets flow",
	},
	AddRemoteURL: {
		ID:          AddRemoteURL,
		Description: "ADD fetches from a remote URL",
		FixHint:     "build protocol: remote ADD sources must be reachable from the in-cluster builder",
	},
	CopyFlags: {
		ID:          CopyFlags,
		Description: "COPY uses --link or --chmod",
		FixHint:     "build protocol: Kaniko handles COPY --link/--chmod differently than BuildKit",
	},

	ComposeBuildArgs: {
		ID:          ComposeBuildArgs,
		Description: "compose build declares an args: block",
		FixHint:     "workflow generator: forward compose build args into the generated build step",
	},
	ComposeBuildTarget: {
		ID:          ComposeBuildTarget,
		Description: "compose build selects a target: stage",
		FixHint:     "workflow generator: emit the selected build stage in the generated build step",
	},
	ComposeEnvFile: {
		ID:          ComposeEnvFile,
		Description: "service references an external env_file",
		FixHint:     "workflow generator: env-file contents must be materialised into manifest env vars",
	},
	ComposeProfiles: {
		ID:          ComposeProfiles,
		Description: "compose file uses profiles: selectors",
		FixHint:     "workflow generator: decide which profiles are active before generating",
	},
	ComposeExtends: {
		ID:          ComposeExtends,
		Description: "service uses extends: inheritance",
		FixHint:     "workflow generator: flatten service inheritance before generating",
	},
	ComposeHealthcheck: {
		ID:          ComposeHealthcheck,
		Description: "compose-level healthcheck declared",
		FixHint:     "manifest translation: map compose healthchecks onto readiness probes",
	},
	ComposeDeployRes: {
		ID:          ComposeDeployRes,
		Description: "deploy: resource stanza declared",
		FixHint:     "manifest translation: carry resource requests/limits into the manifest",
	},
	ComposeInclude: {
		ID:          ComposeInclude,
		Description: "compose file pulls in other files via include:",
		FixHint:     "workflow generator: merge included compose files before generating",
	},
}

// Get returns the catalog entry for an id.
func Get(id string) (ir.EdgeCase, bool) {
	ec, ok := defs[id]
	return ec, ok
}

// List returns the full catalog in id order (used by the API inventory).
func List() []ir.EdgeCase {
	out := make([]ir.EdgeCase, 0, len(defs))
	for _, ec := range defs {
		out = append(out, ec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

var (
	reInstruction = regexp.MustCompile(`(?im)^\s*([A-Za-z]+)\b`)
	reHealthcheck = regexp.MustCompile(`(?im)^\s*HEALTHCHECK\b`)
	reMountType   = regexp.MustCompile(`(?i)--mount=type=(secret|cache|ssh)`)
	reAddURL      = regexp.MustCompile(`(?im)^\s*ADD\s+(?:--\S+\s+)*https?://`)
	reCopyFlag    = regexp.MustCompile(`(?im)^\s*COPY\s+(?:--\S+\s+)*--(?:link|chmod)`)

	reComposeArgs    = regexp.MustCompile(`(?im)^\s+args:`)
	reComposeTarget  = regexp.MustCompile(`(?im)^\s+target:\s*\S`)
	reComposeEnvFile = regexp.MustCompile(`(?im)^\s+env_file:`)
	reComposeProfile = regexp.MustCompile(`(?im)^\s+profiles:`)
	reComposeExtends = regexp.MustCompile(`(?im)^\s+extends:`)
	reComposeHealth  = regexp.MustCompile(`(?im)^\s+healthcheck:`)
	reComposeDeploy  = regexp.MustCompile(`(?im)^\s+deploy:`)
	reComposeRes     = regexp.MustCompile(`(?im)^\s+resources:`)
	reComposeInclude = regexp.MustCompile(`(?im)^include:`)
)

// DetectDockerfile scans raw Dockerfile text for catalog entries. It is
// best-effort: unmatched or malformed syntax contributes nothing.
func DetectDockerfile(content string) []ir.EdgeCase {
	var out []ir.EdgeCase

	if argBeforeFrom(content) {
		out = append(out, defs[BuildArgBaseImage])
	}
	if reHealthcheck.MatchString(content) {
		out = append(out, defs[Healthcheck])
	}
	if types := mountTypes(content); len(types) > 0 {
		ec := defs[BuildKitMounts]
		ec.Description = "RUN uses BuildKit --mount=type=" + strings.Join(types, ",")
		out = append(out, ec)
	}
	if reAddURL.MatchString(content) {
		out = append(out, defs[AddRemoteURL])
	}
	if reCopyFlag.MatchString(content) {
		out = append(out, defs[CopyFlags])
	}
	return out
}

// DetectCompose scans raw Compose text for catalog entries. Each pattern
// yields at most one entry no matter how often it recurs.
func DetectCompose(content string) []ir.EdgeCase {
	var out []ir.EdgeCase
	add := func(id string) { out = append(out, defs[id]) }

	if reComposeArgs.MatchString(content) {
		add(ComposeBuildArgs)
	}
	if reComposeTarget.MatchString(content) {
		add(ComposeBuildTarget)
	}
	if reComposeEnvFile.MatchString(content) {
		add(ComposeEnvFile)
	}
	if reComposeProfile.MatchString(content) {
		add(ComposeProfiles)
	}
	if reComposeExtends.MatchString(content) {
		add(ComposeExtends)
	}
	if reComposeHealth.MatchString(content) {
		add(ComposeHealthcheck)
	}
	if reComposeDeploy.MatchString(content) && reComposeRes.MatchString(content) {
		add(ComposeDeployRes)
	}
	if reComposeInclude.MatchString(content) {
		add(ComposeInclude)
	}
	return out
}

// argBeforeFrom reports whether an ARG instruction appears before the
// first FROM (a parameterised base image).
func argBeforeFrom(content string) bool {
	for _, m := range reInstruction.FindAllStringSubmatch(content, -1) {
		switch strings.ToUpper(m[1]) {
		case "ARG":
			return true
		case "FROM":
			return false
		}
	}
	return false
}

func mountTypes(content string) []string {
	seen := map[string]bool{}
	var types []string
	for _, m := range reMountType.FindAllStringSubmatch(content, -1) {
		t := strings.ToLower(m[1])
		if !seen[t] {
			seen[t] = true
			types = append(types, t)
		}
	}
	sort.Strings(types)
	return types
}
