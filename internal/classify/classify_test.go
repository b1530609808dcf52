package classify

import (
	"testing"

	"github.com/codewithboateng/dockscout/internal/heuristics"
	"github.com/codewithboateng/dockscout/internal/ir"
)

const goodDockerfile = `FROM node:20-alpine AS build
WORKDIR /app
COPY package.json package-lock.json ./
ENV npm_config_cache=/tmp/.npm
RUN npm ci
COPY . .
RUN npm run build

FROM nginx:1.27-alpine
COPY --from=build /app/dist /usr/share/nginx/html
EXPOSE 80
CMD ["nginx", "-g", "daemon off;"]
`

const artifactDockerfile = `FROM nginx:alpine
COPY build/ /usr/share/nginx/html
`

func TestEvaluate_MonorepoShortCircuit(t *testing.T) {
	v := New(heuristics.Default()).Evaluate(ir.RepoInput{
		Repo:      "acme/platform",
		RootFiles: []string{"package.json", "lerna.json", "turbo.json"},
		Dockerfiles: []ir.NamedFile{
			{Path: "Dockerfile", Content: goodDockerfile},
		},
	})
	if v.Tier != ir.TierSkipMonorepo {
		t.Fatalf("tier = %s, want %s", v.Tier, ir.TierSkipMonorepo)
	}
	if v.Score != 0 {
		t.Fatalf("score = %d, want 0", v.Score)
	}
	if len(v.Dockerfiles) != 0 {
		t.Fatalf("monorepo short-circuit must not analyze Dockerfiles")
	}
}

func TestEvaluate_NoDockerfiles(t *testing.T) {
	v := New(heuristics.Default()).Evaluate(ir.RepoInput{
		Repo:      "acme/lib",
		RootFiles: []string{"README.md", "setup.py"},
	})
	if v.Tier != ir.TierSkipNoDockerfiles || v.Score != 0 {
		t.Fatalf("verdict = (%s, %d), want (%s, 0)", v.Tier, v.Score, ir.TierSkipNoDockerfiles)
	}
}

func TestEvaluate_NoAnalyzableDockerfiles(t *testing.T) {
	c := New(heuristics.Default())

	// Fetch failures leave empty content; no FROM means not analyzable.
	v := c.Evaluate(ir.RepoInput{
		Repo:        "acme/broken",
		Dockerfiles: []ir.NamedFile{{Path: "Dockerfile", Content: ""}},
	})
	if v.Tier != ir.TierSkipNoAnalyzable || v.Score != 0 {
		t.Fatalf("verdict = (%s, %d), want (%s, 0)", v.Tier, v.Score, ir.TierSkipNoAnalyzable)
	}

	// A compose build directive keeps a residual score.
	v = c.Evaluate(ir.RepoInput{
		Repo:        "acme/compose-only",
		Compose:     &ir.NamedFile{Path: "docker-compose.yml", Content: "services:\n  app:\n    build: .\n"},
		Dockerfiles: []ir.NamedFile{{Path: "Dockerfile", Content: "# empty\n"}},
	})
	if v.Tier != ir.TierSkipNoAnalyzable || v.Score != 20 {
		t.Fatalf("verdict = (%s, %d), want (%s, 20)", v.Tier, v.Score, ir.TierSkipNoAnalyzable)
	}
}

func TestEvaluate_Recommended(t *testing.T) {
	v := New(heuristics.Default()).Evaluate(ir.RepoInput{
		Repo:        "acme/web",
		Dockerfiles: []ir.NamedFile{{Path: "Dockerfile", Content: goodDockerfile}},
	})
	if v.Tier != ir.TierRecommended {
		t.Fatalf("tier = %s, want %s (score=%d edges=%v)", v.Tier, ir.TierRecommended, v.Score, v.EdgeCases)
	}
	if v.Score != 95 {
		t.Fatalf("score = %d, want 95", v.Score)
	}
}

func TestEvaluate_ComposeAndMultiDockerfileBonuses(t *testing.T) {
	composeText := `services:
  web:
    build: ./web
  api:
    build: ./api
`
	v := New(heuristics.Default()).Evaluate(ir.RepoInput{
		Repo:    "acme/stack",
		Compose: &ir.NamedFile{Path: "docker-compose.yml", Content: composeText},
		Dockerfiles: []ir.NamedFile{
			{Path: "web/Dockerfile", Content: goodDockerfile},
			{Path: "api/Dockerfile", Content: goodDockerfile},
		},
	})
	// avg 95 +10 compose build +5 second Dockerfile, clamped to 100
	if v.Score != 100 {
		t.Fatalf("score = %d, want 100", v.Score)
	}
	if len(v.Services) != 2 {
		t.Fatalf("services = %d, want 2", len(v.Services))
	}
	if v.Tier != ir.TierRecommended {
		t.Fatalf("tier = %s, want %s", v.Tier, ir.TierRecommended)
	}
}

func TestEvaluate_NonSelfContainedPenalty(t *testing.T) {
	v := New(heuristics.Default()).Evaluate(ir.RepoInput{
		Repo:        "acme/prebuilt",
		Dockerfiles: []ir.NamedFile{{Path: "Dockerfile", Content: artifactDockerfile}},
	})
	// per-file 15, then -15 non-self-contained
	if v.Score != 0 {
		t.Fatalf("score = %d, want 0", v.Score)
	}
	if v.Tier != ir.TierSkipLowScore {
		t.Fatalf("tier = %s, want %s", v.Tier, ir.TierSkipLowScore)
	}
	if v.Actionable {
		t.Fatalf("red-flagged verdict must not be actionable")
	}
}

func TestEvaluate_EdgeCaseMakesStretch(t *testing.T) {
	content := `FROM python:3.12-slim
WORKDIR /app
COPY requirements.txt .
RUN pip install -r requirements.txt
COPY . .
EXPOSE 8000
HEALTHCHECK CMD curl -f http://localhost:8000/health || exit 1
CMD ["uvicorn", "app:app"]
`
	v := New(heuristics.Default()).Evaluate(ir.RepoInput{
		Repo:        "acme/api",
		Dockerfiles: []ir.NamedFile{{Path: "Dockerfile", Content: content}},
	})
	if v.Score < 60 {
		t.Fatalf("score = %d, want >= 60", v.Score)
	}
	if v.Tier != ir.TierStretch {
		t.Fatalf("tier = %s, want %s (edges=%v)", v.Tier, ir.TierStretch, v.EdgeCases)
	}
}

func TestEvaluate_EdgeCaseDedupAcrossFiles(t *testing.T) {
	withHealthcheck := `FROM alpine
RUN pip install flask
HEALTHCHECK CMD true
CMD ["app"]
`
	v := New(heuristics.Default()).Evaluate(ir.RepoInput{
		Repo: "acme/twins",
		Dockerfiles: []ir.NamedFile{
			{Path: "a/Dockerfile", Content: withHealthcheck},
			{Path: "b/Dockerfile", Content: withHealthcheck},
		},
	})
	count := 0
	for _, ec := range v.EdgeCases {
		if ec.ID == "healthcheck" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("healthcheck edge cases = %d, want 1 after dedup", count)
	}
}

func TestEvaluate_ActionableNeedsYellowWithoutRed(t *testing.T) {
	content := `FROM node:20
RUN npm ci
EXPOSE 3000
CMD ["node", "server.js"]
`
	// npm ci without a cache redirect is a yellow fixable.
	v := New(heuristics.Default()).Evaluate(ir.RepoInput{
		Repo:        "acme/fixable",
		Dockerfiles: []ir.NamedFile{{Path: "Dockerfile", Content: content}},
	})
	if !v.Actionable {
		t.Fatalf("expected actionable verdict, flags=%v", v.Flags)
	}
}

func TestTierTable(t *testing.T) {
	edge := []ir.EdgeCase{{ID: "healthcheck"}}
	red := []ir.Flag{{Severity: ir.SeverityRed}}

	cases := []struct {
		name string
		v    ir.CandidateVerdict
		want string
	}{
		{"high no edges", ir.CandidateVerdict{Score: 80}, ir.TierRecommended},
		{"mid with edges", ir.CandidateVerdict{Score: 45, EdgeCases: edge}, ir.TierStretch},
		{"high with edges", ir.CandidateVerdict{Score: 85, EdgeCases: edge}, ir.TierStretch},
		{"high with edges and red", ir.CandidateVerdict{Score: 85, EdgeCases: edge, Flags: red}, ir.TierStretch},
		{"mid with edges and red", ir.CandidateVerdict{Score: 45, EdgeCases: edge, Flags: red}, ir.TierMaybe},
		{"mid plain", ir.CandidateVerdict{Score: 50}, ir.TierMaybe},
		{"boundary 60", ir.CandidateVerdict{Score: 60}, ir.TierRecommended},
		{"boundary 40", ir.CandidateVerdict{Score: 40}, ir.TierMaybe},
		{"boundary 39", ir.CandidateVerdict{Score: 39}, ir.TierSkipLowScore},
		{"zero", ir.CandidateVerdict{Score: 0}, ir.TierSkipLowScore},
	}
	for _, c := range cases {
		if got := tierFor(c.v); got != c.want {
			t.Fatalf("%s: tier = %s, want %s", c.name, got, c.want)
		}
	}
}
