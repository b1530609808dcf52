package edgecase

import (
	"strings"
	"testing"

	"github.com/codewithboateng/dockscout/internal/ir"
)

func TestDetectDockerfile_ArgBeforeFrom(t *testing.T) {
	content := "ARG BASE=node:20\nFROM ${BASE}\n"
	ids := idsOf(t, DetectDockerfile(content))
	if !ids[BuildArgBaseImage] {
		t.Fatalf("expected %s, got %v", BuildArgBaseImage, ids)
	}

	// ARG after FROM is stage-scoped, not a parameterised base.
	content = "FROM node:20\nARG VERSION=1\n"
	ids = idsOf(t, DetectDockerfile(content))
	if ids[BuildArgBaseImage] {
		t.Fatalf("ARG after FROM must not match")
	}
}

func TestDetectDockerfile_MountTypesCollapse(t *testing.T) {
	content := `FROM golang:1.23
RUN --mount=type=cache,target=/root/.cache go build ./...
RUN --mount=type=secret,id=npmrc cat /run/secrets/npmrc
RUN --mount=type=cache,target=/go/pkg go vet ./...
`
	ecs := DetectDockerfile(content)
	var mounts int
	for _, ec := range ecs {
		if ec.ID == BuildKitMounts {
			mounts++
			// types sorted, repeats collapsed
			if !strings.Contains(ec.Description, "cache,secret") {
				t.Fatalf("description = %q, want sorted type list", ec.Description)
			}
		}
	}
	if mounts != 1 {
		t.Fatalf("buildkit-mounts entries = %d, want exactly 1", mounts)
	}
}

func TestDetectDockerfile_AddAndCopyFlags(t *testing.T) {
	content := `FROM alpine
ADD https://example.com/tool.tar.gz /opt/
COPY --link --chmod=755 bin/run /usr/local/bin/run
HEALTHCHECK CMD wget -q localhost:8080/health
`
	ids := idsOf(t, DetectDockerfile(content))
	for _, want := range []string{AddRemoteURL, CopyFlags, Healthcheck} {
		if !ids[want] {
			t.Fatalf("missing %s in %v", want, ids)
		}
	}
}

func TestDetectCompose(t *testing.T) {
	content := `services:
  app:
    build:
      context: .
      target: runtime
      args:
        VERSION: "1"
    env_file: .env
    profiles:
      - dev
    healthcheck:
      test: ["CMD", "true"]
    deploy:
      resources:
        limits:
          memory: 512M
`
	ids := idsOf(t, DetectCompose(content))
	for _, want := range []string{
		ComposeBuildArgs, ComposeBuildTarget, ComposeEnvFile,
		ComposeProfiles, ComposeHealthcheck, ComposeDeployRes,
	} {
		if !ids[want] {
			t.Fatalf("missing %s in %v", want, ids)
		}
	}
	if ids[ComposeExtends] || ids[ComposeInclude] {
		t.Fatalf("unexpected matches in %v", ids)
	}
}

func TestDetectCompose_DeployNeedsResources(t *testing.T) {
	content := "services:\n  app:\n    deploy:\n      replicas: 2\n"
	ids := idsOf(t, DetectCompose(content))
	if ids[ComposeDeployRes] {
		t.Fatalf("deploy without resources must not match")
	}
}

func TestCatalogEntriesComplete(t *testing.T) {
	for _, ec := range List() {
		if ec.ID == "" || ec.Description == "" || ec.FixHint == "" {
			t.Fatalf("incomplete catalog entry: %+v", ec)
		}
		if got, ok := Get(ec.ID); !ok || got.ID != ec.ID {
			t.Fatalf("Get(%s) mismatch", ec.ID)
		}
	}
	if _, ok := Get("no-such-id"); ok {
		t.Fatalf("unknown id must not resolve")
	}
}

func idsOf(t *testing.T, ecs []ir.EdgeCase) map[string]bool {
	t.Helper()
	ids := make(map[string]bool, len(ecs))
	for _, ec := range ecs {
		if ids[ec.ID] {
			t.Fatalf("duplicate edge case id %s", ec.ID)
		}
		ids[ec.ID] = true
	}
	return ids
}
