package gitsource

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/codewithboateng/dockscout/internal/compose"
	"github.com/codewithboateng/dockscout/internal/heuristics"
	"github.com/codewithboateng/dockscout/internal/ir"
)

// Loader produces classifier inputs. Implemented here over the GitHub
// API and by localsource over a directory of checked-out repositories.
type Loader interface {
	LoadAll(ctx context.Context) ([]ir.RepoInput, error)
}

// RepoLoader assembles RepoInputs for a fixed list of owner/name repos.
type RepoLoader struct {
	Client  *Client
	Catalog heuristics.Catalog
	Repos   []string // "owner/name"
}

func (l *RepoLoader) LoadAll(ctx context.Context) ([]ir.RepoInput, error) {
	inputs := make([]ir.RepoInput, 0, len(l.Repos))
	for _, full := range l.Repos {
		in, err := l.Load(ctx, full)
		if err != nil {
			// One unfetchable repo should not sink the whole run.
			slog.Warn("skipping repo", "repo", full, "err", err)
			continue
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

// Load builds the classifier input for one repository: root listing,
// the first recognized compose file carrying a build directive, and the
// contents of every discovered Dockerfile outside excluded directories.
func (l *RepoLoader) Load(ctx context.Context, fullName string) (ir.RepoInput, error) {
	owner, repo, ok := strings.Cut(fullName, "/")
	if !ok {
		return ir.RepoInput{}, fmt.Errorf("repo %q: want owner/name", fullName)
	}

	paths, err := l.Client.Tree(ctx, owner, repo)
	if err != nil {
		return ir.RepoInput{}, fmt.Errorf("list tree: %w", err)
	}

	in := ir.RepoInput{Repo: fullName}
	for _, p := range paths {
		if !strings.Contains(p, "/") {
			in.RootFiles = append(in.RootFiles, p)
		}
	}

	// First recognized compose file that actually carries a build
	// directive wins: image-only compose files do not count, and an
	// image-only docker-compose.yml must not shadow a compose.yaml
	// that builds.
	for _, name := range l.Catalog.ComposeFileNames {
		if !containsString(in.RootFiles, name) {
			continue
		}
		content, err := l.Client.FileContent(ctx, owner, repo, name)
		if err != nil {
			continue
		}
		if compose.HasBuildDirective(content) {
			in.Compose = &ir.NamedFile{Path: name, Content: content}
			break
		}
	}

	for _, p := range paths {
		if !isDockerfilePath(p) || l.Catalog.ExcludedPath(p) {
			continue
		}
		content, err := l.Client.FileContent(ctx, owner, repo, p)
		if err != nil {
			slog.Warn("dockerfile fetch failed", "repo", fullName, "path", p, "err", err)
			content = "" // stays discovered-but-not-analyzable
		}
		in.Dockerfiles = append(in.Dockerfiles, ir.NamedFile{Path: p, Content: content})
	}
	return in, nil
}

// isDockerfilePath recognizes Dockerfile, Dockerfile.<suffix> and
// <name>.Dockerfile at any depth.
func isDockerfilePath(p string) bool {
	base := path.Base(p)
	return base == "Dockerfile" ||
		strings.HasPrefix(base, "Dockerfile.") ||
		strings.HasSuffix(base, ".Dockerfile")
}

func containsString(ss []string, want string) bool {
	for _, s := range ss {
		if s == want {
			return true
		}
	}
	return false
}
