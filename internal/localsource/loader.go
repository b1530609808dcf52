// Package localsource builds classifier inputs from repositories already
// checked out on disk. Each immediate subdirectory of Root is treated as
// one candidate repository.
package localsource

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/codewithboateng/dockscout/internal/compose"
	"github.com/codewithboateng/dockscout/internal/heuristics"
	"github.com/codewithboateng/dockscout/internal/ir"
)

type Loader struct {
	Root    string
	Catalog heuristics.Catalog
}

func (l *Loader) LoadAll(ctx context.Context) ([]ir.RepoInput, error) {
	entries, err := os.ReadDir(l.Root)
	if err != nil {
		return nil, fmt.Errorf("read source root: %w", err)
	}
	var inputs []ir.RepoInput
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		in, err := l.Load(filepath.Join(l.Root, e.Name()), e.Name())
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

// Load builds the input for one checked-out repository.
func (l *Loader) Load(dir, name string) (ir.RepoInput, error) {
	in := ir.RepoInput{Repo: name}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return ir.RepoInput{}, fmt.Errorf("read repo dir: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			in.RootFiles = append(in.RootFiles, e.Name())
		}
	}

	for _, cname := range l.Catalog.ComposeFileNames {
		b, err := os.ReadFile(filepath.Join(dir, cname))
		if err != nil {
			continue
		}
		if compose.HasBuildDirective(string(b)) {
			in.Compose = &ir.NamedFile{Path: cname, Content: string(b)}
			break
		}
	}

	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		rel, rerr := filepath.Rel(dir, p)
		if rerr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if !isDockerfileName(d.Name()) || l.Catalog.ExcludedPath(rel) {
			return nil
		}
		b, rerr := os.ReadFile(p)
		if rerr != nil {
			return nil
		}
		in.Dockerfiles = append(in.Dockerfiles, ir.NamedFile{Path: rel, Content: string(b)})
		return nil
	})
	if err != nil {
		return ir.RepoInput{}, err
	}
	return in, nil
}

func isDockerfileName(base string) bool {
	return base == "Dockerfile" ||
		strings.HasPrefix(base, "Dockerfile.") ||
		strings.HasSuffix(base, ".Dockerfile")
}
