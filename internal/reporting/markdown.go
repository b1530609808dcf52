package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/codewithboateng/dockscout/internal/ir"
)

var severityMarker = map[string]string{
	ir.SeverityGreen:  "✅",
	ir.SeverityYellow: "⚠️",
	ir.SeverityRed:    "❌",
}

// bucketOrder fixes the report section order.
var bucketOrder = []string{ir.TierRecommended, ir.TierStretch, ir.TierMaybe, "skip"}

var bucketTitle = map[string]string{
	ir.TierRecommended: "Recommended",
	ir.TierStretch:     "Stretch",
	ir.TierMaybe:       "Maybe",
	"skip":             "Skipped",
}

// WriteMarkdown renders a run as a flat markdown report grouped into the
// four tier buckets. Verdicts within a bucket are ordered by score
// descending, then repo name.
func WriteMarkdown(runID, outDir string, run *ir.Run) (string, error) {
	path := filepath.Join(outDir, runID+".md")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	buckets := map[string][]ir.CandidateVerdict{}
	for _, v := range run.Verdicts {
		b := ir.Bucket(v.Tier)
		buckets[b] = append(buckets[b], v)
	}
	for _, vs := range buckets {
		sort.Slice(vs, func(i, j int) bool {
			if vs[i].Score != vs[j].Score {
				return vs[i].Score > vs[j].Score
			}
			return vs[i].Repo < vs[j].Repo
		})
	}

	fmt.Fprintf(f, "# dockscout triage — %s\n\n", runID)
	fmt.Fprintf(f, "Source: %s  \nCatalog: %s  \nRepositories: %d\n\n",
		orDash(run.Source), orDash(run.CatalogVersion), len(run.Verdicts))

	fmt.Fprintln(f, "| Bucket | Repos |")
	fmt.Fprintln(f, "|--------|-------|")
	for _, b := range bucketOrder {
		fmt.Fprintf(f, "| %s | %d |\n", bucketTitle[b], len(buckets[b]))
	}
	fmt.Fprintln(f)

	for _, b := range bucketOrder {
		vs := buckets[b]
		if len(vs) == 0 {
			continue
		}
		fmt.Fprintf(f, "## %s (%d)\n\n", bucketTitle[b], len(vs))
		for _, v := range vs {
			writeVerdict(f, v)
		}
	}
	return path, nil
}

func writeVerdict(f *os.File, v ir.CandidateVerdict) {
	fmt.Fprintf(f, "### %s — score %d, %s\n\n", v.Repo, v.Score, v.Tier)
	if v.Actionable {
		fmt.Fprintln(f, "_Actionable: only fixable issues, nothing blocking._")
		fmt.Fprintln(f)
	}
	for _, fl := range v.Flags {
		marker := severityMarker[fl.Severity]
		if fl.Path != "" {
			fmt.Fprintf(f, "- %s [%s] %s\n", marker, fl.Path, fl.Message)
		} else {
			fmt.Fprintf(f, "- %s %s\n", marker, fl.Message)
		}
	}
	if len(v.Flags) > 0 {
		fmt.Fprintln(f)
	}
	if len(v.EdgeCases) > 0 {
		fmt.Fprintln(f, "| Pipeline gap | Description | Fix hint |")
		fmt.Fprintln(f, "|--------------|-------------|----------|")
		for _, ec := range v.EdgeCases {
			fmt.Fprintf(f, "| `%s` | %s | %s |\n",
				ec.ID, escapePipes(ec.Description), escapePipes(ec.FixHint))
		}
		fmt.Fprintln(f)
	}
}

func escapePipes(s string) string { return strings.ReplaceAll(s, "|", "\\|") }

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
