package reporting

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/codewithboateng/dockscout/internal/ir"
)

type diffPayload struct {
	BaseID  string        `json:"base_id"`
	HeadID  string        `json:"head_id"`
	Summary diffSummary   `json:"summary"`
	New     []diffVerdict `json:"new"`
	Removed []diffVerdict `json:"removed"`
	Changed []diffChanged `json:"changed"`
}

type diffSummary struct {
	NewCount     int `json:"new"`
	RemovedCount int `json:"removed"`
	ChangedCount int `json:"changed"`
}

type diffVerdict struct {
	Repo      string   `json:"repo"`
	Score     int      `json:"score"`
	Tier      string   `json:"tier"`
	EdgeCases []string `json:"edge_cases,omitempty"`
}

type diffChanged struct {
	Repo    string      `json:"repo"`
	Base    diffVerdict `json:"base"`
	Head    diffVerdict `json:"head"`
	Changed []string    `json:"fields_changed"`
}

// WriteDiffJSON compares the verdicts of two runs repo by repo. A repo
// counts as changed when its tier, score, or edge-case set moved.
func WriteDiffJSON(baseID, headID, outDir string, base, head *ir.Run) (string, error) {
	path := filepath.Join(outDir, "diff_"+baseID+"__"+headID+".json")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}

	bm := map[string]ir.CandidateVerdict{}
	hm := map[string]ir.CandidateVerdict{}
	for _, v := range base.Verdicts {
		bm[v.Repo] = v
	}
	for _, v := range head.Verdicts {
		hm[v.Repo] = v
	}

	var added []diffVerdict
	var removed []diffVerdict
	var changed []diffChanged

	for repo, hv := range hm {
		bv, ok := bm[repo]
		if !ok {
			added = append(added, asDiff(hv))
			continue
		}
		var fields []string
		if bv.Tier != hv.Tier {
			fields = append(fields, "tier")
		}
		if bv.Score != hv.Score {
			fields = append(fields, "score")
		}
		if edgeKey(bv) != edgeKey(hv) {
			fields = append(fields, "edge_cases")
		}
		if len(fields) > 0 {
			changed = append(changed, diffChanged{
				Repo:    repo,
				Base:    asDiff(bv),
				Head:    asDiff(hv),
				Changed: fields,
			})
		}
	}
	for repo, bv := range bm {
		if _, ok := hm[repo]; !ok {
			removed = append(removed, asDiff(bv))
		}
	}

	// stable sort
	sort.Slice(added, func(i, j int) bool { return added[i].Repo < added[j].Repo })
	sort.Slice(removed, func(i, j int) bool { return removed[i].Repo < removed[j].Repo })
	sort.Slice(changed, func(i, j int) bool { return changed[i].Repo < changed[j].Repo })

	payload := diffPayload{
		BaseID: baseID, HeadID: headID,
		Summary: diffSummary{
			NewCount:     len(added),
			RemovedCount: len(removed),
			ChangedCount: len(changed),
		},
		New:     added,
		Removed: removed,
		Changed: changed,
	}
	b, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", err
	}
	return path, os.WriteFile(path, b, 0o644)
}

func asDiff(v ir.CandidateVerdict) diffVerdict {
	return diffVerdict{Repo: v.Repo, Score: v.Score, Tier: v.Tier, EdgeCases: edgeIDs(v)}
}

func edgeIDs(v ir.CandidateVerdict) []string {
	if len(v.EdgeCases) == 0 {
		return nil
	}
	ids := make([]string, 0, len(v.EdgeCases))
	for _, ec := range v.EdgeCases {
		ids = append(ids, ec.ID)
	}
	sort.Strings(ids)
	return ids
}

func edgeKey(v ir.CandidateVerdict) string {
	return strings.Join(edgeIDs(v), "|")
}
