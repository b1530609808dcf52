package reporting

import (
	"strings"

	"github.com/codewithboateng/dockscout/internal/ir"
	"github.com/codewithboateng/dockscout/internal/storage"
)

// ApplySuppressions drops suppressed edge cases from a run's verdicts
// before rendering. Suppression is presentation-only: stored verdicts and
// tiers are never rewritten. Returns the filtered copy and the number of
// edge cases removed.
func ApplySuppressions(run ir.Run, sups []storage.Suppression) (ir.Run, int) {
	if len(sups) == 0 {
		return run, 0
	}
	suppressed := 0
	out := run
	out.Verdicts = make([]ir.CandidateVerdict, len(run.Verdicts))
	for i, v := range run.Verdicts {
		kept := v.EdgeCases[:0:0]
	nextEdge:
		for _, ec := range v.EdgeCases {
			for _, s := range sups {
				if !strings.EqualFold(s.EdgeID, ec.ID) {
					continue
				}
				if s.Repo != "" && !strings.EqualFold(s.Repo, v.Repo) {
					continue
				}
				suppressed++
				continue nextEdge
			}
			kept = append(kept, ec)
		}
		v.EdgeCases = kept
		out.Verdicts[i] = v
	}
	return out, suppressed
}
