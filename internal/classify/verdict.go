package classify

import "github.com/codewithboateng/dockscout/internal/ir"

// tierFor applies the verdict rule table in order; first match wins.
// The monorepo / no-dockerfiles / not-analyzable rows are short-circuited
// before scoring, so only the score rows are evaluated here. The trailing
// score>=60 recommended row can never match (the first and third rows
// cover both edge-case outcomes) but is kept to mirror the written rule
// order.
func tierFor(v ir.CandidateVerdict) string {
	hasEdges := len(v.EdgeCases) > 0
	hasRed := false
	for _, f := range v.Flags {
		if f.Severity == ir.SeverityRed {
			hasRed = true
			break
		}
	}

	switch {
	case v.Score >= 60 && !hasEdges:
		return ir.TierRecommended
	case v.Score >= 40 && hasEdges && !hasRed:
		return ir.TierStretch
	case v.Score >= 60 && hasEdges:
		return ir.TierStretch
	case v.Score >= 60:
		return ir.TierRecommended
	case v.Score >= 40:
		return ir.TierMaybe
	default:
		return ir.TierSkipLowScore
	}
}
