// Package insight defines the content-generation collaborators the
// scheduler core depends on. The real generators (journal AI suggestions,
// business-insight text) live elsewhere; this package carries their
// contracts plus a small template-backed default so the system runs
// end-to-end without them.
package insight

import "context"

// ReviewAnalyzer produces the retrospective analysis for one self-review
// period. It is long-running and asynchronous relative to the scheduler
// tick; implementations write results back to the period row themselves.
type ReviewAnalyzer interface {
	GenerateReviewAnalysis(ctx context.Context, periodID string) error
}

// Generators are the independent maintenance-time analysis calls. Each one
// succeeds or fails on its own; the maintenance executor tolerates partial
// failure.
type Generators interface {
	EcosystemInsight(ctx context.Context) error
	DreamStatePredictions(ctx context.Context) error
	CreativeIntelligence(ctx context.Context) error
}

// Analysis kind selectors stored in maintenance task metadata.
const (
	KindEcosystem  = "ecosystem"
	KindDreamState = "dreamstate"
	KindCreative   = "creative"
)

// AllKinds is the default maintenance analysis selection.
func AllKinds() []string {
	return []string{KindEcosystem, KindDreamState, KindCreative}
}
