package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"opsdash/internal/storage"
	logx "opsdash/pkg/logx"
)

// Templates is the built-in stand-in for the external generation services.
// Review analysis is synthesized from the period row itself; the
// maintenance generators only record that they ran. Swap in the real
// services by providing other ReviewAnalyzer/Generators implementations.
type Templates struct {
	store storage.Store
	log   logx.Logger
}

func NewTemplates(store storage.Store, log logx.Logger) *Templates {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Templates{store: store, log: log}
}

type templateAnalysis struct {
	Summary     string    `json:"summary"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
	Scope       []string  `json:"scope"`
	GeneratedAt time.Time `json:"generated_at"`
}

func (t *Templates) GenerateReviewAnalysis(ctx context.Context, periodID string) error {
	p, err := t.store.ReviewPeriodByID(ctx, periodID)
	if err != nil {
		return fmt.Errorf("insight: load period: %w", err)
	}

	scope := make([]string, 0, 4)
	if p.Scope.Journal {
		scope = append(scope, "journal")
	}
	if p.Scope.Intelligence {
		scope = append(scope, "intelligence")
	}
	if p.Scope.Reminders {
		scope = append(scope, "reminders")
	}
	if p.Scope.Registry {
		scope = append(scope, "registry")
	}

	a := templateAnalysis{
		Summary: fmt.Sprintf("Review of %s through %s across %d data sources.",
			p.StartDate.Format("Jan 2"), p.EndDate.Format("Jan 2, 2006"), len(scope)),
		PeriodStart: p.StartDate,
		PeriodEnd:   p.EndDate,
		Scope:       scope,
		GeneratedAt: time.Now(),
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("insight: encode analysis: %w", err)
	}
	if err := t.store.SetReviewAnalysis(ctx, periodID, raw); err != nil {
		return fmt.Errorf("insight: store analysis: %w", err)
	}
	t.log.Info("review analysis generated", logx.String("period_id", periodID))
	return nil
}

func (t *Templates) EcosystemInsight(ctx context.Context) error {
	t.log.Info("ecosystem insight generated", logx.String("kind", KindEcosystem))
	return nil
}

func (t *Templates) DreamStatePredictions(ctx context.Context) error {
	t.log.Info("dream-state predictions generated", logx.String("kind", KindDreamState))
	return nil
}

func (t *Templates) CreativeIntelligence(ctx context.Context) error {
	t.log.Info("creative intelligence generated", logx.String("kind", KindCreative))
	return nil
}
