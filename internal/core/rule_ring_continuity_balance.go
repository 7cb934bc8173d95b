package core

import (
	"context"
	"fmt"
	"math"

	"eicrcore/internal/builder"
	"eicrcore/pkg/domain"
)

// MaxRingImbalance is the allowed difference in ohms between the live and
// neutral end-to-end ring readings.
const MaxRingImbalance = 0.05

// NewRingContinuityBalanceRule warns when a ring final circuit's live and
// neutral end-to-end resistances differ by more than 0.05 Ω.
func NewRingContinuityBalanceRule() domain.Rule {
	return ringContinuityBalanceRule{}
}

type ringContinuityBalanceRule struct{}

func (ringContinuityBalanceRule) Name() string { return "ring_continuity_balance" }

func (r ringContinuityBalanceRule) Evaluate(_ context.Context, view domain.RuleView) (domain.Result, error) {
	res := domain.Result{}
	for _, rec := range view.ListTestResults() {
		if !builder.IsRing(rec.CircuitDescription, rec.CircuitType) {
			continue
		}
		r1, ok1 := parseMeasurement(firstNonEmpty(rec.RingR1, rec.RingContinuityLive))
		rn, ok2 := parseMeasurement(firstNonEmpty(rec.RingRn, rec.RingContinuityNeutral))
		if !ok1 || !ok2 || r1.infinite || rn.infinite {
			continue
		}
		// Rounded to the instrument's 0.01 Ω resolution before comparing.
		diff := math.Round(math.Abs(r1.value-rn.value)*100) / 100
		if diff > MaxRingImbalance {
			res.Violations = append(res.Violations, violation(r.Name(), domain.SeverityWarn, rec,
				fmt.Sprintf("%s ring r1 %.2fΩ and rn %.2fΩ differ by %.2fΩ", label(rec), r1.value, rn.value, diff)))
		}
	}
	return res, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
