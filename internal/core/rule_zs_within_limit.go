package core

import (
	"context"
	"fmt"

	"eicrcore/pkg/domain"
)

// NewZsWithinLimitRule blocks circuits whose measured earth fault loop
// impedance exceeds the tabulated maximum.
func NewZsWithinLimitRule() domain.Rule {
	return zsWithinLimitRule{}
}

type zsWithinLimitRule struct{}

func (zsWithinLimitRule) Name() string { return "zs_within_limit" }

func (r zsWithinLimitRule) Evaluate(_ context.Context, view domain.RuleView) (domain.Result, error) {
	res := domain.Result{}
	for _, rec := range view.ListTestResults() {
		zs, ok := parseMeasurement(rec.Zs)
		if !ok || zs.infinite || zs.qualifier == '<' {
			continue
		}
		limit, ok := parseMeasurement(rec.MaxZs)
		if !ok || limit.infinite {
			continue
		}
		if zs.value > limit.value || (zs.qualifier == '>' && zs.value >= limit.value) {
			res.Violations = append(res.Violations, violation(r.Name(), domain.SeverityBlock, rec,
				fmt.Sprintf("%s measured Zs %sΩ exceeds maximum %sΩ", label(rec), rec.Zs, rec.MaxZs)))
		}
	}
	return res, nil
}
