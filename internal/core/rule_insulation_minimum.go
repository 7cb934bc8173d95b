package core

import (
	"context"
	"fmt"

	"eicrcore/pkg/domain"
)

// MinInsulationResistance is the lowest acceptable reading in megohms.
const MinInsulationResistance = 1.0

var insulationFields = []domain.Field{
	domain.FieldInsulationResistance,
	domain.FieldInsulationLiveNeutral,
	domain.FieldInsulationLiveEarth,
	domain.FieldInsulationNeutralEarth,
}

// NewInsulationMinimumRule warns on any insulation reading under 1 MΩ.
// Over-range readings such as ">200" or "∞" pass.
func NewInsulationMinimumRule() domain.Rule {
	return insulationMinimumRule{}
}

type insulationMinimumRule struct{}

func (insulationMinimumRule) Name() string { return "insulation_minimum" }

func (r insulationMinimumRule) Evaluate(_ context.Context, view domain.RuleView) (domain.Result, error) {
	res := domain.Result{}
	for _, rec := range view.ListTestResults() {
		for _, f := range insulationFields {
			raw := rec.Get(f)
			m, ok := parseMeasurement(raw)
			if !ok || m.infinite || m.qualifier == '>' {
				continue
			}
			if m.value < MinInsulationResistance {
				res.Violations = append(res.Violations, violation(r.Name(), domain.SeverityWarn, rec,
					fmt.Sprintf("%s %s reads %sMΩ, below %.1fMΩ", label(rec), f, raw, MinInsulationResistance)))
			}
		}
	}
	return res, nil
}
