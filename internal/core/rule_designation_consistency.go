package core

import (
	"context"
	"fmt"
	"strings"

	"eicrcore/pkg/domain"
)

// NewDesignationConsistencyRule blocks records whose designation is not
// "C" followed by the circuit number.
func NewDesignationConsistencyRule() domain.Rule {
	return designationConsistencyRule{}
}

type designationConsistencyRule struct{}

func (designationConsistencyRule) Name() string { return "designation_consistency" }

func (r designationConsistencyRule) Evaluate(_ context.Context, view domain.RuleView) (domain.Result, error) {
	res := domain.Result{}
	for _, rec := range view.ListTestResults() {
		want := domain.Designation(strings.TrimSpace(rec.CircuitNumber))
		if rec.CircuitDesignation == want {
			continue
		}
		res.Violations = append(res.Violations, violation(r.Name(), domain.SeverityBlock, rec,
			fmt.Sprintf("circuit %q is designated %q, expected %q", rec.CircuitNumber, rec.CircuitDesignation, want)))
	}
	return res, nil
}
