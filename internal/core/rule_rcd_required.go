package core

import (
	"context"
	"fmt"
	"strings"

	"eicrcore/internal/builder"
	"eicrcore/pkg/domain"
)

// NewRCDRequiredRule warns when a circuit needing 30 mA additional
// protection has no RCD rating recorded.
func NewRCDRequiredRule() domain.Rule {
	return rcdRequiredRule{}
}

type rcdRequiredRule struct{}

func (rcdRequiredRule) Name() string { return "rcd_required" }

func (r rcdRequiredRule) Evaluate(_ context.Context, view domain.RuleView) (domain.Result, error) {
	res := domain.Result{}
	for _, rec := range view.ListTestResults() {
		if rec.IsBlank() || strings.TrimSpace(rec.RCDRating) != "" {
			continue
		}
		if builder.RequiresRCD(rec.CircuitDescription, rec.CircuitType, rec.ProtectiveDeviceType) {
			res.Violations = append(res.Violations, violation(r.Name(), domain.SeverityWarn, rec,
				fmt.Sprintf("%s requires %smA RCD protection but no RCD rating is recorded", label(rec), builder.DefaultRCDRating)))
		}
	}
	return res, nil
}
