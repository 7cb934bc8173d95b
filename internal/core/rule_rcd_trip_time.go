package core

import (
	"context"
	"fmt"

	"eicrcore/pkg/domain"
)

// MaxRCDTripMillis is the longest acceptable 1×IΔn disconnection time.
const MaxRCDTripMillis = 300.0

// NewRCDTripTimeRule blocks RCD tests slower than 300 ms at rated current.
func NewRCDTripTimeRule() domain.Rule {
	return rcdTripTimeRule{}
}

type rcdTripTimeRule struct{}

func (rcdTripTimeRule) Name() string { return "rcd_trip_time" }

func (r rcdTripTimeRule) Evaluate(_ context.Context, view domain.RuleView) (domain.Result, error) {
	res := domain.Result{}
	for _, rec := range view.ListTestResults() {
		m, ok := parseMeasurement(rec.RCDOneX)
		if !ok || m.qualifier == '<' {
			continue
		}
		if m.infinite || m.value > MaxRCDTripMillis || (m.qualifier == '>' && m.value >= MaxRCDTripMillis) {
			res.Violations = append(res.Violations, violation(r.Name(), domain.SeverityBlock, rec,
				fmt.Sprintf("%s RCD tripped in %sms, limit %.0fms", label(rec), rec.RCDOneX, MaxRCDTripMillis)))
		}
	}
	return res, nil
}
