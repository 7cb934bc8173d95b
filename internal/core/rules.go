package core

import (
	"strconv"
	"strings"

	"eicrcore/pkg/domain"
)

// NewRulesEngine constructs an empty engine.
func NewRulesEngine() *RulesEngine {
	return domain.NewRulesEngine()
}

// NewDefaultRulesEngine builds a rules engine with the built-in compliance set.
func NewDefaultRulesEngine() *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(NewDesignationConsistencyRule())
	engine.Register(NewZsWithinLimitRule())
	engine.Register(NewInsulationMinimumRule())
	engine.Register(NewRCDTripTimeRule())
	engine.Register(NewRingContinuityBalanceRule())
	engine.Register(NewRCDRequiredRule())
	return engine
}

// measurement is a parsed test reading. Qualifier is '>' or '<' when the
// instrument reported an out-of-range bound.
type measurement struct {
	value     float64
	qualifier byte
	infinite  bool
}

var unitReplacer = strings.NewReplacer(
	"mω", "", "mΩ", "", "MΩ", "", "Ω", "", "ω", "",
	"mohm", "", "ohms", "", "ohm", "", "ms", "", "ma", "", "ka", "", "v", "",
)

// parseMeasurement reads values such as "0.45", "1.2Ω", ">200", "<0.01" or
// "∞". Empty, "N/A" and "LIM" readings do not parse.
func parseMeasurement(raw string) (measurement, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case "", "n/a", "na", "lim", "-":
		return measurement{}, false
	case "∞", "inf", "infinity", "oc", "o/c":
		return measurement{infinite: true}, true
	}
	var m measurement
	if s[0] == '>' || s[0] == '<' {
		m.qualifier = s[0]
		s = strings.TrimSpace(s[1:])
	}
	s = strings.TrimSpace(unitReplacer.Replace(s))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return measurement{}, false
	}
	m.value = v
	return m, true
}

func violation(rule string, sev Severity, rec TestResult, msg string) Violation {
	return Violation{
		Rule:     rule,
		Severity: sev,
		Message:  msg,
		Entity:   domain.EntityTestResult,
		EntityID: rec.ID,
		Circuit:  rec.CircuitDesignation,
	}
}

func label(rec TestResult) string {
	if d := strings.TrimSpace(rec.CircuitDescription); d != "" {
		return rec.CircuitDesignation + " (" + d + ")"
	}
	return rec.CircuitDesignation
}
