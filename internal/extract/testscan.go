package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"eicrcore/internal/builder"
	"eicrcore/pkg/domain"
)

// DefaultTestVoltage is the insulation test voltage assumed when a reading
// does not state one. Voltages are stored as bare numbers.
const DefaultTestVoltage = "500"

// TestScan is the payload of a schedule-of-test-results photo scan.
type TestScan struct {
	Circuits          []TestScanCircuit `json:"circuits"`
	Warnings          []string          `json:"warnings"`
	Suggestions       []string          `json:"suggestions"`
	OverallConfidence Text              `json:"overall_confidence"`
	LayoutDetected    Text              `json:"layout_detected"`
}

// TestScanCircuit holds one row of readings.
type TestScanCircuit struct {
	CircuitNumber        Text     `json:"circuit_number"`
	Description          Text     `json:"description"`
	Confidence           Text     `json:"confidence"`
	R1R2                 Reading  `json:"r1_r2"`
	R2                   Reading  `json:"r2"`
	RingContinuity       RingTest `json:"ring_continuity"`
	InsulationResistance Reading  `json:"insulation_resistance"`
	Polarity             Reading  `json:"polarity"`
	Zs                   Reading  `json:"zs"`
	PFC                  Reading  `json:"pfc"`
	RCDTripTime          Reading  `json:"rcd_trip_time"`
	RCDTestButton        Reading  `json:"rcd_test_button"`
	AFDDTest             Reading  `json:"afdd_test"`
}

// Reading is a nested test value. A bare scalar decodes into Value.
type Reading struct {
	Value        Text `json:"value"`
	MaxZs        Text `json:"max_zs"`
	TestVoltage  Text `json:"test_voltage"`
	LiveNeutral  Text `json:"live_neutral"`
	LiveEarth    Text `json:"live_earth"`
	NeutralEarth Text `json:"neutral_earth"`
}

// UnmarshalJSON accepts either the object form or a bare scalar.
func (r *Reading) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		type plain Reading
		var p plain
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		*r = Reading(p)
		return nil
	}
	*r = Reading{}
	return json.Unmarshal(data, &r.Value)
}

func (r Reading) insulationPresent() bool {
	return r.Value != "" || r.LiveNeutral != "" || r.LiveEarth != "" || r.NeutralEarth != ""
}

// RingTest holds the ring final end-to-end and cross-connected readings.
type RingTest struct {
	Live    Text `json:"live"`
	Neutral Text `json:"neutral"`
	R1      Text `json:"r1"`
	Rn      Text `json:"rn"`
	R2      Text `json:"r2"`
}

// ParseTestScan decodes a test-scan payload.
func ParseTestScan(data []byte) (TestScan, error) {
	var scan TestScan
	if err := json.Unmarshal(data, &scan); err != nil {
		return TestScan{}, fmt.Errorf("%w: test scan: %w", ErrMalformed, err)
	}
	return scan, nil
}

// Values flattens the nested readings into record fields. Empty readings are
// omitted.
func (c TestScanCircuit) Values() map[domain.Field]string {
	out := make(map[domain.Field]string)
	put := func(f domain.Field, v Text) {
		if s := v.String(); s != "" {
			out[f] = s
		}
	}
	put(domain.FieldCircuitNumber, Text(strings.TrimPrefix(strings.TrimPrefix(c.CircuitNumber.String(), "C"), "c")))
	put(domain.FieldCircuitDescription, c.Description)
	put(domain.FieldR1R2, c.R1R2.Value)
	put(domain.FieldR2, c.R2.Value)
	put(domain.FieldRingContinuityLive, c.RingContinuity.Live)
	put(domain.FieldRingContinuityNeutral, c.RingContinuity.Neutral)
	put(domain.FieldRingR1, c.RingContinuity.R1)
	put(domain.FieldRingRn, c.RingContinuity.Rn)
	put(domain.FieldRingR2, c.RingContinuity.R2)
	put(domain.FieldInsulationResistance, c.InsulationResistance.Value)
	put(domain.FieldInsulationLiveNeutral, c.InsulationResistance.LiveNeutral)
	put(domain.FieldInsulationLiveEarth, c.InsulationResistance.LiveEarth)
	put(domain.FieldInsulationNeutralEarth, c.InsulationResistance.NeutralEarth)
	if c.InsulationResistance.insulationPresent() {
		voltage := NormaliseVoltage(c.InsulationResistance.TestVoltage.String())
		if voltage == "" {
			voltage = DefaultTestVoltage
		}
		out[domain.FieldInsulationTestVoltage] = voltage
	}
	put(domain.FieldPolarity, c.Polarity.Value)
	put(domain.FieldZs, c.Zs.Value)
	put(domain.FieldMaxZs, c.Zs.MaxZs)
	put(domain.FieldPFC, c.PFC.Value)
	put(domain.FieldPFCLiveNeutral, c.PFC.LiveNeutral)
	put(domain.FieldPFCLiveEarth, c.PFC.LiveEarth)
	put(domain.FieldRCDOneX, c.RCDTripTime.Value)
	put(domain.FieldRCDTestButton, c.RCDTestButton.Value)
	put(domain.FieldAFDDTest, c.AFDDTest.Value)
	return out
}

// NormaliseVoltage strips a trailing unit so "500V" and "500 v" both read "500".
func NormaliseVoltage(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(strings.TrimSuffix(s, "V"), "v")
	return strings.TrimSpace(s)
}

// MergeReport summarises ApplyTestScan.
type MergeReport struct {
	Merged   []string             `json:"merged"`
	Inserted builder.InsertReport `json:"inserted"`
}

// ApplyTestScan merges readings into a copy of the collection. A scanned row
// whose circuit number matches an existing record has its non-empty values
// written onto that record; other rows are built and inserted blank-slot
// first.
func ApplyTestScan(b *builder.Builder, collection []domain.TestResult, scan TestScan) ([]domain.TestResult, MergeReport) {
	out := domain.CloneCollection(collection)
	var report MergeReport
	var unmatched []builder.RawCircuit
	for _, c := range scan.Circuits {
		confidence := c.Confidence.String()
		if confidence == "" {
			confidence = scan.OverallConfidence.String()
		}
		values := c.Values()
		idx := domain.IndexByNumber(out, values[domain.FieldCircuitNumber])
		if idx < 0 {
			unmatched = append(unmatched, builder.RawCircuit{Source: builder.SourceTestScan, Confidence: confidence, Values: values})
			continue
		}
		rec := out[idx]
		changed := false
		for _, f := range domain.Fields() {
			v, ok := values[f]
			if !ok || f == domain.FieldCircuitNumber {
				continue
			}
			if f == domain.FieldCircuitDescription && rec.CircuitDescription != "" {
				continue
			}
			// The default voltage only fills a gap; a recorded voltage stays.
			if f == domain.FieldInsulationTestVoltage && rec.InsulationTestVoltage != "" &&
				c.InsulationResistance.TestVoltage.String() == "" {
				continue
			}
			ch, _ := rec.Set(f, v)
			changed = changed || ch
		}
		if changed {
			note := builder.ProvenanceNote(confidence)
			if !strings.Contains(rec.Notes, note) {
				rec.Notes = strings.TrimPrefix(rec.Notes+"; "+note, "; ")
			}
			rec.AutoFilled = true
			out[idx] = rec
			report.Merged = append(report.Merged, rec.ID)
		}
	}
	if len(unmatched) > 0 {
		out, report.Inserted = builder.Insert(out, b.BuildAll(unmatched), builder.ModeFillBlank)
	}
	return out, report
}
