// Package extract maps the JSON returned by the board-scan, test-scan and
// free-text collaborators into raw circuits for the builder.
package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"eicrcore/internal/builder"
	"eicrcore/pkg/domain"
)

// BoardScan is the payload of a consumer-unit photo scan.
type BoardScan struct {
	Board    BoardInfo      `json:"board"`
	Circuits []BoardCircuit `json:"circuits"`
}

// BoardInfo describes the distribution board itself.
type BoardInfo struct {
	Name         Text `json:"name"`
	Location     Text `json:"location"`
	Manufacturer Text `json:"manufacturer"`
	MainSwitch   Text `json:"main_switch"`
	Phases       Text `json:"phases"`
}

// BoardCircuit is one way of the board as read from the photo.
type BoardCircuit struct {
	CircuitNumber Text           `json:"circuit_number"`
	Label         Text           `json:"label"`
	CircuitType   Text           `json:"circuit_type"`
	DeviceType    Text           `json:"device_type"`
	Rating        Text           `json:"rating"`
	Curve         Text           `json:"curve"`
	KaRating      Text           `json:"ka_rating"`
	BSStandard    Text           `json:"bs_standard"`
	CableSize     Text           `json:"cable_size"`
	CPCSize       Text           `json:"cpc_size"`
	RCDRating     Text           `json:"rcd_rating"`
	RCDType       Text           `json:"rcd_type"`
	Confidence    Text           `json:"confidence"`
	Phases        []PhaseReading `json:"phases"`
}

// PhaseReading carries per-phase values on three-phase boards. Empty values
// fall back to the circuit's.
type PhaseReading struct {
	Phase      Text `json:"phase"`
	DeviceType Text `json:"device_type"`
	Rating     Text `json:"rating"`
	CableSize  Text `json:"cable_size"`
}

// ParseBoardScan decodes a board-scan payload.
func ParseBoardScan(data []byte) (BoardScan, error) {
	var scan BoardScan
	if err := json.Unmarshal(data, &scan); err != nil {
		return BoardScan{}, fmt.Errorf("%w: board scan: %w", ErrMalformed, err)
	}
	return scan, nil
}

// RawCircuits maps the scan to builder input in board order. A circuit with
// phase readings yields one raw circuit per phase.
func (s BoardScan) RawCircuits() []builder.RawCircuit {
	location := s.Board.Name.String()
	if location == "" {
		location = s.Board.Location.String()
	}
	var out []builder.RawCircuit
	for _, c := range s.Circuits {
		base := map[domain.Field]string{
			domain.FieldCircuitNumber:            c.CircuitNumber.String(),
			domain.FieldCircuitDescription:       c.Label.String(),
			domain.FieldCircuitType:              c.CircuitType.String(),
			domain.FieldProtectiveDeviceType:     c.DeviceType.String(),
			domain.FieldProtectiveDeviceRating:   c.Rating.String(),
			domain.FieldProtectiveDeviceCurve:    c.Curve.String(),
			domain.FieldProtectiveDeviceKaRating: c.KaRating.String(),
			domain.FieldBSStandard:               c.BSStandard.String(),
			domain.FieldLiveSize:                 c.CableSize.String(),
			domain.FieldCPCSize:                  c.CPCSize.String(),
			domain.FieldRCDRating:                c.RCDRating.String(),
			domain.FieldRCDType:                  c.RCDType.String(),
			domain.FieldProtectiveDeviceLocation: location,
		}
		if len(c.Phases) == 0 {
			out = append(out, builder.RawCircuit{Source: builder.SourceBoardScan, Confidence: c.Confidence.String(), Values: base})
			continue
		}
		for i, p := range c.Phases {
			values := make(map[domain.Field]string, len(base)+1)
			for k, v := range base {
				values[k] = v
			}
			phase := p.Phase.String()
			if phase == "" {
				phase = fmt.Sprintf("L%d", i+1)
			}
			values[domain.FieldPhase] = phase
			values[domain.FieldCircuitDescription] = strings.TrimSpace(c.Label.String() + " (" + phase + ")")
			overlay(values, domain.FieldProtectiveDeviceType, p.DeviceType)
			overlay(values, domain.FieldProtectiveDeviceRating, p.Rating)
			overlay(values, domain.FieldLiveSize, p.CableSize)
			out = append(out, builder.RawCircuit{Source: builder.SourceBoardScan, Confidence: c.Confidence.String(), Values: values})
		}
	}
	return out
}

func overlay(values map[domain.Field]string, f domain.Field, v Text) {
	if s := v.String(); s != "" {
		values[f] = s
	}
}
