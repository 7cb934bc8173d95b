package builder

import (
	"strconv"
	"strings"

	"eicrcore/pkg/domain"
)

// Mode selects how Insert places incoming records.
type Mode int

const (
	// ModeFillBlank fills blank slots in collection order before appending.
	ModeFillBlank Mode = iota
	// ModeAppend appends every incoming record.
	ModeAppend
)

// InsertReport lists the ids of records written into blank slots and of
// records appended.
type InsertReport struct {
	Filled   []string `json:"filled"`
	Appended []string `json:"appended"`
}

// Insert places incoming records into a copy of the collection. Blank slots
// keep their id, number and designation. Appended records are numbered from
// the highest numeric circuit number already present, in input order.
func Insert(collection, incoming []domain.TestResult, mode Mode) ([]domain.TestResult, InsertReport) {
	out := domain.CloneCollection(collection)
	var report InsertReport
	next := 0
	if mode == ModeFillBlank {
		for i := range out {
			if next >= len(incoming) {
				break
			}
			if !out[i].IsBlank() {
				continue
			}
			slot := out[i]
			rec := incoming[next]
			rec.ID = slot.ID
			rec.CircuitNumber = slot.CircuitNumber
			rec.CircuitDesignation = domain.Designation(slot.CircuitNumber)
			out[i] = rec
			report.Filled = append(report.Filled, rec.ID)
			next++
		}
	}
	number := MaxCircuitNumber(out)
	for _, rec := range incoming[next:] {
		number++
		if rec.ID == "" {
			rec.ID = domain.NewID()
		}
		rec.CircuitNumber = strconv.Itoa(number)
		rec.CircuitDesignation = domain.Designation(rec.CircuitNumber)
		out = append(out, rec)
		report.Appended = append(report.Appended, rec.ID)
	}
	return out, report
}

// MaxCircuitNumber returns the highest numeric circuit number, or 0.
func MaxCircuitNumber(collection []domain.TestResult) int {
	highest := 0
	for _, r := range collection {
		n, err := strconv.Atoi(strings.TrimSpace(r.CircuitNumber))
		if err == nil && n > highest {
			highest = n
		}
	}
	return highest
}

// NextCircuitNumber is the number a newly appended record would receive.
func NextCircuitNumber(collection []domain.TestResult) string {
	return strconv.Itoa(MaxCircuitNumber(collection) + 1)
}
