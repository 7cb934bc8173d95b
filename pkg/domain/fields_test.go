package domain

import (
	"errors"
	"testing"
)

func TestSetCircuitNumberRecomputesDesignation(t *testing.T) {
	r := NewTestResult("1")
	if r.CircuitDesignation != "C1" {
		t.Fatalf("expected C1, got %q", r.CircuitDesignation)
	}
	if _, err := r.Set(FieldCircuitNumber, " 12 "); err != nil {
		t.Fatalf("set: %v", err)
	}
	if r.CircuitNumber != "12" || r.CircuitDesignation != "C12" {
		t.Fatalf("expected 12/C12, got %q/%q", r.CircuitNumber, r.CircuitDesignation)
	}
	if _, err := r.Set(FieldCircuitDesignation, "c7"); err != nil {
		t.Fatalf("set designation: %v", err)
	}
	if r.CircuitNumber != "7" || r.CircuitDesignation != "C7" {
		t.Fatalf("expected 7/C7, got %q/%q", r.CircuitNumber, r.CircuitDesignation)
	}
}

func TestSetKeepsLegacyAliasesInSync(t *testing.T) {
	cases := []struct {
		field      Field
		value      string
		wantLive   string
		wantRating string
	}{
		{FieldLiveSize, "2.5", "2.5", ""},
		{FieldCableSize, "4.0", "4.0", ""},
		{FieldProtectiveDeviceRating, "32A", "", "32"},
		{FieldProtectiveDevice, "B16", "", "16"},
	}
	for _, tc := range cases {
		var r TestResult
		if _, err := r.Set(tc.field, tc.value); err != nil {
			t.Fatalf("%s: %v", tc.field, err)
		}
		if r.LiveSize != r.CableSize {
			t.Fatalf("%s: liveSize %q != cableSize %q", tc.field, r.LiveSize, r.CableSize)
		}
		if r.LiveSize != tc.wantLive {
			t.Fatalf("%s: expected live %q, got %q", tc.field, tc.wantLive, r.LiveSize)
		}
		if r.ProtectiveDeviceRating != DigitsOnly(r.ProtectiveDevice) {
			t.Fatalf("%s: rating %q not digits of %q", tc.field, r.ProtectiveDeviceRating, r.ProtectiveDevice)
		}
		if r.ProtectiveDeviceRating != tc.wantRating {
			t.Fatalf("%s: expected rating %q, got %q", tc.field, tc.wantRating, r.ProtectiveDeviceRating)
		}
	}
}

func TestSetClearsAutoFilled(t *testing.T) {
	r := NewTestResult("1")
	r.AutoFilled = true
	changed, err := r.Set(FieldZs, "0.45")
	if err != nil || !changed {
		t.Fatalf("expected change, got changed=%v err=%v", changed, err)
	}
	if r.AutoFilled {
		t.Fatalf("expected autoFilled cleared")
	}
	if r.Zs != "0.45" {
		t.Fatalf("expected zs 0.45, got %q", r.Zs)
	}

	r.AutoFilled = true
	changed, _ = r.Set(FieldZs, "0.45")
	if changed || !r.AutoFilled {
		t.Fatalf("no-op write must not count as a change")
	}

	changed, _ = r.Set(FieldAutoFilled, "false")
	if !changed || r.AutoFilled {
		t.Fatalf("expected autoFilled write to apply")
	}
	_, _ = r.Set(FieldAutoFilled, "true")
	if !r.AutoFilled {
		t.Fatalf("autoFilled write must not clear itself")
	}
}

func TestSetRejectsIDAndUnknownFields(t *testing.T) {
	r := NewTestResult("1")
	id := r.ID
	if _, err := r.Set(FieldID, "other"); !errors.Is(err, ErrImmutableField) {
		t.Fatalf("expected ErrImmutableField, got %v", err)
	}
	if r.ID != id {
		t.Fatalf("id changed")
	}
	if _, err := r.Set(Field("bogus"), "x"); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestParseField(t *testing.T) {
	f, err := ParseField("ZS")
	if err != nil || f != FieldZs {
		t.Fatalf("expected zs, got %q %v", f, err)
	}
	if _, err := ParseField("nope"); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected unknown field error, got %v", err)
	}
	if len(Fields()) != len(fieldTable) {
		t.Fatalf("field order and table disagree: %d vs %d", len(Fields()), len(fieldTable))
	}
	for _, f := range Fields() {
		if !f.Valid() {
			t.Fatalf("field %q missing accessor", f)
		}
	}
}

func TestGetSetRoundTripEveryField(t *testing.T) {
	for _, f := range Fields() {
		if f == FieldID || f == FieldAutoFilled {
			continue
		}
		var r TestResult
		if _, err := r.Set(f, "7"); err != nil {
			t.Fatalf("%s: %v", f, err)
		}
		want := "7"
		if f == FieldCircuitDesignation {
			want = "C7"
		}
		if got := r.Get(f); got != want {
			t.Fatalf("%s: expected %q, got %q", f, want, got)
		}
	}
}

func TestIsBlank(t *testing.T) {
	r := NewTestResult("3")
	if !r.IsBlank() {
		t.Fatalf("template should be blank")
	}
	r.Zs = "0.3"
	if !r.IsBlank() {
		t.Fatalf("test values do not make a slot used")
	}
	r.LiveSize = "2.5"
	if r.IsBlank() {
		t.Fatalf("live size makes a slot used")
	}
}

func TestIndexByNumber(t *testing.T) {
	records := []TestResult{NewTestResult("1"), NewTestResult("2")}
	if i := IndexByNumber(records, "C2"); i != 1 {
		t.Fatalf("expected 1, got %d", i)
	}
	if i := IndexByNumber(records, "9"); i != -1 {
		t.Fatalf("expected -1, got %d", i)
	}
	if i := IndexByID(records, records[0].ID); i != 0 {
		t.Fatalf("expected 0, got %d", i)
	}
}
