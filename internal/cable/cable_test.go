package cable

import "testing"

func TestNormalise(t *testing.T) {
	cases := map[string]string{
		"2.5mm":      "2.5",
		"2.5 sq mm":  "2.5",
		"2.5mm²":     "2.5",
		"1":          "1.0",
		"1.0mm":      "1.0",
		"4":          "4.0",
		"6 mm2":      "6.0",
		"10.0":       "10",
		"16mm":       "16",
		" 1,5 sqmm ": "1.5",
		"2.5/1.5":    "2.5",
		"T&E 2.5mm":  "2.5",
		"3mm":        "3mm",
		"unknown":    "unknown",
		"":           "",
	}
	for in, want := range cases {
		if got := Normalise(in); got != want {
			t.Errorf("Normalise(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormaliseIsIdempotent(t *testing.T) {
	inputs := []string{"2.5mm", "1", "1.0", "10", "16mm²", "banana", "", "  ", "0.75", "95 sq mm", "3.3", "6mm 2.5"}
	for _, in := range inputs {
		once := Normalise(in)
		if twice := Normalise(once); twice != once {
			t.Errorf("Normalise not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestCPCFor(t *testing.T) {
	cases := map[string]string{
		"1.0":   "1.0",
		"1.5":   "1.0",
		"2.5":   "1.5",
		"2.5mm": "1.5",
		"4.0":   "1.5",
		"6.0":   "2.5",
		"10":    "4.0",
		"16":    "6.0",
		"25":    "",
		"?":     "",
	}
	for in, want := range cases {
		if got := CPCFor(in); got != want {
			t.Errorf("CPCFor(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormaliseThenCPCFor(t *testing.T) {
	live := Normalise("2.5mm")
	if live != "2.5" {
		t.Fatalf("expected 2.5, got %q", live)
	}
	if cpc := CPCFor(live); cpc != "1.5" {
		t.Fatalf("expected 1.5, got %q", cpc)
	}
}

func TestIsCanonical(t *testing.T) {
	if !IsCanonical("4.0") || IsCanonical("4") {
		t.Fatalf("unexpected canonical classification")
	}
}
