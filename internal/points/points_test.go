package points

import "testing"

func TestEstimate(t *testing.T) {
	cases := []struct {
		desc, ctype, device, want string
	}{
		{"Kitchen sockets", "Ring", "MCB", "10"},
		{"Upstairs Lights", "", "MCB", "8"},
		{"Cooker", "Radial", "MCB", "1"},
		{"Cooker socket outlet", "", "", "1"},
		{"Garden sockets", "Radial", "RCBO", "2"},
		{"Smoke alarms", "", "", "4"},
		{"Downstairs", "Sockets", "", "6"},
		{"", "", "RCD", "N/A"},
		{"Main switch", "", "RCD", "N/A"},
		{"", "", "", ""},
		{"Spare", "", "MCB", ""},
		{"Loft wiring", "", "MCB", ""},
		{"Upstairs rings", "", "RCBO", "10"},
	}
	for _, tc := range cases {
		if got := Estimate(tc.desc, tc.ctype, tc.device); got != tc.want {
			t.Errorf("Estimate(%q,%q,%q) = %q, want %q", tc.desc, tc.ctype, tc.device, got, tc.want)
		}
	}
}

func TestEstimateDeterministic(t *testing.T) {
	first := Estimate("Ring final kitchen", "", "RCBO")
	for i := 0; i < 10; i++ {
		if got := Estimate("Ring final kitchen", "", "RCBO"); got != first {
			t.Fatalf("estimate changed between calls: %q vs %q", got, first)
		}
	}
}
