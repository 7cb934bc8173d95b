// Package points guesses how many points a circuit serves from its label.
// The result is a starting value for the inspector to correct.
package points

import "strings"

type rule struct {
	keywords []string
	points   string
}

// Order matters: dedicated appliance circuits are matched before the general
// socket and lighting rules so "cooker socket" reads as one point.
var rules = []rule{
	{[]string{"cooker", "oven", "hob"}, "1"},
	{[]string{"shower"}, "1"},
	{[]string{"immersion", "water heater"}, "1"},
	{[]string{"boiler", "heating", "heat pump"}, "1"},
	{[]string{" ev ", "ev charger", "car charger", "charge point"}, "1"},
	{[]string{"fridge", "freezer", "washing", "dishwasher", "dryer"}, "1"},
	{[]string{"fcu", "spur", "fused connection"}, "1"},
	{[]string{"alarm", "smoke", "detector"}, "4"},
	{[]string{"garage", "shed", "outbuilding"}, "2"},
	{[]string{"outdoor", "outside", "garden"}, "2"},
	{[]string{" ring"}, "10"},
	{[]string{"socket", "radial", "power"}, "6"},
	{[]string{"light", "lts"}, "8"},
}

// Estimate returns a plausible count for the circuit, or "" when nothing in
// the description, circuit type or device type suggests one.
func Estimate(description, circuitType, deviceType string) string {
	text := " " + strings.ToLower(strings.Join([]string{description, circuitType}, " ")) + " "
	for _, r := range rules {
		for _, k := range r.keywords {
			if strings.Contains(text, k) {
				return r.points
			}
		}
	}
	dt := strings.ToLower(deviceType)
	if strings.Contains(dt, "rcd") && !strings.Contains(dt, "rcbo") {
		// A bare RCD protects other circuits rather than feeding points.
		return "N/A"
	}
	return ""
}
