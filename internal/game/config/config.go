// Package config holds the game rule parameters.
package config

// FreshnessBucket labels a half-open age range [MinHours, MaxHours) of a
// signature train's oldest member.
type FreshnessBucket struct {
	MinHours float64
	MaxHours float64
	Label    string
}

// Rules parameterizes the game engine. Values are fixed for a deployment but
// injectable so tests and future per-guild tuning can override them.
type Rules struct {
	// Threshold is the doom level at which a player is eliminated.
	Threshold int
	// ShieldCleanse is the doom removed by Shield and Reflex Shield.
	ShieldCleanse int
	// SignatureTTLHours is the lifetime of signatures and of Veil.
	SignatureTTLHours int
	// VeilReduction multiplies incoming hex damage while Veil is active.
	VeilReduction float64
	// FreshnessBuckets label train age; ages past the last bucket are Expired.
	FreshnessBuckets []FreshnessBucket
	// Timezone is the IANA zone that defines the game's calendar day.
	Timezone string
}

// Default returns the production rule set.
func Default() Rules {
	return Rules{
		Threshold:         12,
		ShieldCleanse:     2,
		SignatureTTLHours: 24,
		VeilReduction:     0.5,
		FreshnessBuckets: []FreshnessBucket{
			{MinHours: 0, MaxHours: 6, Label: "Fresh"},
			{MinHours: 6, MaxHours: 18, Label: "Warm"},
			{MinHours: 18, MaxHours: 24, Label: "Cooling"},
		},
		Timezone: "America/Los_Angeles",
	}
}
