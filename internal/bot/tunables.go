package bot

import "time"

// Tunables hold the engine's calibration: tick cadences, the scan
// opportunity threshold, signal offsets, and buffer caps. Defaults
// are the shipped calibration; all of them are config-overridable.
type Tunables struct {
	ScanInterval     time.Duration // logic/execution tick
	CosmeticInterval time.Duration // display-only jitter tick
	PositionInterval time.Duration // open-position P&L tick

	OpportunityThreshold float64       // scan draw above this finds an opportunity
	AnalyzeDelay         time.Duration // pause between opportunity and signal generation
	AutoExecuteDelay     time.Duration // pause before auto-execute authorizes
	ReminderChance       float64       // chance per tick of nudging a waiting operator

	StopLossPct      float64 // stop-loss offset from entry
	TakeProfitPct    float64 // take-profit offset from entry
	ConfidenceFloor  int     // signals only ever present a high band
	ConfidenceSpread int

	LogBuffer       int     // live view buffer cap
	StartingBalance float64 // simulated margin pool
}

func DefaultTunables() Tunables {
	return Tunables{
		ScanInterval:         2 * time.Second,
		CosmeticInterval:     800 * time.Millisecond,
		PositionInterval:     time.Second,
		OpportunityThreshold: 0.90,
		AnalyzeDelay:         time.Second,
		AutoExecuteDelay:     3 * time.Second,
		ReminderChance:       0.2,
		StopLossPct:          0.015,
		TakeProfitPct:        0.03,
		ConfidenceFloor:      85,
		ConfidenceSpread:     14,
		LogBuffer:            100,
		StartingBalance:      54320.50,
	}
}
