package contracts

// Verdict is the positive result for one instrument that passed a
// profile's rules. Support/score fields are filled by support-retest
// profiles, the volume/threshold fields by contraction-at-low profiles;
// the unused half stays zero.
type Verdict struct {
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	LatestClose float64 `json:"latest_close"`

	// Support-retest fields.
	SupportPrice float64 `json:"support_price,omitempty"`
	Score        int     `json:"score,omitempty"`
	Advice       string  `json:"advice,omitempty"`

	// Contraction-at-low fields.
	LatestVolume float64 `json:"latest_volume,omitempty"`
	MaxVolume    float64 `json:"max_volume,omitempty"`
	LowThreshold float64 `json:"low_threshold,omitempty"`
}
