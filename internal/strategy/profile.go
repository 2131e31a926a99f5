// Package strategy evaluates instrument bar histories against screening
// profiles. A Profile carries every threshold, window and scoring rule;
// the evaluator itself is generic over profiles so the two built-in
// screens share one code path and differ only in configuration.
package strategy

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/luheng/fupan/internal/universe"
)

// Kind selects which evaluation strategy a profile runs.
type Kind string

const (
	// KindSupportRetest scores instruments retesting the opening price
	// of the highest-volume day on shrinking volume.
	KindSupportRetest Kind = "support-retest"
	// KindContractionAtLow passes instruments whose latest volume is a
	// small fraction of the recent maximum while price sits near the
	// bottom of its recent range.
	KindContractionAtLow Kind = "contraction-at-low"
)

// Profile is the full rule set of one screen. Profiles are read-only
// after construction; the scanner shares one instance across workers.
type Profile struct {
	// Name identifies the profile in CLI flags, run history and logs.
	Name string `yaml:"name" json:"name"`
	Kind Kind   `yaml:"kind" json:"kind"`

	// MinBars is the minimum history length an instrument needs before
	// it is judged at all. It must cover the largest trailing window.
	MinBars int `yaml:"min_bars" json:"min_bars"`

	// Eligibility rejects instruments before any pattern math runs.
	Eligibility universe.Filter `yaml:"eligibility" json:"eligibility"`

	// VolumeWindow is the trailing bar count searched for the maximum
	// volume day.
	VolumeWindow int `yaml:"volume_window" json:"volume_window"`
	// PriceLowWindow is the trailing bar count used for the close-price
	// floor and ceiling. Only contraction-at-low profiles read it.
	PriceLowWindow int `yaml:"price_low_window" json:"price_low_window,omitempty"`

	// SMAPeriod is the close-price moving average length used by the
	// support-retest trend bonus.
	SMAPeriod int `yaml:"sma_period" json:"sma_period,omitempty"`
	// SupportProximity is the maximum |close-support|/support distance
	// counted as a retest.
	SupportProximity float64 `yaml:"support_proximity" json:"support_proximity,omitempty"`
	// VolumeShrinkMax bounds the volume contraction. Support-retest
	// compares latest/reference strictly below it; contraction-at-low
	// admits latest volume up to VolumeShrinkMax times the window max.
	VolumeShrinkMax float64 `yaml:"volume_shrink_max" json:"volume_shrink_max"`
	// LowRangeRatio positions the low-price threshold inside the
	// floor-to-ceiling range for contraction-at-low profiles.
	LowRangeRatio float64 `yaml:"low_range_ratio" json:"low_range_ratio,omitempty"`

	// Scoring ladder, support-retest only. Each applied bonus also
	// replaces the advice label.
	BaseScore         int    `yaml:"base_score" json:"base_score,omitempty"`
	TrendBonus        int    `yaml:"trend_bonus" json:"trend_bonus,omitempty"`
	ReexpansionBonus  int    `yaml:"reexpansion_bonus" json:"reexpansion_bonus,omitempty"`
	BaseAdvice        string `yaml:"base_advice" json:"base_advice,omitempty"`
	TrendAdvice       string `yaml:"trend_advice" json:"trend_advice,omitempty"`
	ReexpansionAdvice string `yaml:"reexpansion_advice" json:"reexpansion_advice,omitempty"`

	// ArtifactPrefix names the result file; the writer appends the run
	// timestamp.
	ArtifactPrefix string `yaml:"artifact_prefix" json:"artifact_prefix"`
	// TopN truncates the ranked result set. Zero keeps every verdict.
	TopN int `yaml:"top_n" json:"top_n,omitempty"`
}

// DragonBack returns the built-in support-retest profile: main-board
// instruments in the 5-20 price band retesting the 20-day peak-volume
// day's open on volume below half the reference day.
func DragonBack() *Profile {
	return &Profile{
		Name:    "dragonback",
		Kind:    KindSupportRetest,
		MinBars: 30,
		Eligibility: universe.Filter{
			DenyPrefixes: []string{"30", "688"},
			NameMarkers:  []string{"ST", "PT", "*"},
			PriceMin:     5.0,
			PriceMax:     20.0,
		},
		VolumeWindow:      20,
		SMAPeriod:         5,
		SupportProximity:  0.03,
		VolumeShrinkMax:   0.5,
		BaseScore:         70,
		TrendBonus:        20,
		ReexpansionBonus:  10,
		BaseAdvice:        "试错性买入 (轻仓)",
		TrendAdvice:       "重点关注 (半仓进攻)",
		ReexpansionAdvice: "一击必中 (核心重仓)",
		ArtifactPrefix:    "dragon_back_strategy",
		TopN:              5,
	}
}

// VolumeBottom returns the built-in contraction-at-low profile: main
// board only, latest volume at most 3% of the 120-day maximum, close in
// the bottom 3% of the 40-day range.
func VolumeBottom() *Profile {
	return &Profile{
		Name:    "volumebottom",
		Kind:    KindContractionAtLow,
		MinBars: 120,
		Eligibility: universe.Filter{
			DenyPrefixes:  []string{"30"},
			AllowPrefixes: []string{"60", "00"},
			NameMarkers:   []string{"ST", "PT", "*"},
			PriceMin:      5.0,
			PriceMax:      15.0,
		},
		VolumeWindow:    120,
		PriceLowWindow:  40,
		VolumeShrinkMax: 0.03,
		LowRangeRatio:   0.03,
		ArtifactPrefix:  "volume_bottom_scan_results",
	}
}

// ByName resolves a built-in profile by its registered name.
func ByName(name string) (*Profile, error) {
	switch name {
	case "dragonback":
		return DragonBack(), nil
	case "volumebottom":
		return VolumeBottom(), nil
	default:
		return nil, fmt.Errorf("unknown profile %q (built-ins: dragonback, volumebottom)", name)
	}
}

// Hash returns the hex SHA-256 of the profile's JSON encoding. Run
// history records it so saved results can be traced to the exact rule
// set that produced them.
func (p *Profile) Hash() string {
	b, _ := json.Marshal(p)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
