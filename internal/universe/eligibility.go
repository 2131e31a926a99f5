// Package universe decides which instruments a scan is allowed to judge.
// All eligibility rules live here; the scanner's filename pre-filter and
// the per-instrument evaluation both call into the same Filter so the two
// sites can never drift apart.
package universe

import (
	"fmt"
	"strings"

	"github.com/luheng/fupan/internal/contracts"
)

// Filter holds the eligibility rules of one screening profile.
// Zero-value fields disable their rule: an empty AllowPrefixes admits
// every prefix, an empty NameMarkers skips the name check, and a zero
// PriceMax disables the price band.
type Filter struct {
	// DenyPrefixes rejects codes starting with any listed prefix.
	DenyPrefixes []string `yaml:"deny_prefixes" json:"deny_prefixes,omitempty"`
	// AllowPrefixes, when non-empty, rejects codes that do not start
	// with one of the listed prefixes. Deny wins over allow.
	AllowPrefixes []string `yaml:"allow_prefixes" json:"allow_prefixes,omitempty"`
	// NameMarkers rejects instruments whose display name contains any
	// listed marker, such as ST or PT risk flags.
	NameMarkers []string `yaml:"name_markers" json:"name_markers,omitempty"`
	// PriceMin and PriceMax bound the latest close, inclusive on both
	// ends.
	PriceMin float64 `yaml:"price_min" json:"price_min,omitempty"`
	PriceMax float64 `yaml:"price_max" json:"price_max,omitempty"`
}

// CheckCode applies only the code-prefix rules. It returns the exclusion
// reason, or "" when the code passes. The scanner uses this to skip
// ineligible files before reading them; CheckExclusion uses the same
// helpers so a code never passes one site and fails the other.
func (f *Filter) CheckCode(code string) string {
	if reason := f.denyReason(code); reason != "" {
		return reason
	}
	return f.allowReason(code)
}

// CheckExclusion applies every eligibility rule in priority order and
// returns the first failing rule's reason, or "" when the instrument is
// eligible. Order: deny prefixes, name markers, allow prefixes, price
// band.
func (f *Filter) CheckExclusion(id contracts.Identity, latestClose float64) string {
	if reason := f.denyReason(id.Code); reason != "" {
		return reason
	}
	for _, m := range f.NameMarkers {
		if strings.Contains(id.Name, m) {
			return fmt.Sprintf("风险警示(%s)", m)
		}
	}
	if reason := f.allowReason(id.Code); reason != "" {
		return reason
	}
	if f.PriceMax > 0 {
		if latestClose < f.PriceMin || latestClose > f.PriceMax {
			return fmt.Sprintf("价格%.2f超出%.2f~%.2f区间", latestClose, f.PriceMin, f.PriceMax)
		}
	}
	return ""
}

func (f *Filter) denyReason(code string) string {
	for _, p := range f.DenyPrefixes {
		if strings.HasPrefix(code, p) {
			return fmt.Sprintf("排除板块(前缀%s)", p)
		}
	}
	return ""
}

func (f *Filter) allowReason(code string) string {
	if len(f.AllowPrefixes) == 0 {
		return ""
	}
	for _, p := range f.AllowPrefixes {
		if strings.HasPrefix(code, p) {
			return ""
		}
	}
	return "非目标板块"
}
