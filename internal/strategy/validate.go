package strategy

import "fmt"

// ValidationError describes one invalid profile field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning flags a legal but suspicious profile setting. Warnings never
// block a run; callers log them before scanning.
type Warning struct {
	Code    string
	Message string
}

// Validate checks structural correctness and returns every violation
// found. An empty slice means the profile is runnable.
func (p *Profile) Validate() []ValidationError {
	var errs []ValidationError

	if p.Name == "" {
		errs = append(errs, ValidationError{"name", "must not be empty"})
	}
	switch p.Kind {
	case KindSupportRetest, KindContractionAtLow:
	default:
		errs = append(errs, ValidationError{"kind", fmt.Sprintf("unknown kind %q", p.Kind)})
	}
	if p.MinBars < 2 {
		errs = append(errs, ValidationError{"min_bars", "must be at least 2"})
	}
	if p.VolumeWindow < 1 {
		errs = append(errs, ValidationError{"volume_window", "must be positive"})
	}
	if p.MinBars < p.VolumeWindow {
		errs = append(errs, ValidationError{"min_bars", "must cover volume_window"})
	}
	if p.MinBars < p.PriceLowWindow {
		errs = append(errs, ValidationError{"min_bars", "must cover price_low_window"})
	}
	if p.VolumeShrinkMax <= 0 {
		errs = append(errs, ValidationError{"volume_shrink_max", "must be positive"})
	}
	if p.Eligibility.PriceMax > 0 && p.Eligibility.PriceMin > p.Eligibility.PriceMax {
		errs = append(errs, ValidationError{"eligibility.price_min", "must not exceed price_max"})
	}
	if p.ArtifactPrefix == "" {
		errs = append(errs, ValidationError{"artifact_prefix", "must not be empty"})
	}
	if p.TopN < 0 {
		errs = append(errs, ValidationError{"top_n", "must not be negative"})
	}

	switch p.Kind {
	case KindSupportRetest:
		if p.SMAPeriod < 1 {
			errs = append(errs, ValidationError{"sma_period", "must be positive"})
		} else if p.SMAPeriod > p.VolumeWindow {
			errs = append(errs, ValidationError{"sma_period", "must not exceed volume_window"})
		}
		if p.SupportProximity <= 0 || p.SupportProximity > 1 {
			errs = append(errs, ValidationError{"support_proximity", "must be in (0, 1]"})
		}
		if p.BaseScore <= 0 {
			errs = append(errs, ValidationError{"base_score", "must be positive"})
		}
		if p.TrendBonus < 0 || p.ReexpansionBonus < 0 {
			errs = append(errs, ValidationError{"trend_bonus", "bonuses must not be negative"})
		}
	case KindContractionAtLow:
		if p.PriceLowWindow < 1 {
			errs = append(errs, ValidationError{"price_low_window", "must be positive"})
		}
		if p.LowRangeRatio < 0 || p.LowRangeRatio > 1 {
			errs = append(errs, ValidationError{"low_range_ratio", "must be in [0, 1]"})
		}
	}

	return errs
}

// Warn returns advisories for settings that are valid but usually
// mistakes, such as a shrink bound that admits volume expansion.
func (p *Profile) Warn() []Warning {
	var warns []Warning

	if p.Kind == KindSupportRetest && p.VolumeShrinkMax >= 1 {
		warns = append(warns, Warning{
			Code:    "shrink_admits_expansion",
			Message: fmt.Sprintf("volume_shrink_max %.2f accepts days with volume above the reference day", p.VolumeShrinkMax),
		})
	}
	if p.Kind == KindContractionAtLow && p.VolumeShrinkMax > 0.2 {
		warns = append(warns, Warning{
			Code:    "shrink_bound_loose",
			Message: fmt.Sprintf("volume_shrink_max %.2f is far above typical dry-up levels", p.VolumeShrinkMax),
		})
	}
	if p.SupportProximity > 0.1 {
		warns = append(warns, Warning{
			Code:    "proximity_band_wide",
			Message: fmt.Sprintf("support_proximity %.2f treats moves beyond 10%% as a retest", p.SupportProximity),
		})
	}
	if p.Eligibility.PriceMax == 0 {
		warns = append(warns, Warning{
			Code:    "price_band_disabled",
			Message: "no price band configured, penny and high-priced instruments are all eligible",
		})
	}
	if p.Kind == KindSupportRetest && p.TopN == 0 {
		warns = append(warns, Warning{
			Code:    "result_set_unbounded",
			Message: "top_n 0 keeps every match, ranked output may be large",
		})
	}

	return warns
}
