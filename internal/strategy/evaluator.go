package strategy

import (
	"fmt"
	"math"

	"github.com/luheng/fupan/internal/contracts"
)

// Evaluate judges one instrument's history against profile p and
// classifies it as matched, excluded or failed. A panic inside the
// pattern math is absorbed into a failed outcome so a single broken
// series can never abort a batch.
func Evaluate(series contracts.BarSeries, id contracts.Identity, p *Profile) (out contracts.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = contracts.Failed(id.Code, fmt.Errorf("evaluate %s: %v", id.Code, r))
		}
	}()

	if series.Len() < p.MinBars {
		return contracts.Excluded(id.Code, fmt.Sprintf("数据不足(%d/%d)", series.Len(), p.MinBars))
	}
	if reason := p.Eligibility.CheckExclusion(id, series.Latest().Close); reason != "" {
		return contracts.Excluded(id.Code, reason)
	}

	switch p.Kind {
	case KindSupportRetest:
		return p.evaluateSupportRetest(series, id)
	case KindContractionAtLow:
		return p.evaluateContractionAtLow(series, id)
	default:
		return contracts.Failed(id.Code, fmt.Errorf("profile %s: unknown kind %q", p.Name, p.Kind))
	}
}

// evaluateSupportRetest checks that the latest close sits within the
// proximity band around the reference day's open and that the latest
// volume contracted to under the shrink bound, then applies the scoring
// ladder. Each bonus that lands also replaces the advice label, so the
// label always reflects the strongest condition met.
func (p *Profile) evaluateSupportRetest(series contracts.BarSeries, id contracts.Identity) contracts.Outcome {
	latest := series.Latest()
	ex := locateExtrema(series, p.VolumeWindow, 0)

	support := ex.refBar.Open
	if support <= 0 {
		return contracts.Failed(id.Code, fmt.Errorf("reference day %s has non-positive open %.4f",
			ex.refBar.Date.Format("2006-01-02"), support))
	}
	refVolume := ex.refBar.Volume
	if refVolume <= 0 {
		return contracts.Failed(id.Code, fmt.Errorf("reference day %s has non-positive volume %.0f",
			ex.refBar.Date.Format("2006-01-02"), refVolume))
	}

	proximity := math.Abs(latest.Close-support) / support
	if proximity > p.SupportProximity {
		return contracts.Excluded(id.Code, fmt.Sprintf("未回踩支撑位(偏离%.2f%%)", proximity*100))
	}
	ratio := latest.Volume / refVolume
	if ratio >= p.VolumeShrinkMax {
		return contracts.Excluded(id.Code, fmt.Sprintf("量能未萎缩(量比%.2f)", ratio))
	}

	score := p.BaseScore
	advice := p.BaseAdvice
	if latest.Close > smaClose(series, p.SMAPeriod) {
		score += p.TrendBonus
		advice = p.TrendAdvice
	}
	if prev := series[series.Len()-2]; latest.Volume > prev.Volume {
		score += p.ReexpansionBonus
		advice = p.ReexpansionAdvice
	}

	return contracts.Matched(&contracts.Verdict{
		Code:         id.Code,
		Name:         id.Name,
		LatestClose:  latest.Close,
		SupportPrice: math.Round(support*100) / 100,
		Score:        score,
		Advice:       advice,
	})
}

// evaluateContractionAtLow passes an instrument only when the latest
// volume is at most VolumeShrinkMax of the window maximum and the latest
// close sits in the bottom LowRangeRatio slice of the price range. No
// scoring: the verdict carries the raw metrics.
func (p *Profile) evaluateContractionAtLow(series contracts.BarSeries, id contracts.Identity) contracts.Outcome {
	latest := series.Latest()
	ex := locateExtrema(series, p.VolumeWindow, p.PriceLowWindow)

	maxVolume := ex.refBar.Volume
	if maxVolume <= 0 {
		return contracts.Failed(id.Code, fmt.Errorf("no positive volume in trailing %d bars", p.VolumeWindow))
	}
	if latest.Volume > maxVolume*p.VolumeShrinkMax {
		return contracts.Excluded(id.Code, fmt.Sprintf("量能未达地量(量比%.4f)", latest.Volume/maxVolume))
	}

	threshold := ex.floorClose + p.LowRangeRatio*(ex.ceilClose-ex.floorClose)
	if latest.Close > threshold {
		return contracts.Excluded(id.Code, fmt.Sprintf("价格未处低位(%.2f>%.2f)", latest.Close, threshold))
	}

	return contracts.Matched(&contracts.Verdict{
		Code:         id.Code,
		Name:         id.Name,
		LatestClose:  latest.Close,
		LatestVolume: latest.Volume,
		MaxVolume:    maxVolume,
		LowThreshold: threshold,
	})
}
