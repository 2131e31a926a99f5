package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luheng/fupan/internal/contracts"
)

// flatSeries builds n identical bars; tests then overwrite the indices
// that carry the scenario.
func flatSeries(n int, open, close, volume float64) contracts.BarSeries {
	s := make(contracts.BarSeries, n)
	for i := range s {
		s[i] = contracts.Bar{
			Date:   time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Open:   open,
			Close:  close,
			Volume: volume,
		}
	}
	return s
}

func mainBoardID() contracts.Identity {
	return contracts.Identity{Code: "600001", Name: "示例股份"}
}

// retestSeries is the canonical passing fixture for the support-retest
// profile: 30 flat bars, a volume spike inside the trailing 20 and a
// contracted latest day right at the support price.
func retestSeries() contracts.BarSeries {
	s := flatSeries(30, 10.0, 10.0, 50000)
	s[20].Volume = 100000
	last := len(s) - 1
	s[last].Volume = 40000
	return s
}

func TestSupportRetestBaseScore(t *testing.T) {
	p := DragonBack()
	s := retestSeries()

	out := Evaluate(s, mainBoardID(), p)
	require.Equal(t, contracts.StatusMatched, out.Status, "reason=%s err=%v", out.Reason, out.Err)

	v := out.Verdict
	assert.Equal(t, 70, v.Score)
	assert.Equal(t, "试错性买入 (轻仓)", v.Advice)
	assert.InDelta(t, 10.00, v.SupportPrice, 1e-9)
	assert.InDelta(t, 10.00, v.LatestClose, 1e-9)
	assert.Equal(t, "600001", v.Code)
	assert.Equal(t, "示例股份", v.Name)

	// Contraction-at-low fields stay zero on a support-retest verdict.
	assert.Zero(t, v.MaxVolume)
	assert.Zero(t, v.LowThreshold)
}

func TestSupportRetestScoreLadder(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(s contracts.BarSeries)
		wantScore  int
		wantAdvice string
	}{
		{
			name:       "base only",
			mutate:     func(s contracts.BarSeries) {},
			wantScore:  70,
			wantAdvice: "试错性买入 (轻仓)",
		},
		{
			name: "close above moving average",
			mutate: func(s contracts.BarSeries) {
				s[len(s)-1].Close = 10.05
			},
			wantScore:  90,
			wantAdvice: "重点关注 (半仓进攻)",
		},
		{
			name: "volume above previous day",
			mutate: func(s contracts.BarSeries) {
				s[len(s)-2].Volume = 30000
				s[len(s)-1].Volume = 45000
			},
			wantScore:  80,
			wantAdvice: "一击必中 (核心重仓)",
		},
		{
			name: "both bonuses",
			mutate: func(s contracts.BarSeries) {
				s[len(s)-1].Close = 10.05
				s[len(s)-2].Volume = 30000
				s[len(s)-1].Volume = 45000
			},
			wantScore:  100,
			wantAdvice: "一击必中 (核心重仓)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := retestSeries()
			tt.mutate(s)

			out := Evaluate(s, mainBoardID(), DragonBack())
			require.Equal(t, contracts.StatusMatched, out.Status, "reason=%s err=%v", out.Reason, out.Err)
			assert.Equal(t, tt.wantScore, out.Verdict.Score)
			assert.Equal(t, tt.wantAdvice, out.Verdict.Advice)
		})
	}
}

func TestSupportRetestProximityGate(t *testing.T) {
	// Far from support, no verdict no matter how dry the volume is.
	s := retestSeries()
	s[len(s)-1].Close = 10.40
	s[len(s)-1].Volume = 1000

	out := Evaluate(s, mainBoardID(), DragonBack())
	assert.Equal(t, contracts.StatusExcluded, out.Status)
	assert.Contains(t, out.Reason, "未回踩支撑位")
}

func TestSupportRetestShrinkIsStrict(t *testing.T) {
	// A volume ratio of exactly the bound does not qualify.
	s := retestSeries()
	s[len(s)-1].Volume = 50000 // 50000 / 100000 = 0.5

	out := Evaluate(s, mainBoardID(), DragonBack())
	assert.Equal(t, contracts.StatusExcluded, out.Status)
	assert.Contains(t, out.Reason, "量能未萎缩")
}

func TestSupportRetestSupportPrice(t *testing.T) {
	t.Run("support is reference day open rounded", func(t *testing.T) {
		s := retestSeries()
		s[20].Open = 10.567
		s[len(s)-1].Close = 10.60

		out := Evaluate(s, mainBoardID(), DragonBack())
		require.Equal(t, contracts.StatusMatched, out.Status, "reason=%s err=%v", out.Reason, out.Err)
		assert.InDelta(t, 10.57, out.Verdict.SupportPrice, 1e-9)
	})

	t.Run("volume tie resolves to earliest bar", func(t *testing.T) {
		s := retestSeries()
		s[12].Volume = 100000
		s[12].Open = 10.0
		s[20].Open = 12.0 // same 100000 volume, later day

		out := Evaluate(s, mainBoardID(), DragonBack())
		require.Equal(t, contracts.StatusMatched, out.Status,
			"later tie bar must not set support; reason=%s", out.Reason)
		assert.InDelta(t, 10.00, out.Verdict.SupportPrice, 1e-9)
	})

	t.Run("spike outside trailing window is ignored", func(t *testing.T) {
		s := retestSeries()
		s[5].Volume = 999999 // bar 5 of 30 lies before the trailing 20
		s[5].Open = 50.0
		s[len(s)-1].Volume = 25000

		out := Evaluate(s, mainBoardID(), DragonBack())
		require.Equal(t, contracts.StatusMatched, out.Status,
			"pre-window spike leaked into support; reason=%s", out.Reason)
		assert.InDelta(t, 10.00, out.Verdict.SupportPrice, 1e-9)
	})
}

func TestSupportRetestDataGuards(t *testing.T) {
	t.Run("zero open on reference day", func(t *testing.T) {
		s := retestSeries()
		s[20].Open = 0

		out := Evaluate(s, mainBoardID(), DragonBack())
		assert.Equal(t, contracts.StatusFailed, out.Status)
		assert.Error(t, out.Err)
	})

	t.Run("all volumes zero", func(t *testing.T) {
		s := flatSeries(30, 10.0, 10.0, 0)

		out := Evaluate(s, mainBoardID(), DragonBack())
		assert.Equal(t, contracts.StatusFailed, out.Status)
		assert.Error(t, out.Err)
	})
}

func TestSupportRetestHistoryBoundary(t *testing.T) {
	p := DragonBack()

	short := flatSeries(29, 10.0, 10.0, 50000)
	out := Evaluate(short, mainBoardID(), p)
	assert.Equal(t, contracts.StatusExcluded, out.Status)
	assert.Contains(t, out.Reason, "数据不足")

	// Exactly the minimum is judged, not skipped.
	exact := retestSeries()
	require.Len(t, exact, p.MinBars)
	out = Evaluate(exact, mainBoardID(), p)
	assert.Equal(t, contracts.StatusMatched, out.Status)
}

func TestSupportRetestEligibility(t *testing.T) {
	p := DragonBack()

	tests := []struct {
		name   string
		id     contracts.Identity
		mutate func(s contracts.BarSeries)
		reason string
	}{
		{
			name:   "chinext code",
			id:     contracts.Identity{Code: "300750", Name: "宁德时代"},
			reason: "排除板块",
		},
		{
			name:   "star market code",
			id:     contracts.Identity{Code: "688981", Name: "中芯国际"},
			reason: "排除板块",
		},
		{
			name:   "st name",
			id:     contracts.Identity{Code: "600069", Name: "ST银鸽"},
			reason: "风险警示",
		},
		{
			name: "price below band",
			id:   mainBoardID(),
			mutate: func(s contracts.BarSeries) {
				s[len(s)-1].Close = 4.99
			},
			reason: "区间",
		},
		{
			name: "price above band",
			id:   mainBoardID(),
			mutate: func(s contracts.BarSeries) {
				s[len(s)-1].Close = 20.01
			},
			reason: "区间",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := retestSeries()
			if tt.mutate != nil {
				tt.mutate(s)
			}
			out := Evaluate(s, tt.id, p)
			assert.Equal(t, contracts.StatusExcluded, out.Status)
			assert.Contains(t, out.Reason, tt.reason)
		})
	}
}

// The scenario from the screening rules' reference description: a 20-bar
// history whose day 10 carries the peak volume at open 10.00 and whose
// latest bar closes at 10.05 on 40% of the reference volume.
func TestSupportRetestReferenceScenario(t *testing.T) {
	p := DragonBack()
	p.MinBars = 20

	s := flatSeries(20, 10.0, 10.0, 30000)
	s[10].Volume = 100000
	s[10].Open = 10.0
	s[len(s)-1].Close = 10.05
	s[len(s)-1].Volume = 40000

	out := Evaluate(s, mainBoardID(), p)
	require.Equal(t, contracts.StatusMatched, out.Status, "reason=%s err=%v", out.Reason, out.Err)
	assert.GreaterOrEqual(t, out.Verdict.Score, 70)
	assert.InDelta(t, 10.00, out.Verdict.SupportPrice, 1e-9)
	assert.InDelta(t, 10.05, out.Verdict.LatestClose, 1e-9)
}

// volumeBottomSeries is the canonical passing fixture for the
// contraction-at-low profile: a 120-bar history with one huge volume day,
// a 40-day price floor of 8.00 and a latest bar sitting just above it on
// under 3% of the peak volume.
func volumeBottomSeries() contracts.BarSeries {
	s := flatSeries(120, 10.0, 10.0, 20000)
	s[30].Volume = 1000000
	s[100].Close = 8.00
	last := len(s) - 1
	s[last].Close = 8.05
	s[last].Volume = 29000
	return s
}

func TestContractionAtLowMatch(t *testing.T) {
	out := Evaluate(volumeBottomSeries(), mainBoardID(), VolumeBottom())
	require.Equal(t, contracts.StatusMatched, out.Status, "reason=%s err=%v", out.Reason, out.Err)

	v := out.Verdict
	assert.InDelta(t, 8.05, v.LatestClose, 1e-9)
	assert.InDelta(t, 29000, v.LatestVolume, 1e-9)
	assert.InDelta(t, 1000000, v.MaxVolume, 1e-9)
	assert.InDelta(t, 8.06, v.LowThreshold, 1e-9)

	// Every emitted verdict satisfies both raw conditions.
	assert.LessOrEqual(t, v.LatestVolume, 0.03*v.MaxVolume+1e-9)
	assert.LessOrEqual(t, v.LatestClose, v.LowThreshold)

	// No scoring on this profile.
	assert.Zero(t, v.Score)
	assert.Empty(t, v.Advice)
}

func TestContractionAtLowNegations(t *testing.T) {
	t.Run("volume too high", func(t *testing.T) {
		s := volumeBottomSeries()
		s[len(s)-1].Volume = 31000 // above 3% of 1,000,000

		out := Evaluate(s, mainBoardID(), VolumeBottom())
		assert.Equal(t, contracts.StatusExcluded, out.Status)
		assert.Contains(t, out.Reason, "量能未达地量")
	})

	t.Run("price not at low", func(t *testing.T) {
		s := volumeBottomSeries()
		s[len(s)-1].Close = 9.0 // above the 8.06 threshold

		out := Evaluate(s, mainBoardID(), VolumeBottom())
		assert.Equal(t, contracts.StatusExcluded, out.Status)
		assert.Contains(t, out.Reason, "价格未处低位")
	})
}

func TestContractionAtLowInclusiveBounds(t *testing.T) {
	t.Run("volume bound is inclusive", func(t *testing.T) {
		// A quarter is exact in binary, so the boundary is testable.
		p := VolumeBottom()
		p.VolumeShrinkMax = 0.25

		s := volumeBottomSeries()
		s[30].Volume = 100000
		s[len(s)-1].Volume = 25000

		out := Evaluate(s, mainBoardID(), p)
		assert.Equal(t, contracts.StatusMatched, out.Status, "reason=%s", out.Reason)
	})

	t.Run("price threshold is inclusive", func(t *testing.T) {
		// A flat window collapses the range so threshold equals floor.
		s := volumeBottomSeries()
		for i := 80; i < 120; i++ {
			s[i].Close = 8.00
		}
		s[len(s)-1].Volume = 29000

		out := Evaluate(s, mainBoardID(), VolumeBottom())
		require.Equal(t, contracts.StatusMatched, out.Status, "reason=%s err=%v", out.Reason, out.Err)
		assert.InDelta(t, 8.00, out.Verdict.LowThreshold, 1e-9)
	})
}

func TestContractionAtLowHistoryBoundary(t *testing.T) {
	short := flatSeries(119, 10.0, 8.0, 20000)
	out := Evaluate(short, mainBoardID(), VolumeBottom())
	assert.Equal(t, contracts.StatusExcluded, out.Status)
	assert.Contains(t, out.Reason, "数据不足")

	exact := volumeBottomSeries()
	require.Len(t, exact, VolumeBottom().MinBars)
	out = Evaluate(exact, mainBoardID(), VolumeBottom())
	assert.Equal(t, contracts.StatusMatched, out.Status)
}

func TestContractionAtLowEligibility(t *testing.T) {
	p := VolumeBottom()

	tests := []struct {
		name   string
		id     contracts.Identity
		reason string
	}{
		{"chinext denied", contracts.Identity{Code: "300059", Name: "东方财富"}, "排除板块"},
		{"bse not allowed", contracts.Identity{Code: "830946", Name: "森萱医药"}, "非目标板块"},
		{"star st name", contracts.Identity{Code: "600870", Name: "*ST厦华"}, "风险警示"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Evaluate(volumeBottomSeries(), tt.id, p)
			assert.Equal(t, contracts.StatusExcluded, out.Status)
			assert.Contains(t, out.Reason, tt.reason)
		})
	}
}

func TestContractionAtLowZeroVolumeWindow(t *testing.T) {
	s := flatSeries(120, 10.0, 10.0, 0)
	out := Evaluate(s, mainBoardID(), VolumeBottom())
	assert.Equal(t, contracts.StatusFailed, out.Status)
	assert.Error(t, out.Err)
}

func TestEvaluateUnknownKind(t *testing.T) {
	p := &Profile{Name: "broken", Kind: Kind("bogus"), MinBars: 2}
	s := flatSeries(5, 10.0, 10.0, 1000)

	out := Evaluate(s, mainBoardID(), p)
	assert.Equal(t, contracts.StatusFailed, out.Status)
	assert.ErrorContains(t, out.Err, "unknown kind")
}

func TestEvaluateIsDeterministic(t *testing.T) {
	s := retestSeries()
	id := mainBoardID()
	p := DragonBack()

	first := Evaluate(s, id, p)
	second := Evaluate(s, id, p)
	assert.Equal(t, first, second)

	b := volumeBottomSeries()
	pb := VolumeBottom()
	assert.Equal(t, Evaluate(b, id, pb), Evaluate(b, id, pb))
}
