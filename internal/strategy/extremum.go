package strategy

import "github.com/luheng/fupan/internal/contracts"

// extrema is what the evaluators need from an instrument's trailing
// windows: the bar that set the volume maximum plus the close-price
// floor and ceiling.
type extrema struct {
	// refBar is the bar with the maximum volume inside the trailing
	// volume window. Ties resolve to the earliest such bar.
	refBar contracts.Bar
	// floorClose and ceilClose bound the close price over the trailing
	// price window. Both stay zero when priceWindow is zero.
	floorClose float64
	ceilClose  float64
}

// locateExtrema scans the trailing volWindow bars for the peak-volume
// day and, when priceWindow is positive, the trailing priceWindow bars
// for the close extremes. History before the windows is not consulted.
func locateExtrema(s contracts.BarSeries, volWindow, priceWindow int) extrema {
	recent := s.Tail(volWindow)
	ex := extrema{refBar: recent[0]}
	for _, b := range recent[1:] {
		// Strict comparison keeps the first occurrence on equal volume.
		if b.Volume > ex.refBar.Volume {
			ex.refBar = b
		}
	}

	if priceWindow > 0 {
		win := s.Tail(priceWindow)
		ex.floorClose = win[0].Close
		ex.ceilClose = win[0].Close
		for _, b := range win[1:] {
			if b.Close < ex.floorClose {
				ex.floorClose = b.Close
			}
			if b.Close > ex.ceilClose {
				ex.ceilClose = b.Close
			}
		}
	}
	return ex
}

// smaClose returns the simple moving average of the trailing period
// closes, the latest bar included.
func smaClose(s contracts.BarSeries, period int) float64 {
	win := s.Tail(period)
	var sum float64
	for _, b := range win {
		sum += b.Close
	}
	return sum / float64(len(win))
}
