// Package contracts defines the data structures shared between pipeline
// stages. Stages communicate only through these types so that each stage
// can be tested against fixed inputs without touching the others.
package contracts

import "time"

// Bar is a single daily OHLCV record for one instrument.
// Only the fields the screening rules read are carried.
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// BarSeries is a date-ascending run of daily bars for one instrument.
// The last element is the most recent session.
type BarSeries []Bar

// Len returns the number of bars in the series.
func (s BarSeries) Len() int { return len(s) }

// Latest returns the most recent bar. It panics on an empty series;
// callers gate on Len before reading.
func (s BarSeries) Latest() Bar { return s[len(s)-1] }

// Tail returns the trailing n bars including the latest. If the series
// holds fewer than n bars the whole series is returned.
func (s BarSeries) Tail(n int) BarSeries {
	if n >= len(s) {
		return s
	}
	return s[len(s)-n:]
}
