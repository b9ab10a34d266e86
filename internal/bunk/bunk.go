// Package bunk computes how many future classes a student must attend, or
// may skip, to keep attendance at or above a threshold.
package bunk

import (
	"fmt"
	"math"
)

// Status says which side of the threshold the student is on.
type Status int

const (
	NeedAttend Status = iota
	CanBunk
)

func (s Status) String() string {
	if s == CanBunk {
		return "can_bunk"
	}
	return "need_attend"
}

func (s Status) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// Projection is the outcome of one projection. Count is the number of
// classes to attend (NeedAttend) or classes that may be skipped (CanBunk),
// never negative. ResultingPercentage is the percentage after following the
// advice.
type Projection struct {
	Status              Status  `json:"status"`
	Count               int     `json:"count"`
	CurrentPercentage   float64 `json:"current_percentage"`
	ResultingPercentage float64 `json:"resulting_percentage"`
}

// WhatIf layers a hypothetical block of future classes on top of the
// current totals. CurrentPercentage is the pre-change value; the Projection
// is computed over the summed totals.
type WhatIf struct {
	CurrentPercentage float64    `json:"current_percentage"`
	Projection        Projection `json:"projection"`
}

// Threshold is the single point where a threshold in either unit system is
// normalized to a fraction. Values in (0,1) pass through; values in [1,100)
// are read as percentages. Anything else, including a full 100%, is
// rejected: the projection arithmetic divides by 1-threshold.
func Threshold(v float64) (float64, error) {
	switch {
	case v > 0 && v < 1:
		return v, nil
	case v >= 1 && v < 100:
		return v / 100, nil
	default:
		return 0, fmt.Errorf("bunk: threshold %v must be in (0,1) or [1,100)", v)
	}
}

// Project computes the projection for the given totals against a fractional
// threshold. totalHours == 0 means no attendance history exists yet; the
// projection is vacuous, not an error.
func Project(totalHours, totalPresent int, threshold float64) Projection {
	if totalHours <= 0 {
		return Projection{Status: NeedAttend}
	}

	current := percentage(totalPresent, totalHours)
	p := Projection{CurrentPercentage: round2(current)}

	if current <= threshold*100 {
		need := int(math.Ceil((threshold*float64(totalHours) - float64(totalPresent)) / (1 - threshold)))
		if need < 0 {
			need = 0
		}
		p.Status = NeedAttend
		p.Count = need
		p.ResultingPercentage = round2(percentage(totalPresent+need, totalHours+need))
	} else {
		spare := int(math.Floor((float64(totalPresent) - threshold*float64(totalHours)) / threshold))
		if spare < 0 {
			spare = 0
		}
		p.Status = CanBunk
		p.Count = spare
		p.ResultingPercentage = round2(percentage(totalPresent, totalHours+spare))
	}
	return p
}

// ProjectWhatIf projects over current totals plus a planned block of future
// classes. futureAttended exceeding futureClasses is the caller's
// validation concern; the arithmetic here is always computed.
func ProjectWhatIf(curHours, curPresent, futureClasses, futureAttended int, threshold float64) WhatIf {
	var w WhatIf
	if curHours > 0 {
		w.CurrentPercentage = round2(percentage(curPresent, curHours))
	}
	w.Projection = Project(curHours+futureClasses, curPresent+futureAttended, threshold)
	return w
}

func percentage(present, hours int) float64 {
	return float64(present) / float64(hours) * 100
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
