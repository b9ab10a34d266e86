package bunk

import "github.com/studzonetools/bunker/internal/studzone"

// Adjustment is a caller-supplied additive correction for one course, used
// when classes were held that the portal has not posted yet. It is never
// produced by a fetch and is cleared explicitly by the caller.
type Adjustment struct {
	CourseCode   string `json:"course_code"`
	ExtraHours   int    `json:"extra_hours"`
	ExtraPresent int    `json:"extra_present"`
}

// Merge returns a new record with the adjustment's hours folded in and the
// percentage recomputed from the new totals. The fetched record is not
// mutated; its portal-reported percentage is deliberately discarded so the
// two representations cannot diverge.
func Merge(rec studzone.CourseAttendance, adj Adjustment) studzone.CourseAttendance {
	out := rec
	out.TotalHours += adj.ExtraHours
	out.TotalPresent += adj.ExtraPresent
	if out.TotalHours > 0 {
		out.Percentage = round2(percentage(out.TotalPresent, out.TotalHours))
	} else {
		out.Percentage = 0
	}
	return out
}
