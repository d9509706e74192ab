// Package deadline computes remaining or overdue time against a response
// deadline, for display and for the sweeper's expiry check.
package deadline

import (
	"fmt"
	"math"
	"time"
)

// Remaining describes the time left until (or elapsed since) a deadline.
type Remaining struct {
	// Minutes is the magnitude in whole minutes; its direction is carried
	// by Overdue.
	Minutes int
	Overdue bool
	Display string
}

// TimeRemaining reports the whole-minute difference between deadline and
// now. Partial minutes round toward "more time has passed", so a deadline
// 90 seconds away is 1 minute remaining and one 30 seconds past is 1 minute
// overdue. A deadline exactly now is overdue with magnitude 0. Total over
// all inputs; there are no error cases.
func TimeRemaining(deadline, now time.Time) Remaining {
	diff := int(math.Floor(deadline.Sub(now).Minutes()))

	if diff <= 0 {
		overdueBy := -diff
		return Remaining{
			Minutes: overdueBy,
			Overdue: true,
			Display: fmt.Sprintf("%dm overdue", overdueBy),
		}
	}

	if diff < 60 {
		return Remaining{
			Minutes: diff,
			Display: fmt.Sprintf("%dm remaining", diff),
		}
	}

	return Remaining{
		Minutes: diff,
		Display: fmt.Sprintf("%dh %dm remaining", diff/60, diff%60),
	}
}
