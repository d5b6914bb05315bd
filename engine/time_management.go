package engine

import (
	"time"

	"golang.org/x/exp/constraints"

	sg "shogi-engine/shogimg"
	"shogi-engine/usi"
)

// TimeHandler turns the limits of a "go" into a soft deadline for the side
// to move.
type TimeHandler struct {
	remainingTime time.Duration
	increment     time.Duration
	byoyomi       time.Duration
	moveTime      time.Duration
	madeMoveCount int
	timeForMove   time.Time
	budget        time.Duration
	unlimited     bool
}

const (
	overhead      = 30 * time.Millisecond // reserve for IO jitter
	minMoveTime   = 5 * time.Millisecond
	maxFrac       = 0.7 // never spend more than 70% of the clock
	panicThresh   = time.Second
	panicFrac     = 0.9
	defaultMovesN = 40
)

func clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// StartTime computes the budget for the side to move of b and anchors the
// deadline at now. Infinite, ponder and mate-infinite searches, and a go
// with no limits at all, get no deadline.
func (th *TimeHandler) StartTime(b *sg.Board, g usi.Go, now time.Time) {
	th.remainingTime, th.increment = g.Remaining(b.SideToMove())
	th.byoyomi = g.Byoyomi
	th.moveTime = g.MoveTime
	th.madeMoveCount = b.MoveNumber()
	th.unlimited = g.Infinite || (g.Mate && g.MateInfinite)
	if g.Mate && !g.MateInfinite {
		th.moveTime = g.MateTime
	}
	if th.remainingTime == 0 && th.increment == 0 && th.byoyomi == 0 && th.moveTime == 0 {
		th.unlimited = true
	}
	th.budget = th.allocate()
	th.Update(now)
}

func (th *TimeHandler) allocate() time.Duration {
	if th.moveTime > 0 {
		return clamp(th.moveTime-overhead, minMoveTime, th.moveTime)
	}
	rem := th.remainingTime
	inc := th.increment
	byo := th.byoyomi
	movesLeft := estimateMovesRemaining(th.madeMoveCount)

	var moveTime time.Duration
	switch {
	case inc > 0 && rem < panicThresh:
		// bank a little time
		moveTime = time.Duration(float64(inc) * panicFrac)
	case inc > 0:
		moveTime = rem/time.Duration(movesLeft) + inc
	case byo > 0:
		moveTime = rem/time.Duration(movesLeft) + byo
	default:
		moveTime = rem / defaultMovesN
	}

	// byoyomi is spendable in full once the main clock is gone
	usable := rem + byo
	ceiling := time.Duration(float64(rem) * maxFrac)
	if byo > 0 {
		ceiling += byo
	}
	if moveTime > ceiling {
		moveTime = ceiling
	}
	if moveTime > usable-overhead {
		moveTime = usable - overhead
	}
	if moveTime < minMoveTime {
		moveTime = minMoveTime
	}
	return moveTime
}

// Update re-anchors the deadline at now with the same budget. Used on
// ponderhit.
func (th *TimeHandler) Update(now time.Time) {
	th.timeForMove = now.Add(th.budget)
}

// Deadline returns the soft deadline, or false when the search is
// unlimited.
func (th *TimeHandler) Deadline() (time.Time, bool) {
	if th.unlimited {
		return time.Time{}, false
	}
	return th.timeForMove, true
}

// Budget is the time allotted to the move.
func (th *TimeHandler) Budget() time.Duration { return th.budget }

// TimeStatus reports whether the deadline has passed at now.
func (th *TimeHandler) TimeStatus(now time.Time) bool {
	return !th.unlimited && th.timeForMove.Before(now)
}

// estimateMovesRemaining assumes long openings and short endgames: 50
// moves left at the start, falling to 20 by move 120.
func estimateMovesRemaining(moveNumber int) int {
	return clamp(50-moveNumber/4, 20, 50)
}
