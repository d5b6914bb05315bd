package selfmatch

import (
	"time"

	sg "shogi-engine/shogimg"
	"shogi-engine/usi"
)

// clock keeps both sides' main time for one game.
type clock struct {
	moveTime  time.Duration
	gameTime  time.Duration
	byoyomi   time.Duration
	remaining [2]time.Duration
}

func newClock(cfg Config) *clock {
	c := &clock{
		moveTime: cfg.MoveTime(),
		gameTime: cfg.GameTime(),
		byoyomi:  cfg.Byoyomi(),
	}
	c.remaining = [2]time.Duration{c.gameTime, c.gameTime}
	return c
}

func (c *clock) timed() bool { return c.gameTime > 0 || c.byoyomi > 0 }

// limits builds the go command for side s.
func (c *clock) limits(s sg.Color) usi.Go {
	if !c.timed() {
		if c.moveTime > 0 {
			return usi.Go{MoveTime: c.moveTime}
		}
		return usi.Go{Infinite: true}
	}
	return usi.Go{
		BTime:    c.remaining[sg.First],
		WTime:    c.remaining[sg.Second],
		Byoyomi:  c.byoyomi,
		MoveTime: c.moveTime,
	}
}

// allowance is how long side s may think before being stopped. ok is
// false when the game has no time limit.
func (c *clock) allowance(s sg.Color) (d time.Duration, ok bool) {
	if !c.timed() {
		return c.moveTime, c.moveTime > 0
	}
	d = c.remaining[s] + c.byoyomi
	if c.moveTime > 0 && c.moveTime < d {
		d = c.moveTime
	}
	return d, true
}

// charge takes used off side s's clock and reports a time loss. Byoyomi
// is spent only once the main time runs out and never carries over.
func (c *clock) charge(s sg.Color, used, grace time.Duration) (flagged bool) {
	if !c.timed() {
		return c.moveTime > 0 && used > c.moveTime+grace
	}
	if used <= c.remaining[s] {
		c.remaining[s] -= used
		return false
	}
	over := used - c.remaining[s]
	c.remaining[s] = 0
	return over > c.byoyomi+grace
}
