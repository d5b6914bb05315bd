package selfmatch

import (
	"context"
	"log"
	"time"

	"github.com/pkg/errors"

	sg "shogi-engine/shogimg"
	"shogi-engine/usi"
)

// Driver plays a series of games between two agents.
type Driver struct {
	cfg      Config
	players  [2]*runner
	provider Provider
	writers  []KifuWriter
	observer Observer
	logger   *log.Logger
	tally    *Tally
}

// NewDriver prepares a match. A nil provider plays from cfg.StartSFEN, or
// the standard start position when that is empty. The players must hold
// distinct agents.
func NewDriver(cfg Config, players [2]Player, provider Provider, writers []KifuWriter, obs Observer, logger *log.Logger) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	for i, p := range players {
		if p.Agent == nil {
			return nil, errors.Errorf("player %d has no agent", i+1)
		}
	}
	if players[0].Agent == players[1].Agent {
		return nil, errors.New("both players share one agent")
	}
	if provider == nil {
		provider = StartPos{}
		if cfg.StartSFEN != "" {
			if _, err := sg.ParseSFEN(cfg.StartSFEN); err != nil {
				return nil, errors.Wrap(err, "start_sfen")
			}
			provider = FixedSFEN(cfg.StartSFEN)
		}
	}
	if obs == nil {
		obs = Observers(nil)
	}
	d := &Driver{
		cfg:      cfg,
		provider: provider,
		writers:  writers,
		observer: obs,
		logger:   logger,
		tally:    NewTally(),
	}
	for i, p := range players {
		d.players[i] = newRunner(p, cfg.LogInfo, logger)
	}
	return d, nil
}

// Tally is the running result count.
func (d *Driver) Tally() *Tally { return d.tally }

// Run plays cfg.Games games, or until ctx is cancelled when Games is 0.
// The agents play First in turn, player one in odd games.
func (d *Driver) Run(ctx context.Context) (*Tally, error) {
	for i, r := range d.players {
		if err := r.configure(d.cfg.Options[i]); err != nil {
			return d.tally, err
		}
	}
	defer func() {
		for _, r := range d.players {
			r.quit()
		}
	}()
	for game := 1; d.cfg.Games == 0 || game <= d.cfg.Games; game++ {
		if ctx.Err() != nil {
			return d.tally, ctx.Err()
		}
		rec, err := d.playGame(ctx, game)
		if err != nil {
			return d.tally, err
		}
		if rec.Reason == ReasonAborted {
			return d.tally, ctx.Err()
		}
		d.record(rec)
	}
	return d.tally, nil
}

func (d *Driver) record(rec *GameRecord) {
	for _, w := range d.writers {
		if err := w.WriteGame(rec); err != nil {
			d.logger.Printf("game %d: kifu: %v", rec.Game, err)
		}
	}
	d.tally.Add(rec)
	d.observer.OnGameEnd(rec)
	winner, ok := rec.Winner()
	if !ok {
		winner = "nobody"
	}
	d.logger.Printf("game %d: %s after %d moves, %s wins", rec.Game, rec.Reason, len(rec.Moves), winner)
}

// ponder is a search running on the predicted reply.
type ponder struct {
	r    *runner
	move sg.Move
	ch   <-chan thinkResult
}

// game is the state of one game in progress.
type game struct {
	rec   *GameRecord
	board *sg.Board
	hist  *sg.History
	clk   *clock
	sides [2]*runner
}

func (g *game) end(o Outcome, r Reason) *GameRecord {
	g.rec.Outcome, g.rec.Reason = o, r
	g.rec.Finished = time.Now()
	return g.rec
}

// loss ends the game against side c.
func (g *game) loss(c sg.Color, r Reason) *GameRecord { return g.end(winFor(c.Opposite()), r) }

func (d *Driver) playGame(ctx context.Context, n int) (*GameRecord, error) {
	sfen, err := d.provider.Next()
	if err != nil {
		return nil, errors.Wrap(err, "next position")
	}
	b, err := sg.ParseSFEN(sfen)
	if err != nil {
		return nil, errors.Wrapf(err, "game %d", n)
	}
	first := (n - 1) % 2
	g := &game{
		board: b,
		hist:  sg.NewHistory(b),
		clk:   newClock(d.cfg),
		sides: [2]*runner{d.players[first], d.players[1-first]},
	}
	g.rec = &GameRecord{
		Game:    n,
		Initial: b.SFEN(),
		First:   g.sides[sg.First].name,
		Second:  g.sides[sg.Second].name,
		Started: time.Now(),
	}
	for _, r := range g.sides {
		if !r.broken {
			r.agent.NewGame()
		}
	}
	d.observer.OnGameStart(GameStart{Game: n, First: g.rec.First, Second: g.rec.Second, SFEN: g.rec.Initial})

	rec, pends := d.play(ctx, g)
	for _, p := range pends {
		if p != nil {
			p.r.settle()
		}
	}
	if rec.Reason != ReasonAborted {
		for c, r := range g.sides {
			r.gameOver(rec.ResultFor(sg.Color(c)))
		}
	}
	return rec, nil
}

// play runs the move loop. It returns the finished record and the ponder
// searches still in flight, indexed by side.
func (d *Driver) play(ctx context.Context, g *game) (*GameRecord, [2]*ponder) {
	var pend [2]*ponder
	for {
		if d.cfg.MaxPly > 0 && len(g.rec.Moves) >= d.cfg.MaxPly {
			return g.end(Draw, ReasonMaxPly), pend
		}
		us := g.board.SideToMove()
		r := g.sides[us]

		var ch <-chan thinkResult
		if p := pend[us]; p != nil {
			last := g.rec.Moves[len(g.rec.Moves)-1]
			if last.SameWire(p.move) {
				r.send(usi.PonderHit{})
				ch = p.ch
			} else {
				r.settle()
			}
			pend[us] = nil
		}
		if ch == nil {
			if err := r.agent.SetPosition(g.board.Clone(), g.hist.Clone()); err != nil {
				d.logger.Printf("%s: set position: %v", r.name, err)
			}
			ch = r.think(g.board.Clone(), g.hist.Clone(), g.clk.limits(us))
		}

		started := time.Now()
		res, timedOut, aborted := d.await(ctx, r, ch, g.clk, us)
		used := time.Since(started)
		if aborted {
			return g.end(Draw, ReasonAborted), pend
		}
		if timedOut || g.clk.charge(us, used, d.cfg.Grace()) {
			return g.loss(us, ReasonTimeout), pend
		}
		if res.err != nil {
			d.logger.Printf("%s: %v", r.name, res.err)
			return g.loss(us, ReasonAgentFailure), pend
		}

		best := res.best
		switch {
		case best.Resign:
			return g.loss(us, ReasonResign), pend
		case best.Win:
			if g.board.IsNyugyokuWin(time.Time{}) {
				return g.end(winFor(us), ReasonNyugyoku), pend
			}
			return g.loss(us, ReasonFalseDeclaration), pend
		case best.Move == sg.NullMove:
			return g.loss(us, ReasonIllegalMove), pend
		}

		m := best.Move
		if takesKing(g.board, m) {
			g.rec.Moves = append(g.rec.Moves, g.board.Annotate(m))
			g.rec.Times = append(g.rec.Times, used)
			return g.end(winFor(us), ReasonKingCapture), pend
		}
		lm, ok := g.board.FindLegal(m)
		if !ok {
			d.logger.Printf("%s played %v in %s", r.name, m, g.board.SFEN())
			if g.board.IsDropPawnMate(m) {
				return g.loss(us, ReasonDropPawnMate), pend
			}
			return g.loss(us, ReasonIllegalMove), pend
		}

		g.board.MakeMove(lm)
		g.rec.Moves = append(g.rec.Moves, lm)
		g.rec.Times = append(g.rec.Times, used)
		verdict := g.hist.Push(g.board)
		d.observer.OnMove(MoveEvent{
			Game:      g.rec.Game,
			Ply:       len(g.rec.Moves),
			Side:      us.String(),
			Move:      lm.String(),
			SFEN:      g.board.SFEN(),
			ElapsedMs: used.Milliseconds(),
		})

		switch verdict {
		case sg.RepetitionDraw:
			return g.end(Draw, ReasonSennichite), pend
		case sg.RepetitionLossFirst:
			return g.loss(sg.First, ReasonPerpetualCheck), pend
		case sg.RepetitionLossSecond:
			return g.loss(sg.Second, ReasonPerpetualCheck), pend
		}
		if g.board.IsMate() {
			return g.end(winFor(us), ReasonMate), pend
		}
		if d.cfg.Ponder && best.Ponder != sg.NullMove {
			pend[us] = d.startPonder(g, r, us, best.Ponder)
		}
	}
}

// takesKing reports whether m captures the enemy King with a piece that
// really attacks it. The move generator never produces such moves.
func takesKing(b *sg.Board, m sg.Move) bool {
	if !b.IsWinMove(m) {
		return false
	}
	p := b.PieceAt(m.From())
	if p == sg.Blank || p.Color() != b.SideToMove() {
		return false
	}
	return sg.PieceAttacks(p, m.From(), b.AllOccupancy()).Has(m.To())
}

// startPonder sets r thinking on the position after the predicted reply.
// An illegal prediction is ignored.
func (d *Driver) startPonder(g *game, r *runner, us sg.Color, predicted sg.Move) *ponder {
	pb := g.board.Clone()
	pm, ok := pb.FindLegal(predicted)
	if !ok {
		return nil
	}
	pb.MakeMove(pm)
	ph := g.hist.Clone()
	ph.Push(pb)
	if err := r.agent.SetPosition(pb.Clone(), ph.Clone()); err != nil {
		d.logger.Printf("%s: set ponder position: %v", r.name, err)
		return nil
	}
	lim := g.clk.limits(us)
	lim.Ponder = true
	return &ponder{r: r, move: pm, ch: r.think(pb, ph, lim)}
}

// await waits for a think. When the allowance runs out the agent is told
// to stop and gets the grace period to answer before it loses on time.
func (d *Driver) await(ctx context.Context, r *runner, ch <-chan thinkResult, clk *clock, us sg.Color) (res thinkResult, timedOut, aborted bool) {
	limit, ok := clk.allowance(us)
	var expire <-chan time.Time
	if ok {
		t := time.NewTimer(limit)
		defer t.Stop()
		expire = t.C
	}
	select {
	case res = <-ch:
		r.collected()
		return res, false, false
	case <-ctx.Done():
		r.send(usi.Quit{})
		r.settle()
		return res, false, true
	case <-expire:
		r.send(usi.Stop{})
	}
	grace := time.NewTimer(d.cfg.Grace())
	defer grace.Stop()
	select {
	case res = <-ch:
		r.collected()
		return res, false, false
	case <-grace.C:
		return res, true, false
	case <-ctx.Done():
		r.send(usi.Quit{})
		r.settle()
		return res, false, true
	}
}
