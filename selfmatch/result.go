package selfmatch

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	sg "shogi-engine/shogimg"
	"shogi-engine/usi"
)

// Reason is why a game ended.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonKingCapture
	ReasonMate
	ReasonResign
	ReasonIllegalMove
	ReasonTimeout
	ReasonNyugyoku
	ReasonFalseDeclaration
	ReasonSennichite
	ReasonPerpetualCheck
	ReasonDropPawnMate
	ReasonMaxPly
	ReasonAgentFailure
	ReasonAborted
)

var reasonNames = map[Reason]string{
	ReasonNone:             "none",
	ReasonKingCapture:      "king capture",
	ReasonMate:             "mate",
	ReasonResign:           "resign",
	ReasonIllegalMove:      "illegal move",
	ReasonTimeout:          "timeout",
	ReasonNyugyoku:         "nyugyoku",
	ReasonFalseDeclaration: "false declaration",
	ReasonSennichite:       "sennichite",
	ReasonPerpetualCheck:   "perpetual check",
	ReasonDropPawnMate:     "drop pawn mate",
	ReasonMaxPly:           "max ply",
	ReasonAgentFailure:     "agent failure",
	ReasonAborted:          "aborted",
}

func (r Reason) String() string {
	if s, ok := reasonNames[r]; ok {
		return s
	}
	return "?"
}

func (r Reason) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// Outcome is the result of a game from the board's point of view.
type Outcome int

const (
	FirstWins Outcome = iota
	SecondWins
	Draw
)

func (o Outcome) String() string {
	switch o {
	case FirstWins:
		return "first"
	case SecondWins:
		return "second"
	}
	return "draw"
}

func (o Outcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

func winFor(c sg.Color) Outcome {
	if c == sg.First {
		return FirstWins
	}
	return SecondWins
}

// GameRecord is a finished game.
type GameRecord struct {
	Game     int
	Initial  string
	Moves    []sg.Move
	Times    []time.Duration
	First    string
	Second   string
	Outcome  Outcome
	Reason   Reason
	Started  time.Time
	Finished time.Time
}

// ResultFor returns the game end state seen by side c.
func (g *GameRecord) ResultFor(c sg.Color) usi.GameResult {
	switch {
	case g.Outcome == Draw:
		return usi.Draw
	case g.Outcome == winFor(c):
		return usi.Win
	}
	return usi.Lose
}

// Winner returns the name of the winning agent.
func (g *GameRecord) Winner() (string, bool) {
	switch g.Outcome {
	case FirstWins:
		return g.First, true
	case SecondWins:
		return g.Second, true
	}
	return "", false
}

// MoveStrings returns the moves in USI notation.
func (g *GameRecord) MoveStrings() []string {
	out := make([]string, len(g.Moves))
	for i, m := range g.Moves {
		out[i] = m.String()
	}
	return out
}

// USI renders the record as "<initial-sfen> moves <m1> <m2> ...".
func (g *GameRecord) USI() string {
	return g.Initial + " moves " + strings.Join(g.MoveStrings(), " ")
}

func (g *GameRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Game     int       `json:"game"`
		Initial  string    `json:"initial"`
		Moves    []string  `json:"moves"`
		First    string    `json:"first"`
		Second   string    `json:"second"`
		Outcome  Outcome   `json:"outcome"`
		Reason   Reason    `json:"reason"`
		Started  time.Time `json:"started"`
		Finished time.Time `json:"finished"`
	}{g.Game, g.Initial, g.MoveStrings(), g.First, g.Second, g.Outcome, g.Reason, g.Started, g.Finished})
}

// Score counts the results of one agent.
type Score struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Draws  int `json:"draws"`
}

// Games is the number of games counted.
func (s Score) Games() int { return s.Wins + s.Losses + s.Draws }

// Rate is the score fraction, draws counting half.
func (s Score) Rate() float64 {
	if s.Games() == 0 {
		return 0
	}
	return (float64(s.Wins) + float64(s.Draws)/2) / float64(s.Games())
}

// Tally accumulates results. It is safe for concurrent use.
type Tally struct {
	mu       sync.Mutex
	games    int
	agents   map[string]*Score
	reasons  map[Reason]int
	outcomes map[Outcome]int
}

func NewTally() *Tally {
	return &Tally{
		agents:   make(map[string]*Score),
		reasons:  make(map[Reason]int),
		outcomes: make(map[Outcome]int),
	}
}

func (t *Tally) score(name string) *Score {
	s, ok := t.agents[name]
	if !ok {
		s = &Score{}
		t.agents[name] = s
	}
	return s
}

// Add records one game.
func (t *Tally) Add(g *GameRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.games++
	t.reasons[g.Reason]++
	t.outcomes[g.Outcome]++
	first, second := t.score(g.First), t.score(g.Second)
	switch g.Outcome {
	case FirstWins:
		first.Wins++
		second.Losses++
	case SecondWins:
		first.Losses++
		second.Wins++
	default:
		first.Draws++
		second.Draws++
	}
}

// TallySnapshot is a copy of a Tally's counters.
type TallySnapshot struct {
	Games    int              `json:"games"`
	Agents   map[string]Score `json:"agents"`
	Reasons  map[string]int   `json:"reasons"`
	Outcomes map[string]int   `json:"outcomes"`
}

// Snapshot copies the counters.
func (t *Tally) Snapshot() TallySnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := TallySnapshot{
		Games:    t.games,
		Agents:   make(map[string]Score, len(t.agents)),
		Reasons:  make(map[string]int, len(t.reasons)),
		Outcomes: make(map[string]int, len(t.outcomes)),
	}
	for name, sc := range t.agents {
		s.Agents[name] = *sc
	}
	for r, n := range t.reasons {
		s.Reasons[r.String()] = n
	}
	for o, n := range t.outcomes {
		s.Outcomes[o.String()] = n
	}
	return s
}

// AgentNames returns the agents seen so far, sorted.
func (s TallySnapshot) AgentNames() []string {
	names := maps.Keys(s.Agents)
	slices.Sort(names)
	return names
}

// ReasonNames returns the termination reasons seen so far, sorted.
func (s TallySnapshot) ReasonNames() []string {
	names := maps.Keys(s.Reasons)
	slices.Sort(names)
	return names
}
