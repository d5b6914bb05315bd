package selfmatch

// GameStart announces a new game.
type GameStart struct {
	Game   int    `json:"game"`
	First  string `json:"first"`
	Second string `json:"second"`
	SFEN   string `json:"sfen"`
}

// MoveEvent is one accepted move.
type MoveEvent struct {
	Game      int    `json:"game"`
	Ply       int    `json:"ply"`
	Side      string `json:"side"`
	Move      string `json:"move"`
	SFEN      string `json:"sfen"`
	ElapsedMs int64  `json:"elapsed_ms"`
}

// Observer follows a match as it is played. Calls come from the driver
// goroutine and should not block for long.
type Observer interface {
	OnGameStart(GameStart)
	OnMove(MoveEvent)
	OnGameEnd(*GameRecord)
}

// Observers fans events out to several observers.
type Observers []Observer

func (o Observers) OnGameStart(e GameStart) {
	for _, x := range o {
		x.OnGameStart(e)
	}
}

func (o Observers) OnMove(e MoveEvent) {
	for _, x := range o {
		x.OnMove(e)
	}
}

func (o Observers) OnGameEnd(g *GameRecord) {
	for _, x := range o {
		x.OnGameEnd(g)
	}
}
