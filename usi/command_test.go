package usi_test

import (
	"testing"
	"time"

	"github.com/pkg/errors"

	sg "shogi-engine/shogimg"
	"shogi-engine/usi"
)

func TestParseSimpleCommands(t *testing.T) {
	cases := map[string]usi.Kind{
		"usi":        usi.KindUsi,
		"isready":    usi.KindIsReady,
		"usinewgame": usi.KindUsiNewGame,
		"stop":       usi.KindStop,
		"ponderhit":  usi.KindPonderHit,
		"quit":       usi.KindQuit,
		"  quit  ":   usi.KindQuit,
	}
	for line, want := range cases {
		cmd, err := usi.ParseCommand(line)
		if err != nil {
			t.Fatalf("ParseCommand(%q): %v", line, err)
		}
		if cmd.Kind() != want {
			t.Fatalf("ParseCommand(%q): kind %v want %v", line, cmd.Kind(), want)
		}
	}
}

func TestParseUnknownAndMalformed(t *testing.T) {
	unknown := []string{"", "   ", "uci", "hello world"}
	for _, line := range unknown {
		if _, err := usi.ParseCommand(line); errors.Cause(err) != usi.ErrUnknownCommand {
			t.Fatalf("ParseCommand(%q): got %v want ErrUnknownCommand", line, err)
		}
	}
	malformed := []string{
		"setoption",
		"setoption value 3",
		"position",
		"position fen 8/8 w",
		"position sfen lnsgkgsnl b",
		"position startpos 7g7f",
		"position startpos moves 7g7x",
		"go btime",
		"go btime abc",
		"go depth -1",
		"go frobnicate 3",
		"gameover",
		"gameover maybe",
	}
	for _, line := range malformed {
		if _, err := usi.ParseCommand(line); errors.Cause(err) != usi.ErrMalformed {
			t.Fatalf("ParseCommand(%q): got %v want ErrMalformed", line, err)
		}
	}
}

func TestParseSetOption(t *testing.T) {
	cmd, err := usi.ParseCommand("setoption name USI_Hash value 256")
	if err != nil {
		t.Fatal(err)
	}
	so := cmd.(usi.SetOption)
	if so.Name != "USI_Hash" || so.Value != "256" || !so.HasValue {
		t.Fatalf("got %+v", so)
	}
	cmd, _ = usi.ParseCommand("setoption name Book File value /tmp/my book.db")
	so = cmd.(usi.SetOption)
	if so.Name != "Book File" || so.Value != "/tmp/my book.db" {
		t.Fatalf("got %+v", so)
	}
	cmd, _ = usi.ParseCommand("setoption name Clear Hash")
	so = cmd.(usi.SetOption)
	if so.Name != "Clear Hash" || so.HasValue {
		t.Fatalf("got %+v", so)
	}
}

func TestParsePosition(t *testing.T) {
	cmd, err := usi.ParseCommand("position startpos moves 7g7f 3c3d 8h2b+")
	if err != nil {
		t.Fatal(err)
	}
	pos := cmd.(usi.Position)
	if pos.SFEN != sg.StartSFEN || len(pos.Moves) != 3 || pos.Moves[2].String() != "8h2b+" {
		t.Fatalf("got %+v", pos)
	}
	if got := pos.String(); got != "position startpos moves 7g7f 3c3d 8h2b+" {
		t.Fatalf("String: %q", got)
	}
	b, err := pos.Board()
	if err != nil {
		t.Fatalf("Board: %v", err)
	}
	if b.Hand(sg.First).Count(sg.Bishop) != 1 {
		t.Fatalf("hand after replay: %v", b.Hand(sg.First))
	}

	line := "position sfen lnsgkgsnl/1r5b1/ppppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSNL w - 1 moves 3c3d"
	cmd, err = usi.ParseCommand(line)
	if err != nil {
		t.Fatal(err)
	}
	pos = cmd.(usi.Position)
	if pos.String() != line {
		t.Fatalf("String: %q", pos.String())
	}

	cmd, _ = usi.ParseCommand("position startpos moves 7g7f 7g7f")
	if _, err := cmd.(usi.Position).Board(); errors.Cause(err) != sg.ErrIllegalMove {
		t.Fatalf("illegal replay: %v", err)
	}
}

func TestParseGo(t *testing.T) {
	cmd, err := usi.ParseCommand("go ponder btime 60000 wtime 50000 byoyomi 10000 binc 0 winc 0")
	if err != nil {
		t.Fatal(err)
	}
	g := cmd.(usi.Go)
	if !g.Ponder || g.BTime != time.Minute || g.WTime != 50*time.Second || g.Byoyomi != 10*time.Second {
		t.Fatalf("got %+v", g)
	}
	if clock, _ := g.Remaining(sg.Second); clock != 50*time.Second {
		t.Fatalf("remaining second: %v", clock)
	}

	cmd, _ = usi.ParseCommand("go infinite")
	if !cmd.(usi.Go).Infinite {
		t.Fatalf("infinite not set")
	}
	cmd, _ = usi.ParseCommand("go mate infinite")
	if g := cmd.(usi.Go); !g.Mate || !g.MateInfinite {
		t.Fatalf("mate infinite: %+v", g)
	}
	cmd, _ = usi.ParseCommand("go mate 3000")
	if g := cmd.(usi.Go); !g.Mate || g.MateTime != 3*time.Second {
		t.Fatalf("mate 3000: %+v", g)
	}
	cmd, _ = usi.ParseCommand("go movetime 500 depth 4")
	if g := cmd.(usi.Go); g.MoveTime != 500*time.Millisecond || g.Depth != 4 {
		t.Fatalf("movetime/depth: %+v", g)
	}
	if s := cmd.(usi.Go).String(); s != "go movetime 500 depth 4" {
		t.Fatalf("String: %q", s)
	}
}

func TestParseGameOver(t *testing.T) {
	for s, want := range map[string]usi.GameResult{"win": usi.Win, "lose": usi.Lose, "draw": usi.Draw} {
		cmd, err := usi.ParseCommand("gameover " + s)
		if err != nil {
			t.Fatal(err)
		}
		if got := cmd.(usi.GameOver).Result; got != want {
			t.Fatalf("gameover %s: %v", s, got)
		}
	}
	if usi.Win.Opposite() != usi.Lose || usi.Draw.Opposite() != usi.Draw {
		t.Fatalf("Opposite")
	}
}
