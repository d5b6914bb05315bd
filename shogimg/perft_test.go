package shogimg_test

import (
	"testing"

	sg "shogi-engine/shogimg"
)

func TestPerftInitialPosition(t *testing.T) {
	b := sg.NewBoard()
	want := []uint64{1, 30, 900, 25470}
	for depth, n := range want {
		if got := sg.Perft(b, depth); got != n {
			t.Fatalf("perft depth%d: got %d want %d", depth, got, n)
		}
	}
	if b.SFEN() != sg.StartSFEN {
		t.Fatalf("perft left the board modified: %q", b.SFEN())
	}
}

func TestPerftStatsInitialPosition(t *testing.T) {
	b := sg.NewBoard()
	got := sg.PerftWithStats(b, 3)
	want := sg.PerftStats{Nodes: 25470, Captures: 59, Promotions: 30, Checks: 48, Mates: 0}
	if got != want {
		t.Fatalf("perft stats depth3: got %+v want %+v", got, want)
	}
}

func TestPerftDepth4(t *testing.T) {
	if testing.Short() {
		t.Skip("slow")
	}
	b := sg.NewBoard()
	if got := sg.Perft(b, 4); got != 719731 {
		t.Fatalf("perft depth4: got %d want %d", got, 719731)
	}
}

func TestPerftDivideSumsToPerft(t *testing.T) {
	b := sg.NewBoard()
	div := sg.PerftDivide(b, 2)
	if len(div) != 30 {
		t.Fatalf("divide: %d root moves", len(div))
	}
	var sum uint64
	for m, n := range div {
		if n != 30 {
			t.Fatalf("divide %v: got %d want 30", m, n)
		}
		sum += n
	}
	if sum != sg.Perft(b, 2) {
		t.Fatalf("divide sum %d != perft %d", sum, sg.Perft(b, 2))
	}
}
