package shogimg_test

import (
	"math/rand"
	"testing"

	sg "shogi-engine/shogimg"
)

// randomPlayout plays up to plies random legal moves from b and checks the
// board invariants after every move and every undo.
func randomPlayout(t *testing.T, b *sg.Board, rnd *rand.Rand, plies int) {
	t.Helper()
	for ply := 0; ply < plies; ply++ {
		moves := b.LegalMoves()
		if len(moves) == 0 {
			return
		}
		m := moves[rnd.Intn(len(moves))]
		before := b.SFEN()
		beforeHash := b.Hash()
		us := b.SideToMove()

		st := b.MakeMove(m)
		if err := b.Validate(); err != nil {
			t.Fatalf("after %v from %q: %v", m, before, err)
		}
		if b.InCheck(us) {
			t.Fatalf("%v from %q leaves the mover in check", m, before)
		}
		if b.Hash() != sg.ComputeHash(b) {
			t.Fatalf("incremental hash drifted after %v", m)
		}
		round, err := sg.ParseSFEN(b.SFEN())
		if err != nil {
			t.Fatalf("reparse %q: %v", b.SFEN(), err)
		}
		if *round != *b {
			t.Fatalf("sfen round trip changed the board: %q", b.SFEN())
		}

		b.UnmakeMove(st)
		if b.SFEN() != before || b.Hash() != beforeHash {
			t.Fatalf("unmake %v: got %q want %q", m, b.SFEN(), before)
		}
		b.MakeMove(m)
	}
}

func TestRandomPlayoutsKeepInvariants(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	games := 40
	if testing.Short() {
		games = 5
	}
	for g := 0; g < games; g++ {
		randomPlayout(t, sg.NewBoard(), rnd, 150)
	}
}

func TestHashReplayFromStart(t *testing.T) {
	b := sg.NewBoard()
	start := b.Hash()
	undo1 := b.Apply(mustMove(t, "2g2f"))
	undo2 := b.Apply(mustMove(t, "8c8d"))
	if b.Hash() == start {
		t.Fatalf("hash unchanged after two moves")
	}
	undo2()
	undo1()
	if b.Hash() != start {
		t.Fatalf("hash after undo: %v want %v", b.Hash(), start)
	}
	// Transposed move orders reach the same hash.
	x := sg.NewBoard()
	x.ApplyUSI("2g2f", "8c8d", "7g7f")
	y := sg.NewBoard()
	y.ApplyUSI("7g7f", "8c8d", "2g2f")
	if x.Hash() != y.Hash() {
		t.Fatalf("transposition hashes differ")
	}
}

func TestNextLeavesBoardUntouched(t *testing.T) {
	b := sg.MustParseSFEN("lnsgkg1nl/1r5s1/pppppp1pp/6p2/9/2P6/PP1PPPPPP/7R1/LNSGKGSNL b Bb 5")
	before := b.SFEN()
	nb, captured := b.Next(mustMove(t, "B*5e"))
	if captured != sg.NoPieceType {
		t.Fatalf("captured: %v", captured)
	}
	if b.SFEN() != before {
		t.Fatalf("Next modified the receiver")
	}
	if nb.PieceAt(sg.NewSquare(4, 4)) != sg.NewPiece(sg.First, sg.Bishop) {
		t.Fatalf("5e: %v", nb.PieceAt(sg.NewSquare(4, 4)))
	}

	_, captured = sg.NewBoard().Next(mustMove(t, "7g7f"))
	if captured != sg.NoPieceType {
		t.Fatalf("quiet move captured %v", captured)
	}
}

func TestPromotedCaptureDemotesIntoHand(t *testing.T) {
	b := sg.MustParseSFEN("4k4/9/9/9/4+r4/4G4/9/9/4K4 b - 1")
	_, captured := b.Next(mustMove(t, "5f5e"))
	if captured != sg.Rook {
		t.Fatalf("captured kind: %v", captured)
	}
	undo := b.Apply(mustMove(t, "5f5e"))
	if b.Hand(sg.First).Count(sg.Rook) != 1 {
		t.Fatalf("hand: %v", b.Hand(sg.First))
	}
	undo()
	if b.PieceAt(sg.NewSquare(4, 4)) != sg.NewPiece(sg.Second, sg.Dragon) {
		t.Fatalf("undo did not restore the dragon")
	}
	if err := b.Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestAnnotateMatchesGenerator(t *testing.T) {
	b := sg.MustParseSFEN("4k4/9/9/9/4+r4/4G4/9/9/4K4 b SP 1")
	for _, m := range b.LegalMoves() {
		got := b.Annotate(m.Wire())
		if !got.SameWire(m) || got.MovedPiece() != m.MovedPiece() || got.CapturedPiece() != m.CapturedPiece() {
			t.Fatalf("Annotate(%v): moved %v captured %v, generator has %v %v",
				m, got.MovedPiece(), got.CapturedPiece(), m.MovedPiece(), m.CapturedPiece())
		}
	}
}
