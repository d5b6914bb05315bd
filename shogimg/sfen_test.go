package shogimg_test

import (
	"testing"

	"github.com/pkg/errors"

	sg "shogi-engine/shogimg"
)

func TestStartSFENRoundTrip(t *testing.T) {
	b := sg.NewBoard()
	if got := b.SFEN(); got != sg.StartSFEN {
		t.Fatalf("sfen: got %q want %q", got, sg.StartSFEN)
	}
	if err := b.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if b.KingSquare(sg.First).String() != "5i" || b.KingSquare(sg.Second).String() != "5a" {
		t.Fatalf("kings: %v %v", b.KingSquare(sg.First), b.KingSquare(sg.Second))
	}
}

func TestParseSFENForms(t *testing.T) {
	for _, s := range []string{"startpos", "sfen " + sg.StartSFEN, "lnsgkgsnl/1r5b1/ppppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSNL b -"} {
		b, err := sg.ParseSFEN(s)
		if err != nil {
			t.Fatalf("ParseSFEN(%q): %v", s, err)
		}
		if b.SFEN() != sg.StartSFEN {
			t.Fatalf("ParseSFEN(%q) -> %q", s, b.SFEN())
		}
	}
}

func TestSFENHands(t *testing.T) {
	s := "lnsgk2nl/1r4gs1/p1pppp1pp/6p2/1p7/2P6/PP1PPPP2/1SG4R1/LN2KGSNL b B2Pb 23"
	b, err := sg.ParseSFEN(s)
	if err != nil {
		t.Fatalf("ParseSFEN: %v", err)
	}
	if got := b.Hand(sg.First).Count(sg.Bishop); got != 1 {
		t.Fatalf("first bishops: %d", got)
	}
	if got := b.Hand(sg.First).Count(sg.Pawn); got != 2 {
		t.Fatalf("first pawns: %d", got)
	}
	if got := b.Hand(sg.Second).Count(sg.Bishop); got != 1 {
		t.Fatalf("second bishops: %d", got)
	}
	if b.MoveNumber() != 23 {
		t.Fatalf("move number: %d", b.MoveNumber())
	}
	if got := b.SFEN(); got != s {
		t.Fatalf("round trip: got %q want %q", got, s)
	}
}

func TestSFENPromotedPieces(t *testing.T) {
	s := "4k4/9/9/9/4+B4/9/9/9/+P3K3+r w 10p 80"
	b, err := sg.ParseSFEN(s)
	if err != nil {
		t.Fatalf("ParseSFEN: %v", err)
	}
	if p := b.PieceAt(sg.NewSquare(4, 4)); p != sg.NewPiece(sg.First, sg.Horse) {
		t.Fatalf("5e: %v", p)
	}
	if p := b.PieceAt(sg.NewSquare(0, 8)); p != sg.NewPiece(sg.Second, sg.Dragon) {
		t.Fatalf("1i: %v", p)
	}
	if b.Hand(sg.Second).Count(sg.Pawn) != 10 {
		t.Fatalf("second pawns: %d", b.Hand(sg.Second).Count(sg.Pawn))
	}
	if got := b.SFEN(); got != s {
		t.Fatalf("round trip: got %q want %q", got, s)
	}
}

func TestParseSFENErrors(t *testing.T) {
	bad := []string{
		"",
		"lnsgkgsnl/1r5b1/ppppppppp/9/9/9/PPPPPPPPP/1B5R1 b - 1",
		"lnsgkgsnl/1r5b1/ppppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSNL x - 1",
		"lnsgkgsnl/1r5b1/ppppppppp/9/9/9/PPPPPPPPP/1B5R2/LNSGKGSNL b - 1",
		"lnsgkgsnl/1r5b1/ppppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSN b - 1",
		"lnsg+kgsnl/1r5b1/ppppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSNL b - 1",
		"lnsgkgsnl/1r5b1/ppppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSNL b K 1",
		"lnsgkgsnl/1r5b1/ppppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSNL b 3R 1",
		"lnsgkgsnl/1r5b1/ppppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSNL b - 0",
		"lnsgkgsnl/1r5b1/ppppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSXL b - 1",
		"lnsgkgsnl/1r5b1/ppppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSKKGSNL b - 1",
		"4k4/9/9/9/4p4/4P4/9/9/4K4 b 18P 1",
		"4k4/9/9/9/9/9/9/9/4K4 b 2B2b 1",
		"lnsgkgsnl/1r5b1/ppppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSNL b S 1",
		"+R3k4/9/9/9/9/9/9/9/4K3+r b R 1",
	}
	for _, s := range bad {
		if _, err := sg.ParseSFEN(s); errors.Cause(err) != sg.ErrInvalidSFEN {
			t.Fatalf("ParseSFEN(%q): got %v, want ErrInvalidSFEN", s, err)
		}
	}
}

func TestMoveStringRoundTrip(t *testing.T) {
	for _, s := range []string{"7g7f", "8h2b+", "P*5e", "G*1a", "1a1b"} {
		m, err := sg.ParseMove(s)
		if err != nil {
			t.Fatalf("ParseMove(%q): %v", s, err)
		}
		if m.String() != s {
			t.Fatalf("ParseMove(%q).String() = %q", s, m.String())
		}
	}
	for _, s := range []string{"", "7g", "7g7g", "0a1b", "7j7f", "K*5e", "p*5e", "7g7f=", "P*5e+"} {
		if _, err := sg.ParseMove(s); errors.Cause(err) != sg.ErrInvalidMove {
			t.Fatalf("ParseMove(%q): got %v, want ErrInvalidMove", s, err)
		}
	}
}

func TestLegalMoveStringsRoundTrip(t *testing.T) {
	b := sg.MustParseSFEN("lnsgkgsnl/1r5b1/pppppp1pp/6p2/9/2P6/PP1PPPPPP/1B5R1/LNSGKGSNL b - 3")
	for _, m := range b.LegalMoves() {
		p, err := sg.ParseMove(m.String())
		if err != nil {
			t.Fatalf("ParseMove(%v): %v", m, err)
		}
		if !p.SameWire(m) {
			t.Fatalf("ParseMove(%v) = %v", m, p)
		}
	}
}
