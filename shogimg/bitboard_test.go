package shogimg_test

import (
	"testing"

	sg "shogi-engine/shogimg"
)

func TestBitboardIterAscending(t *testing.T) {
	var bb sg.Bitboard
	want := []sg.Square{0, 5, 63, 64, 80}
	for _, sq := range want {
		bb = bb.With(sq)
	}
	got := bb.Squares()
	if len(got) != len(want) {
		t.Fatalf("squares: got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("squares[%d]: got %v want %v", i, got[i], want[i])
		}
	}
	if bb.PopCount() != len(want) {
		t.Fatalf("popcount: got %d want %d", bb.PopCount(), len(want))
	}
}

func TestBitboardIterMasksScratchBits(t *testing.T) {
	bb := sg.Bitboard{Hi: ^uint64(0)}
	n := 0
	it := bb.Iter()
	for sq, ok := it.Next(); ok; sq, ok = it.Next() {
		if sq < 64 || sq > 80 {
			t.Fatalf("iterator yielded %d", sq)
		}
		n++
	}
	if n != 17 {
		t.Fatalf("iterated %d squares, want 17", n)
	}
}

func TestBitboardReverse(t *testing.T) {
	for s := sg.Square(0); s < sg.NumSquares; s++ {
		r := sg.SquareBB(s).Reverse()
		want := 81 - int(s)
		if want == 81 {
			// bit 81 lies outside the square domain
			if !r.Masked().IsZero() || r.Hi != 1<<(81-64) {
				t.Fatalf("reverse(0): got %+v", r)
			}
			continue
		}
		if r.LSB() != sg.Square(want) || r.PopCount() != 1 {
			t.Fatalf("reverse(%d): got %v want %d", s, r.LSB(), want)
		}
	}
}

func TestBitboardAlgebra(t *testing.T) {
	a := sg.SquareBB(3).With(70)
	b := sg.SquareBB(70).With(10)
	if got := a.And(b); got != sg.SquareBB(70) {
		t.Fatalf("and: %+v", got)
	}
	if got := a.Xor(b); got != sg.SquareBB(3).With(10) {
		t.Fatalf("xor: %+v", got)
	}
	if got := a.Not().PopCount(); got != sg.NumSquares-2 {
		t.Fatalf("not popcount: %d", got)
	}
	if got := sg.FullBB.Not(); !got.IsZero() {
		t.Fatalf("!full: %+v", got)
	}
	// Borrow propagates from the low lane.
	if got := (sg.Bitboard{Hi: 1}).Sub(1); got.Lo != ^uint64(0) || got.Hi != 0 {
		t.Fatalf("sub borrow: %+v", got)
	}
	if got := sg.SquareBB(63).Shl(1); got != sg.SquareBB(64) {
		t.Fatalf("shl across lanes: %+v", got)
	}
	if got := sg.SquareBB(64).Shr(1); got != sg.SquareBB(63) {
		t.Fatalf("shr across lanes: %+v", got)
	}
	if a.MSB() != 70 || a.LSB() != 3 {
		t.Fatalf("msb/lsb: %v %v", a.MSB(), a.LSB())
	}
}
