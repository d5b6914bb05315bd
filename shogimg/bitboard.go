package shogimg

import (
	"math/bits"
	"strings"
)

// Bitboard is a set of squares packed into 128 bits. Lo holds squares 0..63,
// Hi holds squares 64..80. Bits above square 80 may be scratched by Sub and
// Reverse; Iter and PopCount mask them away.
type Bitboard struct {
	Lo uint64
	Hi uint64
}

const hiSquareMask uint64 = 1<<(NumSquares-64) - 1

// FullBB has every board square set.
var FullBB = Bitboard{Lo: ^uint64(0), Hi: hiSquareMask}

// EmptyBB has no square set.
var EmptyBB Bitboard

var squareBB [NumSquares]Bitboard

func init() {
	for sq := Square(0); sq < NumSquares; sq++ {
		if sq < 64 {
			squareBB[sq] = Bitboard{Lo: 1 << uint(sq)}
		} else {
			squareBB[sq] = Bitboard{Hi: 1 << uint(sq-64)}
		}
	}
}

// SquareBB returns a bitboard with only sq set.
func SquareBB(sq Square) Bitboard { return squareBB[sq] }

func (b Bitboard) Or(o Bitboard) Bitboard     { return Bitboard{b.Lo | o.Lo, b.Hi | o.Hi} }
func (b Bitboard) And(o Bitboard) Bitboard    { return Bitboard{b.Lo & o.Lo, b.Hi & o.Hi} }
func (b Bitboard) Xor(o Bitboard) Bitboard    { return Bitboard{b.Lo ^ o.Lo, b.Hi ^ o.Hi} }
func (b Bitboard) AndNot(o Bitboard) Bitboard { return Bitboard{b.Lo &^ o.Lo, b.Hi &^ o.Hi} }

// Not complements the set within the 81-square domain.
func (b Bitboard) Not() Bitboard { return Bitboard{^b.Lo, ^b.Hi & hiSquareMask} }

// Masked clears every bit above square 80.
func (b Bitboard) Masked() Bitboard { return Bitboard{b.Lo, b.Hi & hiSquareMask} }

// Sub is a wrapping 128-bit subtraction of k.
func (b Bitboard) Sub(k uint32) Bitboard {
	lo, borrow := bits.Sub64(b.Lo, uint64(k), 0)
	hi, _ := bits.Sub64(b.Hi, 0, borrow)
	return Bitboard{lo, hi}
}

// SubBB is a wrapping 128-bit subtraction of o.
func (b Bitboard) SubBB(o Bitboard) Bitboard {
	lo, borrow := bits.Sub64(b.Lo, o.Lo, 0)
	hi, _ := bits.Sub64(b.Hi, o.Hi, borrow)
	return Bitboard{lo, hi}
}

// Shl shifts the 128-bit value left by n.
func (b Bitboard) Shl(n uint) Bitboard {
	switch {
	case n == 0:
		return b
	case n >= 128:
		return Bitboard{}
	case n >= 64:
		return Bitboard{Hi: b.Lo << (n - 64)}
	}
	return Bitboard{Lo: b.Lo << n, Hi: b.Hi<<n | b.Lo>>(64-n)}
}

// Shr shifts the 128-bit value right by n.
func (b Bitboard) Shr(n uint) Bitboard {
	switch {
	case n == 0:
		return b
	case n >= 128:
		return Bitboard{}
	case n >= 64:
		return Bitboard{Lo: b.Hi >> (n - 64)}
	}
	return Bitboard{Lo: b.Lo>>n | b.Hi<<(64-n), Hi: b.Hi >> n}
}

// Reverse mirrors the 82-bit domain: bit s moves to bit 81-s.
func (b Bitboard) Reverse() Bitboard {
	r := Bitboard{Lo: bits.Reverse64(b.Hi), Hi: bits.Reverse64(b.Lo)}
	return r.Shr(128 - 82)
}

func (b Bitboard) IsZero() bool { return b.Lo == 0 && b.Hi == 0 }

// Has reports whether sq is in the set.
func (b Bitboard) Has(sq Square) bool {
	if sq < 64 {
		return b.Lo&(1<<uint(sq)) != 0
	}
	return b.Hi&(1<<uint(sq-64)) != 0
}

func (b Bitboard) With(sq Square) Bitboard    { return b.Or(squareBB[sq]) }
func (b Bitboard) Without(sq Square) Bitboard { return b.AndNot(squareBB[sq]) }

// PopCount returns the number of board squares in the set.
func (b Bitboard) PopCount() int {
	return bits.OnesCount64(b.Lo) + bits.OnesCount64(b.Hi&hiSquareMask)
}

// LSB returns the lowest square in the set, or NoSquare.
func (b Bitboard) LSB() Square {
	if b.Lo != 0 {
		return Square(bits.TrailingZeros64(b.Lo))
	}
	if h := b.Hi & hiSquareMask; h != 0 {
		return Square(64 + bits.TrailingZeros64(h))
	}
	return NoSquare
}

// MSB returns the highest square in the set, or NoSquare.
func (b Bitboard) MSB() Square {
	if h := b.Hi & hiSquareMask; h != 0 {
		return Square(127 - bits.LeadingZeros64(h))
	}
	if b.Lo != 0 {
		return Square(63 - bits.LeadingZeros64(b.Lo))
	}
	return NoSquare
}

// popLSB removes and returns the lowest square of the set.
func popLSB(b *Bitboard) Square {
	if b.Lo != 0 {
		sq := Square(bits.TrailingZeros64(b.Lo))
		b.Lo &= b.Lo - 1
		return sq
	}
	sq := Square(64 + bits.TrailingZeros64(b.Hi))
	b.Hi &= b.Hi - 1
	return sq
}

// BitboardIter walks the squares of a bitboard in ascending order. It is
// single pass and does not allocate.
type BitboardIter struct {
	rest Bitboard
}

// Iter returns an iterator over the squares in b.
func (b Bitboard) Iter() BitboardIter { return BitboardIter{rest: b.Masked()} }

// Next returns the next square, or false once the set is exhausted.
func (it *BitboardIter) Next() (Square, bool) {
	if it.rest.IsZero() {
		return NoSquare, false
	}
	return popLSB(&it.rest), true
}

// Squares collects the set into a slice. Intended for tests and tooling.
func (b Bitboard) Squares() []Square {
	out := make([]Square, 0, b.PopCount())
	it := b.Iter()
	for sq, ok := it.Next(); ok; sq, ok = it.Next() {
		out = append(out, sq)
	}
	return out
}

// String renders the set as a 9x9 diagram from First's point of view.
func (b Bitboard) String() string {
	var sb strings.Builder
	for rank := 0; rank < 9; rank++ {
		for file := 8; file >= 0; file-- {
			if b.Has(NewSquare(file, rank)) {
				sb.WriteByte('1')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
