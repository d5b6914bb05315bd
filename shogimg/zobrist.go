package shogimg

import (
	"fmt"
	"math/rand"
)

// Hash is a pair of independent Zobrist keys. Repetition tables compare
// both so a collision needs to hit two 64-bit keys at once.
type Hash struct {
	Main uint64
	Sub  uint64
}

func (h Hash) xor(o Hash) Hash { return Hash{h.Main ^ o.Main, h.Sub ^ o.Sub} }

func (h Hash) String() string { return fmt.Sprintf("%016x:%016x", h.Main, h.Sub) }

type zobristTable struct {
	piece [32][NumSquares]uint64
	hand  [2][HandKinds + 1][19]uint64
	side  uint64
}

var zobristMain, zobristSub zobristTable

// sideKey is mixed in when Second is to move.
var sideKey Hash

func init() {
	// Fixed seeds keep hashes reproducible across runs and in tests.
	zobristMain.fill(rand.New(rand.NewSource(0xC0DE)))
	zobristSub.fill(rand.New(rand.NewSource(0x5EED)))
	sideKey = Hash{zobristMain.side, zobristSub.side}
}

func (t *zobristTable) fill(rnd *rand.Rand) {
	for p := range t.piece {
		for sq := range t.piece[p] {
			t.piece[p][sq] = rnd.Uint64()
		}
	}
	for c := range t.hand {
		for k := range t.hand[c] {
			for n := range t.hand[c][k] {
				t.hand[c][k][n] = rnd.Uint64()
			}
		}
	}
	t.side = rnd.Uint64()
}

func pieceKey(p Piece, sq Square) Hash {
	return Hash{zobristMain.piece[p][sq], zobristSub.piece[p][sq]}
}

// handKey is the key of the n-th (zero-based) piece of kind pt in c's hand.
// A hand holding k pieces of a kind contributes keys 0..k-1.
func handKey(c Color, pt PieceType, n int) Hash {
	return Hash{zobristMain.hand[c][pt][n], zobristSub.hand[c][pt][n]}
}

// ComputeHash calculates the hash of b from scratch.
func ComputeHash(b *Board) Hash {
	var h Hash
	for sq := Square(0); sq < NumSquares; sq++ {
		if p := b.squares[sq]; p != Blank {
			h = h.xor(pieceKey(p, sq))
		}
	}
	for c := First; c <= Second; c++ {
		for i, n := range b.hands[c] {
			for k := 0; k < int(n); k++ {
				h = h.xor(handKey(c, PieceType(i+1), k))
			}
		}
	}
	if b.sideToMove == Second {
		h = h.xor(sideKey)
	}
	return h
}

// Update returns the hash of the position reached by playing m on b, where
// h is b's hash. b must still be the position before m.
func (h Hash) Update(b *Board, m Move) Hash {
	us := b.sideToMove
	to := m.To()
	if m.IsDrop() {
		pt := m.DropType()
		n := b.hands[us].Count(pt)
		h = h.xor(handKey(us, pt, n-1))
		h = h.xor(pieceKey(NewPiece(us, pt), to))
		return h.xor(sideKey)
	}
	from := m.From()
	moved := b.squares[from]
	h = h.xor(pieceKey(moved, from))
	if m.IsPromotion() {
		moved = moved.Promote()
	}
	h = h.xor(pieceKey(moved, to))
	if captured := b.squares[to]; captured != Blank {
		h = h.xor(pieceKey(captured, to))
		if captured.Type() != King {
			ht := captured.Type().HandType()
			h = h.xor(handKey(us, ht, b.hands[us].Count(ht)))
		}
	}
	return h.xor(sideKey)
}
