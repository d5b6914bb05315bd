package shogimg

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// NumSquares is the number of squares on the board.
const NumSquares = 81

// Square indexes the board as file*9 + rank. File 0 is the rightmost file
// from First's point of view (USI file "1"), rank 0 is First's far rank
// (USI rank "a").
type Square int

const NoSquare Square = -1

// NewSquare builds a square from zero-based file and rank.
func NewSquare(file, rank int) Square { return Square(file*9 + rank) }

func (sq Square) File() int { return int(sq) / 9 }
func (sq Square) Rank() int { return int(sq) % 9 }

// Flip returns the same square seen from the other side of the board.
func (sq Square) Flip() Square { return NumSquares - 1 - sq }

// String renders the square in USI notation, e.g. "7g".
func (sq Square) String() string {
	if sq < 0 || sq >= NumSquares {
		return "--"
	}
	return string([]byte{'1' + byte(sq.File()), 'a' + byte(sq.Rank())})
}

// Color identifies a side. First moves first.
type Color uint8

const (
	First  Color = 0
	Second Color = 1
)

// Opposite returns the other side.
func (c Color) Opposite() Color { return c ^ 1 }

func (c Color) String() string {
	if c == First {
		return "b"
	}
	return "w"
}

// PieceType is a colorless piece kind. Promoted kinds are the base kind | 8.
type PieceType uint8

const (
	NoPieceType PieceType = iota
	Pawn
	Lance
	Knight
	Silver
	Bishop
	Rook
	Gold
	King
	ProPawn
	ProLance
	ProKnight
	ProSilver
	Horse
	Dragon

	pieceTypeCount
)

const promotedFlag PieceType = 8

// Promotable reports whether the kind has a promoted form.
func (pt PieceType) Promotable() bool { return pt >= Pawn && pt <= Rook }

// IsPromoted reports whether the kind is a promoted form.
func (pt PieceType) IsPromoted() bool { return pt >= ProPawn && pt <= Dragon }

// Promote maps a promotable kind to its promoted form and is the identity
// on every other kind.
func (pt PieceType) Promote() PieceType {
	if pt.Promotable() {
		return pt | promotedFlag
	}
	return pt
}

// Demote strips promotion.
func (pt PieceType) Demote() PieceType {
	if pt.IsPromoted() {
		return pt &^ promotedFlag
	}
	return pt
}

// IsBig reports Bishop, Rook and their promoted forms, which score five
// points in entering-king counting.
func (pt PieceType) IsBig() bool {
	switch pt {
	case Bishop, Rook, Horse, Dragon:
		return true
	}
	return false
}

var pieceTypeLetters = [pieceTypeCount]string{
	"", "P", "L", "N", "S", "B", "R", "G", "K", "+P", "+L", "+N", "+S", "+B", "+R",
}

func (pt PieceType) String() string {
	if pt >= pieceTypeCount {
		return "?"
	}
	return pieceTypeLetters[pt]
}

// Piece is a colored piece kind. Blank is the empty square.
type Piece uint8

const colorShift = 4

const Blank Piece = 0

// NewPiece combines a side and a kind.
func NewPiece(c Color, pt PieceType) Piece {
	if pt == NoPieceType {
		return Blank
	}
	return Piece(pt) | Piece(c)<<colorShift
}

func (p Piece) Type() PieceType { return PieceType(p & 0xF) }

// Color returns the owner. Blank reports First.
func (p Piece) Color() Color { return Color(p >> colorShift) }

func (p Piece) IsBlank() bool { return p == Blank }

// Promote returns the promoted form of p, or p itself.
func (p Piece) Promote() Piece { return NewPiece(p.Color(), p.Type().Promote()) }

// String renders the piece as in SFEN: upper case for First.
func (p Piece) String() string {
	if p == Blank {
		return "."
	}
	s := p.Type().String()
	if p.Color() == Second {
		return strings.ToLower(s)
	}
	return s
}

// HandKinds is the number of kinds that can be held in hand.
const HandKinds = 7

// handCap holds the per-kind hand limits, indexed by PieceType-1.
var handCap = [HandKinds]uint8{18, 4, 4, 4, 2, 2, 4}

// handOrder is the SFEN emission order of hand pieces.
var handOrder = [HandKinds]PieceType{Rook, Bishop, Gold, Silver, Knight, Lance, Pawn}

// Hand is a side's captured-piece multiset (mochigoma). It is a value type:
// copying a Hand snapshots it, and the zero value is the empty hand.
type Hand [HandKinds]uint8

// HandType maps a board kind to the kind it becomes in hand. King and
// NoPieceType have no hand kind; asking for one is a programming error.
func (pt PieceType) HandType() PieceType {
	d := pt.Demote()
	if d < Pawn || d > Gold {
		panic(fmt.Sprintf("shogimg: %v has no hand kind", pt))
	}
	return d
}

// HandCap returns the most pieces of kind pt a hand can hold.
func HandCap(pt PieceType) int { return int(handCap[pt.HandType()-1]) }

// Count returns the number of pieces of kind pt.
func (h Hand) Count(pt PieceType) int { return int(h[pt.HandType()-1]) }

// Add puts one piece of kind pt (demoted) into the hand.
func (h *Hand) Add(pt PieceType) {
	i := pt.HandType() - 1
	if h[i] >= handCap[i] {
		panic(fmt.Sprintf("shogimg: hand overflow for %v", pt))
	}
	h[i]++
}

// Remove takes one piece of kind pt out of the hand.
func (h *Hand) Remove(pt PieceType) {
	i := pt.HandType() - 1
	if h[i] == 0 {
		panic(fmt.Sprintf("shogimg: no %v in hand", pt))
	}
	h[i]--
}

func (h Hand) IsEmpty() bool { return h == Hand{} }

// Total returns the number of pieces held.
func (h Hand) Total() int {
	n := 0
	for _, c := range h {
		n += int(c)
	}
	return n
}

// Board is a Shogi position: the square array, both hands, the side to
// move and the move number, plus derived bitboards and the position hash.
// The square array is the source of truth; everything else is kept in sync
// by addPiece/removePiece.
type Board struct {
	squares [NumSquares]Piece
	hands   [2]Hand

	byType    [2][pieceTypeCount]Bitboard
	occupancy [2]Bitboard
	kingSq    [2]Square

	sideToMove Color
	moveNumber int

	hash Hash
}

func newEmptyBoard() *Board {
	b := &Board{moveNumber: 1}
	b.kingSq = [2]Square{NoSquare, NoSquare}
	return b
}

// PieceAt returns the piece on sq.
func (b *Board) PieceAt(sq Square) Piece { return b.squares[sq] }

// Hand returns a copy of the hand of side c.
func (b *Board) Hand(c Color) Hand { return b.hands[c] }

// SideToMove reports which side is to play.
func (b *Board) SideToMove() Color { return b.sideToMove }

// MoveNumber returns the SFEN move counter (one per ply, starting at 1).
func (b *Board) MoveNumber() int { return b.moveNumber }

// Hash returns the incremental position hash.
func (b *Board) Hash() Hash { return b.hash }

// KingSquare returns the king square of side c, or NoSquare.
func (b *Board) KingSquare(c Color) Square { return b.kingSq[c] }

// Occupancy returns the squares occupied by side c.
func (b *Board) Occupancy(c Color) Bitboard { return b.occupancy[c] }

// AllOccupancy returns every occupied square.
func (b *Board) AllOccupancy() Bitboard { return b.occupancy[First].Or(b.occupancy[Second]) }

// Pieces returns the squares holding pieces of kind pt owned by c.
func (b *Board) Pieces(c Color, pt PieceType) Bitboard { return b.byType[c][pt] }

func (b *Board) goldsLike(c Color) Bitboard {
	t := &b.byType[c]
	return t[Gold].Or(t[ProPawn]).Or(t[ProLance]).Or(t[ProKnight]).Or(t[ProSilver])
}

func (b *Board) addPiece(sq Square, p Piece) {
	if p == Blank {
		return
	}
	c := p.Color()
	b.squares[sq] = p
	b.byType[c][p.Type()] = b.byType[c][p.Type()].With(sq)
	b.occupancy[c] = b.occupancy[c].With(sq)
	if p.Type() == King {
		b.kingSq[c] = sq
	}
}

func (b *Board) removePiece(sq Square) Piece {
	p := b.squares[sq]
	if p == Blank {
		return Blank
	}
	c := p.Color()
	b.squares[sq] = Blank
	b.byType[c][p.Type()] = b.byType[c][p.Type()].Without(sq)
	b.occupancy[c] = b.occupancy[c].Without(sq)
	if p.Type() == King {
		b.kingSq[c] = NoSquare
	}
	return p
}

// Validate cross-checks the square array against bitboards, king squares,
// hand limits and the incremental hash.
func (b *Board) Validate() error {
	var byType [2][pieceTypeCount]Bitboard
	var occ [2]Bitboard
	kings := [2]Square{NoSquare, NoSquare}
	for sq := Square(0); sq < NumSquares; sq++ {
		p := b.squares[sq]
		if p == Blank {
			continue
		}
		c := p.Color()
		if p.Type() == NoPieceType || p.Type() >= pieceTypeCount || c > Second {
			return errors.Errorf("bad piece code %d on %v", p, sq)
		}
		byType[c][p.Type()] = byType[c][p.Type()].With(sq)
		occ[c] = occ[c].With(sq)
		if p.Type() == King {
			if kings[c] != NoSquare {
				return errors.Errorf("two kings for side %v", c)
			}
			kings[c] = sq
		}
	}
	if byType != b.byType {
		return errors.Errorf("piece bitboards out of sync")
	}
	if occ != b.occupancy {
		return errors.Errorf("occupancy out of sync")
	}
	if kings != b.kingSq {
		return errors.Errorf("king squares out of sync: %v vs %v", kings, b.kingSq)
	}
	for c := First; c <= Second; c++ {
		for i, n := range b.hands[c] {
			if n > handCap[i] {
				return errors.Errorf("hand of %v holds %d of %v", c, n, PieceType(i+1))
			}
		}
	}
	if h := ComputeHash(b); h != b.hash {
		return errors.Errorf("hash out of sync: %v vs %v", b.hash, h)
	}
	return nil
}

// String renders the board for debugging.
func (b *Board) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "hand w: %v\n", handString(b.hands[Second], Second))
	for rank := 0; rank < 9; rank++ {
		for file := 8; file >= 0; file-- {
			s := b.squares[NewSquare(file, rank)].String()
			if len(s) == 1 {
				sb.WriteByte(' ')
			}
			sb.WriteString(s)
		}
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "hand b: %v\nside %v move %d\n", handString(b.hands[First], First), b.sideToMove, b.moveNumber)
	return sb.String()
}
