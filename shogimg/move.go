package shogimg

import (
	"github.com/pkg/errors"
)

// Move encodes a Shogi move in 32 bits.
//
// The low 15 bits are the wire form: destination, source and the promotion
// flag. A drop stores dropFrom+kind in the source field. Moves produced by
// the generator additionally carry the moved and captured pieces so callers
// can inspect them without a board lookup.
type Move uint32

// Bitfield layout within Move (from LSB to MSB)
const (
	moveToShift       = 0  // 7 bits
	moveFromShift     = 7  // 7 bits
	movePromoteShift  = 14 // 1 bit
	movePieceShift    = 16 // 5 bits
	moveCapturedShift = 21 // 5 bits

	wireMask Move = 1<<15 - 1

	// dropFrom is the first source value used for drops.
	dropFrom = NumSquares
)

// NullMove is the zero move. No legal move encodes to it.
const NullMove Move = 0

// NewSlideMove builds the wire form of a board move.
func NewSlideMove(from, to Square, promote bool) Move {
	m := Move(to)<<moveToShift | Move(from)<<moveFromShift
	if promote {
		m |= 1 << movePromoteShift
	}
	return m
}

// NewDropMove builds the wire form of a drop of kind pt onto to.
func NewDropMove(pt PieceType, to Square) Move {
	return Move(to)<<moveToShift | Move(dropFrom+int(pt))<<moveFromShift
}

func newMove(from, to Square, moved, captured Piece, promote bool) Move {
	return NewSlideMove(from, to, promote) |
		Move(moved)<<movePieceShift |
		Move(captured)<<moveCapturedShift
}

func newDrop(p Piece, to Square) Move {
	return NewDropMove(p.Type(), to) | Move(p)<<movePieceShift
}

// To returns the destination square.
func (m Move) To() Square { return Square((m >> moveToShift) & 0x7F) }

// From returns the source square, or NoSquare for drops.
func (m Move) From() Square {
	f := int((m >> moveFromShift) & 0x7F)
	if f >= dropFrom {
		return NoSquare
	}
	return Square(f)
}

// IsDrop reports whether the move places a piece from hand.
func (m Move) IsDrop() bool { return int((m>>moveFromShift)&0x7F) >= dropFrom }

// DropType returns the dropped kind, or NoPieceType for board moves.
func (m Move) DropType() PieceType {
	f := int((m >> moveFromShift) & 0x7F)
	if f < dropFrom {
		return NoPieceType
	}
	return PieceType(f - dropFrom)
}

// IsPromotion reports whether the moving piece promotes.
func (m Move) IsPromotion() bool { return m&(1<<movePromoteShift) != 0 }

// MovedPiece returns the moving (or dropped) piece when the move came from
// the generator, Blank for wire-only moves.
func (m Move) MovedPiece() Piece { return Piece((m >> movePieceShift) & 0x1F) }

// CapturedPiece returns the captured piece recorded by the generator.
func (m Move) CapturedPiece() Piece { return Piece((m >> moveCapturedShift) & 0x1F) }

// IsCapture reports whether the generator saw a capture.
func (m Move) IsCapture() bool { return m.CapturedPiece() != Blank }

// Wire strips generator annotations, leaving what the protocol carries.
func (m Move) Wire() Move { return m & wireMask }

// SameWire reports whether two moves are the same on the wire.
func (m Move) SameWire(o Move) bool { return m.Wire() == o.Wire() }

// Annotate fills in the moved and captured pieces of m as they stand on b.
// Legality is not checked.
func (b *Board) Annotate(m Move) Move {
	m = m.Wire()
	if m.IsDrop() {
		return newDrop(NewPiece(b.sideToMove, m.DropType()), m.To())
	}
	return newMove(m.From(), m.To(), b.squares[m.From()], b.squares[m.To()], m.IsPromotion())
}

var dropLetters = map[PieceType]byte{
	Pawn: 'P', Lance: 'L', Knight: 'N', Silver: 'S', Gold: 'G', Bishop: 'B', Rook: 'R',
}

// String renders the move in USI notation ("7g7f", "8h2b+", "P*5e").
func (m Move) String() string {
	if m == NullMove {
		return "none"
	}
	if m.IsDrop() {
		return string(dropLetters[m.DropType()]) + "*" + m.To().String()
	}
	s := m.From().String() + m.To().String()
	if m.IsPromotion() {
		s += "+"
	}
	return s
}

// ErrInvalidMove is returned for move strings that do not parse.
var ErrInvalidMove = errors.New("invalid move string")

// ParseMove converts a USI move string into its wire form. It does not
// check legality; see Board.FindLegal.
func ParseMove(s string) (Move, error) {
	switch len(s) {
	case 4, 5:
	default:
		return NullMove, errors.Wrapf(ErrInvalidMove, "%q: bad length", s)
	}
	to, err := parseSquare(s[2:4])
	if err != nil {
		return NullMove, errors.Wrapf(err, "%q", s)
	}
	if s[1] == '*' {
		if len(s) != 4 {
			return NullMove, errors.Wrapf(ErrInvalidMove, "%q: trailing characters after drop", s)
		}
		pt := pieceTypeFromLetter(s[0])
		if pt == NoPieceType || pt == King {
			return NullMove, errors.Wrapf(ErrInvalidMove, "%q: bad drop piece", s)
		}
		return NewDropMove(pt, to), nil
	}
	from, err := parseSquare(s[0:2])
	if err != nil {
		return NullMove, errors.Wrapf(err, "%q", s)
	}
	promote := false
	if len(s) == 5 {
		if s[4] != '+' {
			return NullMove, errors.Wrapf(ErrInvalidMove, "%q: bad promotion marker", s)
		}
		promote = true
	}
	if from == to {
		return NullMove, errors.Wrapf(ErrInvalidMove, "%q: source equals destination", s)
	}
	return NewSlideMove(from, to, promote), nil
}

func parseSquare(s string) (Square, error) {
	if len(s) != 2 || s[0] < '1' || s[0] > '9' || s[1] < 'a' || s[1] > 'i' {
		return NoSquare, errors.Wrapf(ErrInvalidMove, "bad square %q", s)
	}
	return NewSquare(int(s[0]-'1'), int(s[1]-'a')), nil
}

// GivesCheck reports whether m, legal on b, leaves the opponent in check.
func (b *Board) GivesCheck(m Move) bool {
	nb := *b
	nb.MakeMove(m)
	return nb.InCheck(nb.sideToMove)
}
