package shogimg

import "github.com/pkg/errors"

// ErrIllegalMove is returned when a move is not among the legal moves.
var ErrIllegalMove = errors.New("illegal move")

// MoveState holds what UnmakeMove needs to restore the previous position.
type MoveState struct {
	move     Move
	captured Piece
	prevHash Hash
}

// Captured returns the piece removed from the destination, or Blank.
func (st MoveState) Captured() Piece { return st.captured }

// MakeMove plays m without checking legality. m must be legal in b (either
// a generator move or one confirmed with FindLegal); the wire form is
// enough. A captured piece is demoted into the mover's hand; a captured
// King leaves the hand untouched and clears that side's king square.
func (b *Board) MakeMove(m Move) MoveState {
	st := MoveState{move: m, prevHash: b.hash}
	b.hash = b.hash.Update(b, m)

	us := b.sideToMove
	to := m.To()
	if m.IsDrop() {
		pt := m.DropType()
		b.hands[us].Remove(pt)
		b.addPiece(to, NewPiece(us, pt))
	} else {
		p := b.removePiece(m.From())
		if captured := b.removePiece(to); captured != Blank {
			st.captured = captured
			if captured.Type() != King {
				b.hands[us].Add(captured.Type().HandType())
			}
		}
		if m.IsPromotion() {
			p = p.Promote()
		}
		b.addPiece(to, p)
	}

	b.sideToMove = us.Opposite()
	b.moveNumber++
	return st
}

// UnmakeMove reverts the move recorded in st, which must be the last move
// made on b.
func (b *Board) UnmakeMove(st MoveState) {
	m := st.move
	b.sideToMove = b.sideToMove.Opposite()
	b.moveNumber--
	us := b.sideToMove
	to := m.To()

	if m.IsDrop() {
		b.removePiece(to)
		b.hands[us].Add(m.DropType())
	} else {
		p := b.removePiece(to)
		if m.IsPromotion() {
			p = NewPiece(p.Color(), p.Type().Demote())
		}
		b.addPiece(m.From(), p)
		if st.captured != Blank {
			b.addPiece(to, st.captured)
			if st.captured.Type() != King {
				b.hands[us].Remove(st.captured.Type().HandType())
			}
		}
	}
	b.hash = st.prevHash
}

// ApplyMove validates m against the legal moves and plays it.
func (b *Board) ApplyMove(m Move) (MoveState, error) {
	lm, ok := b.FindLegal(m)
	if !ok {
		return MoveState{}, errors.Wrapf(ErrIllegalMove, "%v in %v", m, b.SFEN())
	}
	return b.MakeMove(lm), nil
}

// Next returns the position after m together with the kind that went into
// the mover's hand (King when the king was taken, NoPieceType otherwise).
// b is left untouched.
func (b *Board) Next(m Move) (Board, PieceType) {
	nb := *b
	st := nb.MakeMove(m)
	switch c := st.captured.Type(); c {
	case NoPieceType, King:
		return nb, c
	default:
		return nb, c.HandType()
	}
}
