package shogimg

import "time"

// IsMate reports whether the side to move is in check with no legal reply.
func (b *Board) IsMate() bool {
	if !b.InCheck(b.sideToMove) {
		return false
	}
	var buf [MaxMoves]Move
	return len(b.GenerateInto(buf[:0], Evasions)) == 0
}

// IsWinMove reports whether m captures the opponent's King.
func (b *Board) IsWinMove(m Move) bool {
	if m.IsDrop() {
		return false
	}
	p := b.squares[m.To()]
	return p.Type() == King && p.Color() != b.sideToMove
}

// pawnDropMates reports whether dropping a pawn of the side to move on to
// checks the enemy king and leaves it with no legal reply.
func (b *Board) pawnDropMates(to Square) bool {
	us := b.sideToMove
	ek := b.kingSq[us.Opposite()]
	if ek == NoSquare || !stepAttacks[us][Pawn][to].Has(ek) {
		return false
	}
	nb := *b
	nb.MakeMove(NewDropMove(Pawn, to))
	return !nb.HasLegalMoves()
}

// IsDropPawnMate reports whether m is a pawn drop that would mate at once
// (uchifuzume). Such drops are never generated.
func (b *Board) IsDropPawnMate(m Move) bool {
	if !m.IsDrop() || m.DropType() != Pawn || b.hands[b.sideToMove].Count(Pawn) == 0 {
		return false
	}
	if b.squares[m.To()] != Blank {
		return false
	}
	return b.pawnDropMates(m.To())
}

// RespondedOute reports whether playing m leaves the mover's king safe,
// i.e. m answers a check if there was one.
func (b *Board) RespondedOute(m Move) bool {
	us := b.sideToMove
	nb, _ := b.Next(m)
	return !nb.InCheck(us)
}

// Entering-king thresholds.
const (
	nyugyokuMinPieces    = 10
	nyugyokuPointsFirst  = 28
	nyugyokuPointsSecond = 27
)

// NyugyokuPoints counts side c's pieces, King excluded, standing in c's
// promotion zone, and the declaration points of those pieces plus c's hand.
// Bishops and Rooks, promoted or not, score 5 and everything else 1.
func (b *Board) NyugyokuPoints(c Color) (inZone, points int) {
	it := b.occupancy[c].And(promotionZone[c]).Iter()
	for sq, ok := it.Next(); ok; sq, ok = it.Next() {
		pt := b.squares[sq].Type()
		if pt == King {
			continue
		}
		inZone++
		if pt.IsBig() {
			points += 5
		} else {
			points++
		}
	}
	for _, pt := range dropKinds {
		n := b.hands[c].Count(pt)
		if pt.IsBig() {
			points += 5 * n
		} else {
			points += n
		}
	}
	return inZone, points
}

// IsNyugyokuWin reports whether the side to move may declare an
// entering-king win. A zero deadline means no time limit applies.
func (b *Board) IsNyugyokuWin(deadline time.Time) bool {
	us := b.sideToMove
	ksq := b.kingSq[us]
	if ksq == NoSquare || !promotionZone[us].Has(ksq) {
		return false
	}
	if b.InCheck(us) {
		return false
	}
	if !deadline.IsZero() && !time.Now().Before(deadline) {
		return false
	}
	inZone, points := b.NyugyokuPoints(us)
	need := nyugyokuPointsFirst
	if us == Second {
		need = nyugyokuPointsSecond
	}
	return inZone >= nyugyokuMinPieces && points >= need
}
