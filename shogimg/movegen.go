package shogimg

// Ray directions. Names are from First's point of view: forward is toward
// rank 0, right is toward file 0.
const (
	dirForward = iota
	dirBack
	dirRight
	dirLeft
	dirForwardRight
	dirForwardLeft
	dirBackRight
	dirBackLeft
	numDirs
)

var dirDelta = [numDirs][2]int{ // {file, rank}
	{0, -1}, {0, 1}, {-1, 0}, {1, 0},
	{-1, -1}, {1, -1}, {-1, 1}, {1, 1},
}

// dirAscending marks directions whose square index grows along the ray, so
// the nearest blocker is the lowest set bit.
var dirAscending = [numDirs]bool{false, true, false, true, false, true, false, true}

func isOrthogonal(d int) bool { return d < dirForwardRight }

// forwardDir is the direction a side's pawns and lances move.
func forwardDir(c Color) int {
	if c == First {
		return dirForward
	}
	return dirBack
}

// Precomputed tables.
var (
	// stepAttacks[c][pt][sq] is the attack set of a non-sliding piece, and
	// the one-step part of Horse and Dragon.
	stepAttacks [2][pieceTypeCount][NumSquares]Bitboard

	// rays[sq][d] holds every square from sq in direction d, excluding sq.
	rays [NumSquares][numDirs]Bitboard

	// between[a][b] holds the squares strictly between two aligned squares.
	between [NumSquares][NumSquares]Bitboard

	fileBB [9]Bitboard
	rankBB [9]Bitboard

	// promotionZone[c] is the far three ranks for side c.
	promotionZone [2]Bitboard

	// deadRanks[c][pt] are the squares where a piece of kind pt could never
	// move again: last rank for Pawn and Lance, last two for Knight.
	deadRanks [2][pieceTypeCount]Bitboard
)

func init() {
	initMasks()
	initRays()
	initStepAttacks()
}

func onBoard(file, rank int) bool { return file >= 0 && file < 9 && rank >= 0 && rank < 9 }

func initMasks() {
	for sq := Square(0); sq < NumSquares; sq++ {
		fileBB[sq.File()] = fileBB[sq.File()].With(sq)
		rankBB[sq.Rank()] = rankBB[sq.Rank()].With(sq)
	}
	promotionZone[First] = rankBB[0].Or(rankBB[1]).Or(rankBB[2])
	promotionZone[Second] = rankBB[6].Or(rankBB[7]).Or(rankBB[8])

	deadRanks[First][Pawn] = rankBB[0]
	deadRanks[First][Lance] = rankBB[0]
	deadRanks[First][Knight] = rankBB[0].Or(rankBB[1])
	deadRanks[Second][Pawn] = rankBB[8]
	deadRanks[Second][Lance] = rankBB[8]
	deadRanks[Second][Knight] = rankBB[8].Or(rankBB[7])
}

func initRays() {
	for sq := Square(0); sq < NumSquares; sq++ {
		for d := 0; d < numDirs; d++ {
			var ray Bitboard
			f, r := sq.File()+dirDelta[d][0], sq.Rank()+dirDelta[d][1]
			for onBoard(f, r) {
				t := NewSquare(f, r)
				between[sq][t] = ray
				ray = ray.With(t)
				f, r = f+dirDelta[d][0], r+dirDelta[d][1]
			}
			rays[sq][d] = ray
		}
	}
}

func initStepAttacks() {
	// Offsets as seen by First; Second mirrors the rank component.
	steps := map[PieceType][][2]int{
		Pawn:   {{0, -1}},
		Knight: {{-1, -2}, {1, -2}},
		Silver: {{0, -1}, {-1, -1}, {1, -1}, {-1, 1}, {1, 1}},
		Gold:   {{0, -1}, {-1, -1}, {1, -1}, {-1, 0}, {1, 0}, {0, 1}},
		King:   {{0, -1}, {-1, -1}, {1, -1}, {-1, 0}, {1, 0}, {0, 1}, {-1, 1}, {1, 1}},
		Horse:  {{0, -1}, {0, 1}, {-1, 0}, {1, 0}},
		Dragon: {{-1, -1}, {1, -1}, {-1, 1}, {1, 1}},
	}
	for c := First; c <= Second; c++ {
		sign := 1
		if c == Second {
			sign = -1
		}
		for pt, offs := range steps {
			for sq := Square(0); sq < NumSquares; sq++ {
				var bb Bitboard
				for _, o := range offs {
					f, r := sq.File()+o[0], sq.Rank()+sign*o[1]
					if onBoard(f, r) {
						bb = bb.With(NewSquare(f, r))
					}
				}
				stepAttacks[c][pt][sq] = bb
			}
		}
		for _, pt := range []PieceType{ProPawn, ProLance, ProKnight, ProSilver} {
			stepAttacks[c][pt] = stepAttacks[c][Gold]
		}
	}
}

// relativeRank is the rank counted from side c's far edge.
func relativeRank(c Color, sq Square) int {
	if c == First {
		return sq.Rank()
	}
	return 8 - sq.Rank()
}

// rayAttack returns the squares reached from sq in direction d, stopping on
// (and including) the first occupied square.
func rayAttack(sq Square, d int, occ Bitboard) Bitboard {
	ray := rays[sq][d]
	blockers := ray.And(occ)
	if blockers.IsZero() {
		return ray
	}
	var first Square
	if dirAscending[d] {
		first = blockers.LSB()
	} else {
		first = blockers.MSB()
	}
	return ray.AndNot(rays[first][d])
}

func lanceAttacks(c Color, sq Square, occ Bitboard) Bitboard {
	return rayAttack(sq, forwardDir(c), occ)
}

func bishopAttacks(sq Square, occ Bitboard) Bitboard {
	return rayAttack(sq, dirForwardRight, occ).
		Or(rayAttack(sq, dirForwardLeft, occ)).
		Or(rayAttack(sq, dirBackRight, occ)).
		Or(rayAttack(sq, dirBackLeft, occ))
}

func rookAttacks(sq Square, occ Bitboard) Bitboard {
	return rayAttack(sq, dirForward, occ).
		Or(rayAttack(sq, dirBack, occ)).
		Or(rayAttack(sq, dirRight, occ)).
		Or(rayAttack(sq, dirLeft, occ))
}

// PieceAttacks returns the squares attacked by p standing on sq.
func PieceAttacks(p Piece, sq Square, occ Bitboard) Bitboard {
	c := p.Color()
	switch pt := p.Type(); pt {
	case Lance:
		return lanceAttacks(c, sq, occ)
	case Bishop:
		return bishopAttacks(sq, occ)
	case Rook:
		return rookAttacks(sq, occ)
	case Horse:
		return bishopAttacks(sq, occ).Or(stepAttacks[c][Horse][sq])
	case Dragon:
		return rookAttacks(sq, occ).Or(stepAttacks[c][Dragon][sq])
	case NoPieceType:
		return EmptyBB
	default:
		return stepAttacks[c][pt][sq]
	}
}

// attackersTo returns the pieces of side by attacking sq under occupancy occ.
// Step attacks are symmetric: a piece of side by on x hits sq exactly when
// the same kind of the other side on sq would hit x.
func (b *Board) attackersTo(sq Square, by Color, occ Bitboard) Bitboard {
	opp := by.Opposite()
	t := &b.byType[by]
	att := stepAttacks[opp][Pawn][sq].And(t[Pawn]).
		Or(stepAttacks[opp][Knight][sq].And(t[Knight])).
		Or(stepAttacks[opp][Silver][sq].And(t[Silver])).
		Or(stepAttacks[opp][Gold][sq].And(b.goldsLike(by))).
		Or(stepAttacks[opp][King][sq].And(t[King].Or(t[Horse]).Or(t[Dragon])))
	if lances := t[Lance]; !lances.IsZero() {
		att = att.Or(lanceAttacks(opp, sq, occ).And(lances))
	}
	if diag := t[Bishop].Or(t[Horse]); !diag.IsZero() {
		att = att.Or(bishopAttacks(sq, occ).And(diag))
	}
	if orth := t[Rook].Or(t[Dragon]); !orth.IsZero() {
		att = att.Or(rookAttacks(sq, occ).And(orth))
	}
	return att
}

// IsSquareAttacked reports whether side by attacks sq.
func (b *Board) IsSquareAttacked(sq Square, by Color) bool {
	return !b.attackersTo(sq, by, b.AllOccupancy()).IsZero()
}

// InCheck reports whether side c's king is attacked.
func (b *Board) InCheck(c Color) bool {
	ksq := b.kingSq[c]
	if ksq == NoSquare {
		return false
	}
	return b.IsSquareAttacked(ksq, c.Opposite())
}

// Checkers returns the pieces giving check to the side to move.
func (b *Board) Checkers() Bitboard {
	us := b.sideToMove
	if b.kingSq[us] == NoSquare {
		return EmptyBB
	}
	return b.attackersTo(b.kingSq[us], us.Opposite(), b.AllOccupancy())
}

// slidesToward reports whether p, seen from a king in direction d, attacks
// back along that ray.
func slidesToward(p Piece, d int) bool {
	switch p.Type() {
	case Rook, Dragon:
		return isOrthogonal(d)
	case Bishop, Horse:
		return !isOrthogonal(d)
	case Lance:
		// The lance moves opposite to d, i.e. d is the king side's forward.
		return d == forwardDir(p.Color().Opposite())
	}
	return false
}

// checkAndPins computes, for side us under occupancy occ:
//   - checkers: enemy pieces attacking our king
//   - checkMask: when in single check, the squares a non-king move may land
//     on to resolve it (capture the checker or interpose)
//   - pinLine: for each pinned piece of ours, the squares it may move to
//     without exposing the king; zero for unpinned pieces
func (b *Board) checkAndPins(us Color, occ Bitboard) (checkers, checkMask Bitboard, pinLine [NumSquares]Bitboard) {
	ksq := b.kingSq[us]
	if ksq == NoSquare {
		return
	}
	them := us.Opposite()
	checkers = b.attackersTo(ksq, them, occ)
	if !checkers.IsZero() && checkers.PopCount() == 1 {
		c := checkers.LSB()
		checkMask = between[ksq][c].With(c)
	}

	for d := 0; d < numDirs; d++ {
		blockers := rays[ksq][d].And(occ)
		if blockers.IsZero() {
			continue
		}
		var first Square
		if dirAscending[d] {
			first = blockers.LSB()
		} else {
			first = blockers.MSB()
		}
		if b.squares[first].Color() != us {
			continue
		}
		beyond := rays[first][d].And(occ)
		if beyond.IsZero() {
			continue
		}
		var next Square
		if dirAscending[d] {
			next = beyond.LSB()
		} else {
			next = beyond.MSB()
		}
		if p := b.squares[next]; p.Color() == them && slidesToward(p, d) {
			pinLine[first] = between[ksq][next].With(next)
		}
	}
	return
}
