package shogimg

// GenMode selects which subset of legal moves the generator produces.
type GenMode int

const (
	// NonEvasions produces legal moves, omitting unpromoted Pawn, Bishop and
	// Rook moves whose promoted variant is available and unpromoted Lance
	// moves onto the second-to-last rank.
	NonEvasions GenMode = iota
	// NonEvasionsAll produces every legal move.
	NonEvasionsAll
	// Evasions produces the moves that end a check, with the same promotion
	// pruning as NonEvasions. Empty when not in check.
	Evasions
	// EvasionsAll produces every move that ends a check.
	EvasionsAll
	// Winning produces only moves that capture the opponent's King. King
	// safety of the mover is not considered.
	Winning
	// RespondOute produces every legal reply to a check.
	RespondOute
)

func (m GenMode) String() string {
	switch m {
	case NonEvasions:
		return "NonEvasions"
	case NonEvasionsAll:
		return "NonEvasionsAll"
	case Evasions:
		return "Evasions"
	case EvasionsAll:
		return "EvasionsAll"
	case Winning:
		return "Winning"
	case RespondOute:
		return "RespondOute"
	}
	return "GenMode(?)"
}

func (m GenMode) allPromotions() bool {
	return m == NonEvasionsAll || m == EvasionsAll || m == RespondOute || m == Winning
}

func (m GenMode) evasionsOnly() bool {
	return m == Evasions || m == EvasionsAll || m == RespondOute
}

// MaxMoves is the largest number of legal moves any Shogi position has.
// Move buffers of this capacity never grow.
const MaxMoves = 593

// dropKinds is the order in which hand pieces are dropped.
var dropKinds = [HandKinds]PieceType{Pawn, Lance, Knight, Silver, Gold, Bishop, Rook}

type generator struct {
	b     *Board
	us    Color
	all   bool
	moves []Move
}

func (g *generator) push(m Move) {
	if len(g.moves) >= MaxMoves {
		panic("shogimg: move buffer overflow")
	}
	g.moves = append(g.moves, m)
}

// omitUnpromoted reports whether the non-"All" modes skip the unpromoted
// variant of a move that could promote.
func omitUnpromoted(us Color, pt PieceType, to Square) bool {
	switch pt {
	case Pawn, Bishop, Rook:
		return true
	case Lance:
		return relativeRank(us, to) == 1
	}
	return false
}

// pieceMoves appends the moves of p from `from` to every square of targets,
// expanding promotion variants. The promoted variant comes first.
func (g *generator) pieceMoves(from Square, p Piece, targets Bitboard) {
	pt := p.Type()
	us := g.us
	fromZone := promotionZone[us].Has(from)
	it := targets.Iter()
	for to, ok := it.Next(); ok; to, ok = it.Next() {
		captured := g.b.squares[to]
		if pt.Promotable() && (fromZone || promotionZone[us].Has(to)) {
			g.push(newMove(from, to, p, captured, true))
			if deadRanks[us][pt].Has(to) {
				continue
			}
			if !g.all && omitUnpromoted(us, pt, to) {
				continue
			}
		}
		g.push(newMove(from, to, p, captured, false))
	}
}

func (g *generator) kingMoves(occ Bitboard) {
	b := g.b
	ksq := b.kingSq[g.us]
	if ksq == NoSquare {
		return
	}
	them := g.us.Opposite()
	occNoKing := occ.Without(ksq)
	king := b.squares[ksq]
	it := stepAttacks[g.us][King][ksq].AndNot(b.occupancy[g.us]).Iter()
	for to, ok := it.Next(); ok; to, ok = it.Next() {
		if !b.attackersTo(to, them, occNoKing).IsZero() {
			continue
		}
		g.push(newMove(ksq, to, king, b.squares[to], false))
	}
}

// pawnFiles returns the files holding an unpromoted pawn of side c.
func (b *Board) pawnFiles(c Color) Bitboard {
	var files Bitboard
	it := b.byType[c][Pawn].Iter()
	for sq, ok := it.Next(); ok; sq, ok = it.Next() {
		files = files.Or(fileBB[sq.File()])
	}
	return files
}

func (g *generator) drops(target Bitboard) {
	b := g.b
	hand := b.hands[g.us]
	if hand.IsEmpty() || target.IsZero() {
		return
	}
	for _, pt := range dropKinds {
		if hand.Count(pt) == 0 {
			continue
		}
		t := target.AndNot(deadRanks[g.us][pt])
		if pt == Pawn {
			t = t.AndNot(b.pawnFiles(g.us))
		}
		p := NewPiece(g.us, pt)
		it := t.Iter()
		for to, ok := it.Next(); ok; to, ok = it.Next() {
			if pt == Pawn && b.pawnDropMates(to) {
				continue
			}
			g.push(newDrop(p, to))
		}
	}
}

func (g *generator) winning() {
	b := g.b
	them := g.us.Opposite()
	ek := b.kingSq[them]
	if ek == NoSquare {
		return
	}
	target := SquareBB(ek)
	it := b.attackersTo(ek, g.us, b.AllOccupancy()).Iter()
	for from, ok := it.Next(); ok; from, ok = it.Next() {
		g.pieceMoves(from, b.squares[from], target)
	}
}

// GenerateInto appends the moves selected by mode to dst[:0] and returns the
// result. With a buffer of capacity MaxMoves it never allocates.
func (b *Board) GenerateInto(dst []Move, mode GenMode) []Move {
	g := generator{b: b, us: b.sideToMove, all: mode.allPromotions(), moves: dst[:0]}
	if mode == Winning {
		g.winning()
		return g.moves
	}

	occ := b.AllOccupancy()
	checkers, checkMask, pinLine := b.checkAndPins(g.us, occ)
	inCheck := !checkers.IsZero()
	if mode.evasionsOnly() && !inCheck {
		return g.moves
	}

	g.kingMoves(occ)
	if inCheck && checkers.PopCount() > 1 {
		// Double check: only the king may move.
		return g.moves
	}

	target := b.occupancy[g.us].Not()
	if inCheck {
		target = target.And(checkMask)
	}
	it := b.occupancy[g.us].Iter()
	for from, ok := it.Next(); ok; from, ok = it.Next() {
		p := b.squares[from]
		if p.Type() == King {
			continue
		}
		t := PieceAttacks(p, from, occ).And(target)
		if pin := pinLine[from]; !pin.IsZero() {
			t = t.And(pin)
		}
		g.pieceMoves(from, p, t)
	}

	dropTarget := occ.Not()
	if inCheck {
		dropTarget = dropTarget.And(checkMask).AndNot(checkers)
	}
	g.drops(dropTarget)
	return g.moves
}

// GenerateMovesInto appends every legal move to dst[:0].
func (b *Board) GenerateMovesInto(dst []Move) []Move {
	return b.GenerateInto(dst, NonEvasionsAll)
}

// LegalMoves returns every legal move for the side to move.
func (b *Board) LegalMoves() []Move { return b.GenerateMovesInto(make([]Move, 0, 128)) }

// RespondOuteMoves returns the legal replies to a check, or nothing when the
// side to move is not in check.
func (b *Board) RespondOuteMoves() []Move { return b.GenerateInto(make([]Move, 0, 64), RespondOute) }

// HasLegalMoves reports whether the side to move can move at all.
func (b *Board) HasLegalMoves() bool {
	var buf [MaxMoves]Move
	return len(b.GenerateInto(buf[:0], NonEvasions)) > 0
}

// FindLegal looks m up among the legal moves by its wire form and returns
// the generator's annotated copy.
func (b *Board) FindLegal(m Move) (Move, bool) {
	var buf [MaxMoves]Move
	for _, lm := range b.GenerateInto(buf[:0], NonEvasionsAll) {
		if lm.SameWire(m) {
			return lm, true
		}
	}
	return NullMove, false
}

// IsLegal reports whether m is a legal move in b.
func (b *Board) IsLegal(m Move) bool {
	_, ok := b.FindLegal(m)
	return ok
}
