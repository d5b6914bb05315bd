package shogimg

// Perft counts the leaf nodes of the legal move tree of the given depth.
// Per-depth buffers are reused so the walk does not allocate per node.
func Perft(b *Board, depth int) uint64 {
	if depth <= 0 {
		return 1
	}
	pc := perftCtx{bufs: make([][]Move, depth+1)}
	return perftRec(b, depth, &pc)
}

type perftCtx struct {
	bufs [][]Move
}

func (pc *perftCtx) bufFor(depth int) []Move {
	buf := pc.bufs[depth]
	if buf == nil {
		buf = make([]Move, 0, MaxMoves)
		pc.bufs[depth] = buf
	}
	return buf[:0]
}

func perftRec(b *Board, depth int, pc *perftCtx) uint64 {
	moves := b.GenerateMovesInto(pc.bufFor(depth))
	if depth == 1 {
		return uint64(len(moves))
	}
	var nodes uint64
	for _, m := range moves {
		st := b.MakeMove(m)
		nodes += perftRec(b, depth-1, pc)
		b.UnmakeMove(st)
	}
	return nodes
}

// PerftStats tallies the moves leading to the leaves of a perft walk.
type PerftStats struct {
	Nodes      uint64
	Captures   uint64
	Promotions uint64
	Checks     uint64
	Mates      uint64
}

func (s *PerftStats) add(o PerftStats) {
	s.Nodes += o.Nodes
	s.Captures += o.Captures
	s.Promotions += o.Promotions
	s.Checks += o.Checks
	s.Mates += o.Mates
}

// PerftWithStats is Perft with a breakdown of the last-ply moves.
func PerftWithStats(b *Board, depth int) PerftStats {
	if depth <= 0 {
		return PerftStats{Nodes: 1}
	}
	pc := perftCtx{bufs: make([][]Move, depth+1)}
	return perftStatsRec(b, depth, &pc)
}

func perftStatsRec(b *Board, depth int, pc *perftCtx) PerftStats {
	var s PerftStats
	moves := b.GenerateMovesInto(pc.bufFor(depth))
	for _, m := range moves {
		st := b.MakeMove(m)
		if depth == 1 {
			s.Nodes++
			if m.IsCapture() {
				s.Captures++
			}
			if m.IsPromotion() {
				s.Promotions++
			}
			if b.InCheck(b.sideToMove) {
				s.Checks++
				if !b.HasLegalMoves() {
					s.Mates++
				}
			}
		} else {
			s.add(perftStatsRec(b, depth-1, pc))
		}
		b.UnmakeMove(st)
	}
	return s
}

// PerftDivide maps each legal root move to the leaf count below it.
func PerftDivide(b *Board, depth int) map[Move]uint64 {
	result := make(map[Move]uint64)
	if depth <= 0 {
		return result
	}
	for _, m := range b.LegalMoves() {
		st := b.MakeMove(m)
		result[m.Wire()] = Perft(b, depth-1)
		b.UnmakeMove(st)
	}
	return result
}
