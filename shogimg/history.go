package shogimg

// Repetition is the verdict of the repetition tracker after a move.
type Repetition int

const (
	RepetitionNone Repetition = iota
	// RepetitionDraw is an ordinary fourfold repetition.
	RepetitionDraw
	// RepetitionLossFirst: First repeated by checking on every move.
	RepetitionLossFirst
	// RepetitionLossSecond: Second repeated by checking on every move.
	RepetitionLossSecond
)

func (r Repetition) String() string {
	switch r {
	case RepetitionNone:
		return "none"
	case RepetitionDraw:
		return "draw"
	case RepetitionLossFirst:
		return "perpetual check by first"
	case RepetitionLossSecond:
		return "perpetual check by second"
	}
	return "?"
}

// sennichiteCount is the occurrence that ends the game.
const sennichiteCount = 4

type historyEntry struct {
	hash    Hash
	side    Color
	inCheck bool
}

// History records the positions of a game for sennichite detection. The
// counts map holds every position, the checks map only those where the side
// to move stood in check. The position hash already folds in the side to
// move.
type History struct {
	entries []historyEntry
	counts  map[Hash]int
	checks  map[Hash]int
}

// NewHistory starts a history at position b.
func NewHistory(b *Board) *History {
	h := &History{}
	h.Reset(b)
	return h
}

// Reset clears the history so it only contains b.
func (h *History) Reset(b *Board) {
	h.entries = h.entries[:0]
	h.counts = make(map[Hash]int)
	h.checks = make(map[Hash]int)
	h.Push(b)
}

// Clone returns an independent copy of h.
func (h *History) Clone() *History {
	c := &History{
		entries: append([]historyEntry(nil), h.entries...),
		counts:  make(map[Hash]int, len(h.counts)),
		checks:  make(map[Hash]int, len(h.checks)),
	}
	for k, v := range h.counts {
		c.counts[k] = v
	}
	for k, v := range h.checks {
		c.checks[k] = v
	}
	return c
}

// Len returns the number of recorded positions.
func (h *History) Len() int { return len(h.entries) }

// Push records b, the position reached after the last move, and reports
// whether it completes a sennichite.
func (h *History) Push(b *Board) Repetition {
	e := historyEntry{hash: b.Hash(), side: b.SideToMove(), inCheck: b.InCheck(b.SideToMove())}
	h.entries = append(h.entries, e)
	h.counts[e.hash]++
	if e.inCheck {
		h.checks[e.hash]++
	}
	if h.counts[e.hash] < sennichiteCount {
		return RepetitionNone
	}
	return h.judge(e.hash)
}

// judge classifies the repetition ending at the last entry. Over the span
// since the first occurrence of hash, if every position with side Y to
// move had Y in check, the other side was checking perpetually and loses.
func (h *History) judge(hash Hash) Repetition {
	first := -1
	for i, e := range h.entries {
		if e.hash == hash {
			first = i
			break
		}
	}
	checked := [2]bool{true, true}
	for _, e := range h.entries[first:] {
		if !e.inCheck {
			checked[e.side] = false
		}
	}
	switch {
	case checked[Second]:
		return RepetitionLossFirst
	case checked[First]:
		return RepetitionLossSecond
	}
	return RepetitionDraw
}

// Pop removes the last recorded position.
func (h *History) Pop() {
	if len(h.entries) == 0 {
		panic("shogimg: History.Pop on empty history")
	}
	e := h.entries[len(h.entries)-1]
	h.entries = h.entries[:len(h.entries)-1]
	if h.counts[e.hash]--; h.counts[e.hash] == 0 {
		delete(h.counts, e.hash)
	}
	if e.inCheck {
		if h.checks[e.hash]--; h.checks[e.hash] == 0 {
			delete(h.checks, e.hash)
		}
	}
}

// Occurrences returns how many times hash has been recorded.
func (h *History) Occurrences(hash Hash) int { return h.counts[hash] }

// IsSennichite reports whether hash already occurred three or more times,
// so reaching it once more is a fourfold repetition.
func (h *History) IsSennichite(hash Hash) bool {
	return h.counts[hash] >= sennichiteCount-1
}

// IsSennichiteByOute reports whether hash is about to repeat a fourth time
// and each earlier occurrence had the side to move in check.
func (h *History) IsSennichiteByOute(hash Hash) bool {
	return h.IsSennichite(hash) && h.checks[hash] >= sennichiteCount-1
}
