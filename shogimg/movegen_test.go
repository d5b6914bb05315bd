package shogimg_test

import (
	"testing"

	"golang.org/x/exp/slices"

	sg "shogi-engine/shogimg"
)

func moveStrings(ms []sg.Move) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.String()
	}
	slices.Sort(out)
	return out
}

func findMove(ms []sg.Move, s string) (sg.Move, bool) {
	for _, m := range ms {
		if m.String() == s {
			return m, true
		}
	}
	return sg.NullMove, false
}

func TestStartPositionMoves(t *testing.T) {
	b := sg.NewBoard()
	moves := b.LegalMoves()
	if len(moves) != 30 {
		t.Fatalf("start moves: got %d want 30: %v", len(moves), moveStrings(moves))
	}
	if _, ok := findMove(moves, "7g7f"); !ok {
		t.Fatalf("7g7f missing")
	}
	if _, ok := findMove(moves, "5i4h"); !ok {
		t.Fatalf("5i4h missing")
	}
}

func TestAfterFirstMoveScenario(t *testing.T) {
	b := sg.NewBoard()
	if _, err := b.ApplyUSI("1g1f"); err != nil {
		t.Fatalf("ApplyUSI: %v", err)
	}
	if b.InCheck(sg.Second) || b.InCheck(sg.First) {
		t.Fatalf("unexpected check")
	}
	if got := len(b.LegalMoves()); got != 30 {
		t.Fatalf("second moves: got %d want 30", got)
	}
	want := "lnsgkgsnl/1r5b1/ppppppppp/9/9/8P/PPPPPPPP1/1B5R1/LNSGKGSNL w - 2"
	if got := b.SFEN(); got != want {
		t.Fatalf("sfen: got %q want %q", got, want)
	}
}

func TestRespondOuteOnlyMoves(t *testing.T) {
	// Second's king on 6b is checked by the rook on 6i and flanked by golds
	// on 7a and 5a.
	b := sg.MustParseSFEN("2G1G4/3k5/9/9/9/9/9/9/K2R5 w - 1")
	if !b.InCheck(sg.Second) {
		t.Fatalf("expected check")
	}
	got := moveStrings(b.RespondOuteMoves())
	want := []string{"6b5a", "6b5c", "6b7a", "6b7c"}
	if len(got) != len(want) {
		t.Fatalf("evasions: got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("evasions: got %v want %v", got, want)
		}
	}
	if n := len(b.LegalMoves()); n != len(want) {
		t.Fatalf("legal moves in check: got %d want %d", n, len(want))
	}
	m, _ := findMove(b.RespondOuteMoves(), "6b7a")
	if m.CapturedPiece() != sg.NewPiece(sg.First, sg.Gold) {
		t.Fatalf("capture annotation: %v", m.CapturedPiece())
	}
}

func TestEvasionsEmptyWithoutCheck(t *testing.T) {
	b := sg.NewBoard()
	var buf [sg.MaxMoves]sg.Move
	for _, mode := range []sg.GenMode{sg.Evasions, sg.EvasionsAll, sg.RespondOute} {
		if n := len(b.GenerateInto(buf[:0], mode)); n != 0 {
			t.Fatalf("%v: got %d moves", mode, n)
		}
	}
}

func TestDropPawnMateExcluded(t *testing.T) {
	// P*1b mates: 2a is blocked by Second's own lance, the gold on 2c covers
	// 2b and protects 1b.
	b := sg.MustParseSFEN("7lk/9/7G1/9/9/9/9/9/K8 b P 1")
	moves := b.LegalMoves()
	if _, ok := findMove(moves, "P*1b"); ok {
		t.Fatalf("uchifuzume drop generated")
	}
	if _, ok := findMove(moves, "P*1c"); !ok {
		t.Fatalf("ordinary pawn drop missing")
	}
	drop, _ := sg.ParseMove("P*1b")
	if !b.IsDropPawnMate(drop) {
		t.Fatalf("IsDropPawnMate = false")
	}

	// Without the gold the king takes the pawn, so the checking drop stays.
	b = sg.MustParseSFEN("7lk/9/9/9/9/9/9/9/K8 b P 1")
	m, ok := findMove(b.LegalMoves(), "P*1b")
	if !ok {
		t.Fatalf("checking pawn drop missing")
	}
	if !b.GivesCheck(m) || b.IsDropPawnMate(m) {
		t.Fatalf("P*1b: check=%v mate=%v", b.GivesCheck(m), b.IsDropPawnMate(m))
	}
}

func TestNifu(t *testing.T) {
	b := sg.MustParseSFEN("4k4/9/9/9/9/9/4P4/9/4K4 b P 1")
	for _, m := range b.LegalMoves() {
		if m.IsDrop() && m.To().File() == 4 {
			t.Fatalf("nifu drop %v generated", m)
		}
	}
	if _, ok := findMove(b.LegalMoves(), "P*4e"); !ok {
		t.Fatalf("pawn drop on free file missing")
	}
}

func TestDropsAvoidDeadRanks(t *testing.T) {
	b := sg.MustParseSFEN("4k4/9/9/9/9/9/9/9/4K4 b PLN 1")
	for _, m := range b.LegalMoves() {
		if !m.IsDrop() {
			continue
		}
		r := m.To().Rank()
		switch m.DropType() {
		case sg.Pawn, sg.Lance:
			if r == 0 {
				t.Fatalf("drop %v on last rank", m)
			}
		case sg.Knight:
			if r <= 1 {
				t.Fatalf("drop %v on last two ranks", m)
			}
		}
	}
	// Second's dead ranks are at the other edge.
	b = sg.MustParseSFEN("4k4/9/9/9/9/9/9/9/4K4 w nlp 1")
	for _, m := range b.LegalMoves() {
		if m.IsDrop() && m.DropType() == sg.Knight && m.To().Rank() >= 7 {
			t.Fatalf("drop %v on last two ranks", m)
		}
	}
}

func TestMandatoryPromotion(t *testing.T) {
	b := sg.MustParseSFEN("k8/4P4/6N2/9/9/9/9/9/8K b - 1")
	moves := b.LegalMoves()
	if _, ok := findMove(moves, "5b5a"); ok {
		t.Fatalf("unpromoted pawn move to last rank generated")
	}
	if _, ok := findMove(moves, "5b5a+"); !ok {
		t.Fatalf("promoting pawn move missing")
	}
	// Knight on 3c reaching rank a must promote.
	if _, ok := findMove(moves, "3c2a"); ok {
		t.Fatalf("unpromoted knight move to rank a generated")
	}
	if _, ok := findMove(moves, "3c2a+"); !ok {
		t.Fatalf("promoting knight move missing")
	}
}

func TestOptionalPromotionModes(t *testing.T) {
	b := sg.MustParseSFEN("k8/9/9/4P4/9/9/9/9/8K b - 1")
	var buf [sg.MaxMoves]sg.Move
	all := moveStrings(b.GenerateInto(buf[:0], sg.NonEvasionsAll))
	pruned := moveStrings(b.GenerateInto(buf[:0], sg.NonEvasions))
	has := func(list []string, s string) bool {
		for _, x := range list {
			if x == s {
				return true
			}
		}
		return false
	}
	if !has(all, "5d5c") || !has(all, "5d5c+") {
		t.Fatalf("all mode: %v", all)
	}
	if has(pruned, "5d5c") || !has(pruned, "5d5c+") {
		t.Fatalf("pruned mode: %v", pruned)
	}
	// Promoted variant is emitted first.
	ms := b.GenerateInto(buf[:0], sg.NonEvasionsAll)
	for i, m := range ms {
		if m.String() == "5d5c+" {
			if i+1 >= len(ms) || ms[i+1].String() != "5d5c" {
				t.Fatalf("promotion order: %v", moveStrings(ms))
			}
		}
	}
}

func TestPinnedPieceStaysOnLine(t *testing.T) {
	// Gold on 5h is pinned by the rook on 5a against the king on 5i.
	b := sg.MustParseSFEN("4r3k/9/9/9/9/9/9/4G4/4K4 b - 1")
	for _, m := range b.LegalMoves() {
		if m.From().String() == "5h" && m.To().File() != 4 {
			t.Fatalf("pinned gold left the file: %v", m)
		}
	}
	if _, ok := findMove(b.LegalMoves(), "5h5g"); !ok {
		t.Fatalf("5h5g missing")
	}
	// A lance pins along its file too.
	b = sg.MustParseSFEN("4l3k/9/9/9/9/9/9/4S4/4K4 b - 1")
	for _, m := range b.LegalMoves() {
		if m.From().String() == "5h" && m.To().String() != "5g" {
			t.Fatalf("silver pinned by lance moved off the file: %v", m)
		}
	}
}

func TestKingCannotStepIntoCheck(t *testing.T) {
	b := sg.MustParseSFEN("3r4k/9/9/9/9/9/9/9/4K4 b - 1")
	for _, m := range b.LegalMoves() {
		if m.To().File() == 5 {
			t.Fatalf("king walked onto the rook's file: %v", m)
		}
	}
}

func TestDoubleCheckOnlyKingMoves(t *testing.T) {
	// Rook on 5a and bishop on 1e both check the king on 5i.
	b := sg.MustParseSFEN("4r3k/9/9/9/8b/9/9/9/4K4 b G 1")
	if !b.InCheck(sg.First) {
		t.Fatalf("expected check")
	}
	if got := b.Checkers().PopCount(); got != 2 {
		t.Fatalf("checkers: %d", got)
	}
	for _, m := range b.LegalMoves() {
		if m.IsDrop() || m.From() != b.KingSquare(sg.First) {
			t.Fatalf("non-king move under double check: %v", m)
		}
	}
}

func TestWinningMoves(t *testing.T) {
	b := sg.MustParseSFEN("9/9/9/9/4k4/4G4/9/9/4K4 b - 1")
	var buf [sg.MaxMoves]sg.Move
	ms := b.GenerateInto(buf[:0], sg.Winning)
	if len(ms) != 1 || ms[0].String() != "5f5e" {
		t.Fatalf("winning: %v", moveStrings(ms))
	}
	if !b.IsWinMove(ms[0]) {
		t.Fatalf("IsWinMove false")
	}
}

func TestGeneratedMovesAreSafe(t *testing.T) {
	positions := []string{
		sg.StartSFEN,
		"lnsgkgsnl/1r5b1/pppppp1pp/6p2/9/2P6/PP1PPPPPP/1B5R1/LNSGKGSNL b - 3",
		"ln1g1g1nl/1r1s1k3/p1pppp1pp/6p2/1p7/2P6/PP1PPPP1P/1BG4R1/LNS1KGSNL b Pbs 31",
		"2G1G4/3k5/9/9/9/9/9/9/K2R5 w - 1",
	}
	for _, s := range positions {
		b := sg.MustParseSFEN(s)
		us := b.SideToMove()
		moves := b.LegalMoves()
		if len(moves) > sg.MaxMoves {
			t.Fatalf("%s: %d moves", s, len(moves))
		}
		for _, m := range moves {
			nb, _ := b.Next(m)
			if nb.InCheck(us) {
				t.Fatalf("%s: %v leaves king in check", s, m)
			}
			if !b.RespondedOute(m) {
				t.Fatalf("%s: RespondedOute(%v) = false", s, m)
			}
		}
	}
}

func TestGenerateIntoNoAlloc(t *testing.T) {
	b := sg.NewBoard()
	buf := make([]sg.Move, 0, sg.MaxMoves)
	allocs := testing.AllocsPerRun(100, func() {
		buf = b.GenerateMovesInto(buf)
		if len(buf) != 30 {
			t.Fatalf("expected 30 moves, got %d", len(buf))
		}
		buf = buf[:0]
	})
	if allocs != 0 {
		t.Fatalf("expected 0 allocs, got %f", allocs)
	}
}
