package shogimg_test

import (
	"testing"
	"time"

	sg "shogi-engine/shogimg"
)

const nyugyokuSFEN = "+P+PSG1GS+B+R/+L7+N/4K4/9/9/9/9/9/8k b RB 1"

func TestNyugyokuWin(t *testing.T) {
	b := sg.MustParseSFEN(nyugyokuSFEN)
	inZone, points := b.NyugyokuPoints(sg.First)
	if inZone != 10 || points != 28 {
		t.Fatalf("points: inZone=%d points=%d", inZone, points)
	}
	if !b.IsNyugyokuWin(time.Time{}) {
		t.Fatalf("no deadline: want win")
	}
	if !b.IsNyugyokuWin(time.Now().Add(time.Minute)) {
		t.Fatalf("future deadline: want win")
	}
	if b.IsNyugyokuWin(time.Now().Add(-time.Second)) {
		t.Fatalf("passed deadline: want no win")
	}

	short := sg.MustParseSFEN("1+PSG1GS+B+R/+L7+N/4K4/9/9/9/9/9/8k b RB 1")
	if short.IsNyugyokuWin(time.Time{}) {
		t.Fatalf("nine pieces and 27 points: want no win")
	}
}

func TestNyugyokuRequiresKingInZoneAndNoCheck(t *testing.T) {
	out := sg.MustParseSFEN("+P+PSG1GS+B+R/+L7+N/9/4K4/9/9/9/9/8k b RB 1")
	if out.IsNyugyokuWin(time.Time{}) {
		t.Fatalf("king outside the zone: want no win")
	}
	checked := sg.MustParseSFEN("+P+PSG1GS+B+R/+L7+N/4K4/4g4/9/9/9/9/8k b RB 1")
	if checked.IsNyugyokuWin(time.Time{}) {
		t.Fatalf("king in check: want no win")
	}
}

func TestNyugyokuSecondNeedsTwentySeven(t *testing.T) {
	// Ten pieces in zone and 27 points: enough for Second, one short for First.
	b := sg.MustParseSFEN("K8/9/9/9/9/9/4k4/+n7+l/+r+bsg1gs+p+p w r4p 1")
	inZone, points := b.NyugyokuPoints(sg.Second)
	if inZone != 10 || points != 27 {
		t.Fatalf("points: inZone=%d points=%d", inZone, points)
	}
	if !b.IsNyugyokuWin(time.Time{}) {
		t.Fatalf("want win for second at 27 points")
	}
}

func TestBishopTradeHands(t *testing.T) {
	b := sg.NewBoard()
	start := b.Hash()
	if _, err := b.ApplyUSI("7g7f", "3c3d", "8h2b+", "3a2b"); err != nil {
		t.Fatalf("ApplyUSI: %v", err)
	}
	want := sg.Hand{}
	want.Add(sg.Bishop)
	if b.Hand(sg.First) != want || b.Hand(sg.Second) != want {
		t.Fatalf("hands: first=%v second=%v", b.Hand(sg.First), b.Hand(sg.Second))
	}
	if got := b.SFEN(); got != "lnsgkg1nl/1r5s1/pppppp1pp/6p2/9/2P6/PP1PPPPPP/7R1/LNSGKGSNL b Bb 5" {
		t.Fatalf("sfen: %q", got)
	}
	if _, err := b.ApplyUSI("B*5e"); err != nil {
		t.Fatalf("drop: %v", err)
	}
	if b.Hash() == start {
		t.Fatalf("hash equals start hash")
	}
	if !b.Hand(sg.First).IsEmpty() {
		t.Fatalf("first hand after drop: %v", b.Hand(sg.First))
	}
}

func TestMateDetection(t *testing.T) {
	// Gold on 5b supported by the silver on 4c mates the king on 5a.
	b := sg.MustParseSFEN("4k4/4G4/5S3/9/9/9/9/9/4K4 w - 1")
	if !b.IsMate() {
		t.Fatalf("expected mate")
	}
	if b.HasLegalMoves() {
		t.Fatalf("mated side has moves")
	}
	if sg.NewBoard().IsMate() {
		t.Fatalf("start position reported as mate")
	}
}

func TestIllegalMoveRejected(t *testing.T) {
	b := sg.NewBoard()
	played, err := b.ApplyUSI("7g7f", "7f7e", "3c3d")
	if err == nil {
		t.Fatalf("expected error for out-of-turn move")
	}
	if len(played) != 1 {
		t.Fatalf("played %d moves before the error", len(played))
	}
	m, _ := sg.ParseMove("5i5g")
	if _, err := b.ApplyMove(m); err == nil {
		t.Fatalf("ApplyMove accepted an illegal move")
	}
}
