package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/pkg/profile"
	"golang.org/x/exp/slices"

	sg "shogi-engine/shogimg"
)

func main() {
	sfen := flag.String("sfen", sg.StartSFEN, "SFEN string (defaults to the initial position)")
	depth := flag.Int("depth", 0, "Perft depth (required)")
	divide := flag.Bool("divide", false, "Print per-move node counts at root")
	stats := flag.Bool("stats", false, "Break the leaf count down into captures, promotions, checks and mates")
	repeat := flag.Int("repeat", 1, "Repeat perft N times and report aggregate (for steadier timings)")
	label := flag.String("label", "", "Optional label prefix for one-line output")
	prof := flag.String("profile", "", "Profile the run: cpu or mem")
	flag.Parse()

	if *depth <= 0 {
		fmt.Fprintln(os.Stderr, "-depth must be > 0")
		os.Exit(2)
	}

	board, err := sg.ParseSFEN(*sfen)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ParseSFEN error: %v\n", err)
		os.Exit(2)
	}

	switch *prof {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath(".")).Stop()
	default:
		fmt.Fprintf(os.Stderr, "unknown -profile %q\n", *prof)
		os.Exit(2)
	}

	if *divide {
		div := sg.PerftDivide(board, *depth)
		moves := make([]sg.Move, 0, len(div))
		var sum uint64
		for m, n := range div {
			moves = append(moves, m)
			sum += n
		}
		// stable output
		slices.SortFunc(moves, func(a, b sg.Move) bool { return a.String() < b.String() })
		for _, m := range moves {
			fmt.Printf("%s: %d\n", m, div[m])
		}
		fmt.Printf("Total: %d\n", sum)
		return
	}

	if *stats {
		s := sg.PerftWithStats(board, *depth)
		fmt.Printf("nodes %d captures %d promotions %d checks %d mates %d\n",
			s.Nodes, s.Captures, s.Promotions, s.Checks, s.Mates)
		return
	}

	var totalNodes uint64
	start := time.Now()
	for i := 0; i < *repeat; i++ {
		totalNodes += sg.Perft(board, *depth)
	}
	elapsed := time.Since(start)
	nps := float64(totalNodes) / elapsed.Seconds()

	// Single line: Depth Nodes Time NPS
	fmt.Printf("%s \t%d \t\t%d \t\t%s \t%.0f\n", *label, *depth, totalNodes, elapsed, nps)
}
