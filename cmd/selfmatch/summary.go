package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"shogi-engine/selfmatch"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	headStyle   = lipgloss.NewStyle().Bold(true).Underline(true)
	nameStyle   = lipgloss.NewStyle().Width(20)
	numberStyle = lipgloss.NewStyle().Width(8).Align(lipgloss.Right)
	boxStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)
)

func row(name string, cells ...string) string {
	parts := []string{nameStyle.Render(name)}
	for _, c := range cells {
		parts = append(parts, numberStyle.Render(c))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

// renderSummary draws the per-agent scores and the termination reasons.
func renderSummary(s selfmatch.TallySnapshot) string {
	rows := []string{
		titleStyle.Render(fmt.Sprintf("self-match: %d games", s.Games)),
		"",
		headStyle.Render(row("agent", "win", "loss", "draw", "score")),
	}
	for _, name := range s.AgentNames() {
		sc := s.Agents[name]
		rows = append(rows, row(name,
			fmt.Sprint(sc.Wins),
			fmt.Sprint(sc.Losses),
			fmt.Sprint(sc.Draws),
			fmt.Sprintf("%.1f%%", 100*sc.Rate())))
	}
	if len(s.Reasons) > 0 {
		rows = append(rows, "", headStyle.Render(row("ended by", "games")))
		for _, r := range s.ReasonNames() {
			rows = append(rows, row(r, fmt.Sprint(s.Reasons[r])))
		}
	}
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
