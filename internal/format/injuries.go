package format

import (
	"strings"

	"github.com/preston-bernstein/nba-stables-widgets/internal/domain"
)

const (
	NoInjuriesText    = "No injuries reported"
	maxInjuryLines    = 12
	playersPerTeam    = 2
	teamTokenLength   = 3
	rawStatusMaxRunes = 8
)

// Injuries renders the flattened injury report, two players per team and at
// most twelve lines: "<lastName> (<TEAM3>) <STATUS>".
func Injuries(resp domain.InjuriesResponse) string {
	lines := make([]string, 0, maxInjuryLines)
	for _, team := range resp.Injuries {
		teamToken := take(lastWord(team.Team), teamTokenLength)
		players := team.Players
		if len(players) > playersPerTeam {
			players = players[:playersPerTeam]
		}
		for _, p := range players {
			lines = append(lines, lastWord(p.Name)+" ("+teamToken+") "+InjuryStatus(p.Status))
		}
	}
	if len(lines) == 0 {
		return NoInjuriesText
	}
	if len(lines) > maxInjuryLines {
		lines = lines[:maxInjuryLines]
	}
	return strings.Join(lines, "\n")
}

// InjuryStatus abbreviates a raw status: anything mentioning "out" is OUT,
// anything mentioning "day" is GTD, otherwise the first eight characters.
func InjuryStatus(raw string) string {
	lower := strings.ToLower(raw)
	switch {
	case strings.Contains(lower, "out"):
		return "OUT"
	case strings.Contains(lower, "day"):
		return "GTD"
	default:
		return take(raw, rawStatusMaxRunes)
	}
}
