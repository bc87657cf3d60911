package format

import (
	"fmt"
	"strings"

	"github.com/preston-bernstein/nba-stables-widgets/internal/domain"
)

const (
	standingsPerConference = 5
	standingsNameWidth     = 12
)

// Standings renders two fixed-width conference blocks, top five teams each.
func Standings(resp domain.StandingsResponse) string {
	var sb strings.Builder
	sb.WriteString("EAST          W-L\n")
	writeStandingRows(&sb, resp.East)
	sb.WriteString("\nWEST          W-L\n")
	writeStandingRows(&sb, resp.West)
	return strings.TrimSpace(sb.String())
}

// StandingRow formats one conference row: name padded/truncated to 12, then W-L.
func StandingRow(t domain.TeamStanding) string {
	return fmt.Sprintf("%-*s %d-%d", standingsNameWidth, take(t.Team, standingsNameWidth), t.Wins, t.Losses)
}

func writeStandingRows(sb *strings.Builder, teams []domain.TeamStanding) {
	if len(teams) > standingsPerConference {
		teams = teams[:standingsPerConference]
	}
	for _, t := range teams {
		sb.WriteString(StandingRow(t))
		sb.WriteByte('\n')
	}
}
