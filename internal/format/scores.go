package format

import (
	"strconv"
	"strings"

	"github.com/preston-bernstein/nba-stables-widgets/internal/domain"
)

const (
	NoGamesText    = "No games today"
	maxScoresLines = 8
)

// Scores renders the compact scoreboard: at most eight lines of
// "<AWAY> <score|-> - <score|-> <HOME>  <status>".
func Scores(resp domain.ScoreboardResponse) string {
	if len(resp.Games) == 0 {
		return NoGamesText
	}
	games := resp.Games
	if len(games) > maxScoresLines {
		games = games[:maxScoresLines]
	}
	lines := make([]string, 0, len(games))
	for _, g := range games {
		lines = append(lines, g.AwayTeam.Tricode+" "+compactScore(g.AwayTeam.Score)+" - "+
			compactScore(g.HomeTeam.Score)+" "+g.HomeTeam.Tricode+"  "+g.Status)
	}
	return strings.Join(lines, "\n")
}

func compactScore(score int) string {
	if score > 0 {
		return strconv.Itoa(score)
	}
	return "-"
}

// GameRow is one line of the list-based scoreboard surface.
type GameRow struct {
	Status      string `json:"status"`
	AwayTricode string `json:"awayTricode"`
	AwayScore   string `json:"awayScore"`
	HomeTricode string `json:"homeTricode"`
	HomeScore   string `json:"homeScore"`
}

// GameRows maps every game to a list row with numeric scores. No truncation.
func GameRows(resp domain.ScoreboardResponse) []GameRow {
	rows := make([]GameRow, 0, len(resp.Games))
	for _, g := range resp.Games {
		rows = append(rows, GameRow{
			Status:      g.Status,
			AwayTricode: g.AwayTeam.Tricode,
			AwayScore:   strconv.Itoa(g.AwayTeam.Score),
			HomeTricode: g.HomeTeam.Tricode,
			HomeScore:   strconv.Itoa(g.HomeTeam.Score),
		})
	}
	return rows
}
