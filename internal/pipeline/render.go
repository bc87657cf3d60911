package pipeline

import (
	"github.com/preston-bernstein/nba-stables-widgets/internal/decode"
	"github.com/preston-bernstein/nba-stables-widgets/internal/domain"
	"github.com/preston-bernstein/nba-stables-widgets/internal/fetch"
	"github.com/preston-bernstein/nba-stables-widgets/internal/format"
	"github.com/preston-bernstein/nba-stables-widgets/internal/surface"
)

// Renderer decodes a raw response and formats it for display.
type Renderer func(resp fetch.Response) (surface.Content, error)

// RenderInjuries produces the injury report text.
func RenderInjuries(resp fetch.Response) (surface.Content, error) {
	report, err := decode.Decode[domain.InjuriesResponse](resp)
	if err != nil {
		return surface.Content{}, err
	}
	return surface.Content{Text: format.Injuries(report)}, nil
}

// RenderStandings produces the two-conference standings block.
func RenderStandings(resp fetch.Response) (surface.Content, error) {
	standings, err := decode.Decode[domain.StandingsResponse](resp)
	if err != nil {
		return surface.Content{}, err
	}
	return surface.Content{Text: format.Standings(standings)}, nil
}

// RenderScores produces the compact scoreboard text.
func RenderScores(resp fetch.Response) (surface.Content, error) {
	board, err := decode.Decode[domain.ScoreboardResponse](resp)
	if err != nil {
		return surface.Content{}, err
	}
	return surface.Content{Text: format.Scores(board)}, nil
}

// RenderGames produces one list row per game.
func RenderGames(resp fetch.Response) (surface.Content, error) {
	board, err := decode.Decode[domain.ScoreboardResponse](resp)
	if err != nil {
		return surface.Content{}, err
	}
	return surface.Content{Rows: format.GameRows(board)}, nil
}
