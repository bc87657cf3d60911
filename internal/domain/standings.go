package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// StandingsResponse is the payload of /api/standings.
type StandingsResponse struct {
	East []TeamStanding `json:"east"`
	West []TeamStanding `json:"west"`
}

// TeamStanding is one conference row.
type TeamStanding struct {
	Rank        int    `json:"rank"`
	Team        string `json:"team"`
	Wins        int    `json:"wins"`
	Losses      int    `json:"losses"`
	Pct         string `json:"pct"`
	GamesBehind string `json:"gb"`
}

// UnmarshalJSON accepts both the widget field names (team, pct, gb) and the
// names the standings endpoint emits (name, winPct, gamesBack).
func (t *TeamStanding) UnmarshalJSON(data []byte) error {
	var raw struct {
		Rank      int             `json:"rank"`
		Team      string          `json:"team"`
		Name      string          `json:"name"`
		Wins      int             `json:"wins"`
		Losses    int             `json:"losses"`
		Pct       json.RawMessage `json:"pct"`
		WinPct    json.RawMessage `json:"winPct"`
		GB        json.RawMessage `json:"gb"`
		GamesBack json.RawMessage `json:"gamesBack"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	pct, err := firstScalar(raw.Pct, raw.WinPct)
	if err != nil {
		return fmt.Errorf("standing pct: %w", err)
	}
	gb, err := firstScalar(raw.GB, raw.GamesBack)
	if err != nil {
		return fmt.Errorf("standing games behind: %w", err)
	}

	team := raw.Team
	if team == "" {
		team = raw.Name
	}
	*t = TeamStanding{
		Rank:        raw.Rank,
		Team:        team,
		Wins:        raw.Wins,
		Losses:      raw.Losses,
		Pct:         pct,
		GamesBehind: gb,
	}
	return nil
}

// firstScalar renders the first non-empty JSON string or number as text.
func firstScalar(candidates ...json.RawMessage) (string, error) {
	for _, c := range candidates {
		c = bytes.TrimSpace(c)
		if len(c) == 0 || bytes.Equal(c, []byte("null")) {
			continue
		}
		if c[0] == '"' {
			var s string
			if err := json.Unmarshal(c, &s); err != nil {
				return "", err
			}
			return s, nil
		}
		var n json.Number
		if err := json.Unmarshal(c, &n); err != nil {
			return "", err
		}
		return n.String(), nil
	}
	return "", nil
}
