package domain

// ScoreboardResponse is the payload of /api/scoreboard.
type ScoreboardResponse struct {
	Games []Game `json:"games"`
	Date  string `json:"date"`
}

// Game is one scoreboard entry; the games list widget renders one row per Game.
type Game struct {
	ID       string `json:"gameId"`
	Status   string `json:"status"`
	HomeTeam Team   `json:"homeTeam"`
	AwayTeam Team   `json:"awayTeam"`
}

// Team is one side of a game.
type Team struct {
	Name    string `json:"name"`
	Tricode string `json:"tricode"`
	Score   int    `json:"score"`
	Leader  Leader `json:"leader"`
}

// Leader is the team's leading scorer for the game.
type Leader struct {
	Name     string `json:"name"`
	Points   int    `json:"points"`
	Rebounds int    `json:"rebounds"`
	Assists  int    `json:"assists"`
}
