package domain

// InjuriesResponse is the payload of /api/injuries.
type InjuriesResponse struct {
	Injuries    []TeamInjuries `json:"injuries"`
	Source      string         `json:"source"`
	LastUpdated string         `json:"lastUpdated"`
}

// TeamInjuries groups reported injuries for one team.
type TeamInjuries struct {
	Team    string         `json:"team"`
	Players []PlayerInjury `json:"players"`
}

// PlayerInjury is a single injury report line.
type PlayerInjury struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Injury  string `json:"injury"`
	Updated string `json:"updated"`
}
