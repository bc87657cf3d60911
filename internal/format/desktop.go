package format

import (
	"bytes"
	"encoding/json"
	"html/template"

	"github.com/preston-bernstein/nba-stables-widgets/internal/domain"
)

const desktopLoadingText = "Loading..."

var desktopTemplate = template.Must(template.New("desktop").Parse(`<div class="nba-stables">
<div class="header"><span class="title">{{.Title}}</span>{{if .Date}}<span class="date">{{.Date}}</span>{{end}}</div>
{{- if .Message}}
<div class="empty">{{.Message}}</div>
{{- else}}{{range .Games}}
<div class="game">
<div class="team"><span class="tricode">{{.AwayTeam.Tricode}}</span><span class="score">{{.AwayTeam.Score}}</span></div>
<div class="team"><span class="tricode">{{.HomeTeam.Tricode}}</span><span class="score">{{.HomeTeam.Score}}</span></div>
<div class="status">{{.Status}}</div>
<div class="leader">&#11088; {{.HomeTeam.Leader.Name}} {{.HomeTeam.Leader.Points}}pts</div>
</div>{{end}}
{{- end}}
</div>
`))

type desktopView struct {
	Title   string
	Date    string
	Message string
	Games   []domain.Game
}

// Desktop renders raw scoreboard command output as the desktop widget card.
// Output that is not a scoreboard document renders the loading card.
func Desktop(output []byte) string {
	var resp domain.ScoreboardResponse
	if err := json.Unmarshal(output, &resp); err != nil {
		return renderDesktop(desktopView{Title: "NBA Stables", Message: desktopLoadingText})
	}
	if len(resp.Games) == 0 {
		return renderDesktop(desktopView{Title: "NBA Stables", Message: NoGamesText})
	}
	return renderDesktop(desktopView{Title: "NBA Live", Date: resp.Date, Games: resp.Games})
}

func renderDesktop(view desktopView) string {
	var buf bytes.Buffer
	if err := desktopTemplate.Execute(&buf, view); err != nil {
		return desktopLoadingText
	}
	return buf.String()
}
