package widgets

import (
	"fmt"
	"strings"
	"time"

	"github.com/preston-bernstein/nba-stables-widgets/internal/config"
	"github.com/preston-bernstein/nba-stables-widgets/internal/domain"
	"github.com/preston-bernstein/nba-stables-widgets/internal/pipeline"
	"github.com/preston-bernstein/nba-stables-widgets/internal/scheduler"
)

// Definition binds a widget kind to its endpoint, schedule and renderer.
type Definition struct {
	Kind    domain.Kind
	Path    string
	URL     string
	Noun    string
	JobName string
	// Placeholder is written to newly updated surfaces. Empty skips it.
	Placeholder string
	Interval    time.Duration
	Policy      scheduler.Policy
	Timeout     time.Duration
	Enabled     bool
	Render      pipeline.Renderer
}

// OnceJobName names the one-time runs of a definition.
func (d Definition) OnceJobName() string {
	return d.JobName + "_now"
}

// Job converts the definition into a pipeline job.
func (d Definition) Job(fetcher pipeline.Fetcher) pipeline.Job {
	return pipeline.Job{Kind: d.Kind, URL: d.URL, Noun: d.Noun, Render: d.Render, Fetcher: fetcher}
}

// Defaults returns the built-in widget set resolved against baseURL.
func Defaults(baseURL string) []Definition {
	defs := []Definition{
		{
			Kind:        domain.KindInjuries,
			Path:        "/api/injuries?source=espn",
			Noun:        "injuries",
			JobName:     "injuries_widget_update",
			Placeholder: "Loading injuries...",
			Interval:    30 * time.Minute,
			Policy:      scheduler.Replace,
			Timeout:     15 * time.Second,
			Render:      pipeline.RenderInjuries,
		},
		{
			Kind:        domain.KindStandings,
			Path:        "/api/standings",
			Noun:        "standings",
			JobName:     "standings_widget_update",
			Placeholder: "Loading standings...",
			Interval:    60 * time.Minute,
			Policy:      scheduler.Replace,
			Timeout:     15 * time.Second,
			Render:      pipeline.RenderStandings,
		},
		{
			Kind:     domain.KindScores,
			Path:     "/api/scoreboard",
			Noun:     "scores",
			JobName:  "widget_update",
			Interval: 15 * time.Minute,
			Policy:   scheduler.Keep,
			Timeout:  15 * time.Second,
			Render:   pipeline.RenderScores,
		},
		{
			Kind:     domain.KindGames,
			Path:     "/api/scoreboard",
			Noun:     "games",
			JobName:  "games_list_update",
			Interval: 15 * time.Minute,
			Policy:   scheduler.Keep,
			Timeout:  10 * time.Second,
			Render:   pipeline.RenderGames,
		},
	}
	base := strings.TrimRight(baseURL, "/")
	for i := range defs {
		defs[i].URL = base + defs[i].Path
		defs[i].Enabled = true
	}
	return defs
}

// ApplyOverrides folds a widgets file into defs. Unknown widget names are rejected.
func ApplyOverrides(defs []Definition, file config.WidgetFile) ([]Definition, error) {
	out := append([]Definition(nil), defs...)
	for name, o := range file.Widgets {
		kind, err := domain.ParseKind(name)
		if err != nil {
			return nil, fmt.Errorf("widgets file: %w", err)
		}
		idx := -1
		for i := range out {
			if out[i].Kind == kind {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("widgets file: no definition for %s", kind)
		}
		if o.URL != "" {
			out[idx].URL = o.URL
		}
		if o.Interval > 0 {
			out[idx].Interval = o.Interval
		}
		if o.Timeout > 0 {
			out[idx].Timeout = o.Timeout
		}
		if o.Enabled != nil {
			out[idx].Enabled = *o.Enabled
		}
	}
	return out, nil
}
