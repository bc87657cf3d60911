package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/preston-bernstein/nba-stables-widgets/internal/decode"
	"github.com/preston-bernstein/nba-stables-widgets/internal/domain"
	"github.com/preston-bernstein/nba-stables-widgets/internal/fetch"
	"github.com/preston-bernstein/nba-stables-widgets/internal/metrics"
	"github.com/preston-bernstein/nba-stables-widgets/internal/surface"
)

type stubFetcher struct {
	resp fetch.Response
	err  error
	urls []string
}

func (s *stubFetcher) Get(_ context.Context, url string) (fetch.Response, error) {
	s.urls = append(s.urls, url)
	return s.resp, s.err
}

type brokenPusher struct{ calls int }

func (b *brokenPusher) Push(context.Context, domain.Kind, surface.Content) (int, error) {
	b.calls++
	return 0, errors.New("registry offline")
}

func jsonResponse(body string) fetch.Response {
	return fetch.Response{StatusCode: http.StatusOK, Body: []byte(body), HasBody: true}
}

func newMemoryRunner(t *testing.T, f Fetcher, kind domain.Kind, ids ...surface.ID) (*Runner, *surface.Memory, *metrics.Recorder) {
	t.Helper()
	mem := surface.NewMemory()
	for _, id := range ids {
		if err := mem.Register(context.Background(), kind, id); err != nil {
			t.Fatalf("register: %v", err)
		}
	}
	rec := metrics.NewRecorder()
	return NewRunner(f, surface.NewWriter(nil, rec, mem), nil, rec), mem, rec
}

func readText(t *testing.T, mem *surface.Memory, kind domain.Kind, id surface.ID) string {
	t.Helper()
	c, err := mem.Read(context.Background(), kind, id)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return c.Text
}

var injuriesJob = Job{Kind: domain.KindInjuries, URL: "http://api/api/injuries?source=espn", Noun: "injuries", Render: RenderInjuries}

func TestRunRendersAndWritesEverySurface(t *testing.T) {
	f := &stubFetcher{resp: jsonResponse(`{"injuries":[{"team":"Los Angeles Lakers","players":[{"name":"LeBron James","status":"Out"}]}]}`)}
	runner, mem, rec := newMemoryRunner(t, f, domain.KindInjuries, "a", "b")

	out := runner.Run(context.Background(), injuriesJob)

	if out.State != StateRendered || out.Retry || out.Err != nil {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if out.Written != 2 {
		t.Fatalf("expected 2 writes, got %d", out.Written)
	}
	for _, id := range []surface.ID{"a", "b"} {
		if got := readText(t, mem, domain.KindInjuries, id); got != "James (Lak) OUT" {
			t.Fatalf("surface %s: unexpected text %q", id, got)
		}
	}
	if f.urls[0] != injuriesJob.URL {
		t.Fatalf("unexpected url %v", f.urls)
	}
	if rec.Renders("injuries", "rendered") != 1 || rec.FetchCalls("injuries") != 1 {
		t.Fatalf("unexpected metrics %+v", rec.Snapshot("injuries"))
	}
	if runner.State(domain.KindInjuries) != StateRendered {
		t.Fatalf("expected rendered state")
	}
	last, ok := runner.Last(domain.KindInjuries)
	if !ok || last.Content.Text != "James (Lak) OUT" || last.Finished.IsZero() {
		t.Fatalf("unexpected last outcome %+v", last)
	}
}

func TestRunFailureTexts(t *testing.T) {
	cases := []struct {
		name     string
		fetcher  *stubFetcher
		job      Job
		wantText string
		wantKind decode.ErrorKind
	}{
		{
			name:     "http status",
			fetcher:  &stubFetcher{resp: fetch.Response{StatusCode: 503, Body: []byte("oops"), HasBody: true}},
			job:      injuriesJob,
			wantText: "Error: 503",
			wantKind: decode.KindHTTPStatus,
		},
		{
			name:     "empty body",
			fetcher:  &stubFetcher{resp: fetch.Response{StatusCode: 200}},
			job:      Job{Kind: domain.KindStandings, Noun: "standings", Render: RenderStandings},
			wantText: "No data",
			wantKind: decode.KindEmptyBody,
		},
		{
			name:     "transport",
			fetcher:  &stubFetcher{err: &fetch.TransportError{URL: "http://api", Err: errors.New("connection refused")}},
			job:      injuriesJob,
			wantText: "Error loading injuries",
			wantKind: decode.KindTransport,
		},
		{
			name:     "malformed json",
			fetcher:  &stubFetcher{resp: jsonResponse(`{"east": 5}`)},
			job:      Job{Kind: domain.KindStandings, Noun: "standings", Render: RenderStandings},
			wantText: "Error loading standings",
			wantKind: decode.KindDecode,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			runner, mem, rec := newMemoryRunner(t, tc.fetcher, tc.job.Kind, "w1")

			out := runner.Run(context.Background(), tc.job)

			if out.State != StateFailed || !out.Retry || out.Err == nil {
				t.Fatalf("unexpected outcome %+v", out)
			}
			if out.ErrorKind != tc.wantKind {
				t.Fatalf("expected kind %s, got %s", tc.wantKind, out.ErrorKind)
			}
			if got := readText(t, mem, tc.job.Kind, "w1"); got != tc.wantText {
				t.Fatalf("expected %q on surface, got %q", tc.wantText, got)
			}
			if rec.Retries(string(tc.job.Kind)) != 1 || rec.Renders(string(tc.job.Kind), "failed") != 1 {
				t.Fatalf("unexpected metrics %+v", rec.Snapshot(string(tc.job.Kind)))
			}
		})
	}
}

func TestRunRecoversFromPanics(t *testing.T) {
	f := &stubFetcher{resp: jsonResponse(`{}`)}
	runner, mem, _ := newMemoryRunner(t, f, domain.KindScores, "w1")
	job := Job{Kind: domain.KindScores, Noun: "scores", Render: func(fetch.Response) (surface.Content, error) {
		panic("nil map")
	}}

	out := runner.Run(context.Background(), job)

	if out.State != StateFailed || !out.Retry || !errors.Is(out.Err, errPanicked) {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if got := readText(t, mem, domain.KindScores, "w1"); got != "Error loading scores" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestRunWithNoSurfacesSucceeds(t *testing.T) {
	f := &stubFetcher{resp: jsonResponse(`{"games":[]}`)}
	runner, _, _ := newMemoryRunner(t, f, domain.KindScores)

	out := runner.Run(context.Background(), Job{Kind: domain.KindScores, Noun: "scores", Render: RenderScores})

	if out.State != StateRendered || out.Written != 0 || out.Content.Text != "No games today" {
		t.Fatalf("unexpected outcome %+v", out)
	}
}

type refusingRegistry struct {
	err error
}

func (r refusingRegistry) Name() string { return "refusing" }

func (r refusingRegistry) List(context.Context, domain.Kind) ([]surface.ID, error) {
	return []surface.ID{"gone"}, nil
}

func (r refusingRegistry) Write(context.Context, domain.Kind, surface.ID, surface.Content) error {
	return r.err
}

func TestRunSurfaceWriteFailureKeepsFreshContent(t *testing.T) {
	scoreboard := `{"games":[{"gameId":"1","status":"Final","homeTeam":{"tricode":"BOS","score":100},"awayTeam":{"tricode":"NYK","score":90}}]}`
	cases := map[string]error{
		"surface removed": surface.ErrUnknownSurface,
		"chat blocked":    errors.New("chat blocked"),
	}
	for name, writeErr := range cases {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			mem := surface.NewMemory()
			_ = mem.Register(ctx, domain.KindScores, "good")
			rec := metrics.NewRecorder()
			writer := surface.NewWriter(nil, rec, mem, refusingRegistry{err: writeErr})
			runner := NewRunner(&stubFetcher{resp: jsonResponse(scoreboard)}, writer, nil, rec)

			out := runner.Run(ctx, Job{Kind: domain.KindScores, Noun: "scores", Render: RenderScores})

			if out.State != StateRendered || out.Retry || out.Err != nil || out.Written != 1 {
				t.Fatalf("unexpected outcome %+v", out)
			}
			if got := readText(t, mem, domain.KindScores, "good"); got != "NYK 90 - 100 BOS  Final" {
				t.Fatalf("healthy surface overwritten: %q", got)
			}
			if rec.Renders("scores", "rendered") != 1 {
				t.Fatalf("expected rendered metric, got %+v", rec.Snapshot("scores"))
			}
		})
	}
}

func TestRunFetchFailureWhenErrorTextCannotBeWritten(t *testing.T) {
	pusher := &brokenPusher{}
	runner := NewRunner(&stubFetcher{err: errors.New("dial tcp: connection refused")}, pusher, nil, nil)

	out := runner.Run(context.Background(), Job{Kind: domain.KindScores, Noun: "scores", Render: RenderScores})

	if out.State != StateFailed || !out.Retry || out.Written != 0 {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if out.Content.Text != "Error loading scores" {
		t.Fatalf("unexpected text %q", out.Content.Text)
	}
	if pusher.calls != 1 {
		t.Fatalf("expected a single error push, got %d", pusher.calls)
	}
}

func TestRunRecordsFetchLatencyFromClock(t *testing.T) {
	runner, _, rec := newMemoryRunner(t, &stubFetcher{resp: jsonResponse(`{"games":[]}`)}, domain.KindScores)
	base := time.Date(2024, 3, 1, 19, 0, 0, 0, time.UTC)
	calls := 0
	runner.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls-1) * 250 * time.Millisecond)
	}

	runner.Run(context.Background(), Job{Kind: domain.KindScores, Noun: "scores", Render: RenderScores})

	if got := rec.Snapshot("scores").LastFetchLatency; got != 250*time.Millisecond {
		t.Fatalf("expected latency from injected clock, got %s", got)
	}
}

func TestRunGamesListRows(t *testing.T) {
	f := &stubFetcher{resp: jsonResponse(`{"games":[{"gameId":"1","status":"Final","homeTeam":{"tricode":"LAL","score":99},"awayTeam":{"tricode":"BOS","score":101}}]}`)}
	runner, mem, _ := newMemoryRunner(t, f, domain.KindGames, "list")

	out := runner.Run(context.Background(), Job{Kind: domain.KindGames, Noun: "games", Render: RenderGames})
	if out.State != StateRendered {
		t.Fatalf("unexpected outcome %+v", out)
	}
	got, _ := mem.Read(context.Background(), domain.KindGames, "list")
	if len(got.Rows) != 1 || got.Rows[0].AwayScore != "101" || got.Rows[0].HomeTricode != "LAL" {
		t.Fatalf("unexpected rows %+v", got.Rows)
	}
}

func TestRunAgainstHTTPServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/standings" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"east":[{"rank":1,"name":"Boston Celtics","wins":60,"losses":22}],"west":[]}`))
	}))
	defer srv.Close()

	client := fetch.NewClient(fetch.Config{HTTPClient: srv.Client()})
	runner, mem, _ := newMemoryRunner(t, client, domain.KindStandings, "w1")

	out := runner.Run(context.Background(), Job{Kind: domain.KindStandings, URL: srv.URL + "/api/standings", Noun: "standings", Render: RenderStandings})
	if out.State != StateRendered {
		t.Fatalf("unexpected outcome %+v", out)
	}
	want := "EAST          W-L\nBoston Celti 60-22\n\nWEST          W-L"
	if got := readText(t, mem, domain.KindStandings, "w1"); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if runner.State(domain.KindInjuries) != StateIdle {
		t.Fatalf("expected untouched kind to be idle")
	}
}

func TestJobFetcherOverridesRunnerFetcher(t *testing.T) {
	shared := &stubFetcher{err: errors.New("should not be used")}
	own := &stubFetcher{resp: jsonResponse(`{"games":[]}`)}
	runner, _, _ := newMemoryRunner(t, shared, domain.KindScores)

	out := runner.Run(context.Background(), Job{Kind: domain.KindScores, Noun: "scores", Render: RenderScores, Fetcher: own})
	if out.State != StateRendered || len(shared.urls) != 0 || len(own.urls) != 1 {
		t.Fatalf("expected job fetcher to be used, outcome %+v", out)
	}
}
