package testutil

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// Payloads mirroring the public nbastables.com API.
const (
	InjuriesJSON = `{"injuries":[{"team":"Lakers","players":[` +
		`{"name":"LeBron James","status":"Out","injury":"Ankle","updated":"2024-01-02"}]}],` +
		`"source":"espn","lastUpdated":"2024-01-02T10:00:00Z"}`
	StandingsJSON = `{"east":[{"rank":1,"team":"Celtics","wins":30,"losses":8,"pct":".789","gb":"-"}],` +
		`"west":[{"rank":1,"name":"Thunder","wins":28,"losses":10,"winPct":0.737,"gamesBack":0}]}`
	ScoreboardJSON = `{"date":"2024-01-02","games":[{"gameId":"0022300500","status":"Final",` +
		`"homeTeam":{"name":"Lakers","tricode":"LAL","score":99,"leader":{"name":"Anthony Davis","points":30,"rebounds":12,"assists":3}},` +
		`"awayTeam":{"name":"Celtics","tricode":"BOS","score":101,"leader":{"name":"Jayson Tatum","points":35,"rebounds":8,"assists":5}}}]}`
)

// NowAt returns a clock function fixed at the provided time.
func NowAt(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// APIServer is an httptest server answering the widget endpoints from a
// fixed body table.
type APIServer struct {
	*httptest.Server
	hits atomic.Int64
}

// Hits counts requests served, including misses.
func (s *APIServer) Hits() int {
	return int(s.hits.Load())
}

// NewAPIServer serves bodies keyed by path. Unknown paths return 404; a
// body of "" answers 200 with no content. The server closes with the test.
func NewAPIServer(t *testing.T, bodies map[string]string) *APIServer {
	t.Helper()
	s := &APIServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		body, ok := bodies[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(s.Close)
	return s
}

// DefaultAPIBodies answers every widget endpoint with a valid payload.
func DefaultAPIBodies() map[string]string {
	return map[string]string{
		"/api/injuries":   InjuriesJSON,
		"/api/standings":  StandingsJSON,
		"/api/scoreboard": ScoreboardJSON,
	}
}
