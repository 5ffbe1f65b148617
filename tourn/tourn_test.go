package tourn

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go-c4t"
	"go-c4t/conf"
	"go-c4t/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	sync.Mutex
	kinds  map[string]int
	closed map[string]int
}

func (r *recorder) Publish(ch string, ev c4t.Event) {
	r.Lock()
	defer r.Unlock()
	if ch == c4t.Dashboard {
		r.kinds[ev.Kind()]++
	}
}

func (r *recorder) Close(ch string) {
	r.Lock()
	defer r.Unlock()
	r.closed[ch]++
}

func (r *recorder) count(kind string) int {
	r.Lock()
	defer r.Unlock()
	return r.kinds[kind]
}

func setup(t *testing.T, n int) (*Tournament, *recorder, *db.Memory) {
	c := conf.Default()
	c.Log = log.New(io.Discard, "", 0)
	c.TurnTime = time.Second
	c.GamePause = 0
	c.RoundPause = 0
	c.AgentTimeout = time.Second
	c.BotDepth = 1

	rec := &recorder{kinds: make(map[string]int), closed: make(map[string]int)}
	reg := db.MakeMemory()
	tr := MakeTournament(c, reg, rec)
	t.Cleanup(tr.Shutdown)

	for i := 0; i < n; i++ {
		kind := "random"
		if i%2 == 0 {
			kind = "minmax-1"
		}
		_, err := tr.Register(context.Background(), fmt.Sprintf("team-%d", i), "bot:"+kind)
		require.NoError(t, err)
	}
	return tr, rec, reg
}

// Sum up the points of all matches in ROUNDS per team
func tally(rounds []*c4t.Round) map[string]float64 {
	points := make(map[string]float64)
	for _, r := range rounds {
		for _, m := range r.Matches {
			m.Lock()
			points[m.A.Name] += m.Points[0]
			points[m.B.Name] += m.Points[1]
			m.Unlock()
		}
	}
	return points
}

func leaderboard(tr *Tournament) map[string]float64 {
	points := make(map[string]float64)
	for _, s := range tr.Standings() {
		points[s.Team] = s.Points
	}
	return points
}

func TestFourTeams(t *testing.T) {
	tr, rec, _ := setup(t, 4)
	assert.Equal(t, WAITING, tr.Status().State)

	require.NoError(t, tr.Start())
	tr.Wait()

	st := tr.Status()
	assert.Equal(t, FINISHED, st.State)
	assert.Equal(t, 3, st.Rounds)
	assert.Empty(t, st.Running)

	rounds := tr.Schedule()
	require.Len(t, rounds, 3)
	for _, r := range rounds {
		assert.Equal(t, c4t.FINISHED, r.Status)
		require.Len(t, r.Matches, 2)
		for _, m := range r.Matches {
			assert.Equal(t, c4t.FINISHED, m.Status)
			assert.Equal(t, float64(c4t.GAMES), m.PointsA+m.PointsB)
			assert.NotEqual(t, c4t.ERROR, m.Winner)

			v, err := tr.Match(m.Id)
			require.NoError(t, err)
			assert.Len(t, v.Games, c4t.GAMES)
		}
	}

	var total float64
	for _, s := range tr.Standings() {
		assert.Equal(t, uint(3), s.Played, s.Team)
		assert.Equal(t, 3*uint(c4t.GAMES), s.Wins+s.Losses+s.Draws, s.Team)
		total += s.Points
	}
	assert.Equal(t, float64(6*c4t.GAMES), total)
	assert.Equal(t, tally(tr.Rounds()), leaderboard(tr))

	assert.Equal(t, 3, rec.count("round_started"))
	assert.Equal(t, 3, rec.count("round_finished"))
	assert.Equal(t, 6, rec.count("match_finished"))
	assert.Equal(t, 1, rec.count("tournament_finished"))

	var buf bytes.Buffer
	tr.PrintResults(&buf)
	assert.Contains(t, buf.String(), ".TS")
	assert.Contains(t, buf.String(), "team-0")
}

func TestRegister(t *testing.T) {
	tr, _, reg := setup(t, 2)
	ctx := context.Background()

	_, err := tr.Register(ctx, "team-0", "bot:random")
	assert.ErrorIs(t, err, c4t.ErrDuplicateTeam)
	_, err = tr.Register(ctx, "  ", "bot:random")
	assert.ErrorIs(t, err, c4t.ErrInvalidTeam)
	_, err = tr.Register(ctx, "odd", "bot:telepathy")
	assert.ErrorIs(t, err, c4t.ErrInvalidTeam)
	_, err = tr.Register(ctx, "nowhere", "ftp://example.com")
	assert.ErrorIs(t, err, c4t.ErrInvalidTeam)

	teams, err := reg.List(ctx)
	require.NoError(t, err)
	assert.Len(t, teams, 2)
	assert.Len(t, tr.Teams(), 2)

	// A fresh tournament picks the teams up from the registry
	other := MakeTournament(tr.conf, reg, nil)
	require.NoError(t, other.Load(ctx))
	assert.Len(t, other.Teams(), 2)
	assert.Len(t, other.Standings(), 2)
}

func TestStartErrors(t *testing.T) {
	tr, _, _ := setup(t, 1)
	assert.ErrorIs(t, tr.Start(), c4t.ErrInsufficientTeams)

	_, err := tr.Register(context.Background(), "second", "bot:random")
	require.NoError(t, err)

	tr.lock.Lock()
	tr.state = RUNNING
	tr.lock.Unlock()
	assert.ErrorIs(t, tr.Start(), c4t.ErrTournamentRunning)
	_, err = tr.Register(context.Background(), "late", "bot:random")
	assert.ErrorIs(t, err, c4t.ErrTournamentRunning)
}

func TestResetRound(t *testing.T) {
	tr, rec, _ := setup(t, 4)
	require.NoError(t, tr.Start())
	tr.Wait()

	rounds := tr.Rounds()
	var later []MatchSummary
	for _, r := range tr.Schedule()[1:] {
		later = append(later, r.Matches...)
	}

	round, played, err := tr.resetRound(0)
	require.NoError(t, err)
	assert.True(t, played)
	assert.Equal(t, rounds[0], round)

	// Round 0 no longer contributes anything, the other rounds
	// are left as they were
	assert.Equal(t, tally(rounds[1:]), leaderboard(tr))
	for _, m := range round.Matches {
		assert.Equal(t, 1, rec.closed[m.Id])
		v := m.View()
		assert.Equal(t, c4t.SCHEDULED, v.Status)
		assert.Zero(t, v.PointsA+v.PointsB)
		assert.Equal(t, tr.conf.Budget, v.RemainingA)
		assert.Zero(t, v.ConsumedB)
	}
	var after []MatchSummary
	for _, r := range tr.Schedule()[1:] {
		after = append(after, r.Matches...)
	}
	assert.Equal(t, later, after)
	for _, s := range tr.Standings() {
		assert.Equal(t, uint(2), s.Played, s.Team)
	}

	// The round is now considered busy, until it is replayed
	_, _, err = tr.resetRound(0)
	assert.ErrorIs(t, err, c4t.ErrRoundRunning)
	_, _, err = tr.resetRound(3)
	assert.ErrorIs(t, err, c4t.ErrRoundNotFound)
}

func TestRestartRound(t *testing.T) {
	tr, _, _ := setup(t, 4)
	require.NoError(t, tr.Start())
	tr.Wait()

	require.NoError(t, tr.RestartRound(0))
	tr.Wait()

	assert.Empty(t, tr.Status().Running)
	for _, r := range tr.Schedule() {
		assert.Equal(t, c4t.FINISHED, r.Status)
		for _, m := range r.Matches {
			assert.Equal(t, c4t.FINISHED, m.Status)
		}
	}
	assert.Equal(t, tally(tr.Rounds()), leaderboard(tr))
	for _, s := range tr.Standings() {
		assert.Equal(t, uint(3), s.Played, s.Team)
	}
	assert.ErrorIs(t, tr.RestartRound(17), c4t.ErrRoundNotFound)
}

func TestReset(t *testing.T) {
	tr, rec, reg := setup(t, 3)
	require.NoError(t, tr.Start())
	tr.Wait()
	ids := make([]string, 0)
	for _, r := range tr.Schedule() {
		for _, m := range r.Matches {
			ids = append(ids, m.Id)
		}
	}

	require.NoError(t, tr.Reset(context.Background()))
	assert.Equal(t, WAITING, tr.Status().State)
	assert.Empty(t, tr.Teams())
	assert.Empty(t, tr.Schedule())
	assert.Empty(t, tr.Standings())
	teams, err := reg.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, teams)
	assert.Equal(t, 1, rec.count("tournament_reset"))
	for _, id := range ids {
		assert.Equal(t, 1, rec.closed[id], id)
		_, err := tr.Match(id)
		assert.ErrorIs(t, err, c4t.ErrMatchNotFound)
	}

	// The tournament can be used again
	_, err = tr.Register(context.Background(), "again", "bot:random")
	assert.NoError(t, err)
}

func TestConcurrency(t *testing.T) {
	for _, test := range []struct {
		teams, matches int
		ceiling        uint
		want           int64
	}{
		{2, 1, 10, 2},
		{4, 2, 10, 2},
		{7, 3, 10, 2},
		{8, 4, 10, 4},
		{20, 10, 10, 10},
		{40, 20, 10, 10},
		{40, 20, 0, 20},
	} {
		got := Concurrency(test.teams, test.matches, test.ceiling)
		assert.Equal(t, test.want, got, "%d teams", test.teams)
	}
}

// Agent served over HTTP that always plays the first legal column.
// While hold is set, requests wait until gate is closed.
type agent struct {
	hold  atomic.Bool
	gate  chan struct{}
	delay time.Duration

	lock     sync.Mutex
	inflight int
	peak     int
}

func (a *agent) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Legal []uint `json:"valid_moves"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Legal) == 0 {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	a.lock.Lock()
	a.inflight++
	if a.inflight > a.peak {
		a.peak = a.inflight
	}
	a.lock.Unlock()
	defer func() {
		a.lock.Lock()
		a.inflight--
		a.lock.Unlock()
	}()

	if a.hold.Load() {
		<-a.gate
	}
	time.Sleep(a.delay)
	json.NewEncoder(w).Encode(map[string]uint{"move": req.Legal[0]})
}

func (a *agent) max() int {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.peak
}

func remote(t *testing.T, tr *Tournament, n int, a *agent) {
	srv := httptest.NewServer(a)
	t.Cleanup(srv.Close)
	for i := 0; i < n; i++ {
		_, err := tr.Register(context.Background(), fmt.Sprintf("remote-%d", i), srv.URL)
		require.NoError(t, err)
	}
}

func TestStartDuringReplay(t *testing.T) {
	tr, _, _ := setup(t, 0)
	a := &agent{gate: make(chan struct{})}
	remote(t, tr, 4, a)

	require.NoError(t, tr.Start())
	tr.Wait()
	require.Equal(t, FINISHED, tr.Status().State)

	a.hold.Store(true)
	require.NoError(t, tr.RestartRound(0))
	assert.Equal(t, []uint{0}, tr.Status().Running)
	assert.ErrorIs(t, tr.Start(), c4t.ErrRoundRunning)

	a.hold.Store(false)
	close(a.gate)
	tr.Wait()
	assert.Equal(t, tally(tr.Rounds()), leaderboard(tr))

	// Once the replay is over, a new tournament may be started
	require.NoError(t, tr.Start())
	tr.Wait()

	var total float64
	for _, s := range tr.Standings() {
		assert.Equal(t, uint(3), s.Played, s.Team)
		total += s.Points
	}
	assert.Equal(t, float64(6*c4t.GAMES), total)
	assert.Equal(t, tally(tr.Rounds()), leaderboard(tr))
}

func TestFailedMatch(t *testing.T) {
	tr, rec, reg := setup(t, 2)
	ctx := context.Background()

	// Stored without verification, the endpoint cannot be dialed
	require.NoError(t, reg.Put(ctx, &c4t.Team{Name: "broken", Endpoint: "ftp://example.com"}))
	require.NoError(t, tr.Load(ctx))
	require.Len(t, tr.Teams(), 3)

	require.NoError(t, tr.Start())
	tr.Wait()

	assert.Equal(t, FINISHED, tr.Status().State)
	var failed int
	for _, r := range tr.Schedule() {
		for _, m := range r.Matches {
			assert.Equal(t, c4t.FINISHED, m.Status)
			if m.TeamA == "broken" || m.TeamB == "broken" {
				assert.Equal(t, c4t.ERROR, m.Winner)
				failed++
			} else {
				assert.NotEqual(t, c4t.ERROR, m.Winner)
			}
		}
	}
	assert.Equal(t, 2, failed)
	assert.Equal(t, 2, rec.count("match_failed"))
	assert.Equal(t, 1, rec.count("match_finished"))
	assert.Equal(t, 3, rec.count("round_finished"))
	assert.Equal(t, 1, rec.count("tournament_finished"))
}

func TestConcurrencyLimit(t *testing.T) {
	tr, rec, _ := setup(t, 0)
	tr.conf.MaxConcurrent = 2
	a := &agent{gate: make(chan struct{}), delay: time.Millisecond}
	remote(t, tr, 8, a)
	require.EqualValues(t, 2, Concurrency(8, 4, tr.conf.MaxConcurrent))

	require.NoError(t, tr.Start())
	tr.Wait()

	assert.Equal(t, 28, rec.count("match_finished"))
	assert.Positive(t, a.max())
	assert.LessOrEqual(t, a.max(), 2)
}
