package web

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go-c4t"
	"go-c4t/conf"
	"go-c4t/db"
	"go-c4t/tourn"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const token = "s3cret"

func setup(t *testing.T) (*httptest.Server, *web) {
	c := conf.Default()
	c.Log = log.New(io.Discard, "", 0)
	c.Token = token
	c.WebSocket = true
	c.TurnTime = time.Second
	c.GamePause = 0
	c.RoundPause = 0
	c.BotDepth = 1

	hub := MakeHub()
	tr := tourn.MakeTournament(c, db.MakeMemory(), hub)
	s := &web{conf: c, t: tr, hub: hub}
	srv := httptest.NewServer(s.handler())
	t.Cleanup(func() {
		tr.Shutdown()
		srv.Close()
	})
	return srv, s
}

func call(t *testing.T, srv *httptest.Server, method, path, body, auth string, v any) int {
	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if auth != "" {
		req.Header.Set("Authorization", "Bearer "+auth)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if v != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp.StatusCode
}

func register(t *testing.T, srv *httptest.Server, name, endpoint string) int {
	var buf bytes.Buffer
	json.NewEncoder(&buf).Encode(c4t.Team{Name: name, Endpoint: endpoint})
	return call(t, srv, http.MethodPost, "/api/register", buf.String(), "", nil)
}

func TestAPI(t *testing.T) {
	srv, s := setup(t)

	assert.Equal(t, http.StatusBadRequest, call(t, srv, http.MethodPost, "/api/start", "", "", nil))
	assert.Equal(t, http.StatusCreated, register(t, srv, "alpha", "bot:minmax-1"))
	assert.Equal(t, http.StatusCreated, register(t, srv, "beta", "bot:random"))
	assert.Equal(t, http.StatusCreated, register(t, srv, "gamma", "bot:random"))
	assert.Equal(t, http.StatusConflict, register(t, srv, "beta", "bot:random"))
	assert.Equal(t, http.StatusBadRequest, register(t, srv, "delta", "bot:psychic"))
	assert.Equal(t, http.StatusBadRequest,
		call(t, srv, http.MethodPost, "/api/register", "{", "", nil))

	var teams []c4t.Team
	assert.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/api/teams", "", "", &teams))
	assert.Len(t, teams, 3)

	assert.Equal(t, http.StatusAccepted, call(t, srv, http.MethodPost, "/api/start", "", "", nil))
	s.t.Wait()

	var status tourn.StatusView
	assert.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/api/status", "", "", &status))
	assert.Equal(t, tourn.FINISHED, status.State)
	assert.Equal(t, 3, status.Rounds)

	var board []c4t.Standing
	assert.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/api/leaderboard", "", "", &board))
	require.Len(t, board, 3)
	var total float64
	for _, s := range board {
		total += s.Points
		assert.Equal(t, uint(2), s.Played)
	}
	assert.Equal(t, float64(3*c4t.GAMES), total)

	var sched []struct {
		Index   uint `json:"index"`
		Matches []struct {
			Id string `json:"id"`
		} `json:"matches"`
	}
	assert.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/api/schedule", "", "", &sched))
	require.Len(t, sched, 3)
	require.Len(t, sched[0].Matches, 1)

	var match map[string]any
	id := sched[0].Matches[0].Id
	assert.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/api/match/"+id, "", "", &match))
	assert.Equal(t, id, match["id"])
	assert.Equal(t, "finished", match["status"])
	assert.Len(t, match["games"], c4t.GAMES)
	assert.Equal(t, http.StatusNotFound, call(t, srv, http.MethodGet, "/api/match/nope", "", "", nil))
}

func TestAdmin(t *testing.T) {
	srv, s := setup(t)
	require.Equal(t, http.StatusCreated, register(t, srv, "alpha", "bot:random"))
	require.Equal(t, http.StatusCreated, register(t, srv, "beta", "bot:random"))
	require.Equal(t, http.StatusAccepted, call(t, srv, http.MethodPost, "/api/start", "", "", nil))
	s.t.Wait()

	for _, path := range []string{"/api/round/0/restart", "/api/reset"} {
		assert.Equal(t, http.StatusUnauthorized, call(t, srv, http.MethodPost, path, "", "", nil))
		assert.Equal(t, http.StatusUnauthorized, call(t, srv, http.MethodPost, path, "", "wrong", nil))
	}
	assert.Equal(t, http.StatusNotFound,
		call(t, srv, http.MethodPost, "/api/round/5/restart", "", token, nil))
	assert.Equal(t, http.StatusNotFound,
		call(t, srv, http.MethodPost, "/api/round/x/restart", "", token, nil))
	assert.Equal(t, http.StatusAccepted,
		call(t, srv, http.MethodPost, "/api/round/0/restart", "", token, nil))
	s.t.Wait()

	assert.Equal(t, http.StatusOK, call(t, srv, http.MethodPost, "/api/reset", "", token, nil))
	var teams []c4t.Team
	call(t, srv, http.MethodGet, "/api/teams", "", "", &teams)
	assert.Empty(t, teams)

	// Without a token, administration is disabled
	c := *s.conf
	c.Token = ""
	closed := &web{conf: &c, t: s.t, hub: s.hub}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/reset", nil)
	req.Header.Set("Authorization", "Bearer ")
	closed.handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func next(t *testing.T, conn *websocket.Conn) (f struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}) {
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &f))
	return
}

func TestDashboard(t *testing.T) {
	srv, s := setup(t)
	conn := dial(t, srv, "/ws/dashboard")

	f := next(t, conn)
	assert.Equal(t, "standings", f.Type)

	require.Eventually(t, func() bool {
		return s.hub.Count(c4t.Dashboard) == 1
	}, time.Second, 10*time.Millisecond)
	s.hub.Publish(c4t.Dashboard, c4t.RoundFinished{Round: 7})
	f = next(t, conn)
	assert.Equal(t, "round_finished", f.Type)
	assert.JSONEq(t, `{"round": 7}`, string(f.Data))
}

func TestWatchMatch(t *testing.T) {
	srv, s := setup(t)
	require.Equal(t, http.StatusCreated, register(t, srv, "alpha", "bot:random"))
	require.Equal(t, http.StatusCreated, register(t, srv, "beta", "bot:random"))
	require.Equal(t, http.StatusAccepted, call(t, srv, http.MethodPost, "/api/start", "", "", nil))
	s.t.Wait()

	id := s.t.Schedule()[0].Matches[0].Id
	conn := dial(t, srv, "/ws/match/"+id)
	f := next(t, conn)
	assert.Equal(t, "match_state", f.Type)

	m, err := s.t.Lookup(id)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return m.View().Spectators == 1 && s.hub.Count(id) == 1
	}, time.Second, 10*time.Millisecond)

	// Closing the channel disconnects the spectator
	s.hub.Close(id)
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "%v", err)
	require.Eventually(t, func() bool {
		return m.View().Spectators == 0
	}, time.Second, 10*time.Millisecond)

	resp, err := http.Get(srv.URL + "/ws/match/unknown")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHubDrops(t *testing.T) {
	hub := MakeHub()
	sub := hub.subscribe("x")
	for i := 0; i < 2*QUEUE; i++ {
		hub.Publish("x", c4t.RoundStarted{Round: uint(i)})
	}
	assert.Len(t, sub.send, QUEUE)

	hub.unsubscribe("x", sub)
	assert.Zero(t, hub.Count("x"))
	hub.Publish("x", c4t.TournamentReset{})
	select {
	case <-sub.done:
	default:
		t.Fatal("subscriber was not closed")
	}
}

func TestStopped(t *testing.T) {
	var buf bytes.Buffer
	w := &web{conf: &conf.Conf{Log: log.New(&buf, "", 0)}}

	w.stopped(nil)
	w.stopped(http.ErrServerClosed)
	w.stopped(errors.Wrap(http.ErrServerClosed, "listen"))
	assert.Empty(t, buf.String())

	w.stopped(errors.New("address already in use"))
	assert.Contains(t, buf.String(), "web server: address already in use")
}
