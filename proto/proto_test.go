package proto

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go-c4t"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func agent(t *testing.T, body string) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestEndpoint(t *testing.T) {
	for _, test := range []struct {
		addr   string
		scheme string
		fail   bool
	}{
		{addr: "http://localhost:8000/move", scheme: "http"},
		{addr: "https://example.com", scheme: "https"},
		{addr: "example.com:8443/play", scheme: "https"},
		{addr: "  localhost:1234 ", scheme: "https"},
		{addr: "", fail: true},
		{addr: "ftp://example.com", fail: true},
		{addr: "http://", fail: true},
	} {
		u, err := Endpoint(test.addr)
		if test.fail {
			assert.ErrorIs(t, err, c4t.ErrInvalidTeam, test.addr)
			continue
		}
		require.NoError(t, err, test.addr)
		assert.Equal(t, test.scheme, u.Scheme, test.addr)
		assert.Equal(t, test.scheme == "https", alternate(u).Scheme == "http")
	}
}

func TestRequestEncoding(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"move": 3}`))
	}))
	defer srv.Close()

	r, err := MakeRemote(&c4t.Team{Name: "enc", Endpoint: srv.URL}, srv.Client())
	require.NoError(t, err)
	col, err := r.Move(context.Background(), c4t.MakeBoard(c4t.A).Position())
	require.NoError(t, err)
	assert.EqualValues(t, 3, col)

	require.Contains(t, got, "board")
	assert.Len(t, got["board"], c4t.ROWS)
	assert.EqualValues(t, 1, got["current_player"])
	assert.Len(t, got["valid_moves"], c4t.COLUMNS)
	assert.Equal(t, true, got["is_new_game"])
}

func TestInvalidResponses(t *testing.T) {
	pos := c4t.MakeBoard(c4t.A).Position()
	for _, body := range []string{
		`{"move": "3"}`,
		`{"move": 2.5}`,
		`{"move": -1}`,
		`{"move": 7}`,
		`{"column": 3}`,
		`not json`,
		``,
	} {
		srv := agent(t, body)
		r, err := MakeRemote(&c4t.Team{Name: "bad", Endpoint: srv.URL}, srv.Client())
		require.NoError(t, err)

		_, err = r.Move(context.Background(), pos)
		assert.ErrorIs(t, err, c4t.ErrEndpointInvalidResponse, body)
		_, ok := r.Request(context.Background(), pos)
		assert.False(t, ok, body)
	}
}

func TestStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	r, err := MakeRemote(&c4t.Team{Name: "500", Endpoint: srv.URL}, srv.Client())
	require.NoError(t, err)
	_, err = r.Move(context.Background(), c4t.MakeBoard(c4t.A).Position())
	assert.ErrorIs(t, err, c4t.ErrEndpointInvalidResponse)
}

func TestSchemeFallback(t *testing.T) {
	srv := agent(t, `{"move": 0}`)

	// The test server only speaks plain HTTP, so the initial HTTPS
	// request must fail and be retried.
	addr := strings.TrimPrefix(srv.URL, "http://")
	r, err := MakeRemote(&c4t.Team{Name: "bare", Endpoint: addr}, srv.Client())
	require.NoError(t, err)
	assert.Equal(t, "https", r.url.Scheme)

	col, ok := r.Request(context.Background(), c4t.MakeBoard(c4t.B).Position())
	require.True(t, ok)
	assert.EqualValues(t, 0, col)
	assert.Equal(t, "http", r.url.Scheme)
}

func TestUnreachable(t *testing.T) {
	srv := agent(t, `{"move": 0}`)
	url := srv.URL
	srv.Close()

	r, err := MakeRemote(&c4t.Team{Name: "gone", Endpoint: url}, nil)
	require.NoError(t, err)
	_, err = r.Move(context.Background(), c4t.MakeBoard(c4t.A).Position())
	assert.ErrorIs(t, err, c4t.ErrEndpointUnreachable)
}

func TestTimeout(t *testing.T) {
	done := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-done:
		}
	}))
	defer srv.Close()
	defer close(done)

	r, err := MakeRemote(&c4t.Team{Name: "slow", Endpoint: srv.URL}, srv.Client())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err = r.Move(ctx, c4t.MakeBoard(c4t.A).Position())
	assert.ErrorIs(t, err, c4t.ErrTurnTimeout)
	assert.Less(t, time.Since(start), 5*time.Second)

	err = Verify(context.Background(), &c4t.Team{Name: "slow", Endpoint: srv.URL},
		srv.Client(), 50*time.Millisecond, 1)
	assert.ErrorIs(t, err, c4t.ErrEndpointUnreachable)
}

func TestVerify(t *testing.T) {
	srv := agent(t, `{"move": 3}`)
	err := Verify(context.Background(), &c4t.Team{Name: "ok", Endpoint: srv.URL},
		srv.Client(), time.Second, 1)
	assert.NoError(t, err)

	err = Verify(context.Background(), &c4t.Team{Name: "bot", Endpoint: "bot:minmax-2"},
		nil, time.Second, 1)
	assert.NoError(t, err)

	err = Verify(context.Background(), &c4t.Team{Name: "bot", Endpoint: "bot:nonsense"},
		nil, time.Second, 1)
	assert.True(t, errors.Is(err, c4t.ErrInvalidTeam))

	bad := agent(t, `{"move": 9}`)
	err = Verify(context.Background(), &c4t.Team{Name: "bad", Endpoint: bad.URL},
		bad.Client(), time.Second, 1)
	assert.ErrorIs(t, err, c4t.ErrEndpointInvalidResponse)
}
