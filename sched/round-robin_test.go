package sched

import (
	"fmt"
	"math/rand"
	"testing"

	"go-c4t"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func teams(n int) (ts []*c4t.Team) {
	for i := 0; i < n; i++ {
		ts = append(ts, &c4t.Team{
			Name:     fmt.Sprintf("team-%d", i),
			Endpoint: "bot:random",
		})
	}
	return
}

func TestRoundRobin(t *testing.T) {
	for n := 2; n <= 12; n++ {
		for _, rng := range []*rand.Rand{nil, rand.New(rand.NewSource(int64(n)))} {
			t.Run(fmt.Sprintf("%d-%v", n, rng != nil), func(t *testing.T) {
				ts := teams(n)
				rounds, err := RoundRobin(ts, rng)
				require.NoError(t, err)

				nrounds, per := n-1, n/2
				if n%2 == 1 {
					nrounds, per = n, (n-1)/2
				}
				require.Len(t, rounds, nrounds)

				met := make(map[[2]string]int)
							for r, round := range rounds {
					assert.Len(t, round, per, "round %d", r)
					seen := make(map[*c4t.Team]bool)
					for _, p := range round {
						require.NotNil(t, p.A)
						require.NotNil(t, p.B)
						assert.NotEqual(t, p.A, p.B)
						assert.False(t, seen[p.A], "%s twice in round %d", p.A, r)
						assert.False(t, seen[p.B], "%s twice in round %d", p.B, r)
						seen[p.A], seen[p.B] = true, true

						key := [2]string{p.A.Name, p.B.Name}
						if key[0] > key[1] {
							key[0], key[1] = key[1], key[0]
						}
						met[key]++
					}
				}

				assert.Len(t, met, n*(n-1)/2)
				for k, c := range met {
					assert.Equal(t, 1, c, "%v met %d times", k, c)
				}
			})
		}
	}
}

func TestInsufficient(t *testing.T) {
	for n := 0; n < 2; n++ {
		_, err := RoundRobin(teams(n), nil)
		assert.ErrorIs(t, err, c4t.ErrInsufficientTeams)
	}
}

func TestTeamsUnchanged(t *testing.T) {
	ts := teams(5)
	orig := append([]*c4t.Team(nil), ts...)
	_, err := RoundRobin(ts, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Equal(t, orig, ts)
}
