package httpd

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundRobin_Cycles(t *testing.T) {
	var rr RoundRobin[string]
	list := []string{"a", "b", "c"}
	var got []string
	for i := 0; i < 7; i++ {
		v, ok := rr.Next(list)
		require.True(t, ok)
		got = append(got, v)
	}
	require.Equal(t, []string{"a", "b", "c", "a", "b", "c", "a"}, got)

	_, ok := rr.Next(nil)
	require.False(t, ok)
}

func TestRoundRobin_EvenUnderConcurrency(t *testing.T) {
	var rr RoundRobin[Address]
	list := []Address{{Host: "a", Port: 1}, {Host: "b", Port: 2}, {Host: "c", Port: 3}, {Host: "d", Port: 4}}

	var mu sync.Mutex
	counts := make(map[Address]int)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				a, _ := rr.Next(list)
				mu.Lock()
				counts[a]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	for _, a := range list {
		require.Equal(t, 200, counts[a], a.String())
	}
}
