package geometry_test

import (
	"bytes"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/physicsuniverse/Covariant-Derivative/geometry"
)

func TestEngine_CacheHitsAndMisses(t *testing.T) {
	cache := geometry.NewCache(0)
	e := geometry.NewEngine(geometry.WithCache(cache))
	require.Same(t, cache, e.Cache())
	m := ads3(t)

	_, err := e.Ricci(m)
	require.NoError(t, err)
	assert.Equal(t, geometry.CacheStats{Hits: 0, Misses: 1, Entries: 1}, cache.Stats())

	_, err = e.RicciScalar(m)
	require.NoError(t, err)
	_, err = e.Einstein(m)
	require.NoError(t, err)
	assert.Equal(t, geometry.CacheStats{Hits: 2, Misses: 1, Entries: 1}, cache.Stats())

	cached, err := e.Christoffel(m)
	require.NoError(t, err)
	fresh, err := geometry.Christoffel(m)
	require.NoError(t, err)
	assert.True(t, cached.Equivalent(fresh))

	cache.Reset()
	assert.Equal(t, geometry.CacheStats{}, cache.Stats())
}

func TestCache_Eviction(t *testing.T) {
	cache := geometry.NewCache(2)
	e := geometry.NewEngine(geometry.WithCache(cache))
	for _, m := range []geometry.Metric{polar(t), sphere(t), sheared(t)} {
		_, err := e.Christoffel(m)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, cache.Len())

	// polar was evicted first
	_, err := e.Christoffel(polar(t))
	require.NoError(t, err)
	assert.Equal(t, uint64(4), cache.Stats().Misses)
	_, err = e.Christoffel(sheared(t))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), cache.Stats().Hits)
}

func TestCache_ErrorsAreNotStored(t *testing.T) {
	cache := geometry.NewCache(0)
	e := geometry.NewEngine(geometry.WithCache(cache))
	m := diag(t, []string{"x", "y"}, "1", "0")
	_, err := e.Christoffel(m)
	require.ErrorIs(t, err, geometry.ErrSingularMetric)
	assert.Equal(t, 0, cache.Len())
}

func TestCache_Concurrent(t *testing.T) {
	cache := geometry.NewCache(0)
	e := geometry.NewEngine(geometry.WithCache(cache))
	m := sphere(t)

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.RicciScalar(m)
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}
	stats := cache.Stats()
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, uint64(workers), stats.Hits+stats.Misses)
}

func TestEngine_LogsStages(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	e := geometry.NewEngine(geometry.WithLogger(logger))
	_, err := e.Ricci(polar(t))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "stage=christoffel")
	assert.Contains(t, buf.String(), "stage=riemann")
}
