package catalog

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-genremap/pkg/genre"
	"github.com/dd0wney/cluso-genremap/pkg/metrics"
)

func writeJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func fixture(t *testing.T) Sources {
	t.Helper()
	dir := t.TempDir()
	src := Sources{
		PointsPath:  filepath.Join(dir, "points.json"),
		EdgesPath:   filepath.Join(dir, "edges.json"),
		CatalogPath: filepath.Join(dir, "genres.json"),
	}
	writeJSON(t, src.PointsPath, []genre.ColoredPoint{
		{X: 0, Y: 0, Name: "Shoegaze", Color: "#aabbcc", ID: 3},
		{X: 1, Y: 2, Name: "Dream Pop", Color: "#ccbbaa", ID: 8},
	})
	writeJSON(t, src.EdgesPath, []genre.Edge{
		{Source: genre.Coordinate{X: 0, Y: 0}, Target: genre.Coordinate{X: 1, Y: 2}, Color: "#aabbcc"},
	})
	writeJSON(t, src.CatalogPath, []genre.Record{
		{ID: 3, Name: "Shoegaze", Description: "wall of guitar"},
		{ID: 8, Name: "Dream Pop", Description: "hazy"},
	})
	return src
}

func TestStoreLookup(t *testing.T) {
	s := NewStore(fixture(t), nil, metrics.NewRegistry())
	require.NoError(t, s.Load())

	g, err := s.Lookup(8)
	require.NoError(t, err)
	assert.Equal(t, "Dream Pop", g.Name)
	assert.Equal(t, "#ccbbaa", g.Color)
	assert.Equal(t, "hazy", g.Description)

	_, err = s.Lookup(99)
	assert.True(t, errors.Is(err, genre.ErrNotFound))
}

func TestStoreGenreJSON(t *testing.T) {
	s := NewStore(fixture(t), nil, metrics.NewRegistry())
	require.NoError(t, s.Load())

	g, err := s.Lookup(3)
	require.NoError(t, err)
	data, err := json.Marshal(g)
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":0,"y":0,"name":"Shoegaze","color":"#aabbcc","id":3,"description":"wall of guitar"}`, string(data))
}

func TestStoreWithoutCatalog(t *testing.T) {
	src := fixture(t)
	src.CatalogPath = ""
	s := NewStore(src, nil, metrics.NewRegistry())
	require.NoError(t, s.Load())

	g, err := s.Lookup(3)
	require.NoError(t, err)
	assert.Empty(t, g.Description)
}

func TestStoreBeforeLoad(t *testing.T) {
	s := NewStore(fixture(t), nil, metrics.NewRegistry())
	assert.Nil(t, s.Snapshot())

	_, err := s.Lookup(3)
	assert.True(t, errors.Is(err, genre.ErrNotFound))
}

func TestStoreLoadErrors(t *testing.T) {
	tests := []struct {
		name   string
		breakF func(t *testing.T, src *Sources)
	}{
		{"missing points", func(t *testing.T, src *Sources) { src.PointsPath += ".missing" }},
		{"missing edges", func(t *testing.T, src *Sources) { src.EdgesPath += ".missing" }},
		{"malformed points", func(t *testing.T, src *Sources) {
			require.NoError(t, os.WriteFile(src.PointsPath, []byte("{"), 0o644))
		}},
		{"duplicate ids", func(t *testing.T, src *Sources) {
			writeJSON(t, src.PointsPath, []genre.ColoredPoint{{ID: 1, Name: "a"}, {ID: 1, Name: "b"}})
		}},
		{"broken catalog", func(t *testing.T, src *Sources) {
			require.NoError(t, os.WriteFile(src.CatalogPath, []byte(`[{"id": 1}]`), 0o644))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := fixture(t)
			tt.breakF(t, &src)
			err := NewStore(src, nil, metrics.NewRegistry()).Load()
			assert.True(t, errors.Is(err, genre.ErrDataLoad), "got %v", err)
		})
	}
}

func TestStoreReloadSwapsSnapshot(t *testing.T) {
	src := fixture(t)
	s := NewStore(src, nil, metrics.NewRegistry())
	require.NoError(t, s.Load())
	before := s.Snapshot()

	writeJSON(t, src.PointsPath, []genre.ColoredPoint{{X: 5, Y: 5, Name: "Shoegaze", Color: "#000000", ID: 3}})
	require.NoError(t, s.Reload())

	after := s.Snapshot()
	assert.NotSame(t, before, after)
	assert.Len(t, before.Points, 2, "old snapshot is untouched")
	assert.Len(t, after.Points, 1)

	_, err := s.Lookup(8)
	assert.True(t, errors.Is(err, genre.ErrNotFound))
}

func TestStoreFailedReloadKeepsServing(t *testing.T) {
	src := fixture(t)
	s := NewStore(src, nil, metrics.NewRegistry())
	require.NoError(t, s.Load())

	require.NoError(t, os.WriteFile(src.PointsPath, []byte("not json"), 0o644))
	require.Error(t, s.Reload())

	g, err := s.Lookup(8)
	require.NoError(t, err)
	assert.Equal(t, "Dream Pop", g.Name)
}

func TestStoreConcurrentReadsDuringReload(t *testing.T) {
	s := NewStore(fixture(t), nil, metrics.NewRegistry())
	require.NoError(t, s.Load())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				if _, err := s.Lookup(3); err != nil {
					t.Errorf("lookup failed: %v", err)
					return
				}
			}
		}()
	}
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Reload())
	}
	wg.Wait()
}
