package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NeighborhoodMap-App/internal/domain/model"
)

const exportedLocations = `[
	{"id":"37.759_-122.419","names":["Mission"],"lat":37.759,"lng":-122.419,
	 "exactLat":37.75901,"exactLng":-122.41852,"date":"2024-05-01T12:00:00.000Z","count":1},
	{"id":"37.759_-122.419","names":["Mission District"],"lat":37.759,"lng":-122.419,
	 "exactLat":37.75899,"exactLng":-122.41851,"date":"2024-05-02T12:00:00.000Z","count":1},
	{"location_id":"37.762_-122.435","names":["Castro"],"lat":"37.762","lng":"-122.435",
	 "created_at":"2024-05-01T10:00:00+00:00"}
]`

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("LOG_LEVEL", "error")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		aggregateGeoJSON = false
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func writeExport(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "locations.json")
	require.NoError(t, os.WriteFile(path, []byte(exportedLocations), 0o600))
	return path
}

func TestAggregateCommand(t *testing.T) {
	t.Run("セルごとに集約して出力する", func(t *testing.T) {
		out, err := runRoot(t, "aggregate", writeExport(t))
		require.NoError(t, err)

		var cells []model.AggregatedCell
		require.NoError(t, json.Unmarshal([]byte(out), &cells))
		require.Len(t, cells, 2)

		byID := make(map[string]model.AggregatedCell)
		for _, cell := range cells {
			byID[cell.CellID] = cell
		}

		mission := byID["37.759_-122.419"]
		assert.ElementsMatch(t, []string{"Mission", "Mission District"}, mission.Names)
		assert.Equal(t, 2, mission.Count)
		assert.NotEmpty(t, mission.DisplayColor)
		assert.Len(t, mission.Shares, 2)

		castro := byID["37.762_-122.435"]
		assert.Equal(t, []string{"Castro"}, castro.Names)
	})

	t.Run("GeoJSONで出力する", func(t *testing.T) {
		out, err := runRoot(t, "aggregate", "--geojson", writeExport(t))
		require.NoError(t, err)

		var fc struct {
			Type     string            `json:"type"`
			Features []json.RawMessage `json:"features"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &fc))
		assert.Equal(t, "FeatureCollection", fc.Type)
		assert.Len(t, fc.Features, 2)
	})

	t.Run("ファイルが無ければエラー", func(t *testing.T) {
		_, err := runRoot(t, "aggregate", filepath.Join(t.TempDir(), "missing.json"))
		assert.Error(t, err)
	})
}

func TestNamesCommand(t *testing.T) {
	t.Run("メモリ保存では空の一覧", func(t *testing.T) {
		t.Setenv("LOCATIONS_BACKEND", model.BackendMemory)
		t.Setenv("COLORS_BACKEND", model.BackendMemory)

		out, err := runRoot(t, "names")
		require.NoError(t, err)
		assert.Empty(t, out)
	})

	t.Run("不正な保存先はエラー", func(t *testing.T) {
		t.Setenv("COLORS_BACKEND", "dynamodb")

		_, err := runRoot(t, "names")
		assert.Error(t, err)
	})
}
