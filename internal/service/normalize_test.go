package service

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeMusicContext_CanonicalRow(t *testing.T) {
	pre := NormalizeMusicContext(map[string]any{
		"energy":         0.65,
		"valence":        0.4,
		"bpm":            128.0,
		"top_genre":      "Techno",
		"top_artist":     "Amelie Lens",
		"listen_minutes": 22.5,
	})

	require.NotNil(t, pre.Energy)
	assert.Equal(t, 0.65, *pre.Energy)
	require.NotNil(t, pre.Valence)
	assert.Equal(t, 0.4, *pre.Valence)
	require.NotNil(t, pre.BPM)
	assert.Equal(t, 128.0, *pre.BPM)
	require.NotNil(t, pre.TopGenre)
	assert.Equal(t, "Techno", *pre.TopGenre)
	require.NotNil(t, pre.TopArtist)
	assert.Equal(t, "Amelie Lens", *pre.TopArtist)
	assert.Equal(t, 22.5, pre.ListenMinutes)
}

func TestNormalizeMusicContext_AliasResolution(t *testing.T) {
	pre := NormalizeMusicContext(map[string]any{
		"avg_energy":  "0.72",
		"avg_valence": 0.33,
		"tempo":       140,
		"genre":       "House",
		"artist":      "Disclosure",
		"duration_ms": 1800000,
	})

	require.NotNil(t, pre.Energy)
	assert.Equal(t, 0.72, *pre.Energy)
	require.NotNil(t, pre.BPM)
	assert.Equal(t, 140.0, *pre.BPM)
	require.NotNil(t, pre.TopGenre)
	assert.Equal(t, "House", *pre.TopGenre)
	assert.Equal(t, 30.0, pre.ListenMinutes)
}

func TestNormalizeMusicContext_CaseInsensitiveKeys(t *testing.T) {
	pre := NormalizeMusicContext(map[string]any{
		"Energy":    0.5,
		"Top_Genre": "Metal",
	})

	require.NotNil(t, pre.Energy)
	assert.Equal(t, 0.5, *pre.Energy)
	require.NotNil(t, pre.TopGenre)
	assert.Equal(t, "Metal", *pre.TopGenre)
}

func TestNormalizeMusicContext_BucketLabels(t *testing.T) {
	tests := []struct {
		label string
		want  float64
	}{
		{"low", 0.2},
		{"Mid", 0.5},
		{" HIGH ", 0.8},
	}

	for _, tt := range tests {
		pre := NormalizeMusicContext(map[string]any{"energy_bucket": tt.label})
		require.NotNil(t, pre.Energy, "label %q", tt.label)
		assert.Equal(t, tt.want, *pre.Energy, "label %q", tt.label)
	}
}

func TestNormalizeMusicContext_BPMDerivedEnergy(t *testing.T) {
	tests := []struct {
		bpm  float64
		want float64
	}{
		{130, 0.5},
		{60, 0.0},
		{200, 1.0},
		{40, 0.0},  // clamped to floor
		{250, 1.0}, // clamped to ceiling
	}

	for _, tt := range tests {
		pre := NormalizeMusicContext(map[string]any{"bpm": tt.bpm})
		require.NotNil(t, pre.Energy, "bpm %v", tt.bpm)
		assert.InDelta(t, tt.want, *pre.Energy, 1e-9, "bpm %v", tt.bpm)
	}
}

func TestNormalizeMusicContext_NumericEnergyBeatsBPMFallback(t *testing.T) {
	pre := NormalizeMusicContext(map[string]any{
		"energy": 0.9,
		"bpm":    60.0,
	})

	require.NotNil(t, pre.Energy)
	assert.Equal(t, 0.9, *pre.Energy)
}

func TestNormalizeMusicContext_LabelShapes(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]any
		want   *string
	}{
		{
			name:   "array takes first element",
			fields: map[string]any{"genres": []any{"Drum & Bass", "Jungle"}},
			want:   sptr("Drum & Bass"),
		},
		{
			name:   "object takes name property",
			fields: map[string]any{"genre": map[string]any{"name": "Ambient"}},
			want:   sptr("Ambient"),
		},
		{
			name:   "empty array yields nothing",
			fields: map[string]any{"genres": []any{}},
			want:   nil,
		},
		{
			name:   "blank string yields nothing",
			fields: map[string]any{"genre": "   "},
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pre := NormalizeMusicContext(tt.fields)
			if tt.want == nil {
				assert.Nil(t, pre.TopGenre)
			} else {
				require.NotNil(t, pre.TopGenre)
				assert.Equal(t, *tt.want, *pre.TopGenre)
			}
		})
	}
}

func TestNormalizeMusicContext_NeverFails(t *testing.T) {
	hostile := []map[string]any{
		nil,
		{},
		{"energy": "not a number"},
		{"energy": math.NaN()},
		{"bpm": math.Inf(1)},
		{"listen_minutes": -5.0},
		{"genre": 42},
		{"top_artist": map[string]any{"id": 7}},
	}

	for i, fields := range hostile {
		pre := NormalizeMusicContext(fields)
		assert.GreaterOrEqual(t, pre.ListenMinutes, 0.0, "case %d", i)
	}
}

func TestNormalizeMusicContext_NegativeMillisIgnored(t *testing.T) {
	pre := NormalizeMusicContext(map[string]any{"listen_ms": -60000})
	assert.Equal(t, 0.0, pre.ListenMinutes)
}
