package storage

import (
	"testing"

	"github.com/poiesic/tendermatch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalTender_OptionalFields(t *testing.T) {
	value := 6e8

	tests := []struct {
		name   string
		tender *core.Tender
	}{
		{"missing value and coordinates", &core.Tender{ID: "t1", Organization: "PWD"}},
		{"full tender", &core.Tender{
			ID:          "t2",
			Value:       &value,
			Coordinates: &core.Coordinates{Lat: 12.97, Lng: 77.59},
			Website:     "pwd.gov",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Marshal(tt.tender)
			require.NoError(t, err)

			decoded, err := Unmarshal[core.Tender](data)
			require.NoError(t, err)
			assert.Equal(t, tt.tender, decoded)
		})
	}
}

func TestMarshal_Deterministic(t *testing.T) {
	factor := 2.0
	profile := &core.CompanyProfile{
		UserID:       "u1",
		SavedTenders: []string{"a", "b"},
		Info: &core.CompanyInfo{
			Keywords:    []string{"bridge"},
			HQLocations: []core.Site{{Coordinates: &core.Coordinates{Lat: 1, Lng: 2}, Factor: &factor}},
		},
	}

	a, err := Marshal(profile)
	require.NoError(t, err)
	b, err := Marshal(profile)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestMarshalVector(t *testing.T) {
	vec := []float32{0.1, -0.5, 0.25}
	data, err := MarshalVector(vec)
	require.NoError(t, err)

	decoded, err := UnmarshalVector(data)
	require.NoError(t, err)
	assert.Equal(t, vec, decoded)
}

func TestUnmarshal_Invalid(t *testing.T) {
	_, err := Unmarshal[core.Tender]([]byte{0xff, 0x00})
	assert.ErrorIs(t, err, ErrSerializationFailed)

	_, err = UnmarshalVector(nil)
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestMarshalScore(t *testing.T) {
	tests := []core.Score{
		{TenderID: "t1", UserID: "u1", Score: 55.0},
		{TenderID: "", UserID: "u2", Score: 0},
		{TenderID: "tender-with-a-longer-id", UserID: "u3", Score: 99.99},
	}
	for _, score := range tests {
		data := MarshalScore(&score)
		assert.Len(t, data, core.ScoreMUS.Size(score))

		decoded, err := UnmarshalScore(data)
		require.NoError(t, err)
		assert.Equal(t, score, *decoded)
	}
}

func TestUnmarshalScore_Truncated(t *testing.T) {
	data := MarshalScore(&core.Score{TenderID: "t1", UserID: "u1", Score: 42.5})

	_, err := UnmarshalScore(data[:len(data)-3])
	assert.ErrorIs(t, err, ErrSerializationFailed)

	_, err = UnmarshalScore(nil)
	assert.ErrorIs(t, err, ErrSerializationFailed)
}
