package filter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDuplicateTrackFilter_Check(t *testing.T) {
	tests := []struct {
		name         string
		title        string
		existing     []string
		wantAccepted bool
	}{
		{
			name:         "empty playlist",
			title:        "Lofi Study",
			existing:     nil,
			wantAccepted: true,
		},
		{
			name:         "different title",
			title:        "Lofi Study",
			existing:     []string{"Chillhop Beats", "Evening Jazz"},
			wantAccepted: true,
		},
		{
			name:         "exact match",
			title:        "Lofi Study",
			existing:     []string{"Chillhop Beats", "Lofi Study"},
			wantAccepted: false,
		},
		{
			name:         "case insensitive match",
			title:        "LOFI STUDY",
			existing:     []string{"Lofi Study"},
			wantAccepted: false,
		},
		{
			name:         "year remaster",
			title:        "Evening Jazz - 2011 Remaster",
			existing:     []string{"Evening Jazz"},
			wantAccepted: false,
		},
		{
			name:         "remastered in parentheses",
			title:        "Evening Jazz (Remastered 2023)",
			existing:     []string{"Evening Jazz"},
			wantAccepted: false,
		},
		{
			name:         "live version",
			title:        "Evening Jazz (Live)",
			existing:     []string{"Evening Jazz"},
			wantAccepted: false,
		},
		{
			name:         "radio edit",
			title:        "Chillhop Beats (Radio Edit)",
			existing:     []string{"Chillhop Beats"},
			wantAccepted: false,
		},
		{
			name:         "live inside a word is not a version marker",
			title:        "Olive Tree",
			existing:     []string{"O Tree"},
			wantAccepted: true,
		},
		{
			name:         "prefix is not a duplicate",
			title:        "Lofi Study Session",
			existing:     []string{"Lofi Study"},
			wantAccepted: true,
		},
	}

	f := NewDuplicateTrackFilter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := f.Check(context.Background(), Request{Title: tt.title, Existing: tt.existing})

			assert.Equal(t, tt.wantAccepted, result.Accepted)
			if !tt.wantAccepted {
				assert.Equal(t, "duplicate_track", result.Code)
			}
		})
	}
}

func TestNormalizeTrackName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Lofi Study", "lofi study"},
		{"  Lofi   Study  ", "lofi study"},
		{"Evening Jazz - Remastered", "evening jazz"},
		{"Evening Jazz [Remastered]", "evening jazz"},
		{"Evening Jazz (Single Version)", "evening jazz"},
		{"Evening Jazz - Live", "evening jazz"},
		{"Chillhop Beats -", "chillhop beats"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, normalizeTrackName(tt.input))
		})
	}
}

func TestDuplicateTrackFilter_Metadata(t *testing.T) {
	f := NewDuplicateTrackFilter()

	assert.Equal(t, "duplicate_track_filter", f.Name())
	assert.NotEmpty(t, f.Description())
	assert.Equal(t, []string{"duplicate_track"}, f.ReturnCodes())
	assert.NoError(t, f.ValidateConfig(nil))
}
