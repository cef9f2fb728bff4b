package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayTitle(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		maxLen   int
		expected string
	}{
		{
			name:     "release name with year and tags",
			filename: "The.Matrix.1999.1080p.BluRay.x264-GROUP.mkv",
			maxLen:   50,
			expected: "The Matrix (1999)",
		},
		{
			name:     "underscores and resolution",
			filename: "inception_2010_720p.mp4",
			maxLen:   50,
			expected: "inception (2010)",
		},
		{
			name:     "plain filename",
			filename: "MovieNight.mp4",
			maxLen:   50,
			expected: "MovieNight",
		},
		{
			name:     "path is stripped",
			filename: "/media/movies/Heat.1995.mkv",
			maxLen:   50,
			expected: "Heat (1995)",
		},
		{
			name:     "truncated to max length",
			filename: "a_needlessly_verbose_movie_title.mkv",
			maxLen:   12,
			expected: "a needles...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DisplayTitle(tt.filename, tt.maxLen))
		})
	}
}

func TestSearchTitle(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		expected string
	}{
		{
			name:     "everything after year dropped",
			filename: "The.Matrix.1999.1080p.BluRay.x264-GROUP.mkv",
			expected: "The Matrix",
		},
		{
			name:     "dash delimiter cuts release info",
			filename: "Heat - 4K Remaster.mkv",
			expected: "Heat",
		},
		{
			name:     "single letter words removed",
			filename: "inception.2010.mkv",
			expected: "inception",
		},
		{
			name:     "no noise",
			filename: "Alien.mp4",
			expected: "Alien",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SearchTitle(tt.filename))
		})
	}
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "00:00:00", FormatDuration(0))
	assert.Equal(t, "00:02:05", FormatDuration(125))
	assert.Equal(t, "02:10:00", FormatDuration(7800))
	assert.Equal(t, "00:00:00", FormatDuration(-5))
}
