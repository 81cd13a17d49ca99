package filter

import (
	"context"
	"regexp"
	"strings"
)

var (
	remasterPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\s*-?\s*\d{4}\s+remaster(ed)?`),      // "- 2011 Remaster"
		regexp.MustCompile(`\s*\(remaster(ed)?\s*\d{0,4}\)`),     // "(Remastered 2023)"
		regexp.MustCompile(`\s*\[remaster(ed)?\s*\d{0,4}\]`),     // "[Remastered]"
		regexp.MustCompile(`\s*-?\s*remaster(ed)?(\s+version)?`), // "- Remastered"
		regexp.MustCompile(`\s*\(.*?remaster.*?\)`),              // "(Any Remaster text)"
		regexp.MustCompile(`\s*\[.*?remaster.*?\]`),              // "[Any Remaster text]"
	}
	versionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\s*\(.*?version\)`),        // "(Single Version)"
		regexp.MustCompile(`\s*\(.*?edit\)`),           // "(Radio Edit)"
		regexp.MustCompile(`\s*\(live\)`),              // "(Live)"
		regexp.MustCompile(`\s+-\s+live$`),             // "- Live"
		regexp.MustCompile(`\s*-?\s*radio\s+edit`),     // "- Radio Edit"
		regexp.MustCompile(`\s*-?\s*single\s+version`), // "- Single Version"
	}
	spaces = regexp.MustCompile(`\s+`)
)

// DuplicateTrackFilter rejects titles already in the playlist.
// Titles are compared after normalization, so remasters and edits of the same
// title count as duplicates.
type DuplicateTrackFilter struct{}

// NewDuplicateTrackFilter creates a new duplicate track filter.
func NewDuplicateTrackFilter() *DuplicateTrackFilter {
	return &DuplicateTrackFilter{}
}

// Name returns the filter name.
func (f *DuplicateTrackFilter) Name() string {
	return "duplicate_track_filter"
}

// Description returns the filter description.
func (f *DuplicateTrackFilter) Description() string {
	return "Rejects titles already in the playlist (remasters and edits included)"
}

// ReturnCodes returns possible return codes.
func (f *DuplicateTrackFilter) ReturnCodes() []string {
	return []string{"duplicate_track"}
}

// ValidateConfig validates the filter configuration.
func (f *DuplicateTrackFilter) ValidateConfig(settings map[string]any) error {
	// No configuration needed
	return nil
}

// Check checks if the title is a duplicate.
func (f *DuplicateTrackFilter) Check(ctx context.Context, req Request) Result {
	requested := normalizeTrackName(req.Title)
	for _, existing := range req.Existing {
		if existing == req.Title || normalizeTrackName(existing) == requested {
			return Reject("duplicate_track")
		}
	}
	return Accept()
}

// normalizeTrackName removes remaster information and version details.
func normalizeTrackName(name string) string {
	normalized := strings.ToLower(name)

	for _, pattern := range remasterPatterns {
		normalized = pattern.ReplaceAllString(normalized, "")
	}
	for _, pattern := range versionPatterns {
		normalized = pattern.ReplaceAllString(normalized, "")
	}

	normalized = strings.TrimSpace(normalized)
	normalized = spaces.ReplaceAllString(normalized, " ")
	return strings.TrimRight(normalized, " -")
}

func init() {
	Register("duplicate_track_filter", func() Filter {
		return NewDuplicateTrackFilter()
	})
}
