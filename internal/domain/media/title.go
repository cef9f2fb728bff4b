// Package media provides helpers for turning media filenames into
// human-readable titles.
package media

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

var (
	yearRe      = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	bracketedRe = regexp.MustCompile(`\[[^\]]*\]|\([^)]*\)`)
	releaseRes  = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b\d{3,4}p\b`),
		regexp.MustCompile(`(?i)\b(bluray|brrip|bdrip|webrip|web-?dl|dvdrip|hdrip|hdtv)\b`),
		regexp.MustCompile(`(?i)\b((x|h)\.?26[45]|xvid|hevc)\b`),
		regexp.MustCompile(`(?i)\b(ddp?\d\.?\d|dts(-hd)?|aac(\d\.?\d)?|atmos|truehd|opus)\b`),
		regexp.MustCompile(`(?i)\b(repack|proper|extended|theatrical|director'?s\.?cut)\b`),
		regexp.MustCompile(`(?i)\b(hdr\d*|dolby\.?vision|sdr|imax)\b`),
		regexp.MustCompile(`(?i)\b(amzn|dsnp|nf|hulu|hbo|dsny|atvp)\b`),
		regexp.MustCompile(`-\w+$`),
	}
)

// DisplayTitle cleans a playlist item name for queue listings and
// announcements: strips the extension and release tags, keeps the year as a
// "(YYYY)" suffix, and truncates to maxLen runes.
func DisplayTitle(filename string, maxLen int) string {
	name := stripExtension(path.Base(filename))
	name = strings.NewReplacer(".", " ", "_", " ").Replace(name)

	year := yearRe.FindString(name)
	if year != "" {
		name = strings.Replace(name, year, "", 1)
	}

	name = bracketedRe.ReplaceAllString(name, "")
	for _, re := range releaseRes {
		name = re.ReplaceAllString(name, "")
	}
	name = strings.Join(strings.Fields(name), " ")

	if year != "" {
		name = fmt.Sprintf("%s (%s)", name, year)
	}
	if maxLen > 3 && len(name) > maxLen {
		name = name[:maxLen-3] + "..."
	}
	return name
}

// SearchTitle reduces a playlist item name to a bare title suitable for a
// metadata search: everything from the year onward is dropped along with
// release tags and single-letter leftovers.
func SearchTitle(filename string) string {
	name := stripExtension(path.Base(filename))

	// Anything after the year is release noise.
	if loc := yearRe.FindStringIndex(name); loc != nil {
		name = name[:loc[0]]
	}
	for _, delim := range []string{" - ", ".-.", ".-", "-."} {
		if i := strings.Index(name, delim); i >= 0 {
			name = name[:i]
		}
	}

	name = bracketedRe.ReplaceAllString(name, "")
	name = strings.NewReplacer(".", " ", "_", " ").Replace(name)
	for _, re := range releaseRes {
		name = re.ReplaceAllString(name, "")
	}

	words := make([]string, 0, 8)
	for _, w := range strings.Fields(name) {
		if len(w) > 1 {
			words = append(words, w)
		}
	}
	return strings.Join(words, " ")
}

// FormatDuration formats a duration in seconds as HH:MM:SS.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}

func stripExtension(name string) string {
	ext := path.Ext(name)
	return strings.TrimSuffix(name, ext)
}
