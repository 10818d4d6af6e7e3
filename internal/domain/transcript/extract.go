package transcript

import (
	"bytes"
	"path"
	"regexp"
	"strconv"
	"strings"
)

var (
	allowedExtensions = map[string]bool{".txt": true, ".vtt": true, ".srt": true, ".md": true}
	cueTiming         = regexp.MustCompile(`^\s*(\d{1,2}:)?\d{2}:\d{2}[.,]\d{3}\s+-->\s+(\d{1,2}:)?\d{2}:\d{2}[.,]\d{3}`)
	utf8BOM           = []byte{0xEF, 0xBB, 0xBF}
)

func extension(filename string) string {
	return strings.ToLower(path.Ext(strings.ReplaceAll(filename, "\\", "/")))
}

func acceptable(filename, contentType string) bool {
	if allowedExtensions[extension(filename)] {
		return true
	}
	mediaType := strings.ToLower(strings.TrimSpace(contentType))
	if idx := strings.Index(mediaType, ";"); idx >= 0 {
		mediaType = strings.TrimSpace(mediaType[:idx])
	}
	return strings.HasPrefix(mediaType, "text/")
}

// extractText returns plain transcript text. Subtitle files lose their cue
// numbers, timings and headers; everything else is returned as is.
func extractText(filename string, content []byte) string {
	content = bytes.TrimPrefix(content, utf8BOM)
	text := strings.ReplaceAll(string(content), "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	switch extension(filename) {
	case ".vtt", ".srt":
		return strings.TrimSpace(stripCues(text))
	default:
		return strings.TrimSpace(text)
	}
}

func stripCues(text string) string {
	var (
		out      []string
		skipNote bool
	)
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			skipNote = false
			continue
		case skipNote:
			continue
		case strings.HasPrefix(trimmed, "WEBVTT"):
			continue
		case strings.HasPrefix(trimmed, "NOTE"), trimmed == "STYLE", trimmed == "REGION":
			skipNote = true
			continue
		case cueTiming.MatchString(trimmed):
			continue
		}
		if _, err := strconv.Atoi(trimmed); err == nil {
			continue
		}
		out = append(out, trimmed)
	}
	return strings.Join(out, "\n")
}

func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	name = strings.ReplaceAll(name, " ", "_")
	if name == "" || name == "." || name == "/" {
		return "transcript.txt"
	}
	return name
}
