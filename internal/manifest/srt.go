package manifest

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"lectern/internal/lecture"
	"lectern/internal/services"
)

var (
	// Caption credits and download-site notices that are not lecture speech.
	adPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)opensubtitles`),
		regexp.MustCompile(`(?i)subtitles? by`),
		regexp.MustCompile(`(?i)captions? by`),
		regexp.MustCompile(`(?i)synced? and corrected`),
		regexp.MustCompile(`(?i)http(s)?://`),
		regexp.MustCompile(`(?i)\bwww\.`),
	}
	markupPattern = regexp.MustCompile(`<[^>]+>|\{\\[^}]*\}`)
)

// ParseSRT converts SRT cues into transcript spans. Markup tags and credit
// cues are dropped; multi-line cue text is joined with spaces.
func ParseSRT(data []byte) ([]lecture.TranscriptSpan, error) {
	content := strings.ReplaceAll(string(data), "\r\n", "\n")
	content = strings.TrimPrefix(content, "\ufeff")
	blocks := splitBlocks(content)
	spans := make([]lecture.TranscriptSpan, 0, len(blocks))
	for n, block := range blocks {
		lines := strings.Split(block, "\n")
		start := 0
		if start < len(lines) && isNumeric(lines[start]) {
			start++
		}
		if start >= len(lines) || !strings.Contains(lines[start], "-->") {
			return nil, services.Wrap(services.ErrValidation, "manifest", "parse srt", fmt.Sprintf("cue %d has no timing line", n+1), nil)
		}
		begin, end, err := parseTiming(lines[start])
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "manifest", "parse srt", fmt.Sprintf("cue %d", n+1), err)
		}

		text := cueText(lines[start+1:])
		if text == "" || isAdvertisement(text) {
			continue
		}
		spans = append(spans, lecture.TranscriptSpan{StartTime: begin, EndTime: end, Text: text})
	}
	return spans, nil
}

func splitBlocks(content string) []string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil
	}
	raw := strings.Split(trimmed, "\n\n")
	out := raw[:0]
	for _, block := range raw {
		if block = strings.TrimSpace(block); block != "" {
			out = append(out, block)
		}
	}
	return out
}

func parseTiming(line string) (float64, float64, error) {
	parts := strings.Split(line, "-->")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid timing line %q", line)
	}
	start, err := parseSRTTimestamp(parts[0])
	if err != nil {
		return 0, 0, err
	}
	// Positioning hints may follow the end timestamp.
	endFields := strings.Fields(parts[1])
	if len(endFields) == 0 {
		return 0, 0, fmt.Errorf("invalid timing line %q", line)
	}
	end, err := parseSRTTimestamp(endFields[0])
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

func parseSRTTimestamp(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	// Normalize period to comma (SRT standard uses comma for milliseconds)
	value = strings.ReplaceAll(value, ".", ",")
	timeParts := strings.Split(value, ",")
	if len(timeParts) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(timeParts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(timeParts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	return float64(hours*3600+minutes*60+seconds) + float64(millis)/1000, nil
}

func cueText(lines []string) string {
	text := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(markupPattern.ReplaceAllString(line, ""))
		if line != "" {
			text = append(text, line)
		}
	}
	return strings.Join(strings.Fields(strings.Join(text, " ")), " ")
}

func isAdvertisement(text string) bool {
	for _, pattern := range adPatterns {
		if pattern.MatchString(text) {
			return true
		}
	}
	return false
}

func isNumeric(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	_, err := strconv.Atoi(value)
	return err == nil
}
