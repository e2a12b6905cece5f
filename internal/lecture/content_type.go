package lecture

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ContentType classifies what a slide shows.
type ContentType int

const (
	ContentText ContentType = iota + 1
	ContentDiagram
	ContentMixed
)

func (c ContentType) String() string {
	switch c {
	case ContentText:
		return "TEXT"
	case ContentDiagram:
		return "DIAGRAM"
	case ContentMixed:
		return "MIXED"
	default:
		return "UNKNOWN"
	}
}

// ParseContentType converts a serialized label back into a ContentType.
func ParseContentType(value string) (ContentType, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "TEXT":
		return ContentText, nil
	case "DIAGRAM":
		return ContentDiagram, nil
	case "MIXED":
		return ContentMixed, nil
	default:
		return 0, fmt.Errorf("unknown content type %q", value)
	}
}

// ClassifyContent applies the text/diagram decision table.
func ClassifyContent(hasText, isDiagram bool) ContentType {
	switch {
	case hasText && isDiagram:
		return ContentMixed
	case isDiagram:
		return ContentDiagram
	default:
		return ContentText
	}
}

// HasDiagram reports whether the variant carries diagram content.
func (c ContentType) HasDiagram() bool {
	switch c {
	case ContentDiagram, ContentMixed:
		return true
	case ContentText:
		return false
	default:
		return false
	}
}

func (c ContentType) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *ContentType) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		return err
	}
	parsed, err := ParseContentType(label)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
