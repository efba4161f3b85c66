package agent

import (
	"errors"
	"regexp"
	"strings"
)

// ErrRoutingParse marks a tool directive the agent could not parse.
// It is recoverable: the reasoning step is retried and still counts
// toward the iteration bound.
var ErrRoutingParse = errors.New("unparseable tool directive")

var directivePattern = regexp.MustCompile(`(?is)tool:\s*([A-Za-z0-9_-]+)\s*[,\n]+\s*input:\s*(.*)`)

// directive is a textual tool request embedded in a plain model reply,
// the fallback for models that narrate instead of using native
// function calling.
type directive struct {
	Tool  string
	Input string
}

// parseDirective extracts a "Tool: X, Input: Y" directive from text.
// Returns (nil, nil) when the text carries no directive at all, and
// ErrRoutingParse when one is started but malformed.
func parseDirective(text string) (*directive, error) {
	if !strings.Contains(strings.ToLower(text), "tool:") {
		return nil, nil
	}

	match := directivePattern.FindStringSubmatch(text)
	if match == nil {
		return nil, ErrRoutingParse
	}

	return &directive{
		Tool:  strings.TrimSpace(match[1]),
		Input: strings.TrimSpace(match[2]),
	}, nil
}
