package suggestion

import (
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// excerptLength is the number of runes of content kept in the context
// origin excerpt.
const excerptLength = 24

// tagPattern matches the structured type tag, e.g. "[TIPO: warning]".
var tagPattern = regexp.MustCompile(`(?i)\[TIPO:\s*([a-z_]+)\s*\]`)

// numberingPattern strips leading list numbering ("1.", "2)", "- ").
var numberingPattern = regexp.MustCompile(`^\s*(?:\d+[.)]|[-*])\s*`)

// ParserOptions configure parsing leniency.
type ParserOptions struct {
	// CoerceUnknownTypeToInfo maps unrecognized type values to info instead
	// of leaving them for the validator to reject.
	CoerceUnknownTypeToInfo bool

	// Source tags every parsed suggestion (e.g. "llm").
	Source string
}

// DefaultParserOptions returns the lenient defaults used by the pipeline.
func DefaultParserOptions() ParserOptions {
	return ParserOptions{
		CoerceUnknownTypeToInfo: true,
		Source:                  "llm",
	}
}

// Parser extracts candidate suggestions from raw LLM output. Two formats
// are supported: tagged free-text lines ("1. ... [TIPO: warning]") and one
// JSON object per line ({"type": "...", "content": "..."}). Malformed
// entries are skipped, never fatal.
type Parser struct {
	opts ParserOptions
}

// NewParser creates a parser with the given options.
func NewParser(opts ParserOptions) *Parser {
	return &Parser{opts: opts}
}

type jsonSuggestion struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// Parse extracts zero or more suggestions from raw text. sourceBlockIDs is
// the set of valid block ids from the originating context; when empty, the
// sentinel id is assigned. Each accepted suggestion gets a fresh unique id
// and a context origin excerpt.
func (p *Parser) Parse(raw string, sourceBlockIDs []string) []*Suggestion {
	var suggestions []*Suggestion

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var typ, content string
		var ok bool
		if strings.HasPrefix(line, "{") {
			typ, content, ok = parseJSONLine(line)
		} else {
			typ, content, ok = parseTaggedLine(line)
		}
		if !ok {
			slog.Debug("parser: skipping malformed line", "line", line)
			continue
		}

		suggestionType := Type(strings.ToLower(typ))
		if !suggestionType.IsValid() && p.opts.CoerceUnknownTypeToInfo {
			slog.Debug("parser: coercing unknown suggestion type", "type", typ)
			suggestionType = TypeInfo
		}

		sourceBlockID := SentinelSourceBlockID
		if len(sourceBlockIDs) > 0 {
			sourceBlockID = sourceBlockIDs[len(suggestions)%len(sourceBlockIDs)]
		}

		suggestions = append(suggestions, &Suggestion{
			ID:            uuid.NewString(),
			SourceBlockID: sourceBlockID,
			Type:          suggestionType,
			Content:       content,
			Origin: &ContextOrigin{
				SourceBlock: sourceBlockID,
				Excerpt:     excerpt(content),
			},
			Source: p.opts.Source,
		})
	}

	return suggestions
}

// parseJSONLine parses the one-object-per-line format. Unparsable JSON or a
// missing type/content field rejects the line.
func parseJSONLine(line string) (string, string, bool) {
	var s jsonSuggestion
	if err := json.Unmarshal([]byte(line), &s); err != nil {
		return "", "", false
	}
	if s.Type == "" || s.Content == "" {
		return "", "", false
	}
	return s.Type, s.Content, true
}

// parseTaggedLine parses the "[TIPO: <type>]" tagged free-text format.
// Lines without a tag are not suggestions.
func parseTaggedLine(line string) (string, string, bool) {
	match := tagPattern.FindStringSubmatch(line)
	if match == nil {
		return "", "", false
	}
	content := tagPattern.ReplaceAllString(line, "")
	content = numberingPattern.ReplaceAllString(content, "")
	content = strings.TrimSpace(content)
	if content == "" {
		return "", "", false
	}
	return match[1], content, true
}

func excerpt(content string) string {
	runes := []rune(content)
	if len(runes) <= excerptLength {
		return content
	}
	return string(runes[:excerptLength]) + "..."
}
