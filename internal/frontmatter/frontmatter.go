package frontmatter

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

// Style captures the newline shape of the document the frontmatter came from.
type Style struct {
	Newline            string
	HasTrailingNewline bool
}

// Block locates a YAML frontmatter block at the start of a document.
type Block struct {
	// Raw is the YAML between the delimiters.
	Raw []byte
	// EndLine is the zero-based line of the closing delimiter.
	EndLine int
	// BodyOffset is the byte offset of the first byte after the closing delimiter line.
	BodyOffset int
}

// Locate finds a `---` delimited frontmatter block.
//
// The opening delimiter must be the first line. The closing delimiter may be the
// last line of the document without a trailing newline.
func Locate(content []byte) (Block, bool, error) {
	first, rest, hasNewline := cutLine(content)
	if !hasNewline || !isDelimiter(first) {
		return Block{}, false, nil
	}

	start := len(content) - len(rest)
	offset := start
	for line := 1; ; line++ {
		current, next, hasNewline := cutLine(content[offset:])
		if isDelimiter(current) {
			return Block{
				Raw:        content[start:offset],
				EndLine:    line,
				BodyOffset: len(content) - len(next),
			}, true, nil
		}
		if !hasNewline {
			return Block{}, false, ErrMissingClosingDelimiter
		}
		offset = len(content) - len(next)
	}
}

// Split separates YAML frontmatter (`---` delimited) from the Markdown body.
//
// If the document does not start with a YAML frontmatter delimiter, had is false
// and body is the full input.
func Split(content []byte) (frontmatter []byte, body []byte, had bool, style Style, err error) {
	style = detectStyle(content)

	block, had, err := Locate(content)
	if err != nil {
		return nil, nil, false, style, err
	}
	if !had {
		return nil, content, false, style, nil
	}
	return block.Raw, content[block.BodyOffset:], true, style, nil
}

// ParseYAML parses raw YAML frontmatter (without --- delimiters) into a map.
func ParseYAML(frontmatter []byte) (map[string]any, error) {
	if len(frontmatter) == 0 {
		return map[string]any{}, nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal(frontmatter, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// cutLine splits off the first line. The returned line excludes the line break.
func cutLine(content []byte) (line []byte, rest []byte, hadNewline bool) {
	idx := bytes.IndexByte(content, '\n')
	if idx < 0 {
		return content, nil, false
	}
	return content[:idx], content[idx+1:], true
}

func isDelimiter(line []byte) bool {
	return bytes.Equal(bytes.TrimSuffix(line, []byte("\r")), []byte("---"))
}

func detectStyle(content []byte) Style {
	newline := "\n"
	for i := 0; i+1 < len(content); i++ {
		if content[i] == '\r' && content[i+1] == '\n' {
			newline = "\r\n"
			break
		}
		if content[i] == '\n' {
			newline = "\n"
			break
		}
	}

	hasTrailingNewline := len(content) > 0 && (content[len(content)-1] == '\n')

	return Style{
		Newline:            newline,
		HasTrailingNewline: hasTrailingNewline,
	}
}
