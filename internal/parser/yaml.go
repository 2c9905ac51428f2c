package parser

import (
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Mark is the position the underlying YAML parser reported for a failure,
// already offset into document coordinates.
type Mark struct {
	Line   int
	Column int
}

// YamlError is a parse failure turned into data: a display message and the
// document-relative range it points at.
type YamlError struct {
	Message string
	Range   Range
	Mark    Mark
}

// yamlErrLineRe extracts the line number yaml.v3 embeds in its error text,
// e.g. "yaml: line 3: mapping values are not allowed in this context".
var yamlErrLineRe = regexp.MustCompile(`line (\d+):`)

// parseFragment parses text as a key/value mapping. startLine is the
// document line the fragment begins on; any reported error range is offset
// by it. A blank fragment yields a nil mapping and no error. Top-level
// scalars, sequences and null documents are rejected with a synthetic error
// pointing at the first line.
func parseFragment(text string, startLine int) (map[string]interface{}, *YamlError) {
	lines := splitLines(text)

	var root yaml.Node
	if err := yaml.Unmarshal([]byte(text), &root); err != nil {
		return nil, yamlErrorFrom(err, lines, startLine)
	}

	if root.Kind == 0 || len(root.Content) == 0 {
		return nil, nil // blank fragment
	}

	body := root.Content[0]
	if body.Kind != yaml.MappingNode {
		return nil, &YamlError{
			Message: "action block must be a key/value mapping",
			Range:   lineRangeAt(lines, 0, startLine),
			Mark:    Mark{Line: startLine},
		}
	}

	var mapping map[string]interface{}
	if err := yaml.Unmarshal([]byte(text), &mapping); err != nil {
		return nil, yamlErrorFrom(err, lines, startLine)
	}
	return mapping, nil
}

// yamlErrorFrom maps a yaml.v3 error onto the fragment's text. The display
// message is trimmed to its first line with the parser's own position prefix
// stripped.
func yamlErrorFrom(err error, lines []string, startLine int) *YamlError {
	msg := err.Error()

	relLine := 0
	if m := yamlErrLineRe.FindStringSubmatch(msg); m != nil {
		if n, convErr := strconv.Atoi(m[1]); convErr == nil && n > 0 {
			relLine = n - 1 // yaml.v3 reports 1-based lines
		}
	}
	if relLine >= len(lines) && len(lines) > 0 {
		relLine = len(lines) - 1
	}

	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	msg = strings.TrimPrefix(msg, "yaml: ")
	msg = yamlErrLineRe.ReplaceAllString(msg, "")
	msg = strings.TrimSpace(msg)

	return &YamlError{
		Message: msg,
		Range:   lineRangeAt(lines, relLine, startLine),
		Mark:    Mark{Line: startLine + relLine},
	}
}

// lineRangeAt spans one whole fragment line in document coordinates.
func lineRangeAt(lines []string, rel, startLine int) Range {
	length := 0
	if rel >= 0 && rel < len(lines) {
		length = len(lines[rel])
	}
	return NewRange(startLine+rel, 0, startLine+rel, length)
}

// bareKeyLineRe matches "key: value" at zero indentation.
var bareKeyLineRe = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_.-]*):(.*)$`)

// listKeyLineRe matches "key: value" behind a list-item prefix.
var listKeyLineRe = regexp.MustCompile(`^(\s*-\s+)([A-Za-z_][A-Za-z0-9_.-]*):(.*)$`)

// ExtractParameterRanges re-scans raw fragment text for "key: value" lines
// and records byte-precise key, value and line ranges. Only lines at empty
// indentation or behind a list-item prefix are considered, and only keys
// present in the already-parsed mapping, so keys inside unrelated nested
// structures are not matched. The type key is addressed separately on its
// owner and is skipped here.
func ExtractParameterRanges(text string, mapping map[string]interface{}, startLine int) []Parameter {
	if mapping == nil {
		return nil
	}

	var params []Parameter
	for rel, line := range splitLines(text) {
		keyStart := 0
		var key string
		if m := bareKeyLineRe.FindStringSubmatch(line); m != nil {
			key = m[1]
		} else if m := listKeyLineRe.FindStringSubmatch(line); m != nil {
			keyStart = len(m[1])
			key = m[2]
		} else {
			continue
		}

		if key == "type" {
			continue
		}
		if _, ok := mapping[key]; !ok {
			continue
		}

		colon := keyStart + len(key)
		valStart, valEnd := ValueSpan(line, colon)
		ln := startLine + rel
		params = append(params, Parameter{
			Key:        key,
			Value:      line[valStart:valEnd],
			KeyRange:   NewRange(ln, keyStart, ln, colon),
			ValueRange: NewRange(ln, valStart, ln, valEnd),
			LineRange:  NewRange(ln, 0, ln, len(line)),
		})
	}
	return params
}

// ValueSpan locates the value text of a "key: value" line given the colon
// column: skip one separating space then any further whitespace, up to the
// trimmed end of the line.
func ValueSpan(line string, colon int) (start, end int) {
	start = colon + 1
	if start < len(line) && line[start] == ' ' {
		start++
	}
	for start < len(line) && (line[start] == ' ' || line[start] == '\t') {
		start++
	}
	end = len(strings.TrimRight(line, " \t"))
	if end < start {
		end = start
	}
	return start, end
}
