package parser

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/ormasoftchile/executable-talk-sub000/internal/schema"
)

// Document is the parsed model of one open deck. It is rebuilt wholesale on
// every edit and never mutated in place.
type Document struct {
	URI              string
	Version          int32
	Content          string
	Lines            []string
	FrontmatterRange *Range
	Slides           []*Slide
}

// Slide is one delimiter-separated section of the deck.
type Slide struct {
	Index      int
	Range      Range
	Title      string
	Blocks     []*ActionBlock
	Links      []*ActionLink
	Directives []*RenderDirective
}

// ActionBlock is a fenced ```action region within a slide.
type ActionBlock struct {
	Range        Range // full fenced region
	ContentRange Range // lines between the fences
	Raw          string
	Mapping      map[string]interface{}
	ParseErr     *YamlError
	ActionType   string
	TypeRange    Range
	HasType      bool // a type: line exists, even with an empty value
	Params       []Parameter
	Steps        []*Step
	Unclosed     bool
}

// Step is one entry of a sequence block's steps list.
type Step struct {
	Range      Range
	ActionType string
	TypeRange  Range
	Params     []Parameter
	Indent     int // column of the list-item dash
}

// Parameter is a "key: value" line with byte-precise ranges into the source.
type Parameter struct {
	Key        string
	Value      string
	KeyRange   Range
	ValueRange Range
	LineRange  Range
}

// QueryParam is one decoded key=value pair of an inline directive, with the
// range of the raw (still encoded) value text.
type QueryParam struct {
	Value string
	Range Range
}

// ActionLink is an inline [label](action:type?k=v) directive.
type ActionLink struct {
	Range     Range
	Label     string
	Type      string
	TypeRange Range
	Params    map[string]QueryParam
}

// RenderDirective is an inline [label](render:file|command|diff?k=v) directive.
type RenderDirective struct {
	Range     Range
	Label     string
	Type      string
	TypeRange Range
	Params    map[string]QueryParam
}

var (
	delimiterRe  = regexp.MustCompile(`^-{3,}\s*$`)
	fenceOpenRe  = regexp.MustCompile("^```action\\s*$")
	fenceCloseRe = regexp.MustCompile("^```\\s*$")
	headingRe    = regexp.MustCompile(`^#{1,6}\s+(.+?)\s*$`)
	typeLineRe   = regexp.MustCompile(`^type:`)
	stepStartRe  = regexp.MustCompile(`^(\s{2,})-\s+type:`)
	stepParamRe  = regexp.MustCompile(`^(\s+)([A-Za-z_][A-Za-z0-9_.-]*):(.*)$`)

	actionLinkRe = regexp.MustCompile(`\[([^\]]*)\]\(action:([a-z0-9.]+)(?:\?([^)\s]*))?\)`)
	renderLinkRe = regexp.MustCompile(`\[([^\]]*)\]\(render:(file|command|diff)(?:\?([^)\s]*))?\)`)
)

// Parse builds the full document model from raw text. It never fails:
// malformed content becomes data on the model.
func Parse(uri string, version int32, content string) *Document {
	doc := &Document{
		URI:     uri,
		Version: version,
		Content: content,
		Lines:   splitLines(content),
	}

	next := doc.scanFrontmatter()
	boundaries := doc.scanSlideBoundaries(next)

	start := next
	for _, b := range boundaries {
		doc.addSlide(start, b-1)
		start = b + 1
	}
	doc.addSlide(start, len(doc.Lines)-1)

	return doc
}

// ApplyChange re-derives the whole model from the new content. Nothing of
// the previous model is reused.
func ApplyChange(prev *Document, version int32, content string) *Document {
	return Parse(prev.URI, version, content)
}

// scanFrontmatter records the frontmatter range when line 0 is a delimiter
// with a matching closer, and returns the first line after it.
func (d *Document) scanFrontmatter() int {
	if len(d.Lines) == 0 || !delimiterRe.MatchString(d.Lines[0]) {
		return 0
	}
	for i := 1; i < len(d.Lines); i++ {
		if delimiterRe.MatchString(d.Lines[i]) {
			fm := NewRange(0, 0, i, len(d.Lines[i]))
			d.FrontmatterRange = &fm
			return i + 1
		}
	}
	// no closing delimiter: not frontmatter
	return 0
}

// scanSlideBoundaries finds delimiter lines outside frontmatter and outside
// fenced code. Any line starting with three backticks toggles the fence flag,
// so a delimiter-looking line inside an unrelated fenced block never breaks
// a slide.
func (d *Document) scanSlideBoundaries(from int) []int {
	var boundaries []int
	inFence := false
	for i := from; i < len(d.Lines); i++ {
		if strings.HasPrefix(d.Lines[i], "```") {
			inFence = !inFence
			continue
		}
		if !inFence && delimiterRe.MatchString(d.Lines[i]) {
			boundaries = append(boundaries, i)
		}
	}
	return boundaries
}

// addSlide appends a slide covering the inclusive line span [start, end].
func (d *Document) addSlide(start, end int) {
	if last := len(d.Lines) - 1; start > last {
		start = last
	}
	if start < 0 {
		start = 0
	}
	if end < start {
		end = start
	}

	s := &Slide{
		Index: len(d.Slides),
		Range: NewRange(start, 0, end, len(d.Lines[end])),
	}
	for i := start; i <= end; i++ {
		if m := headingRe.FindStringSubmatch(d.Lines[i]); m != nil {
			s.Title = m[1]
			break
		}
	}

	d.scanBlocks(s, start, end)
	d.scanInline(s, start, end)
	d.Slides = append(d.Slides, s)
}

// scanBlocks finds ```action fence pairs within the slide. A block whose
// closing fence is missing is synthesized to end at the slide's last line.
func (d *Document) scanBlocks(s *Slide, start, end int) {
	for i := start; i <= end; i++ {
		if !fenceOpenRe.MatchString(d.Lines[i]) {
			continue
		}
		open := i
		closeLine := -1
		for j := open + 1; j <= end; j++ {
			if fenceCloseRe.MatchString(d.Lines[j]) {
				closeLine = j
				break
			}
		}

		unclosed := closeLine == -1
		contentEnd := end
		if !unclosed {
			contentEnd = closeLine - 1
		} else {
			closeLine = end
		}

		s.Blocks = append(s.Blocks, d.buildBlock(open, closeLine, contentEnd, unclosed))
		i = closeLine
	}
}

func (d *Document) buildBlock(open, closeLine, contentEnd int, unclosed bool) *ActionBlock {
	contentStart := open + 1

	b := &ActionBlock{
		Range:    NewRange(open, 0, closeLine, len(d.Lines[closeLine])),
		Unclosed: unclosed,
	}

	if contentEnd < contentStart {
		// fence pair with nothing between it
		b.ContentRange = NewRange(contentStart, 0, contentStart, 0)
		return b
	}

	b.ContentRange = NewRange(contentStart, 0, contentEnd, len(d.Lines[contentEnd]))
	b.Raw = strings.Join(d.Lines[contentStart:contentEnd+1], "\n")
	b.Mapping, b.ParseErr = parseFragment(b.Raw, contentStart)

	// The type is located on its physical line so TypeRange spans the literal
	// source text, not a re-serialized value.
	for i := contentStart; i <= contentEnd; i++ {
		if !typeLineRe.MatchString(d.Lines[i]) {
			continue
		}
		line := d.Lines[i]
		valStart, valEnd := ValueSpan(line, len("type"))
		b.HasType = true
		b.ActionType = line[valStart:valEnd]
		b.TypeRange = NewRange(i, valStart, i, valEnd)
		break
	}

	b.Params = ExtractParameterRanges(b.Raw, b.Mapping, contentStart)

	if b.ActionType == schema.SequenceType {
		if _, ok := b.Mapping["steps"].([]interface{}); ok {
			b.Steps = d.buildSteps(b, contentStart, contentEnd)
		}
	}
	return b
}

// buildSteps locates list items of the form "  - type: x" within the block
// content and delimits one step per marker. Inner ranges are computed the
// same way as block-level ones.
func (d *Document) buildSteps(b *ActionBlock, contentStart, contentEnd int) []*Step {
	type marker struct {
		line   int
		indent int
	}
	var markers []marker
	for i := contentStart; i <= contentEnd; i++ {
		if m := stepStartRe.FindStringSubmatch(d.Lines[i]); m != nil {
			markers = append(markers, marker{line: i, indent: len(m[1])})
		}
	}

	stepMaps, _ := b.Mapping["steps"].([]interface{})

	var steps []*Step
	for k, mk := range markers {
		endLine := contentEnd
		if k+1 < len(markers) {
			endLine = markers[k+1].line - 1
		}

		line := d.Lines[mk.line]
		colon := strings.Index(line, "type:") + len("type")
		valStart, valEnd := ValueSpan(line, colon)

		step := &Step{
			Range:      NewRange(mk.line, 0, endLine, len(d.Lines[endLine])),
			ActionType: line[valStart:valEnd],
			TypeRange:  NewRange(mk.line, valStart, mk.line, valEnd),
			Indent:     mk.indent,
		}

		var mapping map[string]interface{}
		if k < len(stepMaps) {
			mapping, _ = stepMaps[k].(map[string]interface{})
		}
		step.Params = d.stepParameters(step, mapping, mk.line+1, endLine)
		steps = append(steps, step)
	}
	return steps
}

// stepParameters scans the lines of one step for "key: value" entries
// indented past the list-item marker, keeping only keys the parsed step
// mapping actually contains.
func (d *Document) stepParameters(step *Step, mapping map[string]interface{}, from, to int) []Parameter {
	var params []Parameter
	for i := from; i <= to; i++ {
		m := stepParamRe.FindStringSubmatch(d.Lines[i])
		if m == nil || len(m[1]) <= step.Indent {
			continue
		}
		key := m[2]
		if key == "type" {
			continue
		}
		if mapping != nil {
			if _, ok := mapping[key]; !ok {
				continue
			}
		}

		line := d.Lines[i]
		keyStart := len(m[1])
		colon := keyStart + len(key)
		valStart, valEnd := ValueSpan(line, colon)
		params = append(params, Parameter{
			Key:        key,
			Value:      line[valStart:valEnd],
			KeyRange:   NewRange(i, keyStart, i, colon),
			ValueRange: NewRange(i, valStart, i, valEnd),
			LineRange:  NewRange(i, 0, i, len(line)),
		})
	}
	return params
}

// scanInline finds inline action links and render directives in the slide's
// raw text, recording a precise range for every decoded query value.
func (d *Document) scanInline(s *Slide, start, end int) {
	for i := start; i <= end; i++ {
		line := d.Lines[i]
		for _, m := range actionLinkRe.FindAllStringSubmatchIndex(line, -1) {
			s.Links = append(s.Links, &ActionLink{
				Range:     NewRange(i, m[0], i, m[1]),
				Label:     line[m[2]:m[3]],
				Type:      line[m[4]:m[5]],
				TypeRange: NewRange(i, m[4], i, m[5]),
				Params:    parseQuery(line, i, m[6], m[7]),
			})
		}
		for _, m := range renderLinkRe.FindAllStringSubmatchIndex(line, -1) {
			s.Directives = append(s.Directives, &RenderDirective{
				Range:     NewRange(i, m[0], i, m[1]),
				Label:     line[m[2]:m[3]],
				Type:      line[m[4]:m[5]],
				TypeRange: NewRange(i, m[4], i, m[5]),
				Params:    parseQuery(line, i, m[6], m[7]),
			})
		}
	}
}

// parseQuery decodes the key=value&... query substring of an inline
// directive. Value ranges cover the raw encoded text in the source line.
func parseQuery(line string, lineNo, qs, qe int) map[string]QueryParam {
	params := make(map[string]QueryParam)
	if qs < 0 || qs >= qe {
		return params
	}

	pos := qs
	for _, pair := range strings.Split(line[qs:qe], "&") {
		eq := strings.IndexByte(pair, '=')
		if eq > 0 {
			key := pair[:eq]
			rawValue := pair[eq+1:]
			value, err := url.QueryUnescape(rawValue)
			if err != nil {
				value = rawValue
			}
			params[key] = QueryParam{
				Value: value,
				Range: NewRange(lineNo, pos+eq+1, lineNo, pos+len(pair)),
			}
		}
		pos += len(pair) + 1
	}
	return params
}

// FindSlideAt returns the slide whose range contains pos.
func (d *Document) FindSlideAt(pos Position) *Slide {
	for _, s := range d.Slides {
		if s.Range.ContainsPosition(pos) {
			return s
		}
	}
	return nil
}

// FindActionBlockAt returns the block whose content range contains pos.
func (d *Document) FindActionBlockAt(pos Position) *ActionBlock {
	s := d.FindSlideAt(pos)
	if s == nil {
		return nil
	}
	for _, b := range s.Blocks {
		if b.ContentRange.ContainsPosition(pos) {
			return b
		}
	}
	return nil
}

// Line returns the text of line n, or "" when out of bounds.
func (d *Document) Line(n int) string {
	if n < 0 || n >= len(d.Lines) {
		return ""
	}
	return d.Lines[n]
}

// LineCount returns the number of lines in the document.
func (d *Document) LineCount() int {
	return len(d.Lines)
}

// splitLines splits content into lines, dropping carriage returns. An empty
// document still has one (empty) line.
func splitLines(content string) []string {
	lines := strings.Split(content, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

