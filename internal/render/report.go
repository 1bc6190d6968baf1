package render

import (
	"regexp"
	"strings"
)

// BlockKind identifies the content carried by a Block.
type BlockKind string

const (
	TextBlock  BlockKind = "text"
	TableBlock BlockKind = "table"
	ImageBlock BlockKind = "image"
)

// Report is the format-neutral input to a render.
type Report struct {
	Title    string
	Name     string
	Sections []Section
}

// Section is a headed run of blocks. Heading may be empty.
type Section struct {
	Heading string
	Blocks  []Block
}

// Block is one unit of section content. Only the field matching Kind is read.
type Block struct {
	Kind  BlockKind
	Text  string
	Rows  [][]string
	Image []byte
}

func Text(s string) Block {
	return Block{Kind: TextBlock, Text: s}
}

func Table(rows [][]string) Block {
	return Block{Kind: TableBlock, Rows: rows}
}

func Image(data []byte) Block {
	return Block{Kind: ImageBlock, Image: data}
}

// Renderable reports whether the block would put anything on the page.
func (b Block) Renderable() bool {
	switch b.Kind {
	case TextBlock:
		return strings.TrimSpace(b.Text) != ""
	case TableBlock:
		for _, row := range b.Rows {
			for _, cell := range row {
				if strings.TrimSpace(cell) != "" {
					return true
				}
			}
		}
		return false
	case ImageBlock:
		return len(b.Image) > 0
	default:
		return false
	}
}

// Renderable reports whether any section holds a renderable block.
func (r Report) Renderable() bool {
	for _, s := range r.Sections {
		for _, b := range s.Blocks {
			if b.Renderable() {
				return true
			}
		}
	}
	return false
}

var separatorCell = regexp.MustCompile(`^:?-{3,}:?$`)

// ParseTable splits pipe- or tab-delimited text into rows.
// Markdown separator rows are skipped and short rows are padded to the widest row.
func ParseTable(text string) [][]string {
	var rows [][]string
	width := 0

	for line := range strings.SplitSeq(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var cells []string
		switch {
		case strings.Contains(line, "|"):
			line = strings.TrimPrefix(line, "|")
			line = strings.TrimSuffix(line, "|")
			cells = strings.Split(line, "|")
		case strings.Contains(line, "\t"):
			cells = strings.Split(line, "\t")
		default:
			cells = []string{line}
		}

		for i := range cells {
			cells[i] = strings.TrimSpace(cells[i])
		}

		if isSeparator(cells) {
			continue
		}

		rows = append(rows, cells)
		width = max(width, len(cells))
	}

	for i, row := range rows {
		for len(row) < width {
			row = append(row, "")
		}
		rows[i] = row
	}

	return rows
}

func isSeparator(cells []string) bool {
	for _, c := range cells {
		if !separatorCell.MatchString(strings.ReplaceAll(c, " ", "")) {
			return false
		}
	}
	return len(cells) > 0
}

// Blocks splits markdown-ish text into text and table blocks.
// Consecutive lines starting with a pipe form one table.
func Blocks(text string) []Block {
	var blocks []Block
	var prose, table []string

	flushProse := func() {
		if s := strings.TrimSpace(strings.Join(prose, "\n")); s != "" {
			blocks = append(blocks, Text(s))
		}
		prose = prose[:0]
	}
	flushTable := func() {
		if rows := ParseTable(strings.Join(table, "\n")); len(rows) > 0 {
			blocks = append(blocks, Table(rows))
		}
		table = table[:0]
	}

	for line := range strings.SplitSeq(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "|") {
			flushProse()
			table = append(table, line)
			continue
		}
		if len(table) > 0 {
			flushTable()
		}
		prose = append(prose, line)
	}

	flushProse()
	flushTable()
	return blocks
}

// FromMarkdown builds a report from a markdown-ish document.
// Lines starting with one or more '#' open a new section.
func FromMarkdown(title, text string) Report {
	report := Report{Title: title}
	heading := ""
	var body []string

	flush := func() {
		blocks := Blocks(strings.Join(body, "\n"))
		if heading != "" || len(blocks) > 0 {
			report.Sections = append(report.Sections, Section{Heading: heading, Blocks: blocks})
		}
		body = body[:0]
	}

	for line := range strings.SplitSeq(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			if h := strings.TrimSpace(strings.TrimLeft(trimmed, "#")); h != "" {
				flush()
				heading = h
				continue
			}
		}
		body = append(body, line)
	}

	flush()
	return report
}
