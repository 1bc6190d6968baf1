package render_test

import (
	"reflect"
	"testing"

	"github.com/JaimeStill/docbridge/internal/render"
)

func TestParseTable(t *testing.T) {
	tests := []struct {
		name string
		text string
		want [][]string
	}{
		{
			name: "markdown with separator",
			text: "| Name | Size |\n|---|:---:|\n| a.pdf | 1KB |\n| b.pdf | 2KB |",
			want: [][]string{{"Name", "Size"}, {"a.pdf", "1KB"}, {"b.pdf", "2KB"}},
		},
		{
			name: "tab delimited",
			text: "Quarter\tRevenue\nQ1\t100\n",
			want: [][]string{{"Quarter", "Revenue"}, {"Q1", "100"}},
		},
		{
			name: "short rows padded",
			text: "a|b|c\nd",
			want: [][]string{{"a", "b", "c"}, {"d", "", ""}},
		},
		{
			name: "blank",
			text: "\n  \n",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := render.ParseTable(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseTable() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBlocks(t *testing.T) {
	text := "Here are the numbers:\n\n| A | B |\n|---|---|\n| 1 | 2 |\n\nThat is all."

	blocks := render.Blocks(text)
	if len(blocks) != 3 {
		t.Fatalf("got %d blocks, want 3: %+v", len(blocks), blocks)
	}

	if blocks[0].Kind != render.TextBlock || blocks[0].Text != "Here are the numbers:" {
		t.Errorf("blocks[0] = %+v", blocks[0])
	}
	if blocks[1].Kind != render.TableBlock || len(blocks[1].Rows) != 2 {
		t.Errorf("blocks[1] = %+v", blocks[1])
	}
	if blocks[2].Kind != render.TextBlock || blocks[2].Text != "That is all." {
		t.Errorf("blocks[2] = %+v", blocks[2])
	}
}

func TestFromMarkdown(t *testing.T) {
	text := "intro line\n# First\nbody one\n## Second\n| x | y |\n| 1 | 2 |\n"

	report := render.FromMarkdown("Notes", text)
	if report.Title != "Notes" {
		t.Errorf("Title = %q", report.Title)
	}
	if len(report.Sections) != 3 {
		t.Fatalf("got %d sections, want 3", len(report.Sections))
	}

	if report.Sections[0].Heading != "" {
		t.Errorf("leading section heading = %q, want empty", report.Sections[0].Heading)
	}
	if report.Sections[1].Heading != "First" {
		t.Errorf("Sections[1].Heading = %q", report.Sections[1].Heading)
	}
	if report.Sections[2].Heading != "Second" || report.Sections[2].Blocks[0].Kind != render.TableBlock {
		t.Errorf("Sections[2] = %+v", report.Sections[2])
	}
}

func TestRenderable(t *testing.T) {
	tests := []struct {
		name   string
		report render.Report
		want   bool
	}{
		{"empty", render.Report{Title: "Empty"}, false},
		{"heading only", render.Report{Sections: []render.Section{{Heading: "H"}}}, false},
		{"blank text", render.Report{Sections: []render.Section{{Blocks: []render.Block{render.Text("  \n")}}}}, false},
		{"blank table", render.Report{Sections: []render.Section{{Blocks: []render.Block{render.Table([][]string{{"", " "}})}}}}, false},
		{"text", render.Report{Sections: []render.Section{{Blocks: []render.Block{render.Text("hi")}}}}, true},
		{"image", render.Report{Sections: []render.Section{{Blocks: []render.Block{render.Image([]byte{1})}}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.report.Renderable(); got != tt.want {
				t.Errorf("Renderable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilename(t *testing.T) {
	tests := []struct {
		report render.Report
		want   string
	}{
		{render.Report{Title: "Conversation Export"}, "conversation_export"},
		{render.Report{Title: "x", Name: "conversation"}, "conversation"},
		{render.Report{Title: "Q3: Results / Plan!"}, "q3_results_plan"},
		{render.Report{}, "document"},
	}

	for _, tt := range tests {
		if got := render.Filename(tt.report); got != tt.want {
			t.Errorf("Filename(%+v) = %q, want %q", tt.report, got, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    render.Format
		wantErr bool
	}{
		{"pdf", render.PDF, false},
		{"docx", render.DOCX, false},
		{"word", render.DOCX, false},
		{"Word", render.DOCX, false},
		{"odt", "", true},
	}

	for _, tt := range tests {
		got, err := render.ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if render.PDF.MimeType() != render.MimePDF || render.DOCX.Ext() != ".docx" {
		t.Error("unexpected format metadata")
	}
}
