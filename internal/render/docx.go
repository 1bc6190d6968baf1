package render

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fumiama/go-docx"
)

const (
	docxTableWidth = 9000
	docxLogoHeight = 548640
)

type docxWriter struct {
	doc      *docx.Docx
	colors   palette
	warnings []error
}

func renderDOCX(report Report, colors palette, company string, lg *logo) ([]byte, []error, error) {
	w := &docxWriter{
		doc:    docx.New().WithDefaultTheme(),
		colors: colors,
	}

	w.masthead(company, lg)
	w.title(report.Title)
	for _, s := range report.Sections {
		w.section(s)
	}
	w.doc.WithA4Page()

	var raw bytes.Buffer
	if _, err := w.doc.WriteTo(&raw); err != nil {
		return nil, w.warnings, fmt.Errorf("%w: docx: %v", ErrRender, err)
	}

	data, err := repack(raw.Bytes())
	if err != nil {
		return nil, w.warnings, fmt.Errorf("%w: docx repack: %v", ErrRender, err)
	}

	return data, w.warnings, nil
}

func (w *docxWriter) masthead(company string, lg *logo) {
	if company == "" && lg == nil {
		return
	}

	p := w.doc.AddParagraph()
	if lg != nil {
		run, err := p.AddInlineDrawing(lg.data)
		if err != nil {
			w.warnings = append(w.warnings, fmt.Errorf("%w: decode logo: %v", ErrAsset, err))
		} else {
			scaleDrawing(run, docxLogoHeight)
			p.AddText("  ")
		}
	}
	if company != "" {
		p.AddText(company).Color(w.colors.primary.Hex()).Size("28").Bold()
	}
}

func (w *docxWriter) title(title string) {
	if strings.TrimSpace(title) == "" {
		return
	}
	w.doc.AddParagraph().AddText(title).Color(w.colors.primary.Hex()).Size("44").Bold()
}

func (w *docxWriter) section(s Section) {
	if h := strings.TrimSpace(s.Heading); h != "" {
		w.doc.AddParagraph().AddText(h).Color(w.colors.primary.Hex()).Size("28").Bold()
	}

	for _, b := range s.Blocks {
		if !b.Renderable() {
			continue
		}
		switch b.Kind {
		case TextBlock:
			w.doc.AddParagraph().AddText(strings.TrimSpace(b.Text)).Size("21")
		case TableBlock:
			w.table(b.Rows)
		case ImageBlock:
			w.image(b.Image)
		}
	}
}

func (w *docxWriter) table(rows [][]string) {
	cols := 0
	for _, r := range rows {
		cols = max(cols, len(r))
	}
	if cols == 0 {
		return
	}

	border := w.colors.primary.Hex()
	tbl := w.doc.AddTable(len(rows), cols, docxTableWidth, &docx.APITableBorderColors{
		Top:     border,
		Left:    border,
		Bottom:  border,
		Right:   border,
		InsideH: border,
		InsideV: border,
	})

	for i, row := range rows {
		for j := range cols {
			cell := tbl.TableRows[i].TableCells[j]
			text := ""
			if j < len(row) {
				text = row[j]
			}

			run := cell.AddParagraph().AddText(text).Size("19")
			switch {
			case i == 0:
				cell.Shade("clear", "auto", w.colors.primary.Hex())
				run.Color(white.Hex()).Bold()
			case i%2 == 0:
				cell.Shade("clear", "auto", w.colors.secondary.Hex())
			}
		}
	}

	w.doc.AddParagraph()
}

func (w *docxWriter) image(data []byte) {
	if mime, _, ok := detectImage(data); !ok {
		w.warnings = append(w.warnings, fmt.Errorf("%w: image block has unsupported type %s", ErrAsset, mime))
		return
	}
	if _, err := w.doc.AddParagraph().AddInlineDrawing(data); err != nil {
		w.warnings = append(w.warnings, fmt.Errorf("%w: decode image block: %v", ErrAsset, err))
	}
}

func scaleDrawing(run *docx.Run, height int64) {
	for _, child := range run.Children {
		d, ok := child.(*docx.Drawing)
		if !ok || d.Inline == nil || d.Inline.Extent == nil || d.Inline.Extent.CY == 0 {
			continue
		}
		width := d.Inline.Extent.CX * height / d.Inline.Extent.CY
		d.Inline.Size(width, height)
	}
}

// repack rewrites the archive with entries in sorted order so identical
// input produces identical bytes.
func repack(data []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	files := append([]*zip.File(nil), zr.File...)
	sort.Slice(files, func(i, j int) bool {
		return entryRank(files[i].Name) < entryRank(files[j].Name)
	})

	var out bytes.Buffer
	zw := zip.NewWriter(&out)
	for _, f := range files {
		dst, err := zw.CreateHeader(&zip.FileHeader{Name: f.Name, Method: zip.Deflate})
		if err != nil {
			return nil, err
		}
		src, err := f.Open()
		if err != nil {
			return nil, err
		}
		_, err = io.Copy(dst, src)
		src.Close()
		if err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}

	return out.Bytes(), nil
}

// entryRank keeps [Content_Types].xml first, as Office writers do.
func entryRank(name string) string {
	if name == "[Content_Types].xml" {
		return ""
	}
	return name
}
