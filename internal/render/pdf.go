package render

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

const (
	pdfMargin      = 15.0
	pdfBandHeight  = 20.0
	pdfLogoHeight  = 14.0
	pdfFooterSpace = 18.0
	pdfLineHeight  = 5.5
	pdfCellLine    = 5.0
	pdfCellPad     = 1.5
	pdfFont        = "Helvetica"
)

var white = RGB{R: 0xFF, G: 0xFF, B: 0xFF}

type pdfWriter struct {
	pdf      *fpdf.Fpdf
	tr       func(string) string
	colors   palette
	company  string
	logo     *logo
	images   int
	warnings []error
}

func renderPDF(report Report, colors palette, company string, lg *logo) ([]byte, int, []error, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(time.Unix(0, 0).UTC())
	pdf.SetModificationDate(time.Unix(0, 0).UTC())
	pdf.SetCatalogSort(true)
	pdf.SetCreator("docbridge", false)
	pdf.SetTitle(report.Title, true)
	if company != "" {
		pdf.SetAuthor(company, true)
	}
	pdf.SetMargins(pdfMargin, pdfBandHeight+8, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfFooterSpace)
	pdf.AliasNbPages("")

	w := &pdfWriter{
		pdf:     pdf,
		tr:      pdf.UnicodeTranslatorFromDescriptor(""),
		colors:  colors,
		company: company,
		logo:    lg,
	}

	if lg != nil {
		pdf.RegisterImageOptionsReader("logo", fpdf.ImageOptions{ImageType: lg.imageType}, bytes.NewReader(lg.data))
		if err := pdf.Error(); err != nil {
			pdf.ClearError()
			w.logo = nil
			w.warnings = append(w.warnings, fmt.Errorf("%w: decode logo: %v", ErrAsset, err))
		}
	}

	pdf.SetHeaderFunc(w.header)
	pdf.SetFooterFunc(w.footer)
	pdf.AddPage()

	w.title(report.Title)
	for _, s := range report.Sections {
		w.section(s)
	}

	if err := pdf.Error(); err != nil {
		return nil, 0, w.warnings, fmt.Errorf("%w: pdf: %v", ErrRender, err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, 0, w.warnings, fmt.Errorf("%w: pdf output: %v", ErrRender, err)
	}

	pages, err := api.PageCount(bytes.NewReader(buf.Bytes()), model.NewDefaultConfiguration())
	if err != nil {
		return nil, 0, w.warnings, fmt.Errorf("%w: pdf validation: %v", ErrRender, err)
	}

	return buf.Bytes(), pages, w.warnings, nil
}

func (w *pdfWriter) setFill(c RGB) { w.pdf.SetFillColor(int(c.R), int(c.G), int(c.B)) }

func (w *pdfWriter) setText(c RGB) { w.pdf.SetTextColor(int(c.R), int(c.G), int(c.B)) }

func (w *pdfWriter) setDraw(c RGB) { w.pdf.SetDrawColor(int(c.R), int(c.G), int(c.B)) }

func (w *pdfWriter) contentWidth() float64 {
	pageW, _ := w.pdf.GetPageSize()
	left, _, right, _ := w.pdf.GetMargins()
	return pageW - left - right
}

func (w *pdfWriter) header() {
	pageW, _ := w.pdf.GetPageSize()

	w.setFill(w.colors.primary)
	w.pdf.Rect(0, 0, pageW, pdfBandHeight, "F")

	if w.company != "" {
		w.pdf.SetFont(pdfFont, "B", 14)
		w.setText(white)
		w.pdf.SetXY(pdfMargin, 0)
		w.pdf.CellFormat(pageW-2*pdfMargin, pdfBandHeight, w.tr(w.company), "", 0, "LM", false, 0, "")
	}

	if w.logo != nil {
		info := w.pdf.GetImageInfo("logo")
		lw := pdfLogoHeight
		if info != nil && info.Height() > 0 {
			lw = pdfLogoHeight * info.Width() / info.Height()
		}
		x := pageW - pdfMargin - lw
		y := (pdfBandHeight - pdfLogoHeight) / 2
		w.pdf.ImageOptions("logo", x, y, lw, pdfLogoHeight, false, fpdf.ImageOptions{ImageType: w.logo.imageType}, 0, "")
	}

	w.pdf.SetXY(pdfMargin, pdfBandHeight+8)
}

func (w *pdfWriter) footer() {
	w.pdf.SetY(-12)
	w.pdf.SetFont(pdfFont, "", 8)
	w.pdf.SetTextColor(110, 110, 110)
	w.pdf.CellFormat(0, 8, fmt.Sprintf("Page %d of {nb}", w.pdf.PageNo()), "", 0, "C", false, 0, "")
}

func (w *pdfWriter) title(title string) {
	if strings.TrimSpace(title) == "" {
		return
	}
	w.pdf.SetFont(pdfFont, "B", 20)
	w.setText(w.colors.primary)
	w.pdf.MultiCell(0, 9, w.tr(title), "", "L", false)
	w.pdf.Ln(4)
}

func (w *pdfWriter) section(s Section) {
	if h := strings.TrimSpace(s.Heading); h != "" {
		w.pdf.SetFont(pdfFont, "B", 13)
		w.setText(w.colors.primary)
		w.pdf.MultiCell(0, 7, w.tr(h), "", "L", false)
		w.pdf.Ln(1)
	}

	for _, b := range s.Blocks {
		if !b.Renderable() {
			continue
		}
		switch b.Kind {
		case TextBlock:
			w.text(b.Text)
		case TableBlock:
			w.table(b.Rows)
		case ImageBlock:
			w.image(b.Image)
		}
	}
	w.pdf.Ln(3)
}

func (w *pdfWriter) text(s string) {
	w.pdf.SetFont(pdfFont, "", 10.5)
	w.pdf.SetTextColor(0, 0, 0)
	w.pdf.MultiCell(0, pdfLineHeight, w.tr(strings.TrimSpace(s)), "", "L", false)
	w.pdf.Ln(2)
}

func (w *pdfWriter) table(rows [][]string) {
	cols := 0
	for _, r := range rows {
		cols = max(cols, len(r))
	}
	if cols == 0 {
		return
	}

	left, _, _, _ := w.pdf.GetMargins()
	_, pageH := w.pdf.GetPageSize()
	colW := w.contentWidth() / float64(cols)
	w.setDraw(w.colors.primary)
	w.pdf.SetLineWidth(0.2)

	for i, row := range rows {
		header := i == 0
		if header {
			w.pdf.SetFont(pdfFont, "B", 9.5)
		} else {
			w.pdf.SetFont(pdfFont, "", 9.5)
		}

		lines := make([][]string, cols)
		height := 1
		for j := range cols {
			cell := ""
			if j < len(row) {
				cell = w.tr(row[j])
			}
			lines[j] = w.pdf.SplitText(cell, colW-2*pdfCellPad)
			height = max(height, len(lines[j]))
		}
		rowH := float64(height)*pdfCellLine + 2*pdfCellPad

		if w.pdf.GetY()+rowH > pageH-pdfFooterSpace {
			w.pdf.AddPage()
		}

		fill := white
		text := RGB{}
		switch {
		case header:
			fill, text = w.colors.primary, white
		case i%2 == 0:
			fill = w.colors.secondary
		}

		y := w.pdf.GetY()
		for j := range cols {
			x := left + float64(j)*colW
			w.setFill(fill)
			w.pdf.Rect(x, y, colW, rowH, "FD")
			w.setText(text)
			for k, line := range lines[j] {
				w.pdf.SetXY(x+pdfCellPad, y+pdfCellPad+float64(k)*pdfCellLine)
				w.pdf.CellFormat(colW-2*pdfCellPad, pdfCellLine, line, "", 0, "L", false, 0, "")
			}
		}
		w.pdf.SetXY(left, y+rowH)
	}

	w.pdf.SetTextColor(0, 0, 0)
	w.pdf.Ln(3)
}

func (w *pdfWriter) image(data []byte) {
	mime, tp, ok := detectImage(data)
	if !ok {
		w.warnings = append(w.warnings, fmt.Errorf("%w: image block has unsupported type %s", ErrAsset, mime))
		return
	}

	w.images++
	name := fmt.Sprintf("img-%d", w.images)
	opts := fpdf.ImageOptions{ImageType: tp}
	info := w.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	if err := w.pdf.Error(); err != nil || info == nil {
		w.pdf.ClearError()
		w.warnings = append(w.warnings, fmt.Errorf("%w: decode image block: %v", ErrAsset, err))
		return
	}

	iw, ih := info.Extent()
	if iw <= 0 || ih <= 0 {
		return
	}
	if maxW := w.contentWidth(); iw > maxW {
		ih = ih * maxW / iw
		iw = maxW
	}

	left, _, _, _ := w.pdf.GetMargins()
	w.pdf.ImageOptions(name, left, 0, iw, ih, true, opts, 0, "")
	w.pdf.Ln(3)
}
