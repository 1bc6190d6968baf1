package render

import "fmt"

// Format is an output document format.
type Format string

const (
	PDF  Format = "pdf"
	DOCX Format = "docx"
)

// MIME types of the supported formats.
const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// ParseFormat accepts the format names users type: pdf, docx, or word.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "pdf", "PDF":
		return PDF, nil
	case "docx", "DOCX", "word", "Word", "WORD":
		return DOCX, nil
	default:
		return "", fmt.Errorf("unsupported format %q (must be pdf or docx)", s)
	}
}

// MimeType returns the content type for the format.
func (f Format) MimeType() string {
	if f == DOCX {
		return MimeDOCX
	}
	return MimePDF
}

// Ext returns the file extension including the dot.
func (f Format) Ext() string {
	return "." + string(f)
}
