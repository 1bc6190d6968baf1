// Package attachments materializes imported files and rendered exports in the
// shared uploads directory under collision-free, disambiguated names.
package attachments

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Source tags identify which subsystem produced a file.
const (
	TagSharePoint = "sharepoint"
	TagExport     = "export"
)

// TimestampLayout is the yyyyMMddHHmmss stamp embedded in stored names.
const TimestampLayout = "20060102150405"

// Attachment is a file stored in the uploads directory.
type Attachment struct {
	Key          string    `json:"key"`
	Path         string    `json:"path"`
	OriginalName string    `json:"original_name"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"content_type"`
	Source       string    `json:"source"`
	CreatedAt    time.Time `json:"created_at"`
}

var (
	unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)
	validExt    = regexp.MustCompile(`^\.[A-Za-z0-9]{1,10}$`)
)

// Name builds the stored name {tag}_{base}_{yyyyMMddHHmmss}{ext}.
// Directory components are dropped and unsafe characters become underscores.
func Name(tag, original string, at time.Time) string {
	base := filepath.Base(strings.ReplaceAll(original, `\`, "/"))
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	if !validExt.MatchString(ext) {
		stem, ext = base, ""
	}

	stem = strings.Trim(unsafeChars.ReplaceAllString(stem, "_"), "_")
	if stem == "" {
		stem = "file"
	}

	return sanitizeTag(tag) + "_" + stem + "_" + at.UTC().Format(TimestampLayout) + ext
}

func sanitizeTag(tag string) string {
	tag = strings.Trim(unsafeChars.ReplaceAllString(strings.ToLower(tag), "_"), "_")
	if tag == "" {
		return "file"
	}
	return tag
}

// withSuffix inserts _n before the extension: a_1.pdf becomes a_1_2.pdf.
func withSuffix(name string, n int) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + "_" + strconv.Itoa(n) + ext
}
