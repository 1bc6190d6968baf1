// Package intent classifies chat messages into SharePoint import requests,
// document export requests, or neither. Classification is a pure function over
// a static rule table; it never fails and holds no state between calls.
package intent

import (
	"github.com/JaimeStill/docbridge/internal/render"
)

// Kind identifies the classified purpose of a message.
type Kind string

const (
	None      Kind = "none"
	ListFiles Kind = "list_files"
	FetchFile Kind = "fetch_file"
	Export    Kind = "export"
)

// IsImport reports whether the kind is one of the SharePoint import kinds.
func (k Kind) IsImport() bool {
	return k == ListFiles || k == FetchFile
}

// Request is the outcome of classifying one message.
// TargetFilename is set only for FetchFile and Format only for Export.
type Request struct {
	Kind           Kind          `json:"kind"`
	TargetFilename string        `json:"target_filename,omitempty"`
	Format         render.Format `json:"format,omitempty"`
	RawMessage     string        `json:"-"`
	Rule           string        `json:"rule,omitempty"`
}

// Classify evaluates the rule table against text.
//
// Every rule that matches reports the offset where its last trigger token ends.
// When several rules match, the one ending nearest the end of the message wins,
// so "load a.pdf from sharepoint, then export it to word" is an export.
// Equal offsets fall back to table order.
func Classify(text string) Request {
	s := scan(text)

	best := Request{Kind: None, RawMessage: text}
	bestEnd := -1

	for _, rule := range rules {
		req, end, ok := rule.match(s)
		if !ok || end <= bestEnd {
			continue
		}
		req.RawMessage = text
		req.Rule = rule.Name
		best, bestEnd = req, end
	}

	return best
}
