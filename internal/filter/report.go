package filter

import (
	"encoding/base64"
	"strings"

	"github.com/JaimeStill/docbridge/internal/chat"
	"github.com/JaimeStill/docbridge/internal/render"
)

const (
	ReportTitle = "Conversation Export"
	ReportName  = "conversation"

	// HeadingLimit is the number of characters of a user message kept as a heading.
	HeadingLimit = 100

	standaloneHeading = "Response"
)

// BuildReport turns the conversation into a report. Each user message opens a
// section whose body is the following assistant reply; a user message without
// a reply is dropped. The message at index skip is excluded.
func BuildReport(messages []chat.Message, skip int) render.Report {
	report := render.Report{Title: ReportTitle, Name: ReportName}

	var pending *render.Section
	for i, msg := range messages {
		if i == skip {
			continue
		}

		text := strings.TrimSpace(msg.Content.String())
		images := dataImages(msg.Content.Images())
		if text == "" && len(images) == 0 {
			continue
		}

		switch msg.Role {
		case chat.User:
			pending = &render.Section{Heading: heading(text)}
		case chat.Assistant:
			blocks := append(render.Blocks(text), images...)
			if pending != nil {
				pending.Blocks = blocks
				report.Sections = append(report.Sections, *pending)
				pending = nil
				continue
			}
			report.Sections = append(report.Sections, render.Section{Heading: standaloneHeading, Blocks: blocks})
		}
	}

	return report
}

func heading(text string) string {
	runes := []rune(text)
	if len(runes) <= HeadingLimit {
		return text
	}
	return string(runes[:HeadingLimit]) + "..."
}

// dataImages decodes base64 data URLs into image blocks. Remote URLs are skipped.
func dataImages(urls []string) []render.Block {
	var blocks []render.Block
	for _, u := range urls {
		header, payload, ok := strings.Cut(u, ",")
		if !ok || !strings.HasPrefix(header, "data:image/") || !strings.HasSuffix(header, ";base64") {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil || len(data) == 0 {
			continue
		}
		blocks = append(blocks, render.Image(data))
	}
	return blocks
}
