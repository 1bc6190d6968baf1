package intent

import (
	"regexp"
	"slices"
	"strings"

	"github.com/JaimeStill/docbridge/internal/render"
)

// Vocabulary is the complete trigger vocabulary used by the rule table.
type Vocabulary struct {
	ImportVerbs  []string
	FetchVerbs   []string
	ListPhrases  []string
	ExportVerbs  []string
	FormatTokens map[string]render.Format
	Extensions   []string
}

var vocabulary = Vocabulary{
	ImportVerbs: []string{"import", "browse", "list", "load", "show", "get", "download", "fetch", "open"},
	FetchVerbs:  []string{"import", "load", "show", "get", "download", "fetch", "open"},
	ListPhrases: []string{"browse sharepoint", "list sharepoint files", "list files", "list sharepoint"},
	ExportVerbs: []string{"export", "create", "make", "generate", "save", "convert"},
	FormatTokens: map[string]render.Format{
		"pdf":  render.PDF,
		"docx": render.DOCX,
		"word": render.DOCX,
	},
	Extensions: []string{"pdf", "docx", "doc", "pptx", "ppt", "xlsx", "xls", "csv", "txt", "md", "png", "jpg", "jpeg", "gif"},
}

// Triggers returns a copy of the trigger vocabulary.
func Triggers() Vocabulary {
	v := vocabulary
	v.ImportVerbs = slices.Clone(v.ImportVerbs)
	v.FetchVerbs = slices.Clone(v.FetchVerbs)
	v.ListPhrases = slices.Clone(v.ListPhrases)
	v.ExportVerbs = slices.Clone(v.ExportVerbs)
	v.Extensions = slices.Clone(v.Extensions)
	v.FormatTokens = make(map[string]render.Format, len(vocabulary.FormatTokens))
	for k, f := range vocabulary.FormatTokens {
		v.FormatTokens[k] = f
	}
	return v
}

var (
	sharepointPattern = regexp.MustCompile(`\bsharepoint\b`)
	importPattern     = wordsPattern(vocabulary.ImportVerbs)
	fetchPattern      = wordsPattern(vocabulary.FetchVerbs)
	listPattern       = phrasePattern(vocabulary.ListPhrases)
	exportPattern     = wordsPattern(vocabulary.ExportVerbs)
	formatPattern     = wordsPattern([]string{"pdf", "docx", "word"})

	quotedFilePattern = regexp.MustCompile(`["'“‘]([^"'“”‘’\n]+\.(?i:` + strings.Join(vocabulary.Extensions, "|") + `))["'”’]`)
	filePattern       = regexp.MustCompile(`(` + nameChars + `+(?:\.` + nameChars + `+)*\.(?i:` + strings.Join(vocabulary.Extensions, "|") + `))(?:[^\p{L}\p{M}\p{N}_]|$)`)
)

// nameChars is the filename character class. It is Unicode-aware, unlike \w.
const nameChars = `[\p{L}\p{M}\p{N}_-]`

func wordsPattern(words []string) *regexp.Regexp {
	return regexp.MustCompile(`\b(?:` + strings.Join(words, "|") + `)\b`)
}

func phrasePattern(phrases []string) *regexp.Regexp {
	parts := make([]string, len(phrases))
	for i, p := range phrases {
		parts[i] = strings.ReplaceAll(regexp.QuoteMeta(p), " ", `\s+`)
	}
	return regexp.MustCompile(`\b(?:` + strings.Join(parts, "|") + `)\b`)
}

// scanned holds one message prepared for rule evaluation.
// Offsets refer to lower, which is also where filename spans were found.
type scanned struct {
	original  string
	lower     string
	filename  string
	fileSpans [][]int
}

func scan(text string) scanned {
	s := scanned{
		original: text,
		lower:    strings.ToLower(text),
	}

	for _, m := range filePattern.FindAllStringSubmatchIndex(s.lower, -1) {
		s.fileSpans = append(s.fileSpans, m[2:4])
	}
	for _, span := range quotedFilePattern.FindAllStringIndex(s.lower, -1) {
		s.fileSpans = append(s.fileSpans, span)
	}

	if m := quotedFilePattern.FindStringSubmatch(text); m != nil {
		s.filename = strings.TrimSpace(m[1])
	} else if m := filePattern.FindStringSubmatch(text); m != nil {
		s.filename = m[1]
	}

	return s
}

// insideFilename reports whether [start,end) overlaps a filename token.
func (s scanned) insideFilename(start, end int) bool {
	for _, span := range s.fileSpans {
		if start < span[1] && end > span[0] {
			return true
		}
	}
	return false
}

func lastEnd(re *regexp.Regexp, text string) int {
	matches := re.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return -1
	}
	return matches[len(matches)-1][1]
}

// Rule is one entry of the ordered classification table.
type Rule struct {
	Name  string
	match func(s scanned) (Request, int, bool)
}

// Rules returns the rule names in priority order.
func Rules() []string {
	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.Name
	}
	return names
}

var rules = []Rule{
	{Name: "export", match: matchExport},
	{Name: "sharepoint-list", match: matchList},
	{Name: "sharepoint-fetch", match: matchFetch},
}

// matchExport needs an export verb followed later by a format token.
// Extensions of filename tokens such as report.pdf are not format tokens.
func matchExport(s scanned) (Request, int, bool) {
	verb := exportPattern.FindStringIndex(s.lower)
	if verb == nil {
		return Request{}, 0, false
	}

	var format render.Format
	end := -1
	for _, m := range formatPattern.FindAllStringIndex(s.lower[verb[1]:], -1) {
		start, stop := m[0]+verb[1], m[1]+verb[1]
		if s.insideFilename(start, stop) {
			continue
		}
		format = vocabulary.FormatTokens[s.lower[start:stop]]
		end = stop
	}

	if end < 0 {
		return Request{}, 0, false
	}
	return Request{Kind: Export, Format: format}, end, true
}

// importEnd returns where the import triggers end, or -1 when the message
// lacks either the sharepoint token or an import verb.
func importEnd(s scanned) int {
	sp := lastEnd(sharepointPattern, s.lower)
	verb := lastEnd(importPattern, s.lower)
	if sp < 0 || verb < 0 {
		return -1
	}
	return max(sp, verb)
}

// wantsListing reports whether an import message should list the folder
// instead of fetching a named file.
func (s scanned) wantsListing() bool {
	return s.filename == "" || listPattern.MatchString(s.lower) || !fetchPattern.MatchString(s.lower)
}

// matchList covers explicit listing phrases and import wording without a filename.
func matchList(s scanned) (Request, int, bool) {
	end := importEnd(s)
	if end < 0 || !s.wantsListing() {
		return Request{}, 0, false
	}
	return Request{Kind: ListFiles}, end, true
}

// matchFetch needs a fetch verb and a filename token; the filename keeps its case.
func matchFetch(s scanned) (Request, int, bool) {
	end := importEnd(s)
	if end < 0 || s.wantsListing() {
		return Request{}, 0, false
	}
	return Request{Kind: FetchFile, TargetFilename: s.filename}, end, true
}
