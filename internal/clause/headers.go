package clause

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Header is a detected clause header candidate that survived filtering.
// Start is the byte offset of the match in the normalized text.
type Header struct {
	Start  int
	Number string
	Title  string
}

// Top-level: "1 Objeto", "2 Das Partes", "3: Condições...": 1-2 digits,
// optional dash/colon separator, then a title filling the rest of the line.
var topHeaderRe = regexp.MustCompile(`(?m)^\s*[-•]?\s*(\d{1,2})\s*[-–—:]?\s+(.{1,100})$`)

// Sub-clauses: "2.1", "2.6.1", etc.
var subHeaderRe = regexp.MustCompile(`(?m)^\s*[-•]?\s*((?:\d+\.)+\d+)\s+(.+)$`)

var sentenceEndRe = regexp.MustCompile(`[.:;!?]\s*$`)

// Short Portuguese stopwords that count as properly cased in titles.
var ptStopwords = map[string]bool{
	"de": true, "da": true, "do": true, "das": true, "dos": true,
	"e": true, "a": true, "o": true, "as": true, "os": true,
	"para": true, "por": true, "em": true, "no": true, "na": true,
	"nos": true, "nas": true, "um": true, "uma": true,
}

// FindTopHeaders scans normalized text for top-level clause headers.
// Bare "digit + text" lines are common as ordinary sentences, so every
// candidate passes through the probable-header filter before acceptance.
func FindTopHeaders(text string) []Header {
	var headers []Header

	lines := strings.Split(text, "\n")
	offsets := lineOffsets(lines)

	for _, m := range topHeaderRe.FindAllStringSubmatchIndex(text, -1) {
		start := m[0]
		idx := lineIndexAt(offsets, start)

		prevLine := ""
		if idx > 0 {
			prevLine = lines[idx-1]
		}
		nextLine := ""
		if idx+1 < len(lines) {
			nextLine = lines[idx+1]
		}

		num := strings.TrimSpace(text[m[2]:m[3]])
		title := strings.TrimSpace(text[m[4]:m[5]])

		if isProbableHeader(lines[idx], prevLine, nextLine, title) {
			headers = append(headers, Header{Start: start, Number: num, Title: title})
		}
	}

	sortHeaders(headers)
	return headers
}

// FindSubHeaders scans normalized text for dotted sub-clause headers
// ("2.1", "2.6.1", ...). The dotted format is a strong signal on its own,
// so the only rejection rule is terminal punctuation on the title.
func FindSubHeaders(text string) []Header {
	var headers []Header
	for _, m := range subHeaderRe.FindAllStringSubmatchIndex(text, -1) {
		num := strings.TrimSpace(text[m[2]:m[3]])
		title := strings.TrimSpace(text[m[4]:m[5]])
		if endsWithTerminalPunct(title) {
			continue
		}
		headers = append(headers, Header{Start: m[0], Number: num, Title: title})
	}
	sortHeaders(headers)
	return headers
}

// isProbableHeader decides whether a top-level candidate line is a real
// clause header, using the candidate line's neighbors and the title shape.
func isProbableHeader(line, prevLine, nextLine, title string) bool {
	if utf8.RuneCountInString(title) > 90 {
		return false
	}
	if endsWithTerminalPunct(title) {
		return false
	}

	spacedBlock := strings.TrimSpace(prevLine) == "" || strings.TrimSpace(nextLine) == ""
	looksUpper := upperRatio(title) >= 0.55
	looksTitlecase := titlecaseRatio(title) >= 0.7 && len(strings.Fields(title)) <= 10

	if spacedBlock || looksUpper || looksTitlecase {
		// A previous line that does not end a sentence means this match
		// probably landed mid-sentence due to line wrapping.
		if strings.TrimSpace(prevLine) != "" && !sentenceEndRe.MatchString(strings.TrimSpace(prevLine)) {
			if !(looksUpper || looksTitlecase) {
				return false
			}
		}
		return true
	}
	return false
}

func endsWithTerminalPunct(title string) bool {
	return strings.HasSuffix(title, ".") ||
		strings.HasSuffix(title, ";") ||
		strings.HasSuffix(title, ",")
}

// upperRatio returns the fraction of alphabetic runes that are uppercase.
func upperRatio(s string) float64 {
	letters, upper := 0, 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	if letters == 0 {
		return 0
	}
	return float64(upper) / float64(letters)
}

// titlecaseRatio returns the fraction of words that are either a short
// Portuguese stopword or start with an uppercase letter.
func titlecaseRatio(s string) float64 {
	words := strings.Fields(s)
	if len(words) == 0 {
		return 0
	}
	good := 0
	for _, w := range words {
		if ptStopwords[strings.ToLower(w)] {
			good++
			continue
		}
		r, _ := utf8.DecodeRuneInString(w)
		if unicode.IsUpper(r) {
			good++
		}
	}
	return float64(good) / float64(len(words))
}

// lineOffsets returns the byte offset of the start of each line.
func lineOffsets(lines []string) []int {
	offsets := make([]int, len(lines))
	off := 0
	for i, ln := range lines {
		offsets[i] = off
		off += len(ln) + 1 // +1 for '\n'
	}
	return offsets
}

// lineIndexAt maps an absolute byte offset to the index of the line that
// contains it, via binary search over the sorted line-start offsets.
func lineIndexAt(offsets []int, pos int) int {
	idx := sort.Search(len(offsets), func(i int) bool { return offsets[i] > pos }) - 1
	if idx < 0 {
		idx = 0
	}
	return idx
}

// Match iteration order is not guaranteed to be purely left-to-right once
// multi-line handling is involved, so sort before segmentation.
func sortHeaders(headers []Header) {
	sort.Slice(headers, func(i, j int) bool { return headers[i].Start < headers[j].Start })
}
