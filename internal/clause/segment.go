package clause

import "strings"

// Section is a contiguous, numbered unit of contract text. Start and End are
// byte offsets into the normalized text; sections from one pass partition the
// text from the first header to the end with no gaps or overlaps.
type Section struct {
	Number string `json:"number"`
	Title  string `json:"title"`
	Text   string `json:"text"`
	Start  int    `json:"start"`
	End    int    `json:"end"`
}

// Segment cuts text into one Section per header. Each section spans from its
// own header's start offset to the next header's start offset, or to the end
// of the text for the last one. An empty header list yields an empty result;
// that is a signal ("no structural headers detected"), not an error.
func Segment(text string, headers []Header) []Section {
	if len(headers) == 0 {
		return nil
	}
	sections := make([]Section, 0, len(headers))
	for i, h := range headers {
		end := len(text)
		if i+1 < len(headers) {
			end = headers[i+1].Start
		}
		sections = append(sections, Section{
			Number: h.Number,
			Title:  h.Title,
			Text:   strings.TrimSpace(text[h.Start:end]),
			Start:  h.Start,
			End:    end,
		})
	}
	return sections
}
