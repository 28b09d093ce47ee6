// Package clause recovers the hierarchical clause structure of Brazilian
// legal documents from raw extracted text. It detects numbered section
// headers at two granularities (top-level "1", "2" and dotted sub-clauses
// "2.1", "2.6.1") with heuristics that reject body text merely starting
// with a digit, and cuts the text into contiguous sections.
//
// All functions are pure and safe for concurrent use.
package clause

// Options selects which granularity passes Extract computes.
type Options struct {
	TopLevel bool
	Sub      bool
}

// DefaultOptions computes both granularities.
func DefaultOptions() Options {
	return Options{TopLevel: true, Sub: true}
}

// Result holds the sections of each computed pass. The two partitions cover
// the same normalized text independently; they are not a tree. Associating a
// sub-clause with its parent section is the consumer's job, by offset
// containment.
type Result struct {
	Top []Section `json:"top"`
	Sub []Section `json:"sub"`
}

// Extract runs normalization, header detection and segmentation over raw
// document text. It never fails: unreadable or empty input degrades to empty
// section lists, which callers should treat as "fall back to whole-document
// analysis", not as an error.
func Extract(raw string, opts Options) Result {
	text := Normalize(raw)

	var res Result
	if opts.TopLevel {
		res.Top = Segment(text, FindTopHeaders(text))
	}
	if opts.Sub {
		res.Sub = Segment(text, FindSubHeaders(text))
	}
	return res
}
