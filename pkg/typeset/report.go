// report.go - Per-line layout outcomes and the image report.

package typeset

import "fmt"

// Status is the outcome of drawing one line.
type Status int

const (
	// StatusOK means the line drew on the first attempt with full coverage.
	StatusOK Status = iota
	// StatusDegraded means the line drew only on retry, or the font lacks
	// some of its glyphs.
	StatusDegraded
	// StatusSkipped means both attempts failed and nothing usable was drawn.
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusDegraded:
		return "degraded"
	case StatusSkipped:
		return "skipped"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// LineResult records what happened to one non-blank line.
type LineResult struct {
	Index  int    `json:"index"`
	Text   string `json:"text"`
	Status Status `json:"status"`
	Err    string `json:"error,omitempty"`
}

// Report summarizes the text pass of one image.
type Report struct {
	FontName     string       `json:"font"`
	FontSize     float64      `json:"font_size"`
	FontDegraded bool         `json:"font_degraded"`
	TextColor    string       `json:"text_color"`
	Lines        []LineResult `json:"lines"`
}

// Count returns how many lines ended with status s.
func (r *Report) Count(s Status) int {
	n := 0
	for _, l := range r.Lines {
		if l.Status == s {
			n++
		}
	}
	return n
}

// Skipped is the number of lines that could not be drawn.
func (r *Report) Skipped() int { return r.Count(StatusSkipped) }

// Degraded is the number of lines drawn with reduced fidelity.
func (r *Report) Degraded() int { return r.Count(StatusDegraded) }
