package rst

import "fmt"

// FigureCaptionError is returned when figure block text does not have
// "identifier: caption" form.
type FigureCaptionError struct {
	Page int
	Text string
}

func (e *FigureCaptionError) Error() string {
	return fmt.Sprintf("malformed figure caption on page %d, no field separator: %q", e.Page, e.Text)
}
