package result

import "fmt"

// ExtractionError reports a row sequence that is structurally unusable. It is
// never returned alongside a partial transcript.
type ExtractionError struct {
	Row    int // -1 when the whole input is at fault
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	msg := "extraction failed"
	if e.Row >= 0 {
		msg = fmt.Sprintf("%s at row %d", msg, e.Row)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}
