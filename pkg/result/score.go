package result

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Score is a grade-point average rendered to two fractional digits, or the
// NotComputable marker when no credit backs it.
type Score struct {
	value decimal.Decimal
	ok    bool
}

// NotComputable marks an average over zero total credit.
var NotComputable = Score{}

const notComputableText = "N/A"

func NewScore(d decimal.Decimal) Score {
	return Score{value: d.Round(2), ok: true}
}

// Ratio divides units by credit, yielding NotComputable when credit is zero.
func Ratio(units, credit decimal.Decimal) Score {
	if credit.IsZero() {
		return NotComputable
	}
	return NewScore(units.Div(credit))
}

func (s Score) Computable() bool {
	return s.ok
}

// Decimal returns the rounded value and whether it is computable.
func (s Score) Decimal() (decimal.Decimal, bool) {
	return s.value, s.ok
}

func (s Score) String() string {
	if !s.ok {
		return notComputableText
	}
	return s.value.StringFixed(2)
}

func (s Score) MarshalJSON() ([]byte, error) {
	if !s.ok {
		return []byte("null"), nil
	}
	return json.Marshal(s.String())
}

func (s *Score) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = NotComputable
		return nil
	}
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return err
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return err
	}
	*s = NewScore(d)
	return nil
}

// Render formats d with two fractional digits, rounding half away from zero.
func Render(d decimal.Decimal) string {
	return d.StringFixed(2)
}
