package result

import "github.com/shopspring/decimal"

// GradeStep awards Point to any percent at or above Threshold.
type GradeStep struct {
	Threshold decimal.Decimal
	Point     decimal.Decimal
}

// Scale is ordered from the highest threshold down; the first step a percent
// reaches wins. Anything below the last threshold earns zero.
type Scale []GradeStep

var GradeScale = Scale{
	step("80", "4.00"),
	step("75", "3.67"),
	step("70", "3.33"),
	step("65", "3.00"),
	step("61", "2.67"),
	step("58", "2.33"),
	step("55", "2.00"),
	step("50", "1.67"),
	step("40", "1.00"),
}

func step(threshold, point string) GradeStep {
	return GradeStep{
		Threshold: decimal.RequireFromString(threshold),
		Point:     decimal.RequireFromString(point),
	}
}

// QualityPoint maps a percent score onto GradeScale.
func QualityPoint(percent decimal.Decimal) decimal.Decimal {
	return GradeScale.Lookup(percent)
}

func (s Scale) Lookup(percent decimal.Decimal) decimal.Decimal {
	for _, step := range s {
		if percent.GreaterThanOrEqual(step.Threshold) {
			return step.Point
		}
	}
	return decimal.Zero
}
