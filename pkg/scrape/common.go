package scrape

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	ErrNoResultTable    = errors.New("no result table on page")
	ErrInvalidRegNumber = errors.New("invalid registration number")
)

// FetchError wraps anything that went wrong while retrieving a result page.
type FetchError struct {
	RegNumber string
	Err       error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch result for %s: %v", e.RegNumber, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Registration numbers look like 2019-ag-1234
var regNumberR = regexp.MustCompile(`(?i)^\d{4}-ag-\d{1,6}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("regnum", func(fl validator.FieldLevel) bool {
		return regNumberR.MatchString(fl.Field().String())
	})
	return v
}

func ValidateRegNumber(regNumber string) error {
	if err := validate.Var(regNumber, "required,regnum"); err != nil {
		return fmt.Errorf("%w %q", ErrInvalidRegNumber, regNumber)
	}
	return nil
}
