package domain

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Violation describes one invalid field of one item.
type Violation struct {
	Index int    `json:"index"`
	ID    string `json:"id"`
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

func (v Violation) String() string {
	return fmt.Sprintf("item %d (%q): %s violates %s", v.Index, v.ID, v.Field, v.Rule)
}

// ValidationError is returned when a dataset breaks the item invariants.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.String())
	}
	return "invalid dataset: " + strings.Join(parts, "; ")
}

// IsValidationError reports whether err wraps a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func itemValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// Validate checks field rules and id uniqueness over the whole dataset and
// reports every violation at once.
func (d *Dataset) Validate() error {
	var violations []Violation
	seen := make(map[string]int, len(d.Items))
	total := 0.0
	totalReported := false

	for i, it := range d.Items {
		if err := itemValidator().Struct(it); err != nil {
			var fieldErrs validator.ValidationErrors
			if !errors.As(err, &fieldErrs) {
				return fmt.Errorf("validate item %d: %w", i, err)
			}
			for _, fe := range fieldErrs {
				violations = append(violations, Violation{Index: i, ID: it.ID, Field: fe.Field(), Rule: ruleText(fe)})
			}
		}

		// the effective value and the running inventory total must stay
		// representable so every KPI and export can be rendered
		if v := it.EffectiveValue(); !isFinite(v) {
			violations = append(violations, Violation{Index: i, ID: it.ID, Field: "value", Rule: "finite"})
		} else if total += v; !isFinite(total) && !totalReported {
			violations = append(violations, Violation{Index: i, ID: it.ID, Field: "value", Rule: "total within range"})
			totalReported = true
		}

		if it.ID == "" {
			continue
		}
		if first, dup := seen[it.ID]; dup {
			violations = append(violations, Violation{Index: i, ID: it.ID, Field: "id", Rule: fmt.Sprintf("unique (first seen at item %d)", first)})
			continue
		}
		seen[it.ID] = i
	}

	index := BaseIndex
	for i, rate := range d.Inflation {
		if index *= 1 + rate/100; !isFinite(rate) || !isFinite(index) {
			violations = append(violations, Violation{Index: i, Field: "inflation", Rule: "index within range"})
			break
		}
	}

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}

func ruleText(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
