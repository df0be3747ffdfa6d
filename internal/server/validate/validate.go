// Package validate checks decoded request bodies against their struct
// tags in one pass and reports every violation.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Category groups violations the way clients need to tell them apart.
type Category int

const (
	CategoryMissing Category = iota + 1
	CategoryLength
	CategoryType
)

// Violation is one failed rule on one field. Field is the JSON name.
type Violation struct {
	Field string
	Rule  string
	Param string
}

func (v Violation) String() string {
	if v.Param == "" {
		return fmt.Sprintf("%s: %s", v.Field, v.Rule)
	}
	return fmt.Sprintf("%s: %s=%s", v.Field, v.Rule, v.Param)
}

func (v Violation) Category() Category {
	switch v.Rule {
	case "required":
		return CategoryMissing
	case "max", "min", "len":
		return CategoryLength
	default:
		return CategoryType
	}
}

// Error lists all violations of a request.
type Error struct {
	Violations []Violation
}

func (e *Error) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return "invalid request: " + strings.Join(parts, "; ")
}

// Category returns the most significant category present: a missing field
// outranks a bad length, which outranks a bad type.
func (e *Error) Category() Category {
	best := CategoryType
	for _, v := range e.Violations {
		if c := v.Category(); c < best {
			best = c
		}
	}
	return best
}

var (
	once     sync.Once
	instance *validator.Validate
)

func get() *validator.Validate {
	once.Do(func() {
		instance = validator.New(validator.WithRequiredStructEnabled())
		instance.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
	return instance
}

// Struct validates s. It returns nil or an *Error.
func Struct(s any) error {
	err := get().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := &Error{Violations: make([]Violation, 0, len(verrs))}
	for _, fe := range verrs {
		out.Violations = append(out.Violations, Violation{Field: fe.Field(), Rule: fe.Tag(), Param: fe.Param()})
	}
	return out
}
