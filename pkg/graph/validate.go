package graph

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var validate = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("reltype", func(fl validator.FieldLevel) bool {
		t, ok := fl.Field().Interface().(RelationshipType)
		return ok && t.Valid()
	})
	return v
})

// ValidationError lists every problem found by [Validate].
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid dataset: " + strings.Join(e.Problems, "; ")
}

// Validate checks a decoded dataset at the ingestion boundary. Renderers
// never call it; it exists for callers that want to reject bad data up
// front. It reports:
//
//   - field errors (empty ids, negative degrees, unknown relationship types)
//   - duplicate node ids
//   - links whose source or target is not a node id
//   - a max_degree below some node's degree
func Validate(d *Dataset) error {
	var problems []string

	if err := validate().Struct(d); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				problems = append(problems, formatFieldError(fe))
			}
		} else {
			problems = append(problems, err.Error())
		}
	}

	ids := make(map[string]bool, len(d.Nodes))
	for _, n := range d.Nodes {
		if ids[n.ID] {
			problems = append(problems, fmt.Sprintf("duplicate node id %q", n.ID))
		}
		ids[n.ID] = true
		if n.Degree > d.MaxDegree {
			problems = append(problems, fmt.Sprintf("node %q degree %d exceeds max_degree %d", n.ID, n.Degree, d.MaxDegree))
		}
	}

	for i, l := range d.Links {
		if l.Source != "" && !ids[l.Source] {
			problems = append(problems, fmt.Sprintf("links[%d] source %q is not a node", i, l.Source))
		}
		if l.Target != "" && !ids[l.Target] {
			problems = append(problems, fmt.Sprintf("links[%d] target %q is not a node", i, l.Target))
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func formatFieldError(e validator.FieldError) string {
	field := strings.TrimPrefix(e.Namespace(), "Dataset.")
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "reltype":
		return fmt.Sprintf("%s is not a relationship type", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
