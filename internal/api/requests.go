package api

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/AbaeNeupane/Placement-Assistance/internal/ranker"
	"github.com/AbaeNeupane/Placement-Assistance/internal/recommender"
)

// RecommendRequest is the body of POST /api/v1/recommendations.
type RecommendRequest struct {
	Skills   string  `json:"skills" validate:"required_without=Title,max=8192"`
	Title    string  `json:"title" validate:"required_without=Skills,max=1024"`
	Years    float64 `json:"years" validate:"gte=0,lte=60"`
	Username string  `json:"username,omitempty" validate:"omitempty,max=255"`
}

func (r RecommendRequest) query() recommender.Query {
	return recommender.Query{Skills: r.Skills, Title: r.Title, Years: r.Years}
}

// RankJob is the posting half of a RankRequest.
type RankJob struct {
	Skills     string `json:"skills" validate:"required_without=Title,max=8192"`
	Title      string `json:"title" validate:"required_without=Skills,max=1024"`
	Experience string `json:"experience" validate:"max=256"`
}

// RankRequest is the body of POST /api/v1/rankings. Candidates are loosely
// shaped records; see ranker.FromFields for the accepted field names.
type RankRequest struct {
	Job        RankJob          `json:"job"`
	Candidates []map[string]any `json:"candidates" validate:"required"`
	TopN       int              `json:"top_n" validate:"gte=0"`
}

func (r RankRequest) job() ranker.Job {
	return ranker.Job{Skills: r.Job.Skills, Title: r.Job.Title, Experience: r.Job.Experience}
}

// ApplyRequest is the body of POST /api/v1/jobs/{id}/applications.
type ApplyRequest struct {
	Username string `json:"username" validate:"required,max=255"`
}

// ValidationError holds per-field validation failure messages, keyed by the
// JSON path of the field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		keys = append(keys, field)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, field := range keys {
		parts = append(parts, fmt.Sprintf("%s:%s", field, e.Fields[field]))
	}
	return strings.Join(parts, "; ")
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// validateStruct runs the struct tags on req and converts failures into a
// ValidationError.
func validateStruct(v *validator.Validate, req any) error {
	err := v.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	fields := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields[fieldPath(fe)] = describe(fe)
	}
	return &ValidationError{Fields: fields}
}

// fieldPath drops the root struct name from the namespace, leaving the JSON
// path ("job.skills").
func fieldPath(fe validator.FieldError) string {
	if _, rest, ok := strings.Cut(fe.Namespace(), "."); ok {
		return rest
	}
	return fe.Field()
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_without":
		return fmt.Sprintf("is required when %s is empty", strings.ToLower(fe.Param()))
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
