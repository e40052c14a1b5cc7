package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	appErrors "github.com/noah-isme/lakgs-api/pkg/errors"
)

// NewValidator returns a validator that reports fields by their json or form name.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	return v
}

// validationError lists every offending field of a validator error.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return appErrors.Wrap(err, appErrors.ErrValidation, "invalid payload")
	}
	reasons := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := reasons[fe.Field()]; !seen {
			reasons[fe.Field()] = fieldReason(fe)
		}
	}
	return appErrors.Fields(reasons)
}

func fieldReason(fe validator.FieldError) string {
	reason := fe.Tag()
	switch fe.Tag() {
	case "required", "required_unless":
		reason = "is required"
	case "max":
		reason = fmt.Sprintf("must be at most %s", fe.Param())
	case "min":
		reason = fmt.Sprintf("must be at least %s", fe.Param())
	case "oneof":
		reason = fmt.Sprintf("must be one of %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	}
	return reason
}
