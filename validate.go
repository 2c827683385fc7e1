package sapmodel

import (
	"errors"
	"fmt"
	"math"
	"strings"

	oaerrors "github.com/go-openapi/errors"
	"github.com/go-openapi/validate"
	"github.com/go-playground/validator/v10"
)

// structValidator is the package-level validator instance used for typed
// input records and configuration.
var structValidator = validator.New(validator.WithRequiredStructEnabled())

const argIn = "argument"

// validationFailure folds go-openapi validation results into one
// [KindValidation] error, or returns nil when there are none.
func validationFailure(cc CallContext, results ...*oaerrors.Validation) error {
	var errs []error
	for _, r := range results {
		if r != nil {
			errs = append(errs, r)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	composite := oaerrors.CompositeValidationError(errs...)
	msgs := make([]string, 0, len(composite.Errors))
	for _, e := range composite.Errors {
		msgs = append(msgs, e.Error())
	}
	return newError(KindValidation, cc, strings.Join(msgs, "; "), composite)
}

func validateName(cc CallContext, field, name string) error {
	return validationFailure(cc, validate.RequiredString(field, argIn, strings.TrimSpace(name)))
}

func validateIdentifiers(cc CallContext, field string, ids []string) error {
	results := []*oaerrors.Validation{
		validate.MinItems(field, argIn, int64(len(ids)), 1),
	}
	for i, id := range ids {
		results = append(results, validate.RequiredString(fmt.Sprintf("%s[%d]", field, i), argIn, strings.TrimSpace(id)))
	}
	results = append(results, validate.UniqueItems(field, argIn, ids))
	return validationFailure(cc, results...)
}

func validateFinite(cc CallContext, field string, values ...float64) error {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return validationError(cc, "%s must be a finite number, got %v", field, v)
		}
	}
	return nil
}

func validateRange(cc CallContext, field string, v, minimum, maximum float64) error {
	if err := validateFinite(cc, field, v); err != nil {
		return err
	}
	return validationFailure(cc,
		validate.Minimum(field, argIn, v, minimum, false),
		validate.Maximum(field, argIn, v, maximum, false),
	)
}

func validateEnum(cc CallContext, field string, v int, allowed []int) error {
	return validationFailure(cc, validate.Enum(field, argIn, v, allowed))
}

// validateStruct checks the `validate` tags of a typed input record.
func validateStruct(cc CallContext, v any) error {
	err := structValidator.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return newError(KindValidation, cc, err.Error(), err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
		}
	}
	return newError(KindValidation, cc, strings.Join(msgs, "; "), err)
}
