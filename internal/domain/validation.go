package domain

import (
	"errors"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// FromValidation converts ozzo-validation field errors into a ValidationError.
// Rule error codes become violation keys. Other errors are returned unchanged.
func FromValidation(err error) error {
	if err == nil {
		return nil
	}

	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	fields := make([]string, 0, len(fieldErrs))
	for field := range fieldErrs {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	out := &ValidationError{}
	for _, field := range fields {
		fe := fieldErrs[field]
		v := Violation{Key: "Invalid", Field: field, Message: fe.Error()}

		var ruleErr validation.Error
		if errors.As(fe, &ruleErr) {
			v.Key = ruleErr.Code()
			v.Message = ruleErr.Message()
			if limit, ok := ruleErr.Params()["limit"].(int); ok {
				v.Limit = limit
			}
		}
		out.Violations = append(out.Violations, v)
	}

	if len(out.Violations) == 1 {
		out.Message = out.Violations[0].Message
	}
	return out
}

// Rule builds an ozzo error object that carries a domain key.
func Rule(key, message string) validation.Error {
	return validation.NewError(key, message)
}
