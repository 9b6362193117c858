package httpx

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError converts validator errors into a FieldErrors carrying
// per-field detail. Non-validator errors collapse to the bare sentinel.
func ValidationError(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return ErrValidation
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[strings.ToLower(fe.Field())] = "failed " + fe.Tag() + " validation"
	}
	return NewFieldErrors(fields)
}
