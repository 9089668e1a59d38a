package middleware

import (
	"errors"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/forkful/forkful/backend/pkg/apperrors"
)

// BindJSON decodes the body into obj and runs its binding tags. On failure it
// records an InvalidInput error naming the first offending field and returns
// false.
func BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		Fail(c, bindError(err))
		return false
	}
	return true
}

func bindError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperrors.InvalidInput("malformed JSON body")
	}
	fe := verrs[0]
	field := jsonName(fe.Field())
	switch fe.Tag() {
	case "required":
		return apperrors.InvalidInput("%s is required", field)
	case "required_without":
		return apperrors.InvalidInput("%s or %s is required", field, jsonName(fe.Param()))
	case "min":
		return apperrors.InvalidInput("%s must be at least %s", field, fe.Param())
	case "max":
		return apperrors.InvalidInput("%s must be at most %s", field, fe.Param())
	default:
		return apperrors.InvalidInput("%s is invalid", field)
	}
}

// jsonName maps a Go field name to the camelCase key used on the wire.
func jsonName(field string) string {
	if field == "" {
		return field
	}
	r := []rune(field)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}
