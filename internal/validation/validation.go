// Package validation проверяет входящие запросы через go-playground/validator
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	// MinPasswordLen минимальная длина пароля
	MinPasswordLen = 8
	// MaxPasswordLen максимальная длина пароля (argon2 не ограничивает, но тело запроса конечно)
	MaxPasswordLen = 128
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Struct проверяет структуру по тегам `validate` и возвращает первую ошибку
// в виде, пригодном для ответа клиенту
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fe := verrs[0]
	field := jsonName(fe)

	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", field)
	case "email":
		return fmt.Errorf("%s must be a valid email address", field)
	case "min":
		return fmt.Errorf("%s must be at least %s characters long", field, fe.Param())
	case "max":
		return fmt.Errorf("%s must not exceed %s characters", field, fe.Param())
	case "eqfield":
		return fmt.Errorf("%s does not match %s", field, toSnake(fe.Param()))
	case "nefield":
		return fmt.Errorf("%s must differ from %s", field, toSnake(fe.Param()))
	default:
		return fmt.Errorf("%s is invalid", field)
	}
}

// NormalizeEmail приводит email к каноническому виду: без пробелов, в нижнем регистре
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func jsonName(fe validator.FieldError) string {
	return toSnake(fe.Field())
}

// toSnake: PasswordConfirmation -> password_confirmation
func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
