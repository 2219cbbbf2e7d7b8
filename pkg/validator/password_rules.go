package validator

import (
	"strings"
	"unicode"
)

// PasswordStrengthConfig describes the accepted password shape.
type PasswordStrengthConfig struct {
	MinLength      int
	MaxLength      int
	MinCharClasses int // Of upper, lower, digit and symbol
}

// DefaultPasswordStrength returns 8-72 characters with two character classes.
// 72 is bcrypt's input limit.
func DefaultPasswordStrength() PasswordStrengthConfig {
	return PasswordStrengthConfig{
		MinLength:      8,
		MaxLength:      72,
		MinCharClasses: 2,
	}
}

func StrongPassword(field, value string, config PasswordStrengthConfig) Rule {
	return Rule{
		Check: func() bool {
			if len(value) < config.MinLength || (config.MaxLength > 0 && len(value) > config.MaxLength) {
				return false
			}
			var upper, lower, digit, symbol bool
			for _, r := range value {
				switch {
				case unicode.IsUpper(r):
					upper = true
				case unicode.IsLower(r):
					lower = true
				case unicode.IsDigit(r):
					digit = true
				default:
					symbol = true
				}
			}
			classes := 0
			for _, ok := range []bool{upper, lower, digit, symbol} {
				if ok {
					classes++
				}
			}
			return classes >= config.MinCharClasses
		},
		Error: ValidationError{
			Field:          field,
			Message:        "password does not meet strength requirements",
			TranslationKey: "validation.password_strength",
			TranslationValues: map[string]any{
				"field":     field,
				"min":       config.MinLength,
				"max":       config.MaxLength,
				"min_class": config.MinCharClasses,
			},
		},
	}
}

var commonPasswords = map[string]bool{
	"password": true, "password1": true, "password123": true, "12345678": true,
	"123456789": true, "1234567890": true, "qwerty123": true, "qwertyuiop": true,
	"iloveyou": true, "admin123": true, "welcome1": true, "letmein1": true,
	"abc12345": true, "football1": true, "monkey123": true, "passw0rd": true,
}

// NotCommonPassword rejects passwords from a short deny list.
func NotCommonPassword(field, value string) Rule {
	return Rule{
		Check: func() bool {
			return !commonPasswords[strings.ToLower(value)]
		},
		Error: ValidationError{
			Field:             field,
			Message:           "password is too common, please choose a different one",
			TranslationKey:    "validation.password_common",
			TranslationValues: map[string]any{"field": field},
		},
	}
}
