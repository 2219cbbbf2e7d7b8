// Package validator provides rule based input validation with translation
// keys, used for registration and login input.
//
// Rules are values; Apply evaluates all of them and returns every failure
// as ValidationErrors:
//
//	err := validator.Apply(
//	    validator.Required("email", email),
//	    validator.ValidEmail("email", email),
//	    validator.StrongPassword("password", pw, validator.DefaultPasswordStrength()),
//	)
//	if ve := validator.ExtractValidationErrors(err); ve != nil {
//	    for _, e := range ve {
//	        fmt.Println(e.Field, e.TranslationKey)
//	    }
//	}
package validator
