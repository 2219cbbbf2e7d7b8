package i18n

import "errors"

var (
	ErrFailedToReadFile  = errors.New("failed to read translation file")
	ErrFailedToParseYAML = errors.New("failed to parse YAML content")
	ErrNoTranslations    = errors.New("no translations found")
	ErrInvalidLanguage   = errors.New("invalid language tag")
)
