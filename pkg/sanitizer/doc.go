// Package sanitizer normalises user supplied credential identifiers before
// they are used as lookup keys, and masks them for log output.
//
//	email := sanitizer.NormalizeEmail("  John..Doe@Example.COM ") // "john.doe@example.com"
//	masked := sanitizer.MaskEmail(email)                            // "j******e@example.com"
package sanitizer
