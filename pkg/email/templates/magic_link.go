package templates

import (
	"fmt"
	"time"
)

// MagicLinkData fills the login link email.
type MagicLinkData struct {
	AppName   string
	Email     string
	LoginURL  string
	ExpiresIn time.Duration
}

func humanDuration(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		if d == time.Hour {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", d/time.Hour)
	case d >= time.Minute:
		return fmt.Sprintf("%d minutes", d/time.Minute)
	default:
		return d.String()
	}
}
