package templates_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authkit/pkg/email/templates"
)

func TestMagicLink(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		expires time.Duration
		want    string
	}{
		{"minutes", 15 * time.Minute, "expires in 15 minutes."},
		{"one hour", time.Hour, "expires in 1 hour."},
		{"hours", 3 * time.Hour, "expires in 3 hours."},
		{"seconds", 30 * time.Second, "expires in 30s."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			out, err := templates.Render(context.Background(), templates.MagicLink(templates.MagicLinkData{
				AppName:   "Acme",
				Email:     "user@example.com",
				LoginURL:  "https://app.example.com/verify?token=t",
				ExpiresIn: tt.expires,
			}))
			require.NoError(t, err)
			assert.Contains(t, out, tt.want)
		})
	}

	t.Run("escapes values", func(t *testing.T) {
		t.Parallel()
		out, err := templates.Render(context.Background(), templates.MagicLink(templates.MagicLinkData{
			AppName:   "<b>Acme</b>",
			Email:     "a&b@example.com",
			LoginURL:  "https://app.example.com/verify?a=1&token=t",
			ExpiresIn: time.Minute,
		}))
		require.NoError(t, err)
		assert.Contains(t, out, "Sign in to &lt;b&gt;Acme&lt;/b&gt;")
		assert.Contains(t, out, "<strong>a&amp;b@example.com</strong>")
		assert.Contains(t, out, `href="https://app.example.com/verify?a=1&amp;token=t"`)
		assert.NotContains(t, out, "<b>Acme</b>")
	})

	t.Run("unsafe scheme is neutralised", func(t *testing.T) {
		t.Parallel()
		out, err := templates.Render(context.Background(), templates.MagicLink(templates.MagicLinkData{
			AppName:  "Acme",
			LoginURL: "javascript:alert(1)",
		}))
		require.NoError(t, err)
		assert.NotContains(t, out, `href="javascript:`)
	})

	t.Run("canceled context", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := templates.Render(ctx, templates.MagicLink(templates.MagicLinkData{}))
		assert.ErrorIs(t, err, context.Canceled)
	})
}
