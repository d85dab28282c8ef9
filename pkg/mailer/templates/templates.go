package templates

import (
	"bytes"
	"fmt"
	htmpl "html/template"
	texttpl "text/template"
)

// Security-notification templates. Each entry renders from the EmailJob.Data
// map; Name and Time are the only fields every caller is expected to set.

const (
	PasswordChanged   = "password_changed"
	TwoFactorEnabled  = "two_factor_enabled"
	TwoFactorDisabled = "two_factor_disabled"
	LoginNotification = "login_notification"
)

type def struct {
	subject string
	text    string
	html    string
}

var registry = map[string]def{
	PasswordChanged: {
		subject: "Your password was changed",
		text:    "Hi {{.Name}},\n\nYour account password was changed at {{.Time}}. If this wasn't you, reset your password immediately.\n",
		html:    "<p>Hi {{.Name}},</p><p>Your account password was changed at <strong>{{.Time}}</strong>. If this wasn't you, reset your password immediately.</p>",
	},
	TwoFactorEnabled: {
		subject: "Two-factor authentication enabled",
		text:    "Hi {{.Name}},\n\nTwo-factor authentication was enabled on your account at {{.Time}}. Codes from your authenticator app are now required to sign in.\n",
		html:    "<p>Hi {{.Name}},</p><p>Two-factor authentication was enabled on your account at <strong>{{.Time}}</strong>. Codes from your authenticator app are now required to sign in.</p>",
	},
	TwoFactorDisabled: {
		subject: "Two-factor authentication disabled",
		text:    "Hi {{.Name}},\n\nTwo-factor authentication was disabled on your account at {{.Time}}. If this wasn't you, secure your account now.\n",
		html:    "<p>Hi {{.Name}},</p><p>Two-factor authentication was disabled on your account at <strong>{{.Time}}</strong>. If this wasn't you, secure your account now.</p>",
	},
	LoginNotification: {
		subject: "New login to your account",
		text:    "Hi {{.Name}},\n\nA new login to your account happened at {{.Time}} from {{.IP}}.\n",
		html:    "<p>Hi {{.Name}},</p><p>A new login to your account happened at <strong>{{.Time}}</strong> from {{.IP}}.</p>",
	},
}

// Render renders a named template with data and returns subject, text, and
// html bodies.
func Render(name string, data map[string]any) (subject, text, html string, err error) {
	d, ok := registry[name]
	if !ok {
		return "", "", "", fmt.Errorf("unknown email template %q", name)
	}

	tt, err := texttpl.New(name).Parse(d.text)
	if err != nil {
		return "", "", "", err
	}
	var tb bytes.Buffer
	if err := tt.Execute(&tb, data); err != nil {
		return "", "", "", err
	}

	ht, err := htmpl.New(name).Parse(d.html)
	if err != nil {
		return "", "", "", err
	}
	var hb bytes.Buffer
	if err := ht.Execute(&hb, data); err != nil {
		return "", "", "", err
	}

	return d.subject, tb.String(), hb.String(), nil
}
