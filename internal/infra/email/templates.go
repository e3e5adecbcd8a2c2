package email

import (
	"bytes"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/pkg/errors"
)

type templateName string

const (
	tmplVerification  templateName = "verification"
	tmplPasswordReset templateName = "password_reset"
	tmplOTP           templateName = "otp"
	tmplWelcome       templateName = "welcome"
	tmplApproved      templateName = "application_approved"
	tmplRejected      templateName = "application_rejected"
)

// mailData is the view passed to every template.
type mailData struct {
	Name    string
	Role    string
	Link    string
	Code    string
	Comment string
}

// rendered is a ready-to-send message body.
type rendered struct {
	Subject string
	Text    string
	HTML    string
}

type mailTemplate struct {
	subject *texttemplate.Template
	text    *texttemplate.Template
	html    *htmltemplate.Template
}

type templateSource struct {
	subject string
	text    string
	html    string
}

var templateSources = map[templateName]templateSource{ //nolint:gochecknoglobals
	tmplVerification: {
		subject: `Philbox - Verify Your {{.Role}} Account`,
		text:    "Hello {{.Name}},\n\nConfirm your email address by opening the link below. It expires in 24 hours.\n\n{{.Link}}\n",
		html:    `<p>Hello {{.Name}},</p><p>Confirm your email address by opening the link below. It expires in 24 hours.</p><p><a href="{{.Link}}">Verify email</a></p>`,
	},
	tmplPasswordReset: {
		subject: `Philbox - Reset {{.Role}} Password`,
		text:    "Hello {{.Name}},\n\nA password reset was requested for your account. The link below can be used once.\n\n{{.Link}}\n\nIf you did not ask for this, ignore this email.\n",
		html:    `<p>Hello {{.Name}},</p><p>A password reset was requested for your account. The link below can be used once.</p><p><a href="{{.Link}}">Reset password</a></p><p>If you did not ask for this, ignore this email.</p>`,
	},
	tmplOTP: {
		subject: `Philbox - {{.Role}} Login Verification`,
		text:    "Hello {{.Name}},\n\nYour login code is {{.Code}}. It expires in 5 minutes.\n",
		html:    `<p>Hello {{.Name}},</p><p>Your login code is <strong>{{.Code}}</strong>. It expires in 5 minutes.</p>`,
	},
	tmplWelcome: {
		subject: `Welcome to Philbox - Your {{.Role}} Account`,
		text:    "Hello {{.Name}},\n\nYour {{.Role}} account is ready.\n",
		html:    `<p>Hello {{.Name}},</p><p>Your {{.Role}} account is ready.</p>`,
	},
	tmplApproved: {
		subject: `Philbox - Your Doctor Application Has Been Approved`,
		text:    "Hello {{.Name}},\n\nYour application has been approved.\n{{if .Comment}}\nReviewer note: {{.Comment}}\n{{end}}\nSign in to complete your profile: {{.Link}}\n",
		html:    `<p>Hello {{.Name}},</p><p>Your application has been approved.</p>{{if .Comment}}<p>Reviewer note: {{.Comment}}</p>{{end}}<p><a href="{{.Link}}">Sign in to complete your profile</a></p>`,
	},
	tmplRejected: {
		subject: `Philbox - Application Status Update`,
		text:    "Hello {{.Name}},\n\nYour application was not approved.\n{{if .Comment}}\nReason: {{.Comment}}\n{{end}}\nYou can upload corrected documents and resubmit. Need help? {{.Link}}\n",
		html:    `<p>Hello {{.Name}},</p><p>Your application was not approved.</p>{{if .Comment}}<p>Reason: {{.Comment}}</p>{{end}}<p>You can upload corrected documents and resubmit. <a href="{{.Link}}">Contact support</a></p>`,
	},
}

// templateSet holds every parsed message template.
type templateSet map[templateName]*mailTemplate

func parseTemplates() (templateSet, error) {
	set := make(templateSet, len(templateSources))
	for name, src := range templateSources {
		subject, err := texttemplate.New(string(name) + ".subject").Parse(src.subject)
		if err != nil {
			return nil, errors.Wrapf(err, "parse %s subject", name)
		}
		text, err := texttemplate.New(string(name) + ".txt").Parse(src.text)
		if err != nil {
			return nil, errors.Wrapf(err, "parse %s text", name)
		}
		html, err := htmltemplate.New(string(name) + ".html").Parse(src.html)
		if err != nil {
			return nil, errors.Wrapf(err, "parse %s html", name)
		}
		set[name] = &mailTemplate{subject: subject, text: text, html: html}
	}

	return set, nil
}

func (s templateSet) render(name templateName, data mailData) (*rendered, error) {
	tmpl, ok := s[name]
	if !ok {
		return nil, errors.Errorf("unknown email template: %s", name)
	}

	var subject, text, html bytes.Buffer
	if err := tmpl.subject.Execute(&subject, data); err != nil {
		return nil, errors.Wrapf(err, "render %s subject", name)
	}
	if err := tmpl.text.Execute(&text, data); err != nil {
		return nil, errors.Wrapf(err, "render %s text", name)
	}
	if err := tmpl.html.Execute(&html, data); err != nil {
		return nil, errors.Wrapf(err, "render %s html", name)
	}

	return &rendered{
		Subject: strings.TrimSpace(subject.String()),
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}

// roleTitle renders an actor kind for subjects, e.g. "Salesperson".
func roleTitle(kind string) string {
	if kind == "" {
		return "User"
	}

	return strings.ToUpper(kind[:1]) + kind[1:]
}
