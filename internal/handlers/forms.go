package handlers

import (
	"net/url"
	"strings"

	"laserwave.studio/web/internal/attribution"
	"laserwave.studio/web/internal/leads"
)

// Form types rendered on the site.
const (
	FormLead     = leads.FormLead
	FormQuestion = "question"
)

// Form statuses shown after a submission.
const (
	FormOK   = "ok"
	FormFail = "fail"
)

// maxFieldLen caps a single submitted value.
const maxFieldLen = 2000

// formFields lists the inputs each form posts. Unknown inputs are dropped.
var formFields = map[string][]string{
	FormLead:     {"name", "phone", "zone", "comment", "promo", "consent"},
	FormQuestion: {"name", "contact", "question", "consent"},
}

// FormView is one lead form with its last submission status.
type FormView struct {
	Type      string
	Action    string
	Status    string
	MailtoURL string
	// Page is the path the form was rendered on.
	Page string
	// Lang and CSRFToken let the form render on its own as an htmx partial.
	Lang      string
	CSRFToken string
}

// NewFormView builds a form for kind; status is "", "ok" or "fail".
func NewFormView(kind, status string) FormView {
	if !KnownForm(kind) {
		kind = FormLead
	}
	switch status {
	case FormOK, FormFail:
	default:
		status = ""
	}
	return FormView{Type: kind, Action: "/forms/" + kind, Status: status}
}

func (f FormView) OK() bool     { return f.Status == FormOK }
func (f FormView) Failed() bool { return f.Status == FormFail }

// KnownForm reports whether kind is a rendered form type.
func KnownForm(kind string) bool {
	_, ok := formFields[kind]
	return ok
}

// SubmissionFrom collects the known fields of kind from a posted form.
// page is the path the form was posted from.
func SubmissionFrom(kind string, form url.Values, page string, utm attribution.Tags) leads.Submission {
	fields := map[string]string{}
	for _, name := range formFields[kind] {
		v := strings.TrimSpace(form.Get(name))
		if v == "" {
			continue
		}
		if r := []rune(v); len(r) > maxFieldLen {
			v = string(r[:maxFieldLen])
		}
		fields[name] = v
	}
	return leads.Submission{
		FormType: kind,
		Page:     SafeReturnPath(page),
		Fields:   fields,
		UTM:      utm,
	}
}

// SafeReturnPath keeps local absolute paths and maps everything else to "/".
func SafeReturnPath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return "/"
	}
	u, err := url.Parse(p)
	if err != nil || u.IsAbs() || u.Host != "" {
		return "/"
	}
	return u.Path
}
