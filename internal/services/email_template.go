package services

import (
	"fmt"
	"html"
	"strings"
)

const (
	TemplateFineCreated = "fine_created"
	TemplateUserBlocked = "user_blocked"
	TemplateLoanOverdue = "loan_overdue"
)

// EmailTemplate is a named message with {{.Var}} placeholders.
type EmailTemplate struct {
	Name      string
	Subject   string
	PlainText string
	HTML      string
	Variables []string
}

// RenderedEmail is a template after substitution.
type RenderedEmail struct {
	Subject   string
	PlainText string
	HTML      string
}

// EmailTemplates holds the notification templates by name.
type EmailTemplates struct {
	templates map[string]EmailTemplate
}

// NewEmailTemplates returns the built-in fine, overdue and block templates.
func NewEmailTemplates() *EmailTemplates {
	t := &EmailTemplates{templates: make(map[string]EmailTemplate)}
	t.loadDefaultTemplates()
	return t
}

func (t *EmailTemplates) loadDefaultTemplates() {
	t.templates[TemplateFineCreated] = EmailTemplate{
		Name:      TemplateFineCreated,
		Subject:   "A library fine was issued",
		PlainText: "Hello {{.Name}}, a fine of {{.Amount}} was issued for loan #{{.LoanID}} (due {{.DueDate}}).",
		HTML:      "<p>Hello {{.Name}},</p><p>A fine of <strong>{{.Amount}}</strong> was issued for loan #{{.LoanID}} (due {{.DueDate}}).</p>",
		Variables: []string{"Name", "Amount", "LoanID", "DueDate"},
	}
	t.templates[TemplateLoanOverdue] = EmailTemplate{
		Name:      TemplateLoanOverdue,
		Subject:   "Your library loan is overdue",
		PlainText: "Hello {{.Name}}, loan #{{.LoanID}} was due on {{.DueDate}} and is {{.DaysOverdue}} day(s) late. A fine of {{.Amount}} was issued. Please return the book as soon as possible.",
		HTML:      "<p>Hello {{.Name}},</p><p>Loan #{{.LoanID}} was due on {{.DueDate}} and is <strong>{{.DaysOverdue}} day(s)</strong> late.</p><p>A fine of <strong>{{.Amount}}</strong> was issued. Please return the book as soon as possible.</p>",
		Variables: []string{"Name", "LoanID", "DueDate", "DaysOverdue", "Amount"},
	}
	t.templates[TemplateUserBlocked] = EmailTemplate{
		Name:      TemplateUserBlocked,
		Subject:   "Borrowing temporarily suspended",
		PlainText: "Hello {{.Name}}, you cannot borrow books until {{.Until}}. Reason: {{.Reason}}.",
		HTML:      "<p>Hello {{.Name}},</p><p>You cannot borrow books until <strong>{{.Until}}</strong>.</p><p>Reason: {{.Reason}}.</p>",
		Variables: []string{"Name", "Until", "Reason"},
	}
}

// Set adds or replaces a template after checking its placeholders.
func (t *EmailTemplates) Set(tmpl EmailTemplate) error {
	if tmpl.Name == "" {
		return fmt.Errorf("template name is required")
	}
	if tmpl.Subject == "" || tmpl.PlainText == "" {
		return fmt.Errorf("template %s: subject and plain text are required", tmpl.Name)
	}
	if missing := undeclaredVariables(tmpl); len(missing) > 0 {
		return fmt.Errorf("template %s: undeclared variables %s", tmpl.Name, strings.Join(missing, ", "))
	}
	t.templates[tmpl.Name] = tmpl
	return nil
}

// Render substitutes data into the named template. Values are HTML-escaped
// in the HTML part only.
func (t *EmailTemplates) Render(name string, data map[string]string) (*RenderedEmail, error) {
	tmpl, ok := t.templates[name]
	if !ok {
		return nil, fmt.Errorf("template not found: %s", name)
	}

	for _, v := range tmpl.Variables {
		if _, ok := data[v]; !ok {
			return nil, fmt.Errorf("template %s: missing variable %s", name, v)
		}
	}

	return &RenderedEmail{
		Subject:   processTemplate(tmpl.Subject, data, false),
		PlainText: processTemplate(tmpl.PlainText, data, false),
		HTML:      processTemplate(tmpl.HTML, data, true),
	}, nil
}

func processTemplate(text string, data map[string]string, escape bool) string {
	pairs := make([]string, 0, len(data)*2)
	for key, value := range data {
		if escape {
			value = html.EscapeString(value)
		}
		pairs = append(pairs, "{{."+key+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

func undeclaredVariables(tmpl EmailTemplate) []string {
	declared := make(map[string]bool, len(tmpl.Variables))
	for _, v := range tmpl.Variables {
		declared[v] = true
	}

	var missing []string
	seen := make(map[string]bool)
	for _, text := range []string{tmpl.Subject, tmpl.PlainText, tmpl.HTML} {
		rest := text
		for {
			start := strings.Index(rest, "{{.")
			if start < 0 {
				break
			}
			end := strings.Index(rest[start:], "}}")
			if end < 0 {
				break
			}
			name := rest[start+3 : start+end]
			if !declared[name] && !seen[name] {
				missing = append(missing, name)
				seen[name] = true
			}
			rest = rest[start+end+2:]
		}
	}
	return missing
}
