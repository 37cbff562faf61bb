package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailTemplates_Render(t *testing.T) {
	templates := NewEmailTemplates()

	email, err := templates.Render(TemplateUserBlocked, map[string]string{
		"Name":   "Ana <Souza>",
		"Until":  "2024-06-22",
		"Reason": "Late return by 4 days",
	})
	require.NoError(t, err)

	assert.Equal(t, "Borrowing temporarily suspended", email.Subject)
	assert.Equal(t, "Hello Ana <Souza>, you cannot borrow books until 2024-06-22. Reason: Late return by 4 days.", email.PlainText)
	assert.Contains(t, email.HTML, "Ana &lt;Souza&gt;")
	assert.NotContains(t, email.HTML, "{{.")
}

func TestEmailTemplates_RenderLoanOverdue(t *testing.T) {
	email, err := NewEmailTemplates().Render(TemplateLoanOverdue, map[string]string{
		"Name":        "Ana",
		"LoanID":      "4",
		"DueDate":     "2024-06-12",
		"DaysOverdue": "3",
		"Amount":      "6.00",
	})
	require.NoError(t, err)

	assert.Equal(t, "Your library loan is overdue", email.Subject)
	assert.Contains(t, email.PlainText, "loan #4 was due on 2024-06-12 and is 3 day(s) late")
	assert.Contains(t, email.PlainText, "A fine of 6.00 was issued")
	assert.NotContains(t, email.HTML, "{{.")
}

func TestEmailTemplates_RenderErrors(t *testing.T) {
	templates := NewEmailTemplates()

	_, err := templates.Render("welcome", nil)
	assert.ErrorContains(t, err, "template not found")

	_, err = templates.Render(TemplateFineCreated, map[string]string{"Name": "Ana"})
	assert.ErrorContains(t, err, "missing variable")
}

func TestEmailTemplates_Set(t *testing.T) {
	templates := NewEmailTemplates()

	err := templates.Set(EmailTemplate{
		Name:      TemplateUserBlocked,
		Subject:   "Suspended",
		PlainText: "{{.Name}} is blocked until {{.Until}}",
		Variables: []string{"Name"},
	})
	assert.ErrorContains(t, err, "undeclared variables Until")

	require.NoError(t, templates.Set(EmailTemplate{
		Name:      TemplateUserBlocked,
		Subject:   "Suspended",
		PlainText: "{{.Name}} is blocked until {{.Until}}",
		Variables: []string{"Name", "Until"},
	}))

	email, err := templates.Render(TemplateUserBlocked, map[string]string{"Name": "Ana", "Until": "2024-06-22"})
	require.NoError(t, err)
	assert.Equal(t, "Ana is blocked until 2024-06-22", email.PlainText)

	assert.Error(t, templates.Set(EmailTemplate{Name: "empty"}))
}
