package notify

import (
	"bytes"
	"fmt"
	"html/template"
)

// confirmationData feeds the applicant-facing confirmation email.
type confirmationData struct {
	ApplicantName   string
	ReferenceNumber string
	AmountDisplay   string
	StatusURL       string
}

// operatorData feeds the internal new-application notice.
type operatorData struct {
	ReferenceNumber string
	ApplicantName   string
	Email           string
	PassportNumber  string
	Nationality     string
	PaymentIntentID string
	AmountDisplay   string
}

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<html>
<body style="font-family: Arial, sans-serif; color: #1a1a2e;">
  <h2>Your UK ETA application has been received</h2>
  <p>Dear {{.ApplicantName}},</p>
  <p>Thank you for your application. Your payment of {{.AmountDisplay}} has been processed
  and your application has been submitted for review.</p>
  <p>Your reference number is:</p>
  <p style="font-size: 20px; font-weight: bold; letter-spacing: 1px;">{{.ReferenceNumber}}</p>
  <p>Keep this reference number safe. You can check the progress of your application at any time:</p>
  <p><a href="{{.StatusURL}}">{{.StatusURL}}</a></p>
  <p>You will need your reference number and the email address you applied with.</p>
  <p>Kind regards,<br>The UK ETA Application Team</p>
</body>
</html>`))

var operatorTmpl = template.Must(template.New("operator").Parse(`<html>
<body style="font-family: Arial, sans-serif;">
  <h3>New ETA application submitted</h3>
  <table cellpadding="4">
    <tr><td><b>Reference</b></td><td>{{.ReferenceNumber}}</td></tr>
    <tr><td><b>Applicant</b></td><td>{{.ApplicantName}}</td></tr>
    <tr><td><b>Email</b></td><td>{{.Email}}</td></tr>
    <tr><td><b>Passport</b></td><td>{{.PassportNumber}} ({{.Nationality}})</td></tr>
    <tr><td><b>Payment</b></td><td>{{.AmountDisplay}} ({{.PaymentIntentID}})</td></tr>
  </table>
</body>
</html>`))

var contactTmpl = template.Must(template.New("contact").Parse(`<html>
<body style="font-family: Arial, sans-serif;">
  <h3>New contact form message</h3>
  <p><b>From:</b> {{.Name}} &lt;{{.Email}}&gt;</p>
  {{if .Subject}}<p><b>Subject:</b> {{.Subject}}</p>{{end}}
  <p>{{.Message}}</p>
</body>
</html>`))

func renderTemplate(tmpl *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s template: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

// formatAmount renders minor currency units for display, e.g. 8150 gbp
// becomes "£81.50".
func formatAmount(amountMinor int64, currency string) string {
	symbol := currency + " "
	if currency == "gbp" || currency == "GBP" {
		symbol = "£"
	}
	return fmt.Sprintf("%s%d.%02d", symbol, amountMinor/100, amountMinor%100)
}
