package mailer

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/vaultmeet/vaultmeet/internal/model"
)

const (
	SubjectApproval  = "We've Received Your Application – VaultMeet"
	SubjectRejection = "Update on Your VaultMeet Application"
)

var approvalTmpl = template.Must(template.New("approval").Parse(`
<div style="font-family: Arial, sans-serif; font-size: 16px; color: #333;">
  <p>Hi <strong>{{.Name}}</strong>,</p>

  <p>Thank you for applying on <strong>VaultMeet</strong> and completing your payment.</p>

  <p>We've received your application and our team is currently reviewing your submission to ensure everything meets our matching criteria.</p>

  <p><strong>What happens next:</strong></p>
  <ul>
    <li>Your profile will be reviewed within 24–48 hours.</li>
    <li>Once approved, we'll match you with a verified candidate (Seeker/Sponsor).</li>
    <li>You'll receive an invitation via email to schedule your confidential session.</li>
  </ul>

  <p>You're one step closer to finding the right connection!</p>

  <p>If you have any questions or need support, feel free to reply to this email or contact our support team at <a href="mailto:vaultmeet@gmail.com">vaultmeet@gmail.com</a>.</p>

  <p>Warm regards, <br/><strong>VaultMeet Team</strong></p>

  <p style="font-size: 14px; color: #777;">
    Confidential. Secure. Curated Connections.
  </p>
</div>
`))

var rejectionTmpl = template.Must(template.New("rejection").Parse(`
<div style="font-family: Arial, sans-serif; font-size: 16px; color: #333;">
  <p>Hi <strong>{{.Name}}</strong>,</p>

  <p>Thank you for your interest in <strong>VaultMeet</strong> and for submitting your application.</p>

  <p>After a thorough review by our team, we've found that the payment proof submitted with your application could not be verified as valid.</p>

  <p>We take the integrity of our platform seriously and ensure every submission meets our verification standards. Unfortunately, based on our checks, your payment documentation did not meet the required authenticity criteria.</p>

  <p>If you believe this was a mistake or would like to submit a valid proof of payment for reconsideration, you're welcome to reply to this email or contact our team directly at <a href="mailto:vaultmeet@gmail.com">vaultmeet@gmail.com</a>.</p>

  <p>We appreciate your understanding and encourage transparency and honesty in all applications.</p>

  <p>Warm regards,<br/><strong>VaultMeet Team</strong></p>

  <p style="font-size: 14px; color: #777;">
    Confidential. Secure. Curated Connections.
  </p>
</div>
`))

// Email is the rendered message handed to providers.
type Email struct {
	From    string `json:"from,omitempty"`
	To      string `json:"to"`
	Name    string `json:"name"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Render fills the template for the given kind with the recipient's
// display name and returns the ready-to-send email.
func Render(tmpl model.Template, to, name string) (Email, error) {
	var t *template.Template
	var subject string

	switch tmpl {
	case model.TemplateApproval:
		t, subject = approvalTmpl, SubjectApproval
	case model.TemplateRejection:
		t, subject = rejectionTmpl, SubjectRejection
	default:
		return Email{}, fmt.Errorf("unknown template %q", tmpl)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, struct{ Name string }{Name: name}); err != nil {
		return Email{}, err
	}

	return Email{To: to, Name: name, Subject: subject, HTML: buf.String()}, nil
}
