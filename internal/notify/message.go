package notify

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/markb/bcon/internal/model"
)

const unspecified = "Nespecificat"

var contactTemplate = template.Must(template.New("contact").Parse(`
<h2>Mesaj nou de pe website B-CON Consulting</h2>
<p><strong>Nume:</strong> {{.Name}}</p>
<p><strong>Email:</strong> {{.Email}}</p>
<p><strong>Telefon:</strong> {{.Phone}}</p>
<p><strong>Companie:</strong> {{.Company}}</p>
<p><strong>Mesaj:</strong></p>
<p>{{.Message}}</p>
<hr>
<p><small>Trimis la: {{.SentAt}}</small></p>
`))

// Message is a rendered notification email.
type Message struct {
	From    string
	To      []string
	Subject string
	HTML    string
}

// ContactMessage renders the notification for a contact form submission.
// Submitted text is HTML-escaped.
func ContactMessage(from, to string, c model.ContactMessage) (Message, error) {
	data := struct {
		Name, Email, Phone, Company, Message, SentAt string
	}{
		Name:    c.Name,
		Email:   c.Email,
		Phone:   orUnspecified(c.Phone),
		Company: orUnspecified(c.Company),
		Message: c.Message,
		SentAt:  c.CreatedAt.Format("02.01.2006 15:04"),
	}

	var buf bytes.Buffer
	if err := contactTemplate.Execute(&buf, data); err != nil {
		return Message{}, fmt.Errorf("failed to render contact email: %w", err)
	}
	return Message{
		From:    from,
		To:      []string{to},
		Subject: fmt.Sprintf("Mesaj nou de la %s - B-CON Website", c.Name),
		HTML:    buf.String(),
	}, nil
}

func orUnspecified(s string) string {
	if s == "" {
		return unspecified
	}
	return s
}
