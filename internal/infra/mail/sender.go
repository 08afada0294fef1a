package mail

import (
	"bytes"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"
)

var proposalTmpl = template.Must(template.New("proposal").Parse(`
<p>Hi {{.Name}},</p>
<p>You have received a proposal: <strong>{{.Title}}</strong>.</p>
<p><a href="{{.Link}}">View the proposal</a></p>
`))

var bookingTmpl = template.Must(template.New("booking").Parse(`
<p>Hi {{.Name}},</p>
<p>Your appointment with {{.BusinessName}} on {{.Date}} at {{.Start}} is booked.</p>
<p>Confirmation code: <strong>{{.Code}}</strong></p>
`))

var refundTmpl = template.Must(template.New("refund").Parse(`
<p>Hi {{.Name}},</p>
<p>A refund of {{.Amount}} has been issued to your payment method.</p>
`))

var reminderTmpl = template.Must(template.New("reminder").Parse(`
<p>Hi {{.Name}},</p>
<p>It's time to follow up with {{.BusinessName}}.</p>
`))

func NewEmailSender(host string, port int, user, password, from string) *EmailSender {
	if from == "" {
		from = "no-reply@sitekick.app"
	}
	return &EmailSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		From:     from,
	}
}

func (s *EmailSender) SendProposal(to, name, title, link string) error {
	body, err := render(proposalTmpl, proposalEmailData{Name: name, Title: title, Link: link})
	if err != nil {
		return err
	}
	return s.send(to, fmt.Sprintf("Proposal: %s", title), body)
}

func (s *EmailSender) SendBookingConfirmation(to, name, businessName, code, date, start string) error {
	body, err := render(bookingTmpl, bookingEmailData{
		Name: name, BusinessName: businessName, Code: code, Date: date, Start: start,
	})
	if err != nil {
		return err
	}
	return s.send(to, "Your appointment is booked", body)
}

func (s *EmailSender) SendRefundNotice(to, name string, amountCents int64) error {
	amount := fmt.Sprintf("$%d.%02d", amountCents/100, amountCents%100)
	body, err := render(refundTmpl, refundEmailData{Name: name, Amount: amount})
	if err != nil {
		return err
	}
	return s.send(to, "Your refund has been issued", body)
}

func (s *EmailSender) SendFollowUpReminder(to, name, businessName string) error {
	body, err := render(reminderTmpl, reminderEmailData{Name: name, BusinessName: businessName})
	if err != nil {
		return err
	}
	return s.send(to, fmt.Sprintf("Follow up with %s", businessName), body)
}

func (s *EmailSender) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(s.Host, s.Port, s.User, s.Password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func render(t *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render email template: %w", err)
	}
	return buf.String(), nil
}
