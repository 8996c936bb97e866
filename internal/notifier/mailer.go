package notifier

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/textproto"
	"time"

	"github.com/wneessen/go-mail"
)

// dialTimeout bounds an SMTP session when the caller's context has no deadline.
const dialTimeout = 30 * time.Second

// MailerConfig holds SMTP settings.
type MailerConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	BaseURL  string
}

// SendFunc delivers a composed message.
type SendFunc func(ctx context.Context, msg *mail.Msg) error

// Mailer sends notifications over SMTP.
type Mailer struct {
	cfg  MailerConfig
	send SendFunc
}

// NewMailer creates a Mailer that dials the configured SMTP server for every message.
func NewMailer(cfg MailerConfig) *Mailer {
	m := &Mailer{cfg: cfg}
	m.send = m.dialAndSend
	return m
}

// WithSendFunc replaces the SMTP transport, mainly for tests.
func (m *Mailer) WithSendFunc(send SendFunc) *Mailer {
	m.send = send
	return m
}

var bodies = map[Kind]*template.Template{
	KindRegistration: template.Must(template.New("registro").Parse(
		`<p>Hola {{.Name}}, has creado tu cuenta en bienes raices exitosamente, por favor presiona en el siguiente enlace para completar tu confirmación:
<a href="{{.Link}}">Haz click aquí</a></p>`)),
	KindPasswordReset: template.Must(template.New("olvide-password").Parse(
		`<p>Hola {{.Name}}, has perdido tu contraseña en bienes raices, por favor presiona en el siguiente enlace para reestablecerla:
<a href="{{.Link}}">Haz click aquí</a></p>`)),
}

func subject(msg Message) string {
	if msg.Kind == KindPasswordReset {
		return fmt.Sprintf("Hola %s, parece que has perdido tu contraseña", msg.Name)
	}
	return fmt.Sprintf("Hola %s, confirma tu cuenta", msg.Name)
}

// Compose builds the email for msg.
func (m *Mailer) Compose(msg Message) (*mail.Msg, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	out := mail.NewMsg()
	if err := out.From(m.cfg.From); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", m.cfg.From, err)
	}
	if err := out.AddToFormat(msg.Name, msg.Email); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", msg.Email, err)
	}
	out.Subject(subject(msg))
	out.SetDate()

	data := struct{ Name, Link string }{msg.Name, Link(m.cfg.BaseURL, msg)}
	if err := out.SetBodyHTMLTemplate(bodies[msg.Kind], data); err != nil {
		return nil, fmt.Errorf("failed to render %s email: %w", msg.Kind, err)
	}
	return out, nil
}

// Send composes and delivers msg. It returns once ctx is done even if the
// server stops answering.
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	out, err := m.Compose(msg)
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() { done <- m.send(ctx, out) }()

	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		return fmt.Errorf("failed to send %s email to %s: %w", msg.Kind, msg.Email, err)
	}
	log.Printf("Sent %s email to %s", msg.Kind, msg.Email)
	return nil
}

func (m *Mailer) dialAndSend(ctx context.Context, msg *mail.Msg) error {
	timeout := dialTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return context.DeadlineExceeded
		}
	}

	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithTimeout(timeout),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}

	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, msg)
}

// Permanent reports whether err is an SMTP rejection that a retry cannot fix,
// such as an unknown mailbox.
func Permanent(err error) bool {
	var reply *textproto.Error
	if errors.As(err, &reply) {
		return reply.Code >= 500
	}
	var sendErr *mail.SendError
	if errors.As(err, &sendErr) {
		switch sendErr.Reason {
		case mail.ErrSMTPMailFrom, mail.ErrSMTPRcptTo:
			return !sendErr.IsTemp()
		}
	}
	return false
}
