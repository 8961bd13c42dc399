// Package mailer sends notification emails over SMTP. It is a fire-and-forget
// sink: callers log failures and move on.
package mailer

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/alanniew/hntv-live/internal/config"
)

// sslPort is the conventional implicit-SSL SMTP port; every other port uses
// STARTTLS.
const sslPort = 465

// Provider presets for common mailbox services.
var providers = map[string]config.SMTPConfig{
	"qq":      {Host: "smtp.qq.com", Port: 465},
	"163":     {Host: "smtp.163.com", Port: 465},
	"gmail":   {Host: "smtp.gmail.com", Port: 587},
	"outlook": {Host: "smtp.office365.com", Port: 587},
}

// Notifier sends mail through a single configured SMTP account
type Notifier struct {
	cfg    config.SMTPConfig
	logger *slog.Logger
}

// New creates a Notifier from SMTP settings.
func New(cfg config.SMTPConfig, logger *slog.Logger) *Notifier {
	if cfg.Username == "" {
		cfg.Username = cfg.From
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	return &Notifier{cfg: cfg, logger: logger}
}

// NewForProvider creates a Notifier using a provider preset (qq, 163, gmail,
// outlook) for the host and port.
func NewForProvider(provider, username, password, from string, to []string, logger *slog.Logger) (*Notifier, error) {
	preset, ok := providers[provider]
	if !ok {
		return nil, fmt.Errorf("unsupported mail provider %q", provider)
	}
	preset.Username = username
	preset.Password = password
	preset.From = from
	preset.To = to
	return New(preset, logger), nil
}

// Message is one outbound email.
type Message struct {
	Subject string
	Body    string
	HTML    bool
	CC      []string
	BCC     []string
}

// Send delivers the message to the configured recipients. Port 465 connects
// with implicit SSL; any other port negotiates STARTTLS.
func (n *Notifier) Send(msg Message) error {
	m := mail.NewMsg()
	if err := m.From(n.cfg.From); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := m.To(n.cfg.To...); err != nil {
		return fmt.Errorf("invalid recipient: %w", err)
	}
	if len(msg.CC) > 0 {
		if err := m.Cc(msg.CC...); err != nil {
			return fmt.Errorf("invalid cc recipient: %w", err)
		}
	}
	if len(msg.BCC) > 0 {
		if err := m.Bcc(msg.BCC...); err != nil {
			return fmt.Errorf("invalid bcc recipient: %w", err)
		}
	}
	m.Subject(msg.Subject)
	if msg.HTML {
		m.SetBodyString(mail.TypeTextHTML, msg.Body)
	} else {
		m.SetBodyString(mail.TypeTextPlain, msg.Body)
	}

	opts := []mail.Option{
		mail.WithPort(n.cfg.Port),
	}
	if n.authEnabled() {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(n.cfg.Username),
			mail.WithPassword(n.cfg.Password),
		)
	}
	if n.cfg.Port == sslPort {
		opts = append(opts, mail.WithSSLPort(false))
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}

	client, err := mail.NewClient(n.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("creating mail client: %w", err)
	}
	if err := client.DialAndSend(m); err != nil {
		return fmt.Errorf("sending mail: %w", err)
	}

	n.logger.Info("Sent notification mail", "subject", msg.Subject, "to", n.cfg.To)
	return nil
}

// authEnabled reports whether SMTP authentication should be attempted.
// Username defaults to the from address, so only a configured password
// signals that the relay expects credentials.
func (n *Notifier) authEnabled() bool {
	return n.cfg.Password != ""
}

// Notify sends a preformatted notification at the given level ("info",
// "warning" or "error").
func (n *Notifier) Notify(level, title, message string) error {
	subject, body := FormatNotification(level, title, message, time.Now())
	return n.Send(Message{Subject: subject, Body: body})
}

// FormatNotification renders the subject and body templates for a level.
func FormatNotification(level, title, message string, at time.Time) (subject, body string) {
	stamp := at.Format("2006-01-02 15:04:05")
	switch level {
	case "error":
		subject = "[紧急] " + title
		body = fmt.Sprintf("系统错误通知\n\n错误标题：%s\n错误详情：%s\n\n时间：%s\n\n请及时处理！\n", title, message, stamp)
	case "warning":
		subject = "[警告] " + title
		body = fmt.Sprintf("系统警告通知\n\n警告标题：%s\n警告详情：%s\n\n时间：%s\n\n请注意检查！\n", title, message, stamp)
	default:
		subject = "[通知] " + title
		body = fmt.Sprintf("系统通知\n\n通知标题：%s\n通知详情：%s\n\n时间：%s\n", title, message, stamp)
	}
	return subject, body
}
