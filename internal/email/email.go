package email

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	mail "github.com/wneessen/go-mail"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/pylyp-driapak/ps-vita-tv-olx-bot/internal/model"
)

// Sender delivers listing alerts over SMTP as an alternative to Telegram,
// for setups where a mailbox beats a chat. The body is composed as markdown
// and rendered to an HTML part with a plaintext alternative.
type Sender struct {
	host     string
	port     int
	username string
	password string
	from     string
	to       string

	converter goldmark.Markdown
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

func NewSender(cfg Config) (*Sender, error) {
	if cfg.Host == "" {
		return nil, errors.New("smtp host is required")
	}
	if cfg.Port <= 0 {
		return nil, errors.New("smtp port must be positive")
	}
	if cfg.From == "" || cfg.To == "" {
		return nil, errors.New("email from and to addresses are required")
	}
	return &Sender{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Username,
		password: cfg.Password,
		from:     cfg.From,
		to:       cfg.To,
		converter: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		),
	}, nil
}

func (s *Sender) Send(ctx context.Context, listing model.Listing) error {
	markdown := formatListing(listing)

	var htmlBody bytes.Buffer
	if err := s.converter.Convert([]byte(markdown), &htmlBody); err != nil {
		return fmt.Errorf("render alert body: %w", err)
	}

	m := mail.NewMsg()
	if err := m.From(s.from); err != nil {
		return fmt.Errorf("invalid from address %q: %w", s.from, err)
	}
	if err := m.ToFromString(s.to); err != nil {
		return fmt.Errorf("invalid to address(es) %q: %w", s.to, err)
	}
	m.Subject(fmt.Sprintf("New listing: %s", listing.Title))
	m.SetBodyString(mail.TypeTextPlain, markdown)
	m.AddAlternativeString(mail.TypeTextHTML, htmlBody.String())

	opts := []mail.Option{
		mail.WithPort(s.port),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}
	if s.username != "" {
		opts = append(opts,
			mail.WithUsername(s.username),
			mail.WithPassword(s.password),
			mail.WithSMTPAuth(mail.SMTPAuthAutoDiscover),
		)
	}

	client, err := mail.NewClient(s.host, opts...)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

func formatListing(listing model.Listing) string {
	return fmt.Sprintf("**%s**\n\nPrice: %s\n\n[Open listing](%s)\n", listing.Title, listing.Price, listing.URL)
}
