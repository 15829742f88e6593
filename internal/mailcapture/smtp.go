package mailcapture

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"

	"github.com/markb/bcon/internal/log"
)

type backend struct {
	server *Server
}

func (b *backend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &session{server: b.server}, nil
}

// session collects one SMTP transaction.
type session struct {
	server *Server
	from   string
	to     []string
}

func (s *session) AuthMechanisms() []string {
	return []string{sasl.Plain}
}

// Auth accepts any PLAIN credentials.
func (s *session) Auth(mech string) (sasl.Server, error) {
	return sasl.NewPlainServer(func(identity, username, password string) error {
		return nil
	}), nil
}

func (s *session) Mail(from string, opts *smtp.MailOptions) error {
	s.from = from
	return nil
}

func (s *session) Rcpt(to string, opts *smtp.RcptOptions) error {
	s.to = append(s.to, to)
	return nil
}

func (s *session) Data(r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	captured := Message{
		From:       s.from,
		To:         append([]string(nil), s.to...),
		ReceivedAt: time.Now().UTC(),
	}

	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		log.Warn("failed to parse captured email", "error", err)
		captured.TextBody = string(raw)
	} else {
		captured.Subject = decodeHeader(msg.Header.Get("Subject"))
		captured.TextBody, captured.HTMLBody = extractBodies(msg)
	}

	s.server.add(captured)
	log.Info("captured email", "from", captured.From, "to", captured.To, "subject", captured.Subject)
	return nil
}

func (s *session) Reset() {
	s.from = ""
	s.to = nil
}

func (s *session) Logout() error {
	return nil
}

// decodeHeader decodes RFC 2047 encoded words, returning the input unchanged
// when it cannot be decoded.
func decodeHeader(v string) string {
	dec := new(mime.WordDecoder)
	decoded, err := dec.DecodeHeader(v)
	if err != nil {
		return v
	}
	return decoded
}

// extractBodies returns the plain text and HTML parts of msg.
func extractBodies(msg *mail.Message) (text, html string) {
	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	if err != nil {
		return readAll(msg.Body), ""
	}

	switch {
	case strings.HasPrefix(mediaType, "multipart/"):
		mr := multipart.NewReader(msg.Body, params["boundary"])
		for {
			part, err := mr.NextPart()
			if err != nil {
				break
			}
			body := readAll(part)
			switch ct := part.Header.Get("Content-Type"); {
			case strings.HasPrefix(ct, "text/plain"):
				text = body
			case strings.HasPrefix(ct, "text/html"):
				html = body
			}
		}
	case mediaType == "text/html":
		html = readAll(msg.Body)
	default:
		text = readAll(msg.Body)
	}
	return text, html
}

func readAll(r io.Reader) string {
	b, _ := io.ReadAll(r)
	return string(b)
}
