package transport

import (
	"bufio"
	"context"
	"encoding/base64"
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	smtpConnectTimeout  = 10 * time.Second
	smtpExchangeTimeout = 30 * time.Second
)

// messageIDPattern extracts the queue identifier from the final DATA reply,
// e.g. "250 2.0.0 OK queued as <abc123@mx.example.com>".
var messageIDPattern = regexp.MustCompile(`<([^<>\s]+)>`)

// SMTPConfig holds the connection bundle for the direct-protocol adapter.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// ClientName is the identity sent with EHLO. Defaults to "localhost".
	ClientName string
}

// SMTPSender drives an interactive SMTP session over a raw TCP connection.
// Each send opens a fresh connection; connections are never reused and are
// closed on every exit path. Every reply code is inspected: a 4xx/5xx at any
// step aborts the session and surfaces the peer's text as a transport error.
type SMTPSender struct {
	cfg SMTPConfig
}

// NewSMTPSender creates a new direct-protocol adapter.
func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if cfg.Host == "" || cfg.Port == 0 {
		return nil, fmt.Errorf("smtp: host and port are required")
	}
	if cfg.ClientName == "" {
		cfg.ClientName = "localhost"
	}
	return &SMTPSender{cfg: cfg}, nil
}

// Name returns the provider name.
func (s *SMTPSender) Name() string {
	return ProviderSMTP
}

// Send runs the protocol state machine: greeting, EHLO, optional AUTH LOGIN,
// MAIL FROM, RCPT TO, DATA, message content, QUIT. The provider message
// identifier, when present, is extracted from the reply to the message
// content. Connection-level failures are returned as transport errors, never
// re-thrown past the adapter.
func (s *SMTPSender) Send(ctx context.Context, msg *Message) (string, error) {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))

	dialer := net.Dialer{Timeout: smtpConnectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return "", fmt.Errorf("smtp: connect %s: %w", addr, err)
	}
	defer conn.Close()

	// Abort the blocking exchanges promptly when the caller gives up.
	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-watchDone:
		}
	}()

	session := &smtpSession{
		conn:   conn,
		reader: bufio.NewReader(conn),
	}

	// Greeting arrives before any command.
	if _, _, err := session.readReply(); err != nil {
		return "", fmt.Errorf("smtp: greeting: %w", err)
	}

	if err := session.exchange("EHLO " + s.cfg.ClientName); err != nil {
		return "", err
	}

	if s.cfg.Username != "" && s.cfg.Password != "" {
		if err := session.exchange("AUTH LOGIN"); err != nil {
			return "", err
		}
		if err := session.exchange(base64.StdEncoding.EncodeToString([]byte(s.cfg.Username))); err != nil {
			return "", err
		}
		if err := session.exchange(base64.StdEncoding.EncodeToString([]byte(s.cfg.Password))); err != nil {
			return "", err
		}
	}

	if err := session.exchange(fmt.Sprintf("MAIL FROM:<%s>", msg.FromEmail)); err != nil {
		return "", err
	}
	if err := session.exchange(fmt.Sprintf("RCPT TO:<%s>", msg.To)); err != nil {
		return "", err
	}
	if err := session.exchange("DATA"); err != nil {
		return "", err
	}

	document, err := buildMIMEDocument(msg)
	if err != nil {
		return "", fmt.Errorf("smtp: build message: %w", err)
	}

	if err := session.write(document + "\r\n.\r\n"); err != nil {
		return "", err
	}
	code, text, err := session.readReply()
	if err != nil {
		return "", fmt.Errorf("smtp: data reply: %w", err)
	}
	if code >= 400 {
		return "", fmt.Errorf("smtp: message rejected: %d %s", code, text)
	}

	providerID := ""
	if m := messageIDPattern.FindStringSubmatch(text); m != nil {
		providerID = m[1]
	}

	// QUIT is best-effort; the message is already accepted.
	_ = session.write("QUIT\r\n")
	_, _, _ = session.readReply()

	return providerID, nil
}

// smtpSession holds the read/write state of one connection.
type smtpSession struct {
	conn   net.Conn
	reader *bufio.Reader
}

// exchange sends one command and requires a positive (2xx/3xx) reply.
func (s *smtpSession) exchange(command string) error {
	if err := s.write(command + "\r\n"); err != nil {
		return err
	}
	code, text, err := s.readReply()
	if err != nil {
		return fmt.Errorf("smtp: %s: %w", commandVerb(command), err)
	}
	if code >= 400 {
		return fmt.Errorf("smtp: %s rejected: %d %s", commandVerb(command), code, text)
	}
	return nil
}

// write sends raw bytes under the per-exchange deadline.
func (s *smtpSession) write(data string) error {
	if err := s.conn.SetDeadline(time.Now().Add(smtpExchangeTimeout)); err != nil {
		return fmt.Errorf("smtp: set deadline: %w", err)
	}
	if _, err := s.conn.Write([]byte(data)); err != nil {
		return fmt.Errorf("smtp: write: %w", err)
	}
	return nil
}

// readReply reads one reply, following "250-" style continuation lines until
// the final line of the same code.
func (s *smtpSession) readReply() (int, string, error) {
	if err := s.conn.SetDeadline(time.Now().Add(smtpExchangeTimeout)); err != nil {
		return 0, "", fmt.Errorf("set deadline: %w", err)
	}

	var texts []string
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			return 0, "", fmt.Errorf("read reply: %w", err)
		}
		line = strings.TrimRight(line, "\r\n")
		if len(line) < 3 {
			return 0, "", fmt.Errorf("malformed reply %q", line)
		}

		code, err := strconv.Atoi(line[:3])
		if err != nil {
			return 0, "", fmt.Errorf("malformed reply %q", line)
		}

		text := ""
		if len(line) > 4 {
			text = line[4:]
		}
		texts = append(texts, text)

		if len(line) > 3 && line[3] == '-' {
			continue
		}
		return code, strings.Join(texts, " "), nil
	}
}

// commandVerb trims a command line down to its verb for error messages, so
// credentials never leak into logged errors.
func commandVerb(command string) string {
	verb, _, found := strings.Cut(command, " ")
	if !found {
		switch verb {
		case "DATA", "QUIT", "RSET", "NOOP":
			return verb
		}
		// Bare base64 credential exchange, whatever its length.
		return "AUTH exchange"
	}
	return strings.TrimSuffix(verb, ":")
}
