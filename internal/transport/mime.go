package transport

import (
	"bytes"
	"fmt"
	"mime"
	"mime/multipart"
	"net/mail"
	"net/textproto"
	"strings"
)

// buildMIMEDocument constructs the multipart document transmitted after the
// DATA command. Headers are built with mail.Address and Q-encoding so that
// display names and subjects cannot inject additional header lines, and the
// boundary token comes from the multipart writer's random generator.
func buildMIMEDocument(msg *Message) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Type": {`text/html; charset="UTF-8"`},
	})
	if err != nil {
		return "", fmt.Errorf("create html part: %w", err)
	}
	if _, err := part.Write([]byte(msg.HTML)); err != nil {
		return "", fmt.Errorf("write html part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close multipart: %w", err)
	}

	from := mail.Address{Name: msg.FromName, Address: msg.FromEmail}
	to := mail.Address{Address: msg.To}

	var doc strings.Builder
	fmt.Fprintf(&doc, "From: %s\r\n", from.String())
	fmt.Fprintf(&doc, "To: %s\r\n", to.String())
	fmt.Fprintf(&doc, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	doc.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&doc, "Content-Type: multipart/alternative; boundary=%q\r\n", writer.Boundary())
	doc.WriteString("\r\n")
	doc.WriteString(normalizeCRLF(body.String()))

	return dotStuff(doc.String()), nil
}

// normalizeCRLF converts bare newlines to the CRLF line endings the wire
// protocol requires.
func normalizeCRLF(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", "\r\n")
}

// dotStuff escapes lines beginning with a dot so the peer does not mistake
// them for the end-of-data marker.
func dotStuff(s string) string {
	if strings.HasPrefix(s, ".") {
		s = "." + s
	}
	return strings.ReplaceAll(s, "\r\n.", "\r\n..")
}
