// internal/mailer/message.go
package mailer

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"garage-backoffice/internal/upload"
)

// Attachment is one document fetched from its stored URL.
type Attachment struct {
	Filename string
	Data     []byte
}

// buildMessage assembles an HTML email, optionally multipart/mixed with
// base64 attachments.
func buildMessage(from, to, subject, htmlBody string, attachments []Attachment) []byte {
	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("From: %s\r\n", from))
	builder.WriteString(fmt.Sprintf("To: %s\r\n", to))
	builder.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	builder.WriteString("MIME-Version: 1.0\r\n")

	if len(attachments) == 0 {
		builder.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
		builder.WriteString("\r\n")
		builder.WriteString(htmlBody)
		return []byte(builder.String())
	}

	boundary := fmt.Sprintf("garage-%d", time.Now().UnixNano())

	builder.WriteString(fmt.Sprintf("Content-Type: multipart/mixed; boundary=%q\r\n", boundary))
	builder.WriteString("\r\n")

	builder.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	builder.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	builder.WriteString("\r\n")
	builder.WriteString(htmlBody)
	builder.WriteString("\r\n")

	for _, att := range attachments {
		contentType := upload.ContentTypeForName(att.Filename)

		builder.WriteString(fmt.Sprintf("--%s\r\n", boundary))
		builder.WriteString(fmt.Sprintf("Content-Type: %s; name=%q\r\n", contentType, att.Filename))
		builder.WriteString("Content-Transfer-Encoding: base64\r\n")
		builder.WriteString(fmt.Sprintf("Content-Disposition: attachment; filename=%q\r\n", att.Filename))
		builder.WriteString("\r\n")
		builder.WriteString(wrapBase64(base64.StdEncoding.EncodeToString(att.Data)))
		builder.WriteString("\r\n")
	}

	builder.WriteString(fmt.Sprintf("--%s--\r\n", boundary))

	return []byte(builder.String())
}

// wrapBase64 folds the encoded payload to 76-character lines per RFC 2045.
func wrapBase64(encoded string) string {
	const lineLen = 76
	var builder strings.Builder
	for len(encoded) > lineLen {
		builder.WriteString(encoded[:lineLen])
		builder.WriteString("\r\n")
		encoded = encoded[lineLen:]
	}
	builder.WriteString(encoded)
	return builder.String()
}
