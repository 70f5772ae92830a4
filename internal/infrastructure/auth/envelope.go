package auth

import (
	"fmt"
	"strings"
)

// buildEnvelopeErrorMessage builds a user-facing message from the nested
// error envelope some providers return on HTTP 400:
//
//	{"error": {"message": "...", "type": "...", "code": 190, "error_subcode": 463}}
//
// Absent an envelope the message is generic.
func buildEnvelopeErrorMessage(m map[string]any, statusCode int, providerName string) string {
	var b strings.Builder

	envelope, _ := m["error"].(map[string]any)
	if envelope == nil {
		b.WriteString("Bad ")
		b.WriteString(providerName)
		b.WriteString(" request.")
	} else {
		if msg := stringField(envelope, "message"); msg != "" {
			b.WriteString(msg)
		}
		if t := stringField(envelope, "type"); t != "" {
			b.WriteString(" Type: ")
			b.WriteString(t)
		}
		if code := stringField(envelope, "code"); code != "" {
			b.WriteString(" Code: ")
			b.WriteString(code)
		}
		if sub := stringField(envelope, "error_subcode"); sub != "" {
			b.WriteString(" Error Subcode: ")
			b.WriteString(sub)
		}
	}

	b.WriteString(fmt.Sprintf(" Response status code: %d", statusCode))
	return b.String()
}
