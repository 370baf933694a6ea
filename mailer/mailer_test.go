package mailer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessage_Framing(t *testing.T) {
	msg := string(buildMessage(
		"adwarden@corp.example",
		"jdoe@corp.example",
		"Your password expires in 3 day(s)",
		"<html><body>hello</body></html>",
	))

	headerEnd := strings.Index(msg, "\r\n\r\n")
	require.Positive(t, headerEnd)

	headers := msg[:headerEnd]
	assert.Contains(t, headers, "From: adwarden@corp.example")
	assert.Contains(t, headers, "To: jdoe@corp.example")
	assert.Contains(t, headers, "Subject: Your password expires in 3 day(s)")
	assert.Contains(t, headers, "MIME-Version: 1.0")
	assert.Contains(t, headers, `Content-Type: text/html; charset="UTF-8"`)

	assert.Equal(t, "<html><body>hello</body></html>", msg[headerEnd+4:])
}
