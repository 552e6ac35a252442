package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSMTPMailerWithoutHost(t *testing.T) {
	assert.Nil(t, NewSMTPMailer("", "587", "a@example.com", "pw"))
}

func TestBuildMessage(t *testing.T) {
	msg := string(buildMessage("b@example.com", "Hi", "Body"))
	assert.Contains(t, msg, "To: b@example.com\r\n")
	assert.Contains(t, msg, "Subject: Hi\r\n")
	assert.Contains(t, msg, "\r\n\r\nBody\r\n")
}
