package main

import (
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContactValidate(t *testing.T) {
	msg := contactMessage{Name: "  Ada ", Email: "Ada <ada@example.com>", Message: " hi "}
	require.NoError(t, msg.validate())
	assert.Equal(t, "Ada", msg.Name)
	assert.Equal(t, "ada@example.com", msg.Email)
	assert.Equal(t, "hi", msg.Message)

	bad := []contactMessage{
		{Name: "", Email: "a@b.c", Message: "x"},
		{Name: "a", Email: "not-an-address", Message: "x"},
		{Name: "a\r\nBcc: x@y.z", Email: "a@b.c", Message: "x"},
		{Name: "a", Email: "a@b.c", Message: "   "},
	}
	for _, m := range bad {
		assert.ErrorIs(t, m.validate(), errInvalidContact)
	}
}

func TestSMTPMailerRequiresCredentials(t *testing.T) {
	m := newSMTPMailer(SMTPConfig{Host: "smtp.example.com", Port: "587"})
	m.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("should not dial without credentials")
		return nil
	}
	assert.ErrorIs(t, m.Send(contactMessage{Name: "a"}), errSMTPNotConfigured)
}

func TestSMTPMailerComposesMessage(t *testing.T) {
	m := newSMTPMailer(SMTPConfig{Host: "smtp.example.com", Port: "587", User: "me@example.com", Pass: "secret"})

	var gotAddr, gotFrom string
	var gotTo []string
	var gotBody []byte
	m.sendMail = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotBody = addr, from, to, msg
		return nil
	}

	require.NoError(t, m.Send(contactMessage{Name: "Ada", Email: "ada@example.com", Message: "Hello there"}))
	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "me@example.com", gotFrom)
	assert.Equal(t, []string{"me@example.com"}, gotTo, "falls back to the sending account")

	body := string(gotBody)
	assert.True(t, strings.HasPrefix(body, "To: me@example.com\r\n"))
	assert.Contains(t, body, "Subject: Portfolio Contact: Ada\r\n")
	assert.Contains(t, body, "Reply-To: ada@example.com\r\n")
	assert.Contains(t, body, "Hello there")

	m.sendMail = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("connection refused") }
	assert.Error(t, m.Send(contactMessage{Name: "Ada"}))
}
