package email_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/gymcrm/pkg/email"
)

func TestMessage_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		msg     email.Message
		wantErr bool
	}{
		{name: "valid", msg: email.Message{To: "a@b.co", Subject: "Hi", TextBody: "x"}},
		{name: "html only", msg: email.Message{To: "a@b.co", Subject: "Hi", HTMLBody: "<p>x</p>"}},
		{name: "bad address", msg: email.Message{To: "nope", Subject: "Hi", TextBody: "x"}, wantErr: true},
		{name: "no subject", msg: email.Message{To: "a@b.co", TextBody: "x"}, wantErr: true},
		{name: "no body", msg: email.Message{To: "a@b.co", Subject: "Hi"}, wantErr: true},
		{
			name: "attachment without data",
			msg: email.Message{To: "a@b.co", Subject: "Hi", TextBody: "x",
				Attachments: []email.Attachment{{Name: "r.pdf", ContentType: "application/pdf"}}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.msg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, email.ErrInvalidMessage)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	s, err := email.New(email.Config{DevOutputDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &email.DevSender{}, s)

	s, err = email.New(email.Config{PostmarkServerToken: "token", SenderEmail: "gym@example.com"})
	require.NoError(t, err)
	assert.NotNil(t, s)

	_, err = email.NewPostmarkSender(email.Config{})
	assert.ErrorIs(t, err, email.ErrInvalidConfig)
}

func TestDevSender_Send(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sender := email.NewDevSender(dir)

	err := sender.Send(context.Background(), email.Message{
		To:       "member@example.com",
		Subject:  "Membership receipt",
		TextBody: "Thanks",
		Tag:      "receipt",
		Attachments: []email.Attachment{
			{Name: "receipt.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4")},
		},
	})
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	var envelopePath string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".json") {
			envelopePath = filepath.Join(dir, e.Name())
		}
	}
	require.NotEmpty(t, envelopePath)

	raw, err := os.ReadFile(envelopePath)
	require.NoError(t, err)
	var env map[string]any
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.Equal(t, "member@example.com", env["to"])
	assert.Len(t, env["attachments"], 1)

	assert.ErrorIs(t, sender.Send(context.Background(), email.Message{}), email.ErrInvalidMessage)
}
