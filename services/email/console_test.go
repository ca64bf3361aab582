package emailsvc

import (
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/maoni/core"
)

func Test_consoleService_SendMessage(t *testing.T) {
	svc := consoleService{
		defaultFromEmail: mail.Address{Address: "noreply@test.cd"},
		subjPrefix:       "[Maoni] ",
		disableOutput:    true,
	}

	msg := &core.EmailMessage{
		To:          []mail.Address{{Address: "admin@test.cd"}},
		Subject:     "Survey synchronization report",
		TextContent: "Synchronized 1 sheet(s)",
	}

	before := len(SentMessages)
	assert.NoError(t, svc.SendMessage(msg))
	// delivery must be observable as soon as the call returns
	assert.Len(t, SentMessages, before+1)
	assert.Equal(t, *msg, SentMessages[len(SentMessages)-1])

	t.Run("no recipients or content", func(t *testing.T) {
		before := len(SentMessages)
		assert.NoError(t, svc.SendMessage(&core.EmailMessage{Subject: "empty"}))
		assert.Len(t, SentMessages, before)
	})
}
