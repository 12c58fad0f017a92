package emailsvc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campusdesk/core"
	"github.com/trezcool/campusdesk/testutil"
)

func TestSendgridService_prepare(t *testing.T) {
	conf := &core.Config{AppName: "Campusdesk", SendgridApiKey: "sg-key"}
	svc, ok := NewService(conf, &testutil.Logger{}).(*sendgridService)
	require.True(t, ok)

	msg := paymentNotice(t)
	require.NoError(t, msg.Render(conf.AppName))
	m := svc.prepare(*msg)

	require.Len(t, m.Personalizations, 1)
	assert.Equal(t, "[Campusdesk] Admission fee not recorded", m.Personalizations[0].Subject)
	assert.Equal(t, "finance@school.test", m.Personalizations[0].To[0].Address)

	require.Len(t, m.Attachments, 1)
	at := m.Attachments[0]
	assert.Equal(t, "payment-st-1.json", at.Filename)
	assert.Equal(t, "application/json", at.Type)
	assert.Equal(t, "attachment", at.Disposition)
	assert.Equal(t, "eyJzdHVkZW50SWQiOiJzdC0xIn0=", at.Content)
}
