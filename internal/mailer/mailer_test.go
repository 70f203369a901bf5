package mailer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"

	"github.com/kmate129/timetable-ga/internal/domain"
)

func encode(t *testing.T, msg domain.MailMessage) []byte {
	t.Helper()
	body, err := json.Marshal(msg)
	require.NoError(t, err)
	return body
}

func content(t *testing.T, m *mail.Msg) string {
	t.Helper()
	parts := m.GetParts()
	require.Len(t, parts, 1)
	c, err := parts[0].GetContent()
	require.NoError(t, err)
	return string(c)
}

func TestComposeSucceeded(t *testing.T) {
	c := NewComposer("bot@example.com")

	m, err := c.Compose(encode(t, domain.MailMessage{
		Type: domain.MailTypeTimetableSucceeded,
		To:   "ops@example.com",
		Data: domain.TimetableMailData{JobID: "job-1", Status: "succeeded", Fitness: 1, Generations: 42},
	}))
	require.NoError(t, err)

	to := m.GetToString()
	assert.Equal(t, []string{"<ops@example.com>"}, to)
	assert.Len(t, m.GetGenHeader(mail.HeaderSubject), 1)

	html := content(t, m)
	assert.Contains(t, html, "job-1")
	assert.Contains(t, html, "42")
	assert.Contains(t, html, "1.0000")
}

func TestComposeFailed(t *testing.T) {
	c := NewComposer("bot@example.com")

	m, err := c.Compose(encode(t, domain.MailMessage{
		Type: domain.MailTypeTimetableFailed,
		To:   "ops@example.com",
		Data: domain.TimetableMailData{JobID: "job-2", Status: "failed", Error: "排课数据配置错误"},
	}))
	require.NoError(t, err)

	html := content(t, m)
	assert.Contains(t, html, "job-2")
	assert.Contains(t, html, "排课数据配置错误")
	assert.NotContains(t, html, "已迭代")
}

func TestComposeRejectsBadMessages(t *testing.T) {
	c := NewComposer("bot@example.com")

	_, err := c.Compose([]byte(`not json`))
	assert.Error(t, err)

	_, err = c.Compose(encode(t, domain.MailMessage{Type: "reset_password", To: "ops@example.com"}))
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = c.Compose(encode(t, domain.MailMessage{
		Type: domain.MailTypeTimetableFailed,
		To:   "not an address",
		Data: domain.TimetableMailData{JobID: "job-3"},
	}))
	assert.Error(t, err)
}
