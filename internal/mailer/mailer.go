package mailer

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"

	"github.com/wneessen/go-mail"

	"github.com/kmate129/timetable-ga/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

var ErrUnsupportedType = errors.New("不支持的邮件类型")

// Composer 把消息队列中的邮件消息转换成可以发送的邮件
type Composer struct {
	from string
}

func NewComposer(from string) *Composer {
	return &Composer{from: from}
}

type message struct {
	Type string          `json:"type"`
	To   string          `json:"to"`
	Data json.RawMessage `json:"data"`
}

func (c *Composer) Compose(body []byte) (*mail.Msg, error) {
	var mm message
	if err := json.Unmarshal(body, &mm); err != nil {
		return nil, fmt.Errorf("邮件信息反序列化失败: %w", err)
	}

	var (
		name    string
		subject string
	)
	switch mm.Type {
	case domain.MailTypeTimetableSucceeded:
		name = "timetable_succeeded.html"
		subject = "排课系统 - 排课完成"
	case domain.MailTypeTimetableFailed:
		name = "timetable_failed.html"
		subject = "排课系统 - 排课未完成"
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, mm.Type)
	}

	var data domain.TimetableMailData
	if err := json.Unmarshal(mm.Data, &data); err != nil {
		return nil, fmt.Errorf("邮件数据反序列化失败: %w", err)
	}

	m := mail.NewMsg()
	if err := m.From(c.from); err != nil {
		return nil, fmt.Errorf("无法设置邮件发件人: %w", err)
	}
	if err := m.To(mm.To); err != nil {
		return nil, fmt.Errorf("无法设置邮件收件人: %w", err)
	}
	m.Subject(subject)
	if err := m.SetBodyHTMLTemplate(templates.Lookup(name), data); err != nil {
		return nil, fmt.Errorf("无法设置邮件正文: %w", err)
	}

	return m, nil
}
