package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/kmate129/timetable-ga/internal/domain"
)

var ErrDeliveriesClosed = errors.New("消息通道已关闭")

// Consume 逐个处理队列中的任务，直到 ctx 被取消或者消息通道关闭
func (p *Processor) Consume(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return ErrDeliveriesClosed
			}
			p.handle(ctx, d)
		}
	}
}

func (p *Processor) handle(ctx context.Context, d amqp.Delivery) {
	var msg domain.JobMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil || msg.JobID == "" {
		// 格式错误的消息重新入队也无法处理
		slog.Error("无法解析任务消息", "body", string(d.Body), "error", err)
		if err := d.Nack(false, false); err != nil {
			slog.Error("无法拒绝消息", "error", err)
		}
		return
	}

	if err := p.Process(ctx, msg); err != nil {
		slog.Error("排课任务处理失败，重新入队", "job", msg.JobID, "error", err)
		if err := d.Nack(false, true); err != nil {
			slog.Error("无法拒绝消息", "error", err)
		}
		return
	}

	if err := d.Ack(false); err != nil {
		slog.Error("无法确认消息", "error", err)
	}
}
