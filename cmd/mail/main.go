package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/wneessen/go-mail"

	"github.com/kmate129/timetable-ga/internal/config"
	"github.com/kmate129/timetable-ga/internal/mailer"
	"github.com/kmate129/timetable-ga/internal/queue"
)

func main() {
	/**********************************************
	 * 创建 logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	/**********************************************
	 * 读取配置文件
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		return
	}

	/**********************************************
	 * 创建邮件客户端
	 **********************************************/
	client, err := mail.NewClient(cfg.Email.SMTP.Host,
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithSSL(),
		mail.WithPort(cfg.Email.SMTP.Port),
		mail.WithUsername(cfg.Email.SMTP.Username),
		mail.WithPassword(cfg.Email.SMTP.Password),
	)
	if err != nil {
		logger.Error("无法创建邮件客户端", slog.String("error", err.Error()))
		return
	}
	defer client.Close()

	// 验证邮件客户端是否连接成功
	clientDialCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Email.SMTP.DialTimeout)*time.Second)
	defer cancel()
	if err := client.DialWithContext(clientDialCtx); err != nil {
		logger.Error("无法连接到邮件服务器", slog.String("error", err.Error()))
		return
	}

	composer := mailer.NewComposer(cfg.Email.SMTP.Username)

	/**********************************************
	 * 连接 RabbitMQ
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("无法连接到 RabbitMQ", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	// 创建通道
	ch, err := conn.Channel()
	if err != nil {
		logger.Error("无法创建通道", slog.String("error", err.Error()))
		return
	}
	defer ch.Close()

	// 声明队列
	if err := queue.Declare(ch, queue.EmailQueue); err != nil {
		logger.Error("无法声明队列", slog.String("error", err.Error()))
		return
	}

	msgs, err := ch.Consume(
		queue.EmailQueue, // 队列
		"",               // 消费者标识，由 RabbitMQ 自动分配
		false,            // 发送成功后才手动确认
		false,            // 是否独占队列
		false,            // 是否禁止消费者接受自己发送的消息
		false,            // 是否不等待
		nil,              // 额外参数
	)
	if err != nil {
		logger.Error("无法消费消息", slog.String("error", err.Error()))
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("等待邮件消息...（按 CTRL+C 退出）")
	for {
		select {
		case <-ctx.Done():
			logger.Info("mail worker 已成功关闭")
			return
		case msg, ok := <-msgs:
			if !ok {
				logger.Error("消息通道已关闭")
				return
			}
			deliver(logger, client, composer, msg)
		}
	}
}

// deliver 发送一封邮件并确认消息
// 无法构建的邮件直接丢弃，发送失败的邮件重新入队
func deliver(logger *slog.Logger, client *mail.Client, composer *mailer.Composer, msg amqp.Delivery) {
	m, err := composer.Compose(msg.Body)
	if err != nil {
		if errors.Is(err, mailer.ErrUnsupportedType) {
			logger.Error("不支持的邮件类型", slog.String("error", err.Error()))
		} else {
			logger.Error("无法构建邮件", slog.String("error", err.Error()))
		}
		_ = msg.Nack(false, false)
		return
	}

	if err := client.DialAndSend(m); err != nil {
		logger.Error("邮件发送失败", slog.String("error", err.Error()))
		_ = msg.Nack(false, true)
		return
	}

	logger.Info("邮件已发送", slog.String("to", strings.Join(recipients(m), ",")))
	_ = msg.Ack(false)
}

func recipients(m *mail.Msg) []string {
	return m.GetToString()
}
