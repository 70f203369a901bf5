package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/kmate129/timetable-ga/internal/config"
	"github.com/kmate129/timetable-ga/internal/dataset"
	"github.com/kmate129/timetable-ga/internal/metrics"
	"github.com/kmate129/timetable-ga/internal/progress"
	"github.com/kmate129/timetable-ga/internal/queue"
	"github.com/kmate129/timetable-ga/internal/repository"
	"github.com/kmate129/timetable-ga/internal/worker"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	/**********************************************
	 * 创建 logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	/**********************************************
	 * 加载配置
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法加载配置文件", "error", err)
		return
	}

	/**********************************************
	 * 连接数据库
	 **********************************************/
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	pingCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	if err := dbpool.PingContext(pingCtx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	repo := repository.NewRepository(cfg, dbpool)
	if err := repo.CreateTables(); err != nil {
		logger.Error("无法创建数据表", "error", err)
		return
	}

	/**********************************************
	 * 连接 redis
	 **********************************************/
	rdb := redis.NewClient(&redis.Options{
		Addr:        fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password:    cfg.Redis.Password,
		DB:          0,
		DialTimeout: time.Duration(cfg.Redis.ConnectTimeout) * time.Second,
	})
	defer rdb.Close()

	pingCtx, cancel = context.WithTimeout(context.Background(), time.Duration(cfg.Redis.ConnectTimeout)*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Error("无法连接到 redis", "error", err)
		return
	}

	/**********************************************
	 * 连接 RabbitMQ
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("无法连接到 RabbitMQ", "error", err)
		return
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Error("无法创建通道", "error", err)
		return
	}
	defer ch.Close()

	if err := queue.Declare(ch, queue.TimetableQueue, queue.EmailQueue); err != nil {
		logger.Error("无法声明队列", "error", err)
		return
	}

	// 排课任务很耗时，每个 worker 同时只取有限个任务
	if err := ch.Qos(cfg.Worker.Prefetch, 0, false); err != nil {
		logger.Error("无法设置预取数量", "error", err)
		return
	}

	msgs, err := ch.Consume(
		queue.TimetableQueue, // 队列
		"",                   // 消费者标识，由 RabbitMQ 自动分配
		false,                // 手动确认，任务执行完成后才 ack
		false,                // 是否独占队列
		false,                // 是否禁止消费者接受自己发送的消息
		false,                // 是否不等待
		nil,                  // 额外参数
	)
	if err != nil {
		logger.Error("无法消费消息", "error", err)
		return
	}

	/**********************************************
	 * 创建 processor
	 **********************************************/
	m := metrics.New()
	loader := worker.NewLoader(
		cfg.Dataset.DummyFile,
		dataset.NewClient(cfg.Dataset.BackendURL, time.Duration(cfg.Dataset.RequestTimeout)*time.Second),
	)
	processor := worker.NewProcessor(
		repo,
		progress.NewStore(cfg, rdb),
		queue.NewPublisher(ch, time.Duration(cfg.RabbitMQ.PublishTimeout)*time.Second),
		loader,
		m,
		worker.Options{
			Parameters:       cfg.SchedulerParameters(),
			ProgressInterval: time.Duration(cfg.Worker.ProgressInterval) * time.Second,
			JobTimeout:       time.Duration(cfg.Worker.JobTimeout) * time.Second,
		},
	)

	/**********************************************
	 * 启动 worker 和指标服务器
	 **********************************************/
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricsSrv := &http.Server{
		Addr:     fmt.Sprintf(":%s", cfg.Worker.MetricsPort),
		Handler:  m.Handler(),
		ErrorLog: slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("正在启动指标服务器...", "port", cfg.Worker.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
		defer cancel()
		return metricsSrv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		logger.Info("等待排课任务...（按 CTRL+C 退出）")
		return processor.Consume(gctx, msgs)
	})

	if err := g.Wait(); err != nil {
		logger.Error("worker 异常退出", "error", err)
		return
	}
	logger.Info("worker 已成功关闭")
}
