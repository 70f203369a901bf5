package config

import (
	"errors"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/kmate129/timetable-ga/internal/scheduler"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Server      struct {
		Port            string `env:"PORT" envDefault:"3000"`
		ReadTimeout     int    `env:"READ_TIMEOUT" envDefault:"10"`
		WriteTimeout    int    `env:"WRITE_TIMEOUT" envDefault:"15"`
		IdleTimeout     int    `env:"IDLE_TIMEOUT" envDefault:"60"`
		ShutdownTimeout int    `env:"SHUTDOWN_TIMEOUT" envDefault:"10"`
	} `envPrefix:"SERVER_"`
	Database struct {
		DSN                string `env:"DSN,required"`
		ConnectTimeout     int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		QueryTimeout       int    `env:"QUERY_TIMEOUT" envDefault:"10"`
		TransactionTimeout int    `env:"TRANSACTION_TIMEOUT" envDefault:"20"`
		MaxOpenConns       int    `env:"MAX_OPEN_CONNS" envDefault:"10"`
		MaxIdleConns       int    `env:"MAX_IDLE_CONNS" envDefault:"10"`
		MaxIdleTime        int    `env:"MAX_IDLE_TIME" envDefault:"60"`
	} `envPrefix:"DATABASE_"`
	JWT struct {
		Expiration int    `env:"EXPIRATION" envDefault:"1209600"` // 14 天
		Secret     string `env:"SECRET,required"`
	} `envPrefix:"JWT_"`
	Email struct {
		SMTP struct {
			Username    string `env:"USERNAME,required"`
			Password    string `env:"PASSWORD,required"`
			Host        string `env:"HOST,required"`
			Port        int    `env:"PORT" envDefault:"465"`
			DialTimeout int    `env:"DIAL_TIMEOUT" envDefault:"10"`
		} `envPrefix:"SMTP_"`
	} `envPrefix:"EMAIL_"`
	RabbitMQ struct {
		DSN            string `env:"DSN,required"`
		PublishTimeout int    `env:"PUBLISH_TIMEOUT" envDefault:"10"`
	} `envPrefix:"RABBITMQ_"`
	Redis struct {
		Host                string `env:"HOST" envDefault:"localhost"`
		Port                int    `env:"PORT" envDefault:"6379"`
		Password            string `env:"PASSWORD,required"`
		ConnectTimeout      int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		OperationExpiration int    `env:"OPERATION_EXPIRATION" envDefault:"10"`
		ProgressExpiration  int    `env:"PROGRESS_EXPIRATION" envDefault:"86400"` // 1 天
	} `envPrefix:"REDIS_"`
	Dataset struct {
		DummyFile      string `env:"DUMMY_FILE" envDefault:"./data/dummy.json"`
		BackendURL     string `env:"BACKEND_URL" envDefault:"http://localhost:3080"`
		RequestTimeout int    `env:"REQUEST_TIMEOUT" envDefault:"30"`
	} `envPrefix:"DATASET_"`
	Scheduler struct {
		Days                 int `env:"DAYS" envDefault:"5"`
		HoursPerDay          int `env:"HOURS_PER_DAY" envDefault:"12"`
		PopulationSize       int `env:"POPULATION_SIZE" envDefault:"100"`
		ReplacementCount     int `env:"REPLACEMENT_COUNT" envDefault:"8"`
		EliteCapacity        int `env:"ELITE_CAPACITY" envDefault:"5"`
		CrossoverProbability int `env:"CROSSOVER_PROBABILITY" envDefault:"80"`
		CrossoverPoints      int `env:"CROSSOVER_POINTS" envDefault:"2"`
		MutationProbability  int `env:"MUTATION_PROBABILITY" envDefault:"3"`
		MutationSize         int `env:"MUTATION_SIZE" envDefault:"2"`
		MaxGenerations       int `env:"MAX_GENERATIONS" envDefault:"5000"`
		Parallelism          int `env:"PARALLELISM" envDefault:"0"`
	} `envPrefix:"SCHEDULER_"`
	Worker struct {
		Prefetch         int    `env:"PREFETCH" envDefault:"1"`
		ProgressInterval int    `env:"PROGRESS_INTERVAL" envDefault:"1"` // 写入进度的最小间隔（秒）
		JobTimeout       int    `env:"JOB_TIMEOUT" envDefault:"3600"`
		MetricsPort      string `env:"METRICS_PORT" envDefault:"9100"`
	} `envPrefix:"WORKER_"`
}

// LoadConfig 从环境变量中读取配置，存在 .env 文件时先加载它
// 已经存在的环境变量不会被 .env 覆盖
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		aggErr := env.AggregateError{}
		if ok := errors.As(err, &aggErr); ok {
			// 只返回第一个错误使得日志更清晰
			return nil, aggErr.Errors[0]
		}
		return nil, err
	}

	return cfg, nil
}

// SchedulerParameters 返回由配置决定的默认遗传算法参数，请求中的参数会覆盖它们
func (c *Config) SchedulerParameters() scheduler.Parameters {
	s := c.Scheduler
	return scheduler.Parameters{
		Days:                 s.Days,
		HoursPerDay:          s.HoursPerDay,
		PopulationSize:       s.PopulationSize,
		ReplacementCount:     s.ReplacementCount,
		EliteCapacity:        s.EliteCapacity,
		CrossoverProbability: s.CrossoverProbability,
		CrossoverPoints:      s.CrossoverPoints,
		MutationProbability:  s.MutationProbability,
		MutationSize:         s.MutationSize,
		MaxGenerations:       s.MaxGenerations,
		Parallelism:          s.Parallelism,
	}
}
