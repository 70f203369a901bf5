package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"time"

	"github.com/kmate129/timetable-ga/internal/config"
	"github.com/kmate129/timetable-ga/internal/dataset"
	"github.com/kmate129/timetable-ga/internal/domain"
	"github.com/kmate129/timetable-ga/internal/handler"
	"github.com/kmate129/timetable-ga/internal/seed"
)

func main() {
	var op int
	var out string
	var csvDir string
	var seedValue uint64
	var role string
	var subject string

	opts := seed.DefaultOptions()

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 生成随机排课数据, 2: 从 CSV 目录导入排课数据, 3: 签发访问令牌)")
	flag.StringVar(&out, "out", "", "排课数据的输出路径，默认使用配置中的 dummy 数据文件")
	flag.StringVar(&csvDir, "csv-dir", "./data/csv", "CSV 文件所在目录")
	flag.Uint64Var(&seedValue, "seed", 0, "随机数种子，0 表示随机")
	flag.IntVar(&opts.Teachers, "teachers", opts.Teachers, "教师数量")
	flag.IntVar(&opts.Courses, "courses", opts.Courses, "课程数量")
	flag.IntVar(&opts.Groups, "groups", opts.Groups, "学生组数量")
	flag.IntVar(&opts.Classrooms, "classrooms", opts.Classrooms, "教室数量")
	flag.IntVar(&opts.Labs, "labs", opts.Labs, "实验室数量")
	flag.IntVar(&opts.Classes, "classes", opts.Classes, "课程班数量")
	flag.StringVar(&role, "role", string(domain.RoleOperator), "令牌的角色 (operator 或 viewer)")
	flag.StringVar(&subject, "subject", "admin", "令牌的主体")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if out == "" {
		out = cfg.Dataset.DummyFile
	}

	// 执行操作
	switch op {
	case 0:
		logger.Error("未指定操作")
	case 1:
		if seedValue == 0 {
			seedValue = rand.Uint64()
		}
		f, err := seed.GenerateRandomDataset(rand.New(rand.NewPCG(seedValue, seedValue)), opts)
		if err != nil {
			logger.Error("无法生成随机排课数据", slog.String("error", err.Error()))
			os.Exit(1)
		}
		writeDataset(logger, f, out)
		logger.Info("生成随机排课数据成功", slog.String("path", out), slog.Uint64("seed", seedValue), slog.Int("classes", len(f.Classes)))
	case 2:
		f, err := seed.ImportCSV(csvDir)
		if err != nil {
			logger.Error("无法导入 CSV 数据", slog.String("error", err.Error()))
			os.Exit(1)
		}
		writeDataset(logger, f, out)
		logger.Info("导入 CSV 数据成功", slog.String("path", out), slog.Int("classes", len(f.Classes)))
	case 3:
		r := domain.Role(role)
		if r != domain.RoleOperator && r != domain.RoleViewer {
			logger.Error("无效的角色", slog.String("role", role))
			os.Exit(1)
		}
		token, err := handler.GenerateToken(cfg.JWT.Secret, subject, r, time.Duration(cfg.JWT.Expiration)*time.Second)
		if err != nil {
			logger.Error("无法签发令牌", slog.String("error", err.Error()))
			os.Exit(1)
		}
		fmt.Println(token)
	default:
		logger.Error("指定的操作非法")
	}
}

// writeDataset 先检查数据能否构建出实体，再写入文件
func writeDataset(logger *slog.Logger, f *dataset.File, path string) {
	if _, err := dataset.Build(f, &domain.IDGenerator{}); err != nil {
		logger.Error("排课数据无效", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := f.WriteFile(path); err != nil {
		logger.Error("无法写入排课数据", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
