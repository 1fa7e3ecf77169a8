// legacy-import 从旧版 REST 接口拉取班级 / 课程 / 课表 / 课次并写入数据库。
//
//	legacy-import [-config path] [-base-url url] [-dry-run]
//
// 标准化失败的课次不会中断导入，统一在报告中列出；报告以 JSON 输出到标准输出。
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"go.uber.org/zap"

	"school-portal/config"
	"school-portal/internal/legacy"
	"school-portal/internal/repository"
	"school-portal/internal/service"
	"school-portal/pkg/database"
	applogger "school-portal/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径（默认查找 ./config/config.yaml）")
	baseURL := flag.String("base-url", "", "旧版接口地址，覆盖 legacy.base_url")
	dryRun := flag.Bool("dry-run", false, "只校验并输出报告，不写入数据库")
	flag.Parse()

	if err := run(*configPath, *baseURL, *dryRun); err != nil {
		fmt.Fprintf(os.Stderr, "legacy-import: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, baseURL string, dryRun bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}
	if baseURL != "" {
		cfg.Legacy.BaseURL = baseURL
	}

	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := legacy.NewClient(cfg.Legacy, logger)
	snap, err := client.FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("拉取旧系统数据失败: %w", err)
	}
	logger.Info("旧系统数据拉取完成",
		zap.String("base_url", cfg.Legacy.BaseURL),
		zap.Int("classes", len(snap.Classes)),
		zap.Int("courses", len(snap.Courses)),
		zap.Int("timetables", len(snap.Timetables)),
		zap.Int("sessions", len(snap.Sessions)),
	)

	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	defer sqlDB.Close()

	if !dryRun {
		if err := database.RunMigrations(sqlDB, logger); err != nil {
			return err
		}
	}

	svc := service.NewLegacyImportService(&cfg.Schedule, repository.NewRepository(db), logger)
	report, err := svc.Import(ctx, snap, dryRun)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
