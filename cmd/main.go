package main

import (
	"fmt"
	"log"
	"os"

	"gorm.io/gorm"

	"woosync_v1_202608/internal/config"
	"woosync_v1_202608/internal/repository"
	"woosync_v1_202608/internal/service"
	"woosync_v1_202608/internal/store"
	"woosync_v1_202608/pkg/database"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// ==================== 依赖容器 ====================

// App 依赖容器，每次命令执行时组装一次
type App struct {
	Config      *config.Config
	Store       *store.CSVStore
	Woo         *service.WooService
	AI          *service.AIService
	Sync        *service.SyncService
	CallLogRepo repository.AICallLogRepository
	LogDB       *gorm.DB
}

// initApp 按配置组装依赖
func initApp() (*App, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	st := store.NewCSVStore(cfg.Store.CSVPath, cfg.Store.BackupKeep)
	wooSvc := service.NewWooService(&cfg.Woo)

	// AI 调用审计库（可选）
	var callLogRepo repository.AICallLogRepository
	var logDB *gorm.DB
	if cfg.AILog.DBPath != "" {
		logDB, err = database.OpenAILogDB(cfg.AILog.DBPath)
		if err != nil {
			// 审计库打不开不阻塞主流程
			log.Printf("审计库不可用，本次运行不记录 AI 调用: %v", err)
		} else {
			callLogRepo = repository.NewAICallLogRepository(logDB)
		}
	}

	limits := validationLimits(&cfg.Limits)
	aiSvc := service.NewAIService(
		service.NewGeminiGenerator(&cfg.Gemini),
		limits,
		cfg.Gemini.Model,
		callLogRepo,
	)

	// 备份快照异地上传（可选）
	var storageSvc *service.StorageService
	if cfg.Storage.Bucket != "" {
		storageSvc, err = service.NewStorageService(&cfg.Storage)
		if err != nil {
			return nil, err
		}
	}

	syncSvc := service.NewSyncService(st, wooSvc, aiSvc, cfg, storageSvc)

	return &App{
		Config:      cfg,
		Store:       st,
		Woo:         wooSvc,
		AI:          aiSvc,
		Sync:        syncSvc,
		CallLogRepo: callLogRepo,
		LogDB:       logDB,
	}, nil
}
