package database

import (
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"woosync_v1_202608/internal/model"
)

// OpenAILogDB 打开（或创建）AI 调用审计库并迁移表结构
func OpenAILogDB(path string) (*gorm.DB, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("创建数据目录失败: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("打开审计库失败: %w", err)
	}

	if err := db.AutoMigrate(&model.AICallLog{}); err != nil {
		return nil, fmt.Errorf("审计库迁移失败: %w", err)
	}
	return db, nil
}
