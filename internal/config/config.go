package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ==================== 配置结构 ====================

// Config 全局配置
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Woo      WooConfig      `mapstructure:"woo"`
	Gemini   GeminiConfig   `mapstructure:"gemini"`
	Store    StoreConfig    `mapstructure:"store"`
	Limits   LimitsConfig   `mapstructure:"limits"`
	Push     PushConfig     `mapstructure:"push"`
	AILog    AILogConfig    `mapstructure:"ailog"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Server   ServerConfig   `mapstructure:"server"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
}

// AppConfig 应用信息
type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

// WooConfig WooCommerce 远程目录配置
type WooConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	ConsumerKey    string `mapstructure:"consumer_key"`
	ConsumerSecret string `mapstructure:"consumer_secret"`
	PageSize       int    `mapstructure:"page_size"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// Timeout 请求超时
func (c *WooConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// GeminiConfig 文案生成配置
type GeminiConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	Temperature float32 `mapstructure:"temperature"`
	MaxTokens   int32   `mapstructure:"max_tokens"`
}

// StoreConfig 本地 CSV 存储配置
type StoreConfig struct {
	CSVPath    string `mapstructure:"csv_path"`
	BackupKeep int    `mapstructure:"backup_keep"`
}

// LimitsConfig 生成内容长度限制
type LimitsConfig struct {
	TitleMax     int `mapstructure:"title_max"`
	ShortDescMax int `mapstructure:"short_desc_max"`
	DescMax      int `mapstructure:"desc_max"`
	KeywordsMax  int `mapstructure:"keywords_max"`
}

// PushConfig 回推开关（防止误写线上数据，默认关闭）
type PushConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// AILogConfig AI 调用审计库（db_path 为空则不记录）
type AILogConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// StorageConfig 备份快照异地上传（bucket 为空则不上传）
type StorageConfig struct {
	Provider  string `mapstructure:"provider"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Endpoint  string `mapstructure:"endpoint"`
	BasePath  string `mapstructure:"base_path"`
}

// ServerConfig serve 模式 HTTP 配置
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// ScheduleConfig serve 模式下的定时同步（sync_cron 为空则不启动）
type ScheduleConfig struct {
	SyncCron  string `mapstructure:"sync_cron"`
	SyncPages int    `mapstructure:"sync_pages"`
}

// ==================== 默认值与加载 ====================

// Default 返回默认配置
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name: "productsync",
			Env:  "development",
		},
		Woo: WooConfig{
			PageSize:       50,
			TimeoutSeconds: 30,
		},
		Gemini: GeminiConfig{
			Model:       "gemini-2.5-flash",
			Temperature: 0.4,
			MaxTokens:   800,
		},
		Store: StoreConfig{
			CSVPath:    "./data/products.csv",
			BackupKeep: 3,
		},
		Limits: LimitsConfig{
			TitleMax:     100,
			ShortDescMax: 200,
			DescMax:      1200,
			KeywordsMax:  200,
		},
		Push:  PushConfig{Enabled: false},
		AILog: AILogConfig{DBPath: "./data/ai_calls.db"},
		Storage: StorageConfig{
			Provider: "s3",
		},
		Server: ServerConfig{Addr: ":8080"},
		Schedule: ScheduleConfig{
			SyncPages: 1,
		},
	}
}

// Load 加载配置：默认值 < 配置文件 < 环境变量（PRODUCTSYNC_ 前缀）
// cfgFile 为空时在当前目录和 $HOME/.productsync 下搜索 productsync.yaml
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("productsync")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.productsync")
	}

	setDefaults(v)

	v.SetEnvPrefix("PRODUCTSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// 未显式指定配置文件时，找不到文件按纯默认值+环境变量运行
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	def := Default()

	v.SetDefault("app.name", def.App.Name)
	v.SetDefault("app.env", def.App.Env)

	v.SetDefault("woo.base_url", "")
	v.SetDefault("woo.consumer_key", "")
	v.SetDefault("woo.consumer_secret", "")
	v.SetDefault("woo.page_size", def.Woo.PageSize)
	v.SetDefault("woo.timeout_seconds", def.Woo.TimeoutSeconds)

	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", def.Gemini.Model)
	v.SetDefault("gemini.temperature", def.Gemini.Temperature)
	v.SetDefault("gemini.max_tokens", def.Gemini.MaxTokens)

	v.SetDefault("store.csv_path", def.Store.CSVPath)
	v.SetDefault("store.backup_keep", def.Store.BackupKeep)

	v.SetDefault("limits.title_max", def.Limits.TitleMax)
	v.SetDefault("limits.short_desc_max", def.Limits.ShortDescMax)
	v.SetDefault("limits.desc_max", def.Limits.DescMax)
	v.SetDefault("limits.keywords_max", def.Limits.KeywordsMax)

	v.SetDefault("push.enabled", def.Push.Enabled)

	v.SetDefault("ailog.db_path", def.AILog.DBPath)

	v.SetDefault("storage.provider", def.Storage.Provider)
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.region", "")
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.secret_key", "")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.base_path", "")

	v.SetDefault("server.addr", def.Server.Addr)

	v.SetDefault("schedule.sync_cron", "")
	v.SetDefault("schedule.sync_pages", def.Schedule.SyncPages)
}
