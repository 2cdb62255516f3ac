package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"woosync_v1_202608/internal/controller"
	"woosync_v1_202608/internal/router"
	"woosync_v1_202608/internal/task"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (and scheduled sync if configured)",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := initApp()
		if err != nil {
			return err
		}

		// 1. 定时同步（配置了 cron 表达式才启动）
		var syncTask *task.SyncTask
		if spec := app.Config.Schedule.SyncCron; spec != "" {
			syncTask = task.NewSyncTask(app.Sync, spec, app.Config.Schedule.SyncPages)
			if err := syncTask.Start(); err != nil {
				return err
			}
		}

		// 2. 路由
		r := router.SetupRouter(controller.NewSyncController(app.Sync))

		// 3. 启动服务，优雅停机
		srv := &http.Server{
			Addr:    app.Config.Server.Addr,
			Handler: r,
		}

		go func() {
			log.Printf("HTTP 服务启动: %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatalf("HTTP 服务异常退出: %v", err)
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("收到退出信号，开始停机...")

		if syncTask != nil {
			syncTask.Stop()
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return err
		}
		log.Println("已退出")
		return nil
	},
}
