// @title           BloodLink API
// @version         1.0
// @description     Emergency blood request coordination: requests, donor notification, inventory, help offers and donation appointments

// @BasePath  /api

// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Enter the token with the `Bearer ` prefix
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/m-istighfar/BE-M-Blood/internal/app/middleware"
	"github.com/m-istighfar/BE-M-Blood/internal/app/routes"
	"github.com/m-istighfar/BE-M-Blood/internal/domain/services"
	"github.com/m-istighfar/BE-M-Blood/internal/domain/services/container"
	"github.com/m-istighfar/BE-M-Blood/internal/infrastructure/config"
	"github.com/m-istighfar/BE-M-Blood/internal/infrastructure/database"
	Logger "github.com/m-istighfar/BE-M-Blood/pkg/logger"

	"github.com/joho/godotenv"
)

func main() {
	// 初始化日志配置
	if err := Logger.SetupLogger(); err != nil {
		fmt.Printf("初始化日志配置失败: %v\n", err)
		os.Exit(1)
	}

	// 加载.env文件，失败时继续使用已有的环境变量
	if err := godotenv.Load(); err != nil {
		Logger.Warning("无法加载.env文件: %v", err)
	} else {
		Logger.Info("成功加载.env文件")
	}

	cfg := config.GetConfig()

	pool, err := database.NewConnectionPool(cfg)
	if err != nil {
		log.Fatalf("无法创建数据库连接池: %v", err)
	}
	db := pool.GetDB()

	if err := database.Migrate(db, cfg.DBMigrationMode); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}
	if cfg.DBSeed {
		if err := database.Seed(db); err != nil {
			log.Fatalf("写入基础数据失败: %v", err)
		}
	}
	if err := database.EnsureAdminExists(db, cfg); err != nil {
		log.Fatalf("创建默认管理员失败: %v", err)
	}

	serviceContainer := container.NewServiceContainer(db, cfg, container.Options{})
	r := routes.SetupRouter(serviceContainer)

	// 预约提醒定时任务
	if cfg.ReminderEnabled {
		reminder := serviceContainer.GetService("reminder").(*services.ReminderService)
		if err := reminder.Start(); err != nil {
			log.Fatalf("启动预约提醒失败: %v", err)
		}
	}

	// 定期清理过期的响应缓存
	stopCleanup := make(chan struct{})
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := middleware.CleanExpiredCache(); n > 0 {
					Logger.Debug("清理过期缓存 %d 条", n)
				}
			case <-stopCleanup:
				return
			}
		}
	}()

	printSystemInfo(pool)

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		Logger.Info("服务器启动在: http://0.0.0.0:%s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			Logger.Error("启动服务器失败: %v", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	Logger.Info("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		Logger.Error("服务器关闭失败: %v", err)
	}

	close(stopCleanup)
	serviceContainer.Shutdown()
	if err := pool.Close(); err != nil {
		Logger.Error("关闭数据库连接池失败: %v", err)
	}
	Logger.Info("服务器已退出")
}

// printSystemInfo 打印系统信息
func printSystemInfo(pool *database.ConnectionPool) {
	stats, err := pool.Stats()
	if err == nil {
		Logger.Info("数据库连接池状态: %+v", stats)
	}

	Logger.Info("系统CPU核心数: %d", runtime.NumCPU())
	Logger.Info("当前Go协程数: %d", runtime.NumGoroutine())

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	Logger.Info("系统内存使用: Alloc=%v MiB, Sys=%v MiB", m.Alloc/1024/1024, m.Sys/1024/1024)
}
