package controllers

import (
	"context"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/m-istighfar/BE-M-Blood/internal/app/middleware"
	"github.com/m-istighfar/BE-M-Blood/internal/domain/services"
	"github.com/m-istighfar/BE-M-Blood/internal/domain/services/container"
	"github.com/m-istighfar/BE-M-Blood/internal/error/response"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// HealthCheckController 健康检查控制器
type HealthCheckController struct {
	Container *container.ServiceContainer
	startedAt time.Time
}

// NewHealthCheckController 创建健康检查控制器实例
func NewHealthCheckController(container *container.ServiceContainer) *HealthCheckController {
	return &HealthCheckController{
		Container: container,
		startedAt: time.Now(),
	}
}

// Ping 健康检查端点
// @Summary      Ping
// @Tags         Health
// @Produce      json
// @Success      200  {object}  SuccessResponse
// @Router       /ping [get]
func (h *HealthCheckController) Ping(c *gin.Context) {
	response.Success(c, gin.H{
		"status":  "healthy",
		"message": "pong",
	})
}

// Status 返回数据库、Redis 与主机资源状态，依赖不可用时状态为 degraded
// @Summary      Service Status
// @Tags         Health
// @Produce      json
// @Success      200  {object}  SuccessResponse
// @Router       /health/status [get]
func (h *HealthCheckController) Status(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := "healthy"

	dbStatus := gin.H{"status": "up"}
	if sqlDB, err := h.Container.GetDB().DB(); err != nil {
		dbStatus = gin.H{"status": "down", "error": err.Error()}
		status = "degraded"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = gin.H{"status": "down", "error": err.Error()}
		status = "degraded"
	} else {
		stats := sqlDB.Stats()
		dbStatus["open_connections"] = stats.OpenConnections
		dbStatus["in_use"] = stats.InUse
		dbStatus["idle"] = stats.Idle
	}

	redisStatus := gin.H{"status": "disabled"}
	if redisService, ok := h.Container.GetService("redis").(services.InterfaceRedisService); ok && redisService != nil {
		if err := redisService.Ping(ctx); err != nil {
			redisStatus = gin.H{"status": "down", "error": err.Error()}
			status = "degraded"
		} else {
			redisStatus = gin.H{"status": "up"}
		}
	}

	response.Success(c, gin.H{
		"status":   status,
		"uptime":   time.Since(h.startedAt).Round(time.Second).String(),
		"database": dbStatus,
		"redis":    redisStatus,
		"system":   systemStats(),
	})
}

// CacheStats 响应缓存统计
// @Summary      Cache Stats
// @Tags         Health
// @Produce      json
// @Success      200  {object}  SuccessResponse
// @Router       /health/cache-stats [get]
// @Security     BearerAuth
func (h *HealthCheckController) CacheStats(c *gin.Context) {
	response.Success(c, middleware.CacheStats())
}

// PurgeCache 清除响应缓存与 Redis 中的基础数据缓存，prefix 为空时清除全部响应缓存
// @Summary      Purge Response Cache
// @Tags         Health
// @Produce      json
// @Param        prefix  query  string  false  "Path prefix, e.g. /api/provinces"
// @Success      200  {object}  SuccessResponse
// @Router       /health/cache [delete]
// @Security     BearerAuth
func (h *HealthCheckController) PurgeCache(c *gin.Context) {
	reference := h.Container.GetService("reference").(services.InterfaceReferenceService)
	reference.InvalidateCache(c.Request.Context())

	prefix := c.Query("prefix")
	if prefix == "" {
		middleware.PurgeCache()
		response.SuccessWithMessage(c, "Cache purged", nil)
		return
	}
	removed := middleware.PurgeCacheByPrefix(prefix)
	response.SuccessWithMessage(c, "Cache purged", gin.H{"removed": removed})
}

// systemStats 主机资源信息，读取失败的项省略
func systemStats() gin.H {
	stats := gin.H{
		"goroutines": runtime.NumGoroutine(),
		"go_version": runtime.Version(),
	}

	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		stats["cpu_percent"] = percents[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		stats["memory"] = gin.H{
			"total":        vm.Total,
			"used":         vm.Used,
			"used_percent": vm.UsedPercent,
		}
	}
	if info, err := host.Info(); err == nil {
		stats["host"] = gin.H{
			"hostname": info.Hostname,
			"os":       info.OS,
			"platform": info.Platform,
			"uptime":   info.Uptime,
		}
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	stats["heap_alloc"] = ms.HeapAlloc
	return stats
}
