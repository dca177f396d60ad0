package benchmark

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/m-istighfar/BE-M-Blood/internal/test/testserver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loadConfig 压测参数，可通过 BENCH_CONCURRENCY、BENCH_REQUESTS 调整
type loadConfig struct {
	Concurrency int
	Requests    int
}

func readLoadConfig() loadConfig {
	cfg := loadConfig{Concurrency: 10, Requests: 100}
	if v, err := strconv.Atoi(os.Getenv("BENCH_CONCURRENCY")); err == nil && v > 0 {
		cfg.Concurrency = v
	}
	if v, err := strconv.Atoi(os.Getenv("BENCH_REQUESTS")); err == nil && v > 0 {
		cfg.Requests = v
	}
	return cfg
}

// setup 启动进程内服务并以管理员登录
func setup(t *testing.T) (*testserver.Server, string, loadConfig) {
	t.Helper()
	if testing.Short() {
		t.Skip("跳过压测")
	}
	s := testserver.New(t)
	return s, s.LoginAdmin(t), readLoadConfig()
}

func assertAllSucceeded(t *testing.T, name string, result *BenchmarkResult) {
	t.Helper()
	result.PrintResult()
	assert.Empty(t, result.Errors)
	assert.Equal(t, result.TotalRequests, result.SuccessCount,
		"%s: 成功率 %.2f%%", name, result.SuccessRate())
}

// TestProvinceList 测试省份列表接口
func TestProvinceList(t *testing.T) {
	s, token, cfg := setup(t)

	benchmark := NewAPIBenchmark(s.URL+"/api", cfg.Concurrency, cfg.Requests, token, s.Client())
	assertAllSucceeded(t, "省份列表", benchmark.RunGET("/provinces"))
}

// TestEmergencyRequestList 测试紧急请求列表接口
func TestEmergencyRequestList(t *testing.T) {
	s, token, cfg := setup(t)

	benchmark := NewAPIBenchmark(s.URL+"/api", cfg.Concurrency, cfg.Requests, token, s.Client())
	assertAllSucceeded(t, "紧急请求列表", benchmark.RunGET("/emergency?page=1&limit=20&sortBy=requestDate&sortOrder=desc"))
}

// TestInventoryCreate 并发写入库存
func TestInventoryCreate(t *testing.T) {
	s, token, cfg := setup(t)

	payload := map[string]interface{}{
		"bloodTypeId": 1,
		"provinceId":  31,
		"quantity":    1,
	}
	benchmark := NewAPIBenchmark(s.URL+"/api", cfg.Concurrency, cfg.Requests, token, s.Client())
	result := benchmark.RunPOST("/inventory", payload)
	assertAllSucceeded(t, "库存写入", result)
	assert.Equal(t, cfg.Requests, result.StatusCount(http.StatusCreated))
}

// TestUnauthenticatedRequests 未登录请求全部返回401
func TestUnauthenticatedRequests(t *testing.T) {
	s, _, cfg := setup(t)

	benchmark := NewAPIBenchmark(s.URL+"/api", cfg.Concurrency, cfg.Requests, "", s.Client())
	result := benchmark.RunGET("/appointments")
	result.PrintResult()

	require.Empty(t, result.Errors)
	assert.Equal(t, cfg.Requests, result.StatusCount(http.StatusUnauthorized),
		fmt.Sprintf("状态码分布: %v", result.StatusCodes))
}

func TestSummarize(t *testing.T) {
	samples := []sample{
		{duration: 30 * time.Millisecond, status: http.StatusOK},
		{duration: 10 * time.Millisecond, status: http.StatusOK},
		{duration: 20 * time.Millisecond, status: http.StatusTooManyRequests},
		{err: errors.New("connection refused")},
	}

	result := summarize(samples, time.Second)
	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 2, result.FailureCount)
	assert.Equal(t, 10*time.Millisecond, result.MinTime)
	assert.Equal(t, 30*time.Millisecond, result.MaxTime)
	assert.Equal(t, 20*time.Millisecond, result.AverageTime)
	assert.Equal(t, 1, result.StatusCount(http.StatusTooManyRequests))
	assert.Equal(t, []string{"connection refused"}, result.Errors)
	assert.InDelta(t, 4.0, result.RequestsPerSec, 0.001)
}
