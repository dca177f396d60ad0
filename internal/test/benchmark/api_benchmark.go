package benchmark

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"
)

// APIBenchmark 并发压测一个接口，统计耗时与状态码分布
type APIBenchmark struct {
	BaseURL     string
	Concurrency int
	Requests    int
	AuthToken   string
	Client      *http.Client
}

// BenchmarkResult 压测结果
type BenchmarkResult struct {
	URL            string        `json:"url"`
	Method         string        `json:"method"`
	Concurrency    int           `json:"concurrency"`
	TotalRequests  int           `json:"total_requests"`
	SuccessCount   int           `json:"success_count"`
	FailureCount   int           `json:"failure_count"`
	TotalTime      time.Duration `json:"total_time"`
	AverageTime    time.Duration `json:"average_time"`
	MinTime        time.Duration `json:"min_time"`
	MaxTime        time.Duration `json:"max_time"`
	P95Time        time.Duration `json:"p95_time"`
	RequestsPerSec float64       `json:"requests_per_sec"`
	StatusCodes    map[int]int   `json:"status_codes"`
	Errors         []string      `json:"errors"`
}

// sample 单个请求的结果，err 不为空表示请求未完成
type sample struct {
	duration time.Duration
	status   int
	err      error
}

// NewAPIBenchmark 创建压测实例，client 为 nil 时使用10秒超时的默认客户端
func NewAPIBenchmark(baseURL string, concurrency, requests int, authToken string, client *http.Client) *APIBenchmark {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &APIBenchmark{
		BaseURL:     baseURL,
		Concurrency: concurrency,
		Requests:    requests,
		AuthToken:   authToken,
		Client:      client,
	}
}

// RunGET 压测 GET 请求
func (b *APIBenchmark) RunGET(path string) *BenchmarkResult {
	return b.run(http.MethodGet, path, nil)
}

// RunPOST 压测 POST 请求，payload 编码为 JSON
func (b *APIBenchmark) RunPOST(path string, payload interface{}) *BenchmarkResult {
	return b.runJSON(http.MethodPost, path, payload)
}

// RunPUT 压测 PUT 请求
func (b *APIBenchmark) RunPUT(path string, payload interface{}) *BenchmarkResult {
	return b.runJSON(http.MethodPut, path, payload)
}

// RunDELETE 压测 DELETE 请求
func (b *APIBenchmark) RunDELETE(path string) *BenchmarkResult {
	return b.run(http.MethodDelete, path, nil)
}

func (b *APIBenchmark) runJSON(method, path string, payload interface{}) *BenchmarkResult {
	body, err := json.Marshal(payload)
	if err != nil {
		return &BenchmarkResult{
			URL:    b.BaseURL + path,
			Method: method,
			Errors: []string{fmt.Sprintf("JSON编码错误: %v", err)},
		}
	}
	return b.run(method, path, body)
}

// run 固定数量的 worker 从任务通道领取请求，直到发完 Requests 个
func (b *APIBenchmark) run(method, path string, body []byte) *BenchmarkResult {
	url := b.BaseURL + path
	tasks := make(chan struct{}, b.Requests)
	for i := 0; i < b.Requests; i++ {
		tasks <- struct{}{}
	}
	close(tasks)

	samples := make([]sample, 0, b.Requests)
	var mu sync.Mutex
	var wg sync.WaitGroup

	started := time.Now()
	for w := 0; w < b.Concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range tasks {
				s := b.do(method, url, body)
				mu.Lock()
				samples = append(samples, s)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	result := summarize(samples, time.Since(started))
	result.URL = url
	result.Method = method
	result.Concurrency = b.Concurrency
	result.TotalRequests = b.Requests
	return result
}

func (b *APIBenchmark) do(method, url string, body []byte) sample {
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		return sample{err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if b.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+b.AuthToken)
	}

	start := time.Now()
	resp, err := b.Client.Do(req)
	if err != nil {
		return sample{err: err}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	return sample{duration: time.Since(start), status: resp.StatusCode}
}

// summarize 汇总耗时与状态码，2xx 计为成功
func summarize(samples []sample, elapsed time.Duration) *BenchmarkResult {
	result := &BenchmarkResult{
		TotalTime:   elapsed,
		StatusCodes: make(map[int]int),
	}

	durations := make([]time.Duration, 0, len(samples))
	var total time.Duration
	for _, s := range samples {
		if s.err != nil {
			result.FailureCount++
			result.Errors = append(result.Errors, s.err.Error())
			continue
		}
		result.StatusCodes[s.status]++
		if s.status >= http.StatusOK && s.status < http.StatusMultipleChoices {
			result.SuccessCount++
		} else {
			result.FailureCount++
		}
		durations = append(durations, s.duration)
		total += s.duration
	}

	if len(durations) > 0 {
		sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })
		result.MinTime = durations[0]
		result.MaxTime = durations[len(durations)-1]
		result.P95Time = durations[int(float64(len(durations)-1)*0.95)]
		result.AverageTime = total / time.Duration(len(durations))
	}
	if elapsed > 0 {
		result.RequestsPerSec = float64(len(samples)) / elapsed.Seconds()
	}
	return result
}

// StatusCount 某个状态码出现的次数
func (r *BenchmarkResult) StatusCount(status int) int {
	return r.StatusCodes[status]
}

// SuccessRate 成功率，百分比
func (r *BenchmarkResult) SuccessRate() float64 {
	if r.TotalRequests == 0 {
		return 0
	}
	return float64(r.SuccessCount) / float64(r.TotalRequests) * 100
}

// PrintResult 打印压测结果
func (r *BenchmarkResult) PrintResult() {
	fmt.Printf("%s %s 并发=%d 请求=%d 成功=%d 失败=%d\n",
		r.Method, r.URL, r.Concurrency, r.TotalRequests, r.SuccessCount, r.FailureCount)
	fmt.Printf("  总耗时=%s 平均=%s 最小=%s 最大=%s P95=%s QPS=%.2f\n",
		r.TotalTime, r.AverageTime, r.MinTime, r.MaxTime, r.P95Time, r.RequestsPerSec)
	fmt.Printf("  状态码: %v\n", r.StatusCodes)
	for i, err := range r.Errors {
		if i >= 5 {
			fmt.Printf("  ... 还有 %d 个错误\n", len(r.Errors)-5)
			break
		}
		fmt.Printf("  错误: %s\n", err)
	}
}
