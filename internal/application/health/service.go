package health

import (
	"context"
	"encoding/json"
	"runtime"
	"strconv"
	"time"

	"protegeya-backend/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// DBPinger is optional for health check. If nil, database is reported as disconnected.
type DBPinger interface {
	PingContext(ctx context.Context) error
}

// Report is the body of /health/json.
type Report struct {
	Status       string               `json:"status"`
	Runtime      RuntimeInfo          `json:"runtime"`
	Traffic      TrafficInfo          `json:"traffic"`
	Dependencies map[string]DepStatus `json:"dependencies"`
}

type RuntimeInfo struct {
	UptimeSeconds int64      `json:"uptimeSeconds"`
	Memory        MemoryInfo `json:"memory"`
	Goroutines    int        `json:"goroutines"`
	Platform      string     `json:"platform"`
	GoVersion     string     `json:"goVersion"`
}

type MemoryInfo struct {
	AllocMB    int `json:"allocMb"`
	HeapUsedMB int `json:"heapUsedMb"`
}

type TrafficInfo struct {
	TotalRequests   int                    `json:"totalRequests"`
	SuccessCount    int                    `json:"successCount"`
	FailedCount     int                    `json:"failedCount"`
	SuccessRate     string                 `json:"successRate"`
	AvgResponseTime string                 `json:"avgResponseTime"`
	LastRequest     map[string]interface{} `json:"lastRequest"`
}

type DepStatus struct {
	Status string `json:"status"`
	PingMs *int64 `json:"pingMs"`
}

// Collect gathers dependency state and the request statistics kept by middleware.HealthMarker.
func Collect(ctx context.Context, rdb *redis.Client, db DBPinger) Report {
	report := Report{Dependencies: make(map[string]DepStatus, 2)}

	report.Dependencies["database"] = ping(db != nil, func() error { return db.PingContext(ctx) })
	redisDep := ping(rdb != nil, func() error { return rdb.Ping(ctx).Err() })
	report.Dependencies["redis"] = redisDep

	startMs := time.Now().UnixMilli()
	report.Traffic = TrafficInfo{SuccessRate: "100", AvgResponseTime: "0"}
	if redisDep.Status == "connected" {
		startMs = readTraffic(ctx, rdb, &report.Traffic, startMs)
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	uptime := (time.Now().UnixMilli() - startMs) / 1000
	if uptime < 0 {
		uptime = 0
	}
	report.Runtime = RuntimeInfo{
		UptimeSeconds: uptime,
		Memory:        MemoryInfo{AllocMB: int(m.Alloc / 1024 / 1024), HeapUsedMB: int(m.HeapInuse / 1024 / 1024)},
		Goroutines:    runtime.NumGoroutine(),
		Platform:      runtime.GOOS + " (" + runtime.GOARCH + ")",
		GoVersion:     runtime.Version(),
	}

	report.Status = "issue"
	if report.Dependencies["database"].Status == "connected" {
		// Redis is optional; the in-process job lock takes over without it.
		report.Status = "ok"
		if redisDep.Status == "error" {
			report.Status = "degraded"
		}
	}
	return report
}

func ping(configured bool, fn func() error) DepStatus {
	if !configured {
		return DepStatus{Status: "disconnected"}
	}
	start := time.Now()
	if err := fn(); err != nil {
		return DepStatus{Status: "error"}
	}
	ms := time.Since(start).Milliseconds()
	return DepStatus{Status: "connected", PingMs: &ms}
}

func readTraffic(ctx context.Context, rdb *redis.Client, stats *TrafficInfo, startMs int64) int64 {
	vals, err := rdb.MGet(ctx, middleware.KeyReqTotal, middleware.KeyReqErrors, middleware.KeyResTime,
		middleware.KeyResCount, middleware.KeyStartTime, middleware.KeyLastReq).Result()
	if err != nil {
		return startMs
	}
	str := func(i int) string {
		s, _ := vals[i].(string)
		return s
	}

	if t, err := strconv.ParseInt(str(4), 10, 64); err == nil {
		startMs = t
	} else {
		rdb.SetNX(ctx, middleware.KeyStartTime, startMs, 0)
	}

	stats.TotalRequests, _ = strconv.Atoi(str(0))
	stats.FailedCount, _ = strconv.Atoi(str(1))
	stats.SuccessCount = stats.TotalRequests - stats.FailedCount
	if stats.TotalRequests > 0 {
		stats.SuccessRate = strconv.FormatFloat(float64(stats.SuccessCount)/float64(stats.TotalRequests)*100, 'f', 1, 64)
	}
	timeSum, _ := strconv.ParseFloat(str(2), 64)
	if count, _ := strconv.Atoi(str(3)); count > 0 {
		stats.AvgResponseTime = strconv.FormatFloat(timeSum/float64(count), 'f', 2, 64)
	}
	if last := str(5); last != "" {
		_ = json.Unmarshal([]byte(last), &stats.LastRequest)
	}
	return startMs
}

// RecentErrors returns up to limit entries of the error log, newest first.
func RecentErrors(ctx context.Context, rdb *redis.Client, limit int64) ([]map[string]interface{}, error) {
	out := []map[string]interface{}{}
	if rdb == nil {
		return out, nil
	}
	entries, err := rdb.LRange(ctx, middleware.KeyErrorLog, 0, limit-1).Result()
	if err != nil {
		return nil, err
	}
	for _, s := range entries {
		var m map[string]interface{}
		if json.Unmarshal([]byte(s), &m) == nil && m != nil {
			out = append(out, m)
		}
	}
	return out, nil
}

// Reset clears the statistics and restarts the uptime clock.
func Reset(ctx context.Context, rdb *redis.Client, now time.Time) error {
	if err := rdb.Del(ctx, middleware.StatKeys...).Err(); err != nil {
		return err
	}
	return rdb.Set(ctx, middleware.KeyStartTime, strconv.FormatInt(now.UnixMilli(), 10), 0).Err()
}
