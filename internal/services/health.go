package services

import (
	"context"
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// Pinger is satisfied by *sqlx.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthReport struct {
	Status            string    `json:"status"`
	CheckedAt         time.Time `json:"checkedAt"`
	Database          string    `json:"database"`
	DatabaseError     string    `json:"databaseError,omitempty"`
	ProcessRSSBytes   int64     `json:"processRssBytes"`
	SystemMemoryTotal int64     `json:"systemMemoryTotalBytes"`
	SystemMemoryUsed  int64     `json:"systemMemoryUsedBytes"`
	MediaDiskTotal    int64     `json:"mediaDiskTotalBytes,omitempty"`
	MediaDiskUsed     int64     `json:"mediaDiskUsedBytes,omitempty"`
	MediaDiskPercent  float64   `json:"mediaDiskUsedPercent,omitempty"`
}

// CheckHealth pings the database and samples host memory and, when diskPath
// is set, the usage of the filesystem holding the media directory. Only the
// database decides the overall status.
func CheckHealth(ctx context.Context, db Pinger, diskPath string) HealthReport {
	report := HealthReport{Status: "ok", Database: "ok", CheckedAt: time.Now().UTC()}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		report.Status = "degraded"
		report.Database = "unreachable"
		report.DatabaseError = err.Error()
	}

	if memStat, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		report.SystemMemoryTotal = int64(memStat.Total)
		report.SystemMemoryUsed = int64(memStat.Total - memStat.Available)
	}
	if proc, err := process.NewProcessWithContext(ctx, int32(os.Getpid())); err == nil {
		if info, err := proc.MemoryInfoWithContext(ctx); err == nil && info != nil {
			report.ProcessRSSBytes = int64(info.RSS)
		}
	}
	if diskPath != "" {
		if usage, err := disk.UsageWithContext(ctx, diskPath); err == nil {
			report.MediaDiskTotal = int64(usage.Total)
			report.MediaDiskUsed = int64(usage.Used)
			report.MediaDiskPercent = usage.UsedPercent
		}
	}
	return report
}
