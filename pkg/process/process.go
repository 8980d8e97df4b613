// Package process 提供进程资源占用查询
package process

import (
	"fmt"
	"os"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

// Usage 进程资源占用
type Usage struct {
	PID           int           `json:"pid"`
	Name          string        `json:"name"`
	CPUPercent    float64       `json:"cpu_percent"`
	MemoryRSS     uint64        `json:"memory_rss"`
	MemoryPercent float32       `json:"memory_percent"`
	NumThreads    int32         `json:"num_threads"`
	Uptime        time.Duration `json:"uptime"`
}

// Self 当前进程的资源占用
func Self() (*Usage, error) {
	return Lookup(os.Getpid())
}

// Lookup 按 PID 查询资源占用，单项读取失败时保留零值
func Lookup(pid int) (*Usage, error) {
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		return nil, fmt.Errorf("进程不存在: PID=%d", pid)
	}

	u := &Usage{PID: pid}
	u.Name, _ = proc.Name()
	u.CPUPercent, _ = proc.CPUPercent()
	if mem, err := proc.MemoryInfo(); err == nil && mem != nil {
		u.MemoryRSS = mem.RSS
	}
	u.MemoryPercent, _ = proc.MemoryPercent()
	u.NumThreads, _ = proc.NumThreads()
	if created, err := proc.CreateTime(); err == nil && created > 0 {
		u.Uptime = time.Since(time.UnixMilli(created))
	}
	return u, nil
}

