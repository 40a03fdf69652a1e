package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/Gaurav-Gosain/tinyvt/internal/config"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
)

const cpuHistorySize = 10

// UpdateStats refreshes the host and child process statistics shown in
// the status bar. Sampling is rate-limited; ticks in between are free.
func (a *App) UpdateStats() {
	now := time.Now()
	if now.Sub(a.LastStatsUpdate) < config.StatsUpdateInterval {
		return
	}
	a.LastStatsUpdate = now

	// Host stats are skipped for remote sessions: every connection
	// sampling the server's CPU adds up, and the numbers describe the
	// server, not the client's machine.
	if !a.IsSSHMode {
		// Interval 0 measures since the previous call, so this never
		// blocks the update loop.
		if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
			if len(a.CPUHistory) >= cpuHistorySize {
				a.CPUHistory = a.CPUHistory[1:]
			}
			a.CPUHistory = append(a.CPUHistory, percents[0])
		}

		if vm, err := mem.VirtualMemory(); err == nil {
			a.RAMUsage = vm.UsedPercent
		}
	}

	a.updateChildStats()
}

// updateChildStats samples the child process by PID. Failures clear the
// fields so a dead process doesn't show stale numbers.
func (a *App) updateChildStats() {
	a.ChildName = ""
	a.ChildCPU = 0
	a.ChildRSS = 0

	if a.Session == nil || a.Session.Cmd == nil || a.Session.Cmd.Process == nil {
		return
	}
	proc, err := process.NewProcess(int32(a.Session.Cmd.Process.Pid))
	if err != nil {
		return
	}
	if name, err := proc.Name(); err == nil {
		a.ChildName = name
	}
	if pct, err := proc.CPUPercent(); err == nil {
		a.ChildCPU = pct
	}
	if info, err := proc.MemoryInfo(); err == nil && info != nil {
		a.ChildRSS = info.RSS
	}
}

// CPUGraph renders the host CPU history as a fixed-width sparkline so
// the status bar never shifts.
func (a *App) CPUGraph() string {
	current := 0.0
	if len(a.CPUHistory) > 0 {
		current = a.CPUHistory[len(a.CPUHistory)-1]
	}

	graph := ""
	if pad := cpuHistorySize - len(a.CPUHistory); pad > 0 {
		graph = strings.Repeat(" ", pad)
	}

	bars := []string{"▁", "▂", "▃", "▄", "▅", "▆", "▇", "█"}
	for i, usage := range a.CPUHistory {
		if i >= cpuHistorySize {
			break
		}
		height := min(int(usage/12.5), len(bars)-1)
		graph += bars[height]
	}

	return fmt.Sprintf("CPU:%s %3.0f%%", graph, current)
}

// FormatBytes renders a byte count with a binary unit suffix.
func FormatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%cB", float64(n)/float64(div), "KMGT"[exp])
}
