package watcher

import (
	"bufio"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/doeshing/warden-go/internal/domain"
)

const (
	cpuThrottleThreshold = 85.0
	ramThrottleThreshold = 90.0
	perfSmoothing        = 0.3
)

// PerfMonitor samples system CPU and memory utilization from /proc and keeps
// an exponentially smoothed reading. The watch policy consults it to decide
// when to drop events instead of queueing them.
type PerfMonitor struct {
	interval time.Duration

	mu       sync.RWMutex
	cpu      float64
	ram      float64
	samples  int
	throttle bool

	prevIdle  uint64
	prevTotal uint64

	done chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// NewPerfMonitor builds a monitor sampling at the given interval.
func NewPerfMonitor(interval time.Duration) *PerfMonitor {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &PerfMonitor{interval: interval}
}

// Start launches the sampling loop. Safe to call once.
func (p *PerfMonitor) Start() {
	p.once.Do(func() {
		p.done = make(chan struct{})
		p.wg.Add(1)
		go p.loop()
	})
}

// Stop halts sampling.
func (p *PerfMonitor) Stop() {
	if p.done == nil {
		return
	}
	select {
	case <-p.done:
	default:
		close(p.done)
	}
	p.wg.Wait()
}

// ShouldThrottle reports whether utilization is over the thresholds.
func (p *PerfMonitor) ShouldThrottle() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.throttle
}

// Snapshot returns the smoothed reading.
func (p *PerfMonitor) Snapshot() domain.PerfSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return domain.PerfSnapshot{
		CPUPercent: p.cpu,
		RAMPercent: p.ram,
		Samples:    p.samples,
		Throttling: p.throttle,
	}
}

func (p *PerfMonitor) loop() {
	defer p.wg.Done()
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-p.done:
			return
		case <-ticker.C:
			p.sample()
		}
	}
}

func (p *PerfMonitor) sample() {
	cpu, cpuOK := p.readCPU()
	ram, ramOK := readRAM()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.samples == 0 {
		if cpuOK {
			p.cpu = cpu
		}
		if ramOK {
			p.ram = ram
		}
	} else {
		if cpuOK {
			p.cpu = p.cpu*(1-perfSmoothing) + cpu*perfSmoothing
		}
		if ramOK {
			p.ram = p.ram*(1-perfSmoothing) + ram*perfSmoothing
		}
	}
	p.samples++
	p.throttle = p.cpu > cpuThrottleThreshold || p.ram > ramThrottleThreshold
}

// readCPU derives utilization from consecutive /proc/stat aggregate lines.
func (p *PerfMonitor) readCPU() (float64, bool) {
	file, err := os.Open("/proc/stat")
	if err != nil {
		return 0, false
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	if !scanner.Scan() {
		return 0, false
	}
	fields := strings.Fields(scanner.Text())
	if len(fields) < 5 || fields[0] != "cpu" {
		return 0, false
	}

	var total, idle uint64
	for i, field := range fields[1:] {
		value, err := strconv.ParseUint(field, 10, 64)
		if err != nil {
			return 0, false
		}
		total += value
		// idle + iowait
		if i == 3 || i == 4 {
			idle += value
		}
	}

	defer func() {
		p.prevIdle = idle
		p.prevTotal = total
	}()

	if p.prevTotal == 0 || total <= p.prevTotal {
		return 0, false
	}
	deltaTotal := float64(total - p.prevTotal)
	deltaIdle := float64(idle - p.prevIdle)
	return (deltaTotal - deltaIdle) / deltaTotal * 100, true
}

func readRAM() (float64, bool) {
	file, err := os.Open("/proc/meminfo")
	if err != nil {
		return 0, false
	}
	defer file.Close()

	var total, available uint64
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		value, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			continue
		}
		switch fields[0] {
		case "MemTotal:":
			total = value
		case "MemAvailable:":
			available = value
		}
		if total > 0 && available > 0 {
			break
		}
	}
	if total == 0 {
		return 0, false
	}
	return float64(total-available) / float64(total) * 100, true
}
