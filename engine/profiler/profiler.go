package profiler

import (
	"runtime"
	"time"

	"github.com/Carmen-Shannon/voxel-go/common"
)

const mib = 1 << 20

// FrameStats is the timing of the most recent frame.
type FrameStats struct {
	FPS       float64
	FrameTime time.Duration
}

// window accumulates frames between two summaries.
type window struct {
	start      time.Time
	frames     int
	numGC      uint32
	totalAlloc uint64
}

// Profiler samples frame timing on every Tick and logs a summary of frame rate, heap and GC activity
// through common.Logger once per interval.
type Profiler struct {
	interval  time.Duration
	current   window
	lastFrame time.Time
	stats     FrameStats
	mem       runtime.MemStats
}

// NewProfiler returns a profiler that logs once a second.
func NewProfiler() *Profiler {
	return &Profiler{
		interval: time.Second,
		current:  window{start: time.Now()},
	}
}

// SetInterval changes the time between summaries. Non-positive values are ignored.
func (p *Profiler) SetInterval(interval time.Duration) {
	if interval > 0 {
		p.interval = interval
	}
}

// Stats returns the latest frame sample, zero until two ticks have happened.
func (p *Profiler) Stats() FrameStats {
	return p.stats
}

// Tick records one frame.
//
// Returns:
//   - bool: whether a summary was logged
func (p *Profiler) Tick() bool {
	return p.tick(time.Now())
}

func (p *Profiler) tick(now time.Time) bool {
	if !p.lastFrame.IsZero() {
		if dt := now.Sub(p.lastFrame); dt > 0 {
			p.stats = FrameStats{FPS: float64(time.Second) / float64(dt), FrameTime: dt}
		}
	}
	p.lastFrame = now

	p.current.frames++
	elapsed := now.Sub(p.current.start)
	if elapsed < p.interval {
		return false
	}

	runtime.ReadMemStats(&p.mem)
	seconds := elapsed.Seconds()
	lastPause, maxPause := p.gcPauses()
	common.Logger().Info("profiler",
		"fps", float64(p.current.frames)/seconds,
		"frame_time", p.stats.FrameTime,
		"heap_mb", float64(p.mem.Alloc)/mib,
		"alloc_rate_mb_s", float64(p.mem.TotalAlloc-p.current.totalAlloc)/mib/seconds,
		"gc", p.mem.NumGC,
		"gc_last_pause_us", lastPause.Microseconds(),
		"gc_max_pause_us", maxPause.Microseconds(),
		"sys_mb", float64(p.mem.Sys)/mib,
	)

	p.current = window{start: now, numGC: p.mem.NumGC, totalAlloc: p.mem.TotalAlloc}
	return true
}

// gcPauses returns the most recent pause and the longest one since the window began. Only the
// last len(PauseNs) pauses are retained by the runtime.
func (p *Profiler) gcPauses() (last, longest time.Duration) {
	n := p.mem.NumGC
	if n == 0 {
		return 0, 0
	}
	ring := uint32(len(p.mem.PauseNs))
	last = time.Duration(p.mem.PauseNs[(n-1)%ring])

	from := p.current.numGC
	if n-from > ring {
		from = n - ring
	}
	for i := from; i < n; i++ {
		longest = max(longest, time.Duration(p.mem.PauseNs[i%ring]))
	}
	return last, longest
}
