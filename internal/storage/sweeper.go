package storage

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ScratchSweeper removes scratch files left behind by a process that died
// mid-submission. Live submissions always release their own files, so only
// files older than maxAge are touched.
type ScratchSweeper struct {
	dir      string
	maxAge   time.Duration
	interval time.Duration
	log      zerolog.Logger
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewScratchSweeper creates a sweeper for dir. maxAge must exceed the longest
// possible submission (poll interval * max polls + analysis timeout).
func NewScratchSweeper(dir string, maxAge, interval time.Duration, log zerolog.Logger) *ScratchSweeper {
	return &ScratchSweeper{
		dir:      dir,
		maxAge:   maxAge,
		interval: interval,
		log:      log.With().Str("component", "scratch-sweeper").Logger(),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs the sweep loop in the background. A non-positive interval or
// maxAge disables the sweeper; Stop still returns immediately.
func (p *ScratchSweeper) Start() {
	if p.interval <= 0 || p.maxAge <= 0 {
		p.log.Info().Dur("interval", p.interval).Dur("max_age", p.maxAge).Msg("scratch sweeper disabled")
		close(p.done)
		return
	}
	go p.loop()
}

func (p *ScratchSweeper) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
	<-p.done
}

func (p *ScratchSweeper) loop() {
	defer close(p.done)

	// Run once on startup to clear anything left from the previous process
	p.Sweep(time.Now())

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			p.Sweep(now)
		case <-p.stop:
			return
		}
	}
}

// Sweep deletes regular files in the scratch dir modified before now-maxAge.
// It returns the number of files removed.
func (p *ScratchSweeper) Sweep(now time.Time) int {
	if p.maxAge <= 0 {
		return 0
	}
	cutoff := now.Add(-p.maxAge)

	var removed int
	var freed int64
	filepath.WalkDir(p.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			return nil
		}
		if err := os.Remove(path); err == nil {
			removed++
			freed += info.Size()
		}
		return nil
	})

	if removed > 0 {
		p.log.Info().
			Int("removed", removed).
			Str("freed", humanizeBytes(freed)).
			Msg("stale scratch files removed")
	}
	return removed
}

func humanizeBytes(b int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)
	switch {
	case b >= GB:
		return fmt.Sprintf("%.1f GB", float64(b)/float64(GB))
	case b >= MB:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(MB))
	case b >= KB:
		return fmt.Sprintf("%.1f KB", float64(b)/float64(KB))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
