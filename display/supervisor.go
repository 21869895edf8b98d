package sargam

import (
	"log/slog"
	"sync"
	"time"
)

// FlushSupervisor periodically flushes the studio output,
// so buffered melodies reach the archive without waiting
// for a full batch.
type FlushSupervisor struct {
	Studio   *Studio
	Interval time.Duration
	Ticker   *time.Ticker
	StopChan chan struct{}
	WG       sync.WaitGroup
}

// NewFlushSupervisor is a wrapper around the Studio that manages the flush goroutine
// They are strongly coupled, one knows about the other
func (s *Studio) NewFlushSupervisor(interval time.Duration) *FlushSupervisor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	fs := &FlushSupervisor{
		Studio:   s,
		Interval: interval,
	}
	s.Supervisor = fs
	return fs
}

// Start the FlushSupervisor
func (f *FlushSupervisor) Start() {
	f.StopChan = make(chan struct{})
	f.Ticker = time.NewTicker(f.Interval)

	f.WG.Add(1)
	go func() {
		defer f.WG.Done()
		defer f.Ticker.Stop()

		for {
			select {
			case <-f.Ticker.C:
				f.flush()
			case <-f.StopChan:
				return
			}
		}
	}()
}

func (f *FlushSupervisor) flush() {
	out := f.Studio.Output
	if out == nil {
		return
	}
	err := out.Flush()
	f.Studio.Stats.RecFlush(err)
	if err != nil {
		slog.Error("Output flush failed", slog.String("output", out.Type()), slog.Any("error", err))
	}
}

// Stop the FlushSupervisor, safe to call more than once
func (f *FlushSupervisor) Stop() {
	if f.StopChan != nil {
		close(f.StopChan)
		f.WG.Wait()
		f.StopChan = nil
	}
}
