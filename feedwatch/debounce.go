package feedwatch

import (
	"time"

	"github.com/hazyhaar/vidlens/feedwatch/change"
)

// debounceConfig controls one tier's batching behaviour.
type debounceConfig struct {
	// Window is the quiet period after the last record before a flush.
	Window time.Duration
	// MaxBuffer flushes immediately when this many records accumulate.
	MaxBuffer int
	// Clock supplies the window timers.
	Clock Clock
}

func (dc *debounceConfig) defaults() {
	if dc.Window <= 0 {
		dc.Window = 50 * time.Millisecond
	}
	if dc.MaxBuffer <= 0 {
		dc.MaxBuffer = 1000
	}
	if dc.Clock == nil {
		dc.Clock = SystemClock
	}
}

// debouncer collects raw records and emits one coalesced flush per quiescent
// period. Every add restarts the window timer, so a burst of N records
// produces exactly one flush once the burst goes quiet.
type debouncer struct {
	cfg     debounceConfig
	records []change.Record
	timer   Timer
	timerCh <-chan time.Time
	flushFn func([]change.Record)
}

func newDebouncer(cfg debounceConfig, flushFn func([]change.Record)) *debouncer {
	cfg.defaults()
	return &debouncer{
		cfg:     cfg,
		records: make([]change.Record, 0, cfg.MaxBuffer),
		flushFn: flushFn,
	}
}

// add pushes a record into the buffer. Returns true if an immediate flush
// was triggered (buffer full).
func (d *debouncer) add(rec change.Record) bool {
	d.records = append(d.records, rec)

	if len(d.records) >= d.cfg.MaxBuffer {
		d.flush()
		return true
	}

	// (Re)start the window timer.
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = d.cfg.Clock.NewTimer(d.cfg.Window)
	d.timerCh = d.timer.C()
	return false
}

// timerC returns the channel that fires when the window expires.
func (d *debouncer) timerC() <-chan time.Time {
	return d.timerCh
}

// flush coalesces and emits the buffered records, then resets.
func (d *debouncer) flush() {
	if len(d.records) == 0 {
		return
	}

	coalesced := coalesce(d.records)
	d.flushFn(coalesced)

	d.records = d.records[:0]
	d.stopTimer()
}

// discard drops buffered records and cancels the pending timer. Used on
// teardown: nothing may fire after Stop.
func (d *debouncer) discard() {
	d.records = d.records[:0]
	d.stopTimer()
}

func (d *debouncer) stopTimer() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
		d.timerCh = nil
	}
}

// coalesce collapses records that add no information to a pass:
//   - consecutive attr records on the same (tier, name) → keep one
//   - doc_reset repeated in one window → keep the first
//   - insert records are never collapsed (each names distinct items)
func coalesce(records []change.Record) []change.Record {
	if len(records) == 0 {
		return nil
	}
	if len(records) == 1 {
		// Copy out: the buffer's backing array is reused after a flush.
		return []change.Record{records[0]}
	}

	result := make([]change.Record, 0, len(records))
	sawReset := false

	for i := 0; i < len(records); i++ {
		rec := records[i]

		switch rec.Op {
		case change.OpAttr:
			j := i + 1
			for j < len(records) &&
				records[j].Op == change.OpAttr &&
				records[j].Tier == rec.Tier &&
				records[j].Name == rec.Name {
				j++
			}
			result = append(result, rec)
			i = j - 1

		case change.OpDocReset:
			if sawReset {
				continue
			}
			sawReset = true
			result = append(result, rec)

		default:
			result = append(result, rec)
		}
	}

	return result
}
