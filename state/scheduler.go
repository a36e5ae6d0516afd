package state

import (
	"sync"
	"time"

	"github.com/cbosdo/libvirt/errdefs"
	"k8s.io/utils/clock"
)

// Scheduler provides the timer that drives dispatch cycles.
type Scheduler interface {
	// Arm starts calling fire whenever the returned Wake is kicked, and
	// possibly on a schedule of its own. fire is never called concurrently
	// with itself for one Wake.
	Arm(fire func()) (Wake, error)
}

// Wake controls an armed timer.
type Wake interface {
	// Kick asks for fire to run soon. It never blocks, and is a no-op once
	// the wake is cancelled.
	Kick()
	// Cancel stops the timer. It does not wait for a running fire to
	// return, so it is safe to call from inside fire.
	Cancel()
}

// DefaultTickInterval is how often the default scheduler fires without being
// kicked.
const DefaultTickInterval = time.Second

// TickerScheduler fires on a clock ticker and whenever kicked, from one
// goroutine per armed wake.
type TickerScheduler struct {
	clock    clock.WithTicker
	interval time.Duration
}

// NewTickerScheduler returns a scheduler ticking every interval on c. With a
// zero interval the wake only fires when kicked.
func NewTickerScheduler(c clock.WithTicker, interval time.Duration) *TickerScheduler {
	return &TickerScheduler{clock: c, interval: interval}
}

// Arm implements Scheduler.
func (s *TickerScheduler) Arm(fire func()) (Wake, error) {
	if s.interval < 0 {
		return nil, errdefs.InvalidInputf("negative tick interval %s", s.interval)
	}

	w := &tickerWake{
		kick: make(chan struct{}, 1),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	var tick <-chan time.Time
	var ticker clock.Ticker
	if s.interval > 0 {
		ticker = s.clock.NewTicker(s.interval)
		tick = ticker.C()
	}

	go func() {
		defer close(w.done)
		if ticker != nil {
			defer ticker.Stop()
		}
		for {
			select {
			case <-w.stop:
				return
			case <-tick:
			case <-w.kick:
			}
			// stop wins over a pending tick or kick
			select {
			case <-w.stop:
				return
			default:
			}
			fire()
		}
	}()
	return w, nil
}

type tickerWake struct {
	kick chan struct{}
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

func (w *tickerWake) Kick() {
	select {
	case w.kick <- struct{}{}:
	default:
	}
}

func (w *tickerWake) Cancel() {
	w.once.Do(func() { close(w.stop) })
}
