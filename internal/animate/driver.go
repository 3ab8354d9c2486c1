package animate

import (
	"math"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// DefaultFrameInterval is roughly one frame at 60Hz.
const DefaultFrameInterval = 16 * time.Millisecond

// Target names a display slot that at most one animation drives at a time.
type Target string

// FrameMsg asks the driver to advance the run identified by ID on Target.
type FrameMsg struct {
	Target Target
	ID     uint64
	At     time.Time
}

// startMsg fires when a delayed run is due.
type startMsg struct {
	target Target
	id     uint64
}

type run struct {
	id      uint64
	anim    Number
	started time.Time
	elapsed time.Duration
	pending bool
}

// Driver owns the animation runs of a set of targets. Starting a run on a
// target cancels whatever was running or scheduled there, and frames that
// belong to a cancelled run are dropped.
//
// A Driver is not safe for concurrent use; bubbletea calls Update from a
// single goroutine.
type Driver struct {
	now      func() time.Time
	interval time.Duration

	seq   uint64
	runs  map[Target]*run
	texts map[Target]string
	vals  map[Target]float64
}

// DriverOption configures a Driver.
type DriverOption func(*Driver)

// WithClock replaces time.Now as the source of run start times.
func WithClock(now func() time.Time) DriverOption {
	return func(d *Driver) {
		d.now = now
	}
}

// WithFrameInterval sets the delay between frames.
func WithFrameInterval(interval time.Duration) DriverOption {
	return func(d *Driver) {
		if interval > 0 {
			d.interval = interval
		}
	}
}

// NewDriver creates an idle driver.
func NewDriver(opts ...DriverOption) *Driver {
	d := &Driver{
		now:      time.Now,
		interval: DefaultFrameInterval,
		runs:     make(map[Target]*run),
		texts:    make(map[Target]string),
		vals:     make(map[Target]float64),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start cancels any run on t and begins animating n. A transition without a
// finite target shows Placeholder and schedules nothing.
func (d *Driver) Start(t Target, n Number) tea.Cmd {
	d.Cancel(t)

	if !n.Valid() {
		d.texts[t] = Placeholder
		d.vals[t] = math.NaN()
		return nil
	}

	d.seq++
	r := &run{id: d.seq, anim: n, started: d.now()}
	d.runs[t] = r
	d.apply(t, r)

	if n.Done(0) {
		delete(d.runs, t)
		return nil
	}
	return d.tick(t, r.id)
}

// StartAfter cancels any run on t and schedules n to start after delay. The
// target keeps its current state until then.
func (d *Driver) StartAfter(t Target, delay time.Duration, n Number) tea.Cmd {
	if delay <= 0 || !n.Valid() {
		return d.Start(t, n)
	}
	d.Cancel(t)

	d.seq++
	id := d.seq
	d.runs[t] = &run{id: id, anim: n, pending: true}

	return tea.Tick(delay, func(time.Time) tea.Msg {
		return startMsg{target: t, id: id}
	})
}

// Cancel stops the run on t, if any. The target keeps its last frame.
func (d *Driver) Cancel(t Target) {
	delete(d.runs, t)
}

// Reset cancels every run and clears all targets.
func (d *Driver) Reset() {
	d.runs = make(map[Target]*run)
	d.texts = make(map[Target]string)
	d.vals = make(map[Target]float64)
}

// Update advances runs in response to driver messages. Other messages are
// ignored and yield a nil command.
func (d *Driver) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case FrameMsg:
		r, ok := d.runs[msg.Target]
		if !ok || r.id != msg.ID || r.pending {
			return nil
		}
		if elapsed := msg.At.Sub(r.started); elapsed > r.elapsed {
			r.elapsed = elapsed
		}
		d.apply(msg.Target, r)
		if r.anim.Done(r.elapsed) {
			delete(d.runs, msg.Target)
			return nil
		}
		return d.tick(msg.Target, r.id)

	case startMsg:
		r, ok := d.runs[msg.target]
		if !ok || r.id != msg.id || !r.pending {
			return nil
		}
		return d.Start(msg.target, r.anim)
	}
	return nil
}

// Text returns the current frame text of t.
func (d *Driver) Text(t Target) string {
	return d.texts[t]
}

// Value returns the current numeric value of t. ok is false when the target
// has never been drawn.
func (d *Driver) Value(t Target) (v float64, ok bool) {
	v, ok = d.vals[t]
	return v, ok
}

// Active reports whether t has a running or scheduled animation.
func (d *Driver) Active(t Target) bool {
	_, ok := d.runs[t]
	return ok
}

// Running returns the number of running or scheduled animations.
func (d *Driver) Running() int {
	return len(d.runs)
}

func (d *Driver) apply(t Target, r *run) {
	d.texts[t] = r.anim.TextAt(r.elapsed)
	d.vals[t] = r.anim.ValueAt(r.elapsed)
}

func (d *Driver) tick(t Target, id uint64) tea.Cmd {
	return tea.Tick(d.interval, func(at time.Time) tea.Msg {
		return FrameMsg{Target: t, ID: id, At: at}
	})
}
