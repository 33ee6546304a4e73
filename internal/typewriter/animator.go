// Package typewriter implements a rotating headline that types a string one
// character at a time, pauses, deletes it, and moves on to the next one.
package typewriter

import (
	"errors"
	"sync"
	"time"
)

// Timing of the cycle. These are fixed; the page was tuned around them.
const (
	TypeSpeed     = 100 * time.Millisecond
	DeleteSpeed   = 50 * time.Millisecond
	PauseDuration = 2000 * time.Millisecond
	BlinkInterval = 500 * time.Millisecond
)

// ErrEmptySequence is returned when an animator is given nothing to type.
var ErrEmptySequence = errors.New("typewriter: sequence must not be empty")

// Observer receives every state change. It is called with the animator's
// lock held and must not call back into the Animator.
type Observer func(State)

// Option configures an Animator.
type Option func(*Animator)

// WithScheduler replaces the wall clock, mainly for tests.
func WithScheduler(s Scheduler) Option {
	return func(a *Animator) {
		if s != nil {
			a.sched = s
		}
	}
}

// WithObserver registers fn to be notified of state changes.
func WithObserver(fn Observer) Option {
	return func(a *Animator) {
		a.observer = fn
	}
}

// Animator drives the typing cycle over a sequence of strings.
//
// At most one cycle tick and one cursor blink are pending at any time. Each
// scheduled callback carries a generation number, so a callback that was
// superseded or outlived Stop does nothing when it finally runs.
type Animator struct {
	mu       sync.Mutex
	sched    Scheduler
	observer Observer

	seq     [][]rune
	index   int
	visible int
	phase   Phase
	cursor  bool

	tick     Timer
	tickGen  uint64
	blink    Timer
	blinkGen uint64

	running bool
	stopped bool
}

// New returns an idle animator for seq. Call Start to begin animating.
func New(seq []string, opts ...Option) (*Animator, error) {
	runes, err := toRunes(seq)
	if err != nil {
		return nil, err
	}
	a := &Animator{
		sched:  WallClock(),
		seq:    runes,
		cursor: true,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

func toRunes(seq []string) ([][]rune, error) {
	if len(seq) == 0 {
		return nil, ErrEmptySequence
	}
	out := make([][]rune, len(seq))
	for i, s := range seq {
		out[i] = []rune(s)
	}
	return out, nil
}

// Start schedules the first typing tick and the cursor blink, then reports
// the initial state. It does nothing if the animator is already running or
// has been stopped.
func (a *Animator) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.running || a.stopped {
		return
	}
	a.running = true
	a.scheduleTickLocked(TypeSpeed)
	a.scheduleBlinkLocked()
	a.notifyLocked()
}

// Stop cancels every pending timer. No state change is observed afterwards.
// Calling Stop more than once is safe.
func (a *Animator) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}
	a.stopped = true
	a.running = false
	a.tickGen++
	a.blinkGen++
	if a.tick != nil {
		a.tick.Stop()
		a.tick = nil
	}
	if a.blink != nil {
		a.blink.Stop()
		a.blink = nil
	}
}

// SetSequence replaces the sequence and restarts the cycle from its first
// entry. The cursor blink is left alone.
func (a *Animator) SetSequence(seq []string) error {
	runes, err := toRunes(seq)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return nil
	}
	a.seq = runes
	a.index = 0
	a.visible = 0
	a.phase = Typing
	if a.running {
		a.scheduleTickLocked(TypeSpeed)
		a.notifyLocked()
	}
	return nil
}

// State returns the current snapshot.
func (a *Animator) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stateLocked()
}

// Sequence returns a copy of the strings being animated.
func (a *Animator) Sequence() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.seq))
	for i, r := range a.seq {
		out[i] = string(r)
	}
	return out
}

func (a *Animator) stateLocked() State {
	return State{
		Index:         a.index,
		Text:          string(a.seq[a.index][:a.visible]),
		Phase:         a.phase,
		CursorVisible: a.cursor,
	}
}

func (a *Animator) notifyLocked() {
	if a.observer != nil {
		a.observer(a.stateLocked())
	}
}

// scheduleTickLocked replaces any pending cycle tick with one due after d.
func (a *Animator) scheduleTickLocked(d time.Duration) {
	if a.tick != nil {
		a.tick.Stop()
	}
	a.tickGen++
	gen := a.tickGen
	a.tick = a.sched.AfterFunc(d, func() { a.onTick(gen) })
}

func (a *Animator) scheduleBlinkLocked() {
	if a.blink != nil {
		a.blink.Stop()
	}
	a.blinkGen++
	gen := a.blinkGen
	a.blink = a.sched.AfterFunc(BlinkInterval, func() { a.onBlink(gen) })
}

func (a *Animator) onTick(gen uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped || gen != a.tickGen {
		return
	}
	a.tick = nil

	target := a.seq[a.index]
	switch a.phase {
	case Typing:
		if a.visible < len(target) {
			a.visible++
		}
		if a.visible == len(target) {
			a.phase = Pausing
			a.scheduleTickLocked(PauseDuration)
		} else {
			a.scheduleTickLocked(TypeSpeed)
		}
	case Pausing:
		a.phase = Deleting
		a.scheduleTickLocked(DeleteSpeed)
	case Deleting:
		if a.visible > 0 {
			a.visible--
		}
		if a.visible == 0 {
			a.index = (a.index + 1) % len(a.seq)
			a.phase = Typing
			a.scheduleTickLocked(TypeSpeed)
		} else {
			a.scheduleTickLocked(DeleteSpeed)
		}
	}
	a.notifyLocked()
}

func (a *Animator) onBlink(gen uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped || gen != a.blinkGen {
		return
	}
	a.blink = nil
	a.cursor = !a.cursor
	a.scheduleBlinkLocked()
	a.notifyLocked()
}

// CycleDuration returns how long one type-pause-delete pass over s takes,
// from the start of typing until the index advances.
func CycleDuration(s string) time.Duration {
	n := time.Duration(len([]rune(s)))
	if n == 0 {
		// One typing tick to notice the target is complete, one delete tick to
		// notice it is empty.
		return TypeSpeed + PauseDuration + DeleteSpeed
	}
	return n*TypeSpeed + PauseDuration + n*DeleteSpeed
}
