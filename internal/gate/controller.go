package gate

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sendrec/videogate/internal/catalog"
	"github.com/sendrec/videogate/internal/session"
)

const (
	DefaultMaxAttempts = 3
	DefaultLockoutURL  = "red-ping.html"
)

var ErrCheckInProgress = errors.New("a PIN check is already in progress")

type State int

const (
	Locked State = iota
	Checking
	Unlocked
	LockedOut
)

func (s State) String() string {
	switch s {
	case Locked:
		return "locked"
	case Checking:
		return "checking"
	case Unlocked:
		return "unlocked"
	case LockedOut:
		return "locked_out"
	default:
		return "unknown"
	}
}

// Message identifies a user-facing text; views localize it.
type Message string

const (
	MessageEnterCode     Message = "gate.enter_code"
	MessageIncorrectCode Message = "gate.incorrect_code"
	MessageInternalError Message = "gate.internal_error"
	MessageLibraryError  Message = "gate.library_error"
)

type Verifier interface {
	CheckPin(ctx context.Context, pin string) (bool, error)
}

type Library interface {
	Cards(ctx context.Context) ([]catalog.Card, error)
}

// View is the rendering surface the controller drives.
type View interface {
	ShowGate()
	HideGate()
	ShowError(msg Message)
	ShowAttemptInfo(attempts, max int)
	RenderCards(cards []catalog.Card)
	ShowLibraryError(msg Message)
	Navigate(url string)
}

type Config struct {
	MaxAttempts int
	LockoutURL  string
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.LockoutURL == "" {
		c.LockoutURL = DefaultLockoutURL
	}
	return c
}

// Controller runs the unlock state machine for one session. At most one PIN
// check is in flight at a time.
type Controller struct {
	cfg      Config
	verifier Verifier
	library  Library
	store    session.Store
	tracker  *Tracker
	metrics  *Metrics
	logger   *slog.Logger

	checking atomic.Bool

	mu    sync.Mutex
	state State
}

type Deps struct {
	Verifier Verifier
	Library  Library
	Metrics  *Metrics
	Logger   *slog.Logger
}

func NewController(cfg Config, deps Deps, store session.Store) *Controller {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		cfg:      cfg.withDefaults(),
		verifier: deps.Verifier,
		library:  deps.Library,
		store:    store,
		tracker:  NewTracker(store),
		metrics:  deps.Metrics,
		logger:   logger,
		state:    Locked,
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Controller) MaxAttempts() int {
	return c.cfg.MaxAttempts
}

func (c *Controller) Attempts() int {
	return c.tracker.Attempts()
}

// Start renders the initial state for a page load.
func (c *Controller) Start(ctx context.Context, v View) State {
	if c.checking.Load() {
		v.ShowGate()
		v.ShowAttemptInfo(c.tracker.Attempts(), c.cfg.MaxAttempts)
		return Checking
	}

	if IsUnlocked(c.store) {
		c.setState(Unlocked)
		v.HideGate()
		c.reveal(ctx, v)
		return Unlocked
	}

	attempts := c.tracker.Attempts()
	if attempts >= c.cfg.MaxAttempts {
		c.setState(LockedOut)
		v.Navigate(c.cfg.LockoutURL)
		return LockedOut
	}

	c.setState(Locked)
	v.ShowGate()
	v.ShowAttemptInfo(attempts, c.cfg.MaxAttempts)
	return Locked
}

// Submit checks a candidate PIN. It returns ErrCheckInProgress without side
// effects when another check for this session has not finished.
func (c *Controller) Submit(ctx context.Context, input string, v View) (State, error) {
	candidate := strings.TrimSpace(input)
	state, claimed := c.begin(candidate != "")
	switch state {
	case Unlocked:
		return Unlocked, nil
	case LockedOut:
		v.Navigate(c.cfg.LockoutURL)
		return LockedOut, nil
	}

	if candidate == "" {
		c.metrics.outcome(OutcomeEmpty)
		v.ShowError(MessageEnterCode)
		return state, nil
	}

	if !claimed {
		c.metrics.outcome(OutcomeBusy)
		return Checking, ErrCheckInProgress
	}
	defer c.checking.Store(false)

	start := time.Now()
	ok, err := c.verifier.CheckPin(ctx, candidate)
	c.metrics.checkSeconds(time.Since(start).Seconds())

	if err != nil {
		c.logger.Error("gate: pin check failed", "error", err)
		c.metrics.outcome(OutcomeError)
		c.setState(Locked)
		v.ShowError(MessageInternalError)
		return Locked, nil
	}

	if ok {
		markUnlocked(c.store)
		c.tracker.Reset()
		c.setState(Unlocked)
		c.metrics.outcome(OutcomeUnlocked)
		c.logger.Info("gate: unlocked")
		v.HideGate()
		v.ShowAttemptInfo(0, c.cfg.MaxAttempts)
		c.reveal(ctx, v)
		return Unlocked, nil
	}

	attempts := c.tracker.Increase()
	v.ShowAttemptInfo(attempts, c.cfg.MaxAttempts)
	if attempts >= c.cfg.MaxAttempts {
		c.setState(LockedOut)
		c.metrics.outcome(OutcomeLockedOut)
		c.logger.Warn("gate: attempts exhausted", "attempts", attempts)
		v.Navigate(c.cfg.LockoutURL)
		return LockedOut, nil
	}

	c.setState(Locked)
	c.metrics.outcome(OutcomeIncorrect)
	c.logger.Info("gate: incorrect pin", "attempts", attempts)
	v.ShowError(MessageIncorrectCode)
	return Locked, nil
}

// begin resolves terminal states from the session and, when claim is set
// and no check is in flight, takes the in-flight guard. Both happen under
// c.mu so a submission never starts after the session became terminal.
func (c *Controller) begin(claim bool) (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.state == Unlocked || IsUnlocked(c.store):
		c.state = Unlocked
		return Unlocked, false
	case c.state == LockedOut || c.tracker.Attempts() >= c.cfg.MaxAttempts:
		c.state = LockedOut
		return LockedOut, false
	}
	if !claim || !c.checking.CompareAndSwap(false, true) {
		return c.state, false
	}
	c.state = Checking
	return Checking, true
}

func (c *Controller) reveal(ctx context.Context, v View) {
	cards, err := c.library.Cards(ctx)
	if err != nil {
		c.logger.Error("gate: failed to load video list", "error", err)
		v.ShowLibraryError(MessageLibraryError)
		return
	}
	v.RenderCards(cards)
}
