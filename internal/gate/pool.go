package gate

import (
	"log/slog"
	"sync"

	"github.com/sendrec/videogate/internal/session"
)

// Pool keeps one controller per live session.
type Pool struct {
	cfg  Config
	deps Deps

	mu          sync.Mutex
	controllers map[string]*Controller
}

func NewPool(cfg Config, deps Deps) *Pool {
	return &Pool{
		cfg:         cfg.withDefaults(),
		deps:        deps,
		controllers: make(map[string]*Controller),
	}
}

func (p *Pool) Config() Config {
	return p.cfg
}

func (p *Pool) Get(s *session.Session) *Controller {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.controllers[s.ID]
	if !ok {
		deps := p.deps
		if deps.Logger == nil {
			deps.Logger = slog.Default()
		}
		deps.Logger = deps.Logger.With("session", shortID(s.ID))
		c = NewController(p.cfg, deps, s)
		p.controllers[s.ID] = c
	}
	return c
}

func (p *Pool) Forget(sessionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.controllers, sessionID)
}

func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.controllers)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
