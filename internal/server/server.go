package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/text/language"

	"github.com/sendrec/videogate/internal/audit"
	"github.com/sendrec/videogate/internal/catalog"
	"github.com/sendrec/videogate/internal/gate"
	"github.com/sendrec/videogate/internal/ratelimit"
	"github.com/sendrec/videogate/internal/session"
)

const playbackURLExpiry = time.Hour

type Pinger interface {
	Ping(ctx context.Context) error
}

// MediaStore resolves manifest files to playable object storage URLs.
type MediaStore interface {
	MediaKey(file string) string
	HeadObject(ctx context.Context, key string) (int64, string, error)
	GenerateDownloadURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

type Config struct {
	BaseURL         string
	StorageEndpoint string
	DefaultLang     language.Tag

	Sessions *session.Manager
	Gate     *gate.Pool
	Library  *catalog.Library
	Audit    *audit.Recorder

	Media    MediaStore
	MediaDir string

	UnlockLimiter *ratelimit.Limiter
	Gatherer      prometheus.Gatherer
	Pinger        Pinger
}

type Server struct {
	router      chi.Router
	sessions    *session.Manager
	gate        *gate.Pool
	library     *catalog.Library
	audit       *audit.Recorder
	media       MediaStore
	mediaDir    string
	limiter     *ratelimit.Limiter
	gatherer    prometheus.Gatherer
	pinger      Pinger
	defaultLang language.Tag
	secure      bool
	assets      *assetServer
}

func New(cfg Config) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(slogMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders(SecurityConfig{
		BaseURL:         cfg.BaseURL,
		StorageEndpoint: cfg.StorageEndpoint,
	}))

	defaultLang := cfg.DefaultLang
	if defaultLang == language.Und {
		defaultLang = language.Arabic
	}
	auditor := cfg.Audit
	if auditor == nil {
		auditor = audit.NewRecorder(nil, nil)
	}

	s := &Server{
		router:      r,
		sessions:    cfg.Sessions,
		gate:        cfg.Gate,
		library:     cfg.Library,
		audit:       auditor,
		media:       cfg.Media,
		mediaDir:    cfg.MediaDir,
		limiter:     cfg.UnlockLimiter,
		gatherer:    cfg.Gatherer,
		pinger:      cfg.Pinger,
		defaultLang: defaultLang,
		secure:      strings.HasPrefix(cfg.BaseURL, "https://"),
		assets:      newAssetServer(),
	}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Get("/api/health", s.handleHealth)
	if s.gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	s.router.Get("/", s.handleIndex)
	s.router.Get("/index.html", s.handleIndex)
	s.router.Get("/"+catalog.DefaultPlayPath, s.handlePlayer)
	s.router.Get("/"+gate.DefaultLockoutURL, s.handleLockout)
	s.router.Handle("/static/*", s.assets)

	s.router.Group(func(r chi.Router) {
		if s.limiter != nil {
			r.Use(s.limiter.Middleware)
		}
		r.Post("/unlock", s.handleUnlockForm)
		r.Post("/api/unlock", s.handleUnlockAPI)
	})

	if s.mediaDir != "" {
		s.router.Get("/media/*", s.handleMedia)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unhealthy","error":"storage unreachable"}`))
			return
		}
	}
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
