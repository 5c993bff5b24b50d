package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrijs2005/kbcenter/internal/logging"
	"github.com/dmitrijs2005/kbcenter/internal/server/observability"
)

const shutdownTimeout = 10 * time.Second

// Options wires the server's collaborators. Registry and Ready are optional.
type Options struct {
	Address        string
	Logger         logging.Logger
	Accounts       AccountService
	Entries        EntryService
	Replies        ReplyService
	Metrics        *observability.Metrics
	Registry       *prometheus.Registry
	AllowedOrigins []string
	Ready          func(ctx context.Context) error
}

type Server struct {
	address  string
	logger   logging.Logger
	accounts AccountService
	entries  EntryService
	replies  ReplyService
	metrics  *observability.Metrics
	registry *prometheus.Registry
	origins  []string
	ready    func(ctx context.Context) error
}

func NewServer(o Options) *Server {
	logger := o.Logger
	if logger == nil {
		logger = logging.Nop{}
	}
	return &Server{
		address:  o.Address,
		logger:   logger.With("module", "http_server"),
		accounts: o.Accounts,
		entries:  o.Entries,
		replies:  o.Replies,
		metrics:  o.Metrics,
		registry: o.Registry,
		origins:  o.AllowedOrigins,
		ready:    o.Ready,
	}
}

// Router builds the chi router with every route and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.instrument)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.health)
	if s.registry != nil {
		r.Method(http.MethodGet, "/metrics", observability.Handler(s.registry))
	}

	r.Post("/register", s.register)
	r.Post("/login", s.login)

	r.Route("/kb", func(r chi.Router) {
		r.Get("/", s.listEntries)
		r.Get("/{id}", s.getEntry)
		r.Get("/{id}/attachment", s.downloadAttachment)
		r.Get("/{id}/replies", s.listReplies)

		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)
			r.Post("/", s.createEntry)
			r.Put("/{id}", s.updateEntry)
			r.Delete("/{id}", s.deleteEntry)
			r.Post("/{id}/attachment", s.uploadAttachment)
			r.Post("/{id}/replies", s.addReply)
		})
	})

	r.Route("/replies", func(r chi.Router) {
		r.Use(s.requireSession)
		r.Put("/{id}", s.updateReply)
		r.Delete("/{id}", s.deleteReply)
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	stopped := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		stopped <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-stopped
}
