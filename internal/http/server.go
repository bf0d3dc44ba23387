package http

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"splitledger/internal/log"
	"splitledger/internal/middleware/ratelimit"
	"splitledger/internal/middleware/security"
	"splitledger/internal/services"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services bundles the application services the API exposes.
type Services struct {
	Users       *services.UserService
	Groups      *services.GroupService
	Expenses    *services.ExpenseService
	Settlements *services.SettlementService
	Ledger      *services.LedgerService
}

// Options tunes the transport concerns of the server.
type Options struct {
	Addr               string
	RateLimitPerMinute int
	CORSAllowedOrigins []string
	Logger             *log.Logger
}

type Server struct {
	http.Server

	users       *services.UserService
	groups      *services.GroupService
	expenses    *services.ExpenseService
	settlements *services.SettlementService
	ledger      *services.LedgerService
	db          Pinger

	limiter *ratelimit.Limiter
	ips     *security.IPResolver
	started time.Time

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a server ready for
// ListenAndServe.
func NewServer(opts Options, svc Services, db Pinger) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	s := &Server{
		users:       svc.Users,
		groups:      svc.Groups,
		expenses:    svc.Expenses,
		settlements: svc.Settlements,
		ledger:      svc.Ledger,
		db:          db,
		limiter:     ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		ips:         security.NewIPResolver(),
		started:     time.Now(),
	}
	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.routes(logger.WithComponent(log.ComponentHTTP), opts.CORSAllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s
}

func (s *Server) routes(logger *log.Logger, origins []string) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(log.Middleware(logger))
	r.Use(log.RequestLogger)
	r.Use(chimw.Recoverer)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", UserIDHeader, chimw.RequestIDHeader},
		ExposedHeaders: []string{chimw.RequestIDHeader},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.limiter.Middleware(s.rateKey, func(w http.ResponseWriter, r *http.Request) {
			writeMessage(w, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
		}))

		r.Post("/users", s.handleRegisterUser)

		r.Group(func(r chi.Router) {
			r.Use(requireCaller)

			r.Get("/users/me", s.handleMe)

			r.Route("/groups", func(r chi.Router) {
				r.Post("/", s.handleCreateGroup)
				r.Get("/", s.handleListGroups)
				r.Get("/{groupID}", s.handleGetGroup)
				r.Get("/{groupID}/members", s.handleListMembers)
				r.Post("/{groupID}/members", s.handleAddMember)
				r.Delete("/{groupID}/members/{userID}", s.handleRemoveMember)
			})

			r.Route("/expenses", func(r chi.Router) {
				r.Post("/", s.handleCreateExpense)
				r.Get("/group/{groupID}", s.handleListGroupExpenses)
				r.Get("/{expenseID}", s.handleGetExpense)
				r.Put("/{expenseID}", s.handleUpdateExpense)
				r.Delete("/{expenseID}", s.handleDeleteExpense)
			})

			r.Route("/settlements", func(r chi.Router) {
				r.Post("/", s.handleCreateSettlement)
				r.Get("/group/{groupID}", s.handleListGroupSettlements)
			})

			r.Route("/balances", func(r chi.Router) {
				r.Get("/me", s.handleMyBalances)
				r.Get("/group/{groupID}", s.handleGroupBalances)
				r.Get("/simplified", s.handleSimplified)
				r.Get("/simplified/group/{groupID}", s.handleGroupSimplified)
			})
		})
	})

	return r
}

// rateKey limits identified callers per user and anonymous ones per address.
func (s *Server) rateKey(r *http.Request) string {
	if id, ok := parseUserID(r.Header.Get(UserIDHeader)); ok {
		return "user:" + strconv.FormatInt(int64(id), 10)
	}
	return "ip:" + s.ips.ClientIP(r)
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
