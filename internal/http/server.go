package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/koulibalyamadou10/afrilyft-bolt/internal/config"
	"github.com/koulibalyamadou10/afrilyft-bolt/internal/dispatch"
	"github.com/koulibalyamadou10/afrilyft-bolt/internal/eta"
	"github.com/koulibalyamadou10/afrilyft-bolt/internal/ingest"
	"github.com/koulibalyamadou10/afrilyft-bolt/internal/locations"
	"github.com/koulibalyamadou10/afrilyft-bolt/internal/matcher"
	"github.com/koulibalyamadou10/afrilyft-bolt/internal/notify"
	"github.com/koulibalyamadou10/afrilyft-bolt/internal/payments"
	"github.com/koulibalyamadou10/afrilyft-bolt/internal/rides"
	"github.com/koulibalyamadou10/afrilyft-bolt/internal/storage"
)

type Server struct {
	cfg    config.ServerConfig
	logger *slog.Logger

	rides         *rides.Service
	matcher       *matcher.Service
	notifications *notify.Service
	locations     storage.DriverLocationStore
	kafka         *ingest.KafkaProducer
	wsreg         *dispatch.WSRegistry

	mux *mux.Router
}

// Deps are the collaborators a Server needs. Tests wire fakes here;
// NewServerFromConfig wires production implementations.
type Deps struct {
	Rides         *rides.Service
	Matcher       *matcher.Service
	Notifications *notify.Service
	Locations     storage.DriverLocationStore
	Kafka         *ingest.KafkaProducer
	WSReg         *dispatch.WSRegistry
}

func NewServer(cfg config.ServerConfig, logger *slog.Logger, deps Deps) *Server {
	s := &Server{
		cfg:           cfg,
		logger:        logger,
		rides:         deps.Rides,
		matcher:       deps.Matcher,
		notifications: deps.Notifications,
		locations:     deps.Locations,
		kafka:         deps.Kafka,
		wsreg:         deps.WSReg,
		mux:           mux.NewRouter(),
	}
	s.registerMiddleware()
	s.routes()
	return s
}

// NewServerFromConfig wires production collaborators with fallbacks: postgres
// when PG_DSN is set, otherwise the in-memory store; the redis GEO mirror for
// matching when REDIS_ADDR is set, otherwise the primary store.
func NewServerFromConfig(cfg config.ServerConfig, logger *slog.Logger) (*Server, error) {
	var store interface {
		storage.RideStore
		storage.DriverLocationStore
		storage.RideRequestStore
		storage.NotificationStore
	}
	if cfg.PGDSN != "" {
		ps, err := storage.NewPostgresStore(cfg.PGDSN)
		if err != nil {
			return nil, err
		}
		store = ps
	} else {
		logger.Warn("PG_DSN not set, using in-memory store")
		store = storage.NewMemoryStore()
	}

	var locationSource storage.DriverLocationStore = store
	if cfg.RedisAddr != "" {
		locationSource = locations.NewRedisLocations(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisGeoKey)
	}

	wsreg := dispatch.NewWSRegistry()
	var fcm *dispatch.FCMDispatcher
	if cfg.FCMEndpoint != "" {
		fcm = dispatch.NewFCMDispatcher(cfg.FCMEndpoint, cfg.FCMKey)
	}
	push := dispatch.NewPushDispatcher(wsreg, fcm)

	notifications := &notify.Service{Store: store, Push: push, Logger: logger}

	var gateway rides.PaymentGateway
	if cfg.StripeAPIKey != "" {
		gateway = payments.NewStripeClient(cfg.StripeAPIKey)
	}
	rideSvc := &rides.Service{
		Store:          store,
		Notifier:       notifications,
		Payments:       gateway,
		Logger:         logger,
		BaseFareAmount: cfg.BaseFareAmount,
		Currency:       cfg.Currency,
	}

	var etaClient eta.Client
	if cfg.OSRMEndpoint != "" {
		etaClient = eta.NewOSRMClient(cfg.OSRMEndpoint)
	}
	matchSvc := &matcher.Service{
		Locations:     locationSource,
		Requests:      store,
		Dispatch:      push,
		ETAClient:     etaClient,
		ETACache:      eta.NewCache(cfg.LocationFreshness),
		Logger:        logger,
		MaxDistanceKm: cfg.MaxDistanceKm,
		Fanout:        cfg.MatchFanout,
		Freshness:     cfg.LocationFreshness,
		SpeedMps:      cfg.DefaultSpeedMps,
	}

	var kp *ingest.KafkaProducer
	if len(cfg.KafkaBrokers) > 0 {
		kp = ingest.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	}

	return NewServer(cfg, logger, Deps{
		Rides:         rideSvc,
		Matcher:       matchSvc,
		Notifications: notifications,
		Locations:     locationSource,
		Kafka:         kp,
		WSReg:         wsreg,
	}), nil
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/v1/hello", s.handleHello).Methods("POST", "OPTIONS")
	s.mux.HandleFunc("/api/v1/notifications", s.handleNotification).Methods("POST", "OPTIONS")
	s.mux.HandleFunc("/api/v1/rides/status", s.handleRideStatus).Methods("POST", "OPTIONS")
	s.mux.HandleFunc("/api/v1/rides/match", s.handleRideMatch).Methods("POST", "OPTIONS")
	s.mux.HandleFunc("/internal/driver/locations", s.handleDriverLocation).Methods("POST")
	s.mux.HandleFunc("/ws/{user_id}", s.handleWS)
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods("GET")
	s.mux.Handle("/metrics", promhttp.Handler())
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }
