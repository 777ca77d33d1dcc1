package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/dd0wney/cluso-genremap/pkg/catalog"
	"github.com/dd0wney/cluso-genremap/pkg/health"
	"github.com/dd0wney/cluso-genremap/pkg/logging"
	"github.com/dd0wney/cluso-genremap/pkg/metrics"
)

// DefaultMetricsInterval is how often system gauges are refreshed.
const DefaultMetricsInterval = 10 * time.Second

// Config holds the collaborators of a Server. Zero values get defaults.
type Config struct {
	Addr            string
	TLSEnabled      bool
	Health          *health.HealthChecker
	Metrics         *metrics.Registry
	Logger          logging.Logger
	MetricsInterval time.Duration
}

// Server is the read-only HTTP front of a catalog.Store.
type Server struct {
	store           *catalog.Store
	healthChecker   *health.HealthChecker
	metricsRegistry *metrics.Registry
	logger          logging.Logger
	tlsEnabled      bool
	httpServer      *http.Server
	startTime       time.Time

	metricsInterval time.Duration
	metricsStopCh   chan struct{}
	metricsWg       sync.WaitGroup
	stopOnce        sync.Once
}

// ErrorResponse is the JSON body of every non-2xx API response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}
