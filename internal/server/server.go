// internal/server/server.go
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"
	"github.com/ThinkInAIXYZ/go-mcp/server"
	"github.com/ThinkInAIXYZ/go-mcp/transport"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"meal-ai/internal/analyzer"
	"meal-ai/internal/config"
	"meal-ai/internal/models"
)

const Version = "1.0.0"

const (
	ssePath     = "/mcp/sse"
	messagePath = "/mcp/message"
)

type Config struct {
	Addr string
	// PublicURL is the base URL advertised to MCP clients for posting
	// messages. Empty means http://localhost plus the port in Addr.
	PublicURL      string
	AllowedOrigins []string
}

func (c Config) messageEndpoint() string {
	base := strings.TrimRight(strings.TrimSpace(c.PublicURL), "/")
	if base == "" {
		host := c.Addr
		if strings.HasPrefix(host, ":") {
			host = "localhost" + host
		}
		base = "http://" + host
	}
	return base + messagePath
}

type Analyzer interface {
	Analyze(ctx context.Context, in analyzer.Input) (*analyzer.Output, error)
	TestConnection(ctx context.Context, vendor models.Vendor) (string, error)
}

type Searcher interface {
	Search(ctx context.Context, q analyzer.Query) (*analyzer.SearchResult, error)
}

type MealStore interface {
	SaveMeal(ctx context.Context, meal *models.Meal) error
	GetMeals(ctx context.Context, startDate, endDate string, limit int) ([]*models.Meal, error)
}

type SettingsStore interface {
	Snapshot() config.Settings
	Update(ctx context.Context, fn func(*config.Settings)) (config.Settings, error)
}

// Deps are the services the handlers call into.
type Deps struct {
	Analyzer Analyzer
	Searcher Searcher
	Meals    MealStore
	Settings SettingsStore
	Logger   *zap.Logger
}

type MealServer struct {
	server     *server.Server
	engine     *gin.Engine
	httpServer *http.Server
	tools      map[string]tool

	analyzer Analyzer
	searcher Searcher
	meals    MealStore
	settings SettingsStore
	logger   *zap.Logger
	now      func() time.Time

	// ctx bounds tool calls arriving over SSE, which carry no request
	// context of their own.
	ctx    context.Context
	cancel context.CancelFunc
}

func NewMealServer(cfg Config, deps Deps) (*MealServer, error) {
	if deps.Analyzer == nil || deps.Searcher == nil || deps.Meals == nil || deps.Settings == nil {
		return nil, errors.New("server: analyzer, searcher, meals and settings are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	mcpLog := logger.Named("mcp").Sugar()
	mcpTransport, sse, err := transport.NewSSEServerTransportAndHandler(
		cfg.messageEndpoint(),
		transport.WithSSEServerTransportAndHandlerOptionLogger(mcpLog),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create MCP transport: %w", err)
	}

	mcpServer, err := server.NewServer(
		mcpTransport,
		server.WithServerInfo(protocol.Implementation{
			Name:    "meal-ai",
			Version: Version,
		}),
		server.WithLogger(mcpLog),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create MCP server: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &MealServer{
		server:   mcpServer,
		analyzer: deps.Analyzer,
		searcher: deps.Searcher,
		meals:    deps.Meals,
		settings: deps.Settings,
		logger:   logger,
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
	}
	s.registerTools()
	s.engine = s.routes(cfg.AllowedOrigins, sse)
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *MealServer) routes(origins []string, sse *transport.SSEHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.logger), cors.New(corsConfig(origins)))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": Version})
	})
	r.POST("/mcp", s.handleMCP)
	r.GET("/mcp/tools", s.handleListTools)
	r.GET(ssePath, gin.WrapH(sse.HandleSSE()))
	r.POST(messagePath, gin.WrapH(sse.HandleMessage()))

	api := r.Group("/api")
	{
		api.POST("/analyze", s.handleAnalyzeUpload)
		api.GET("/meals", s.handleListMeals)
		api.GET("/settings", s.handleGetSettings)
		api.PUT("/settings", s.handlePutSettings)
	}
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	if len(origins) == 0 {
		cfg.AllowAllOrigins, cfg.AllowOrigins, cfg.AllowCredentials = true, nil, false
	}
	return cfg
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("request", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("request", fields...)
		default:
			logger.Info("request", fields...)
		}
	}
}

// Handler exposes the routes, mainly for tests.
func (s *MealServer) Handler() http.Handler {
	return s.engine
}

// Start serves until Stop is called.
func (s *MealServer) Start() error {
	s.logger.Info("starting meal-ai server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop cancels tool calls in flight, closes the MCP sessions and then shuts
// the HTTP server down. Open SSE streams end only once their session closes.
func (s *MealServer) Stop(ctx context.Context) error {
	s.cancel()
	mcpErr := s.server.Shutdown(ctx)
	return errors.Join(mcpErr, s.httpServer.Shutdown(ctx))
}
