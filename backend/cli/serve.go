package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/AnTengye/clausewise/backend/config"
	"github.com/AnTengye/clausewise/backend/handler"
	"github.com/AnTengye/clausewise/backend/middleware"
	"github.com/AnTengye/clausewise/backend/service"
)

const (
	rateLimitBurst  = 100
	rateLimitWindow = time.Minute
	shutdownTimeout = 10 * time.Second

	// writeTimeoutMargin leaves room to encode the response after a
	// synchronous analysis has used its whole run timeout.
	writeTimeoutMargin = 30 * time.Second
)

func newServeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts, false)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cfg)
		},
	}
}

// routes are the handlers mounted by newRouter
type routes struct {
	cfg       *config.Config
	metrics   *service.Metrics
	auth      *handler.AuthHandler
	contracts *handler.ContractHandler
	analysis  *handler.AnalysisHandler
	callback  *handler.CallbackHandler // nil when extraction is not configured
}

func runServer(ctx context.Context, cfg *config.Config) error {
	slog.Info("configuration loaded successfully")

	service.InitContractStore(&cfg.Store)

	var metrics *service.Metrics
	if cfg.Metrics.Enabled {
		metrics = service.NewMetrics()
	}

	stack := buildAnalysisStack(ctx, cfg, metrics)
	defer func() {
		if err := stack.Close(); err != nil {
			slog.Warn("failed to close analysis backends", "error", err)
		}
	}()

	minioSvc, err := service.NewMinioService(&cfg.Minio)
	if err != nil {
		return fmt.Errorf("failed to initialize object storage: %w", err)
	}
	if err := minioSvc.EnsureBucket(ctx); err != nil {
		return fmt.Errorf("failed to ensure bucket: %w", err)
	}

	r := routes{
		cfg:      cfg,
		metrics:  metrics,
		auth:     handler.NewAuthHandler(cfg),
		analysis: handler.NewAnalysisHandler(stack.service),
	}

	// PDF and DOCX uploads need the extraction service; text uploads do not.
	var extractor handler.TextExtractor
	var mineruSvc *service.MineruService
	if cfg.Mineru.APIToken != "" {
		mineruSvc = service.NewMineruService(&cfg.Mineru)
		extractor = mineruSvc
	} else {
		slog.Warn("text extraction not configured, only .txt uploads will be analyzed")
	}

	r.contracts = handler.NewContractHandler(minioSvc, extractor, stack.service, cfg.Analysis.MaxFileSize())
	if mineruSvc != nil {
		r.callback = handler.NewCallbackHandler(mineruSvc, r.contracts, cfg.Mineru.UID, cfg.Mineru.Seed)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      newRouter(r),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: writeTimeout(cfg.Analysis.RunTimeout),
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-ctx.Done():
	}
	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	// In-flight analyses record their results before the backends close.
	r.contracts.Wait()

	slog.Info("server exited gracefully")
	return nil
}

// writeTimeout keeps synchronous analysis inside the server's write deadline
func writeTimeout(runTimeout time.Duration) time.Duration {
	return max(runTimeout+writeTimeoutMargin, 60*time.Second)
}

func newRouter(r routes) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	var observer middleware.HTTPObserver
	if r.metrics != nil {
		observer = r.metrics
	}

	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger(observer))
	router.Use(corsMiddleware())
	router.Use(noCacheMiddleware())
	router.Use(middleware.RateLimit(rateLimitBurst, rateLimitWindow))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})
	if r.metrics != nil {
		router.GET(r.cfg.Metrics.Path, gin.WrapH(r.metrics.Handler()))
	}

	api := router.Group("/api")
	{
		api.POST("/auth/login", r.auth.Login)
		if r.callback != nil {
			api.POST("/mineru/callback", r.callback.HandleCallback)
		}
	}

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(&r.cfg.Auth))
	{
		protected.GET("/auth/me", r.auth.GetCurrentUser)
		protected.GET("/status", r.analysis.Status)
		protected.POST("/analyze", r.analysis.AnalyzeText)
		protected.POST("/contracts/upload", r.contracts.Upload)
		protected.GET("/contracts", r.contracts.List)
		protected.GET("/contracts/:id", r.contracts.Get)
		protected.GET("/contracts/:id/status", r.contracts.GetStatus)
		protected.GET("/contracts/:id/report", r.contracts.Report)
		protected.DELETE("/contracts/:id", r.contracts.Delete)
	}

	return router
}

// corsMiddleware handles CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, Accept, Origin, Cache-Control, X-Requested-With, X-Request-ID")
		h.Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, DELETE")
		h.Set("Access-Control-Expose-Headers", "X-Request-ID, Content-Disposition")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// noCacheMiddleware keeps analysis results out of shared caches
func noCacheMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
		c.Header("Pragma", "no-cache")
		c.Header("Expires", "0")
		c.Next()
	}
}
