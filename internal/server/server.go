package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mohanraja088/simple-chat-app-demo/config"
	"github.com/mohanraja088/simple-chat-app-demo/internal/handler"
	"github.com/mohanraja088/simple-chat-app-demo/internal/middleware"
	"github.com/mohanraja088/simple-chat-app-demo/internal/transport/httpdto"
	"github.com/mohanraja088/simple-chat-app-demo/internal/websocket"
	"github.com/mohanraja088/simple-chat-app-demo/pkg/logger"
)

type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     *config.Config
	logger     *logger.Logger
}

var (
	ReleaseMode = "release"
	DebugMode   = "debug"
	TestMode    = "test"
)

type Handlers struct {
	Auth    *handler.AuthHandler
	User    *handler.UserHandler
	Message *handler.MessageHandler
	Group   *handler.GroupHandler
	Upload  *handler.UploadHandler
	Live    *websocket.Handler
}

// HealthCheck reports whether one backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Dependencies are the collaborators the routes need besides handlers.
type Dependencies struct {
	Tokens middleware.TokenParser
	// Limiter is nil when Redis rate limiting is disabled.
	Limiter middleware.Limiter
	Health  map[string]HealthCheck
}

func New(cfg *config.Config, l *logger.Logger) *Server {
	if cfg.AppMode == ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else if cfg.AppMode == TestMode {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%s", cfg.AppPort),
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
		engine: engine,
		config: cfg,
		logger: l,
	}
}

// Engine exposes the router for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) SetupRoutes(handlers *Handlers, deps Dependencies) {
	s.engine.Use(middleware.RequestIDMiddleware())
	s.engine.Use(middleware.CORSMiddleware(s.config.CORSOrigins))
	s.engine.Use(middleware.LoggingMiddleware(s.logger))
	s.engine.Use(middleware.ErrorHandler(s.logger))

	s.engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"message": "pong"}))
	})
	s.engine.GET("/health", s.health(deps.Health))

	var authLimit, sendLimit gin.HandlerFunc = passThrough, passThrough
	if deps.Limiter != nil {
		authLimit = middleware.AuthRateLimitMiddleware(deps.Limiter)
		sendLimit = middleware.SendRateLimitMiddleware(deps.Limiter)
	}

	api := s.engine.Group("/api", middleware.OptionalAuthMiddleware(deps.Tokens))

	auth := api.Group("/auth")
	{
		auth.POST("/signup", authLimit, handlers.Auth.Signup)
		auth.POST("/login", authLimit, handlers.Auth.Login)
		auth.GET("/me", middleware.AuthMiddleware(deps.Tokens), handlers.Auth.Me)
		auth.GET("/users", handlers.Auth.Users)
	}

	api.GET("/contacts", handlers.User.Contacts)
	api.GET("/presence", handlers.User.Presence)

	messages := api.Group("/messages")
	{
		messages.POST("/send", sendLimit, handlers.Message.Send)
		messages.GET("/:a/:b", handlers.Message.History)
	}

	groups := api.Group("/groups")
	{
		groups.POST("", handlers.Group.Create)
		groups.GET("", handlers.Group.List)
		groups.DELETE("/:id", handlers.Group.Delete)
		groups.POST("/:id/message", sendLimit, handlers.Group.PostMessage)
		groups.GET("/:id/messages", handlers.Group.Messages)
	}

	api.POST("/upload", sendLimit, handlers.Upload.Upload)
	s.engine.GET(s.uploadRoute(), handlers.Upload.Serve)

	if handlers.Live != nil {
		s.engine.GET("/ws", handlers.Live.Connect)
	}
}

func (s *Server) uploadRoute() string {
	prefix := s.config.PublicUploadPath
	if prefix == "" || prefix == "/" {
		prefix = "/uploads"
	}
	if prefix[len(prefix)-1] == '/' {
		prefix = prefix[:len(prefix)-1]
	}
	return prefix + "/*filepath"
}

func (s *Server) health(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		for name, check := range checks {
			if err := check(ctx); err != nil {
				if s.logger != nil {
					s.logger.WithContext(ctx).Warn("health check failed", zap.String("dependency", name), zap.Error(err))
				}
				c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse(name+" unavailable", "UNHEALTHY"))
				return
			}
		}
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"status": "healthy"}))
	}
}

func passThrough(c *gin.Context) {
	c.Next()
}

// Start serves until SIGINT or SIGTERM, then drains for five seconds.
func (s *Server) Start() error {
	go func() {
		if s.logger != nil {
			s.logger.Infof("Starting the server on port %s...", s.config.AppPort)
		}
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if s.logger != nil {
				s.logger.Errorf("Error in starting the server: %s", err)
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	if s.logger != nil {
		s.logger.Infof("Server is running on :%s", s.config.AppPort)
	}

	<-quit

	if s.logger != nil {
		s.logger.Infof("Quitting signal received.. Shutting down after 5 seconds")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		if s.logger != nil {
			s.logger.Infof("Error in the graceful shutdown of the server: %s", err)
		}
		return err
	}

	if s.logger != nil {
		s.logger.Infof("Server stopped gracefully")
	}

	return nil
}
