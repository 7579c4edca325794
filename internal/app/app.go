// Package app assembles the services, live channel and HTTP routes around
// already opened backends.
package app

import (
	"context"

	"github.com/mohanraja088/simple-chat-app-demo/config"
	"github.com/mohanraja088/simple-chat-app-demo/internal/handler"
	"github.com/mohanraja088/simple-chat-app-demo/internal/middleware"
	"github.com/mohanraja088/simple-chat-app-demo/internal/repository"
	"github.com/mohanraja088/simple-chat-app-demo/internal/server"
	"github.com/mohanraja088/simple-chat-app-demo/internal/services"
	"github.com/mohanraja088/simple-chat-app-demo/internal/storage"
	"github.com/mohanraja088/simple-chat-app-demo/internal/websocket"
	"github.com/mohanraja088/simple-chat-app-demo/pkg/logger"
)

// Backends are the storage and Redis collaborators chosen by configuration.
type Backends struct {
	Store repository.Store
	Blobs storage.BlobStore
	// PresenceMirror and Limiter are nil when Redis is not used for them.
	PresenceMirror services.PresenceMirror
	Limiter        middleware.Limiter
	Health         map[string]server.HealthCheck
}

type App struct {
	Server   *server.Server
	Hub      *websocket.Hub
	Auth     *services.AuthService
	Messages *services.MessageService
	Groups   *services.GroupService
	Presence *services.PresenceService
}

// New wires everything and starts the hub; it stops when ctx is done.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger, b Backends) *App {
	wsLogger := websocket.NewWebSocketLogger(log.Logger)
	hub := websocket.NewHub(wsLogger)
	go hub.Run(ctx)

	authService := services.NewAuthService(b.Store.Users, cfg)
	userService := services.NewUserService(b.Store.Users)
	uploadService := services.NewUploadService(b.Store.Files, b.Blobs, cfg.UploadMaxBytes, cfg.PublicUploadPath, log)
	enricher := services.NewEnricher(b.Store.Files, b.Store.Users, uploadService.FileURL)
	groupService := services.NewGroupService(b.Store, enricher, hub, log)
	messageService := services.NewMessageService(b.Store, groupService, enricher, hub, log)
	presenceService := services.NewPresenceService(hub, b.PresenceMirror, log)

	routerCfg := websocket.RouterConfig{
		LegacyBroadcast: cfg.WSLegacyBroadcast,
		Presence:        presenceService,
	}
	if cfg.RoomJoinAuthz {
		routerCfg.Authorizer = websocket.NewMembershipAuthorizer(b.Store.Groups)
	}
	router := websocket.NewRouter(hub, routerCfg, wsLogger)
	live := websocket.NewHandler(ctx, hub, router, authService, websocket.HandlerConfig{
		MaxEventsPerMin: cfg.WSMaxEventsPerMin,
		AllowedOrigins:  cfg.CORSOrigins,
	})

	health := b.Health
	if health == nil {
		health = map[string]server.HealthCheck{}
	}
	if _, ok := health["store"]; !ok && b.Store.Ping != nil {
		health["store"] = b.Store.Ping
	}

	srv := server.New(cfg, log)
	srv.SetupRoutes(&server.Handlers{
		Auth:    handler.NewAuthHandler(authService, userService),
		User:    handler.NewUserHandler(userService, presenceService),
		Message: handler.NewMessageHandler(messageService),
		Group:   handler.NewGroupHandler(groupService),
		Upload:  handler.NewUploadHandler(uploadService, cfg.UploadMaxBytes),
		Live:    live,
	}, server.Dependencies{
		Tokens:  authService,
		Limiter: b.Limiter,
		Health:  health,
	})

	return &App{
		Server:   srv,
		Hub:      hub,
		Auth:     authService,
		Messages: messageService,
		Groups:   groupService,
		Presence: presenceService,
	}
}
