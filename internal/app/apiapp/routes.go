package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sparkmatch/backend/internal/config"
	authsvc "github.com/sparkmatch/backend/internal/services/auth"
	convsvc "github.com/sparkmatch/backend/internal/services/conversations"
	matchessvc "github.com/sparkmatch/backend/internal/services/matches"
	messagessvc "github.com/sparkmatch/backend/internal/services/messages"
	swipesvc "github.com/sparkmatch/backend/internal/services/swipes"
	"github.com/sparkmatch/backend/internal/transport/http/handlers"
)

type Dependencies struct {
	AuthService         *authsvc.Service
	SwipeService        *swipesvc.Service
	MatchService        *matchessvc.Service
	MessageService      *messagessvc.Service
	ConversationService *convsvc.Service
	Logger              *zap.Logger
	Config              config.Config
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(deps.AuthService)
	swipeHandler := handlers.NewSwipeHandler(deps.SwipeService)
	matchesHandler := handlers.NewMatchesHandler(deps.MatchService)
	messagesHandler := handlers.NewMessagesHandler(deps.MessageService)
	conversationsHandler := handlers.NewConversationsHandler(deps.ConversationService)

	authMW := AuthMiddleware(deps.AuthService, deps.Logger)
	optionalAuthMW := OptionalAuthMiddleware(deps.AuthService, deps.Logger)

	r.Get("/healthz", healthHandler.Get)

	r.Post("/auth/refresh", authHandler.Refresh)
	r.With(authMW).Post("/auth/logout", authHandler.Logout)

	r.With(authMW).Post("/swipes", swipeHandler.Handle)

	r.With(optionalAuthMW).Get("/matches", matchesHandler.Handle)
	r.With(authMW).Post("/matches/unmatch", matchesHandler.Unmatch)
	r.With(authMW).Post("/matches/block", matchesHandler.Block)
	r.With(authMW).Post("/matches/report", matchesHandler.Report)

	r.With(authMW).Post("/matches/{id}/messages", messagesHandler.Send)
	r.With(optionalAuthMW).Get("/matches/{id}/messages", messagesHandler.List)
	r.With(authMW).Post("/matches/{id}/messages/read", messagesHandler.MarkRead)

	r.With(optionalAuthMW).Get("/conversations", conversationsHandler.Handle)
}
