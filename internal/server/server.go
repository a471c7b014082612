// Package server wires the services into a gin HTTP API. Handlers stay
// thin: bind input, call one service operation, map the error kind to a
// status code.
package server

import (
	"github.com/gin-gonic/gin"

	"drinkup/internal/app"
	"drinkup/internal/service/auth"
	"drinkup/internal/service/billing"
	"drinkup/internal/service/chat"
	"drinkup/internal/service/feed"
	"drinkup/internal/service/moderation"
	"drinkup/internal/service/place"
	"drinkup/internal/service/profile"
	"drinkup/internal/service/review"
	"drinkup/internal/service/swipe"
)

type Server struct {
	appCtx *app.AppContext

	authSvc       *auth.Service
	profileSvc    *profile.Service
	feedSvc       *feed.Service
	swipeSvc      *swipe.Service
	chatSvc       *chat.Service
	reviewSvc     *review.Service
	placeSvc      *place.Service
	billingSvc    *billing.Service
	moderationSvc *moderation.Service
}

// New builds the full service graph off the shared AppContext.
func New(appCtx *app.AppContext) *Server {
	reviewSvc := review.NewService(appCtx)
	profileSvc := profile.NewService(appCtx, reviewSvc)
	return &Server{
		appCtx:        appCtx,
		authSvc:       auth.NewService(appCtx, profileSvc),
		profileSvc:    profileSvc,
		feedSvc:       feed.NewService(appCtx),
		swipeSvc:      swipe.NewService(appCtx, profileSvc),
		chatSvc:       chat.NewService(appCtx),
		reviewSvc:     reviewSvc,
		placeSvc:      place.NewService(appCtx),
		billingSvc:    billing.NewService(appCtx),
		moderationSvc: moderation.NewService(appCtx),
	}
}

// Router assembles the gin engine with all routes attached.
func (s *Server) Router() *gin.Engine {
	if s.appCtx.Config.App.ENV != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", s.handleHealth)

	v1 := router.Group("/v1")
	{
		authGroup := v1.Group("/auth")
		authGroup.POST("/request_code", s.handleRequestCode)
		authGroup.POST("/verify_code", s.handleVerifyCode)
		authGroup.POST("/refresh", s.handleRefresh)

		v1.GET("/users/:id", s.handleGetUser)
		v1.GET("/places/nearby", s.handleNearbyPlaces)
		v1.GET("/reputation/:userId", s.handleGetReputation)
		v1.GET("/reviews/:userId", s.handleListReviews)
		v1.GET("/billing/products", s.handleProducts)

		authed := v1.Group("")
		authed.Use(s.RequireUser())
		{
			authed.GET("/me", s.handleMe)
			authed.PUT("/me", s.handleUpdateMe)
			authed.PUT("/me/photos", s.handleUpdatePhotos)
			authed.PUT("/me/location", s.handleUpdateLocation)

			authed.GET("/feed", s.handleFeed)
			authed.POST("/swipes", s.handleRecordSwipe)
			authed.GET("/matches", s.handleListMatches)
			authed.POST("/matches/:id/close", s.handleCloseMatch)
			authed.GET("/matches/:id/messages", s.handleListMessages)
			authed.POST("/matches/:id/messages", s.handlePostMessage)

			authed.POST("/reviews", s.handleSubmitReview)
			authed.POST("/report", s.handleSubmitReport)

			authed.POST("/places", s.handleCreatePlace)
			authed.PUT("/places/:id/status", s.handleSetPlaceStatus)

			authed.POST("/billing/purchase", s.handlePurchase)
			authed.GET("/billing/status", s.handleBillingStatus)
		}

		admin := v1.Group("/admin")
		admin.Use(s.RequireAdmin())
		{
			admin.GET("/moderation/queue", s.handleModerationQueue)
			admin.POST("/moderation/resolve", s.handleModerationResolve)
		}
	}

	return router
}

// Run starts the HTTP server on the configured address.
func (s *Server) Run() error {
	addr := s.appCtx.Config.HTTP.Host + ":" + s.appCtx.Config.HTTP.Port
	s.appCtx.Logger.Info("starting HTTP server", "addr", addr)
	return s.Router().Run(addr)
}
