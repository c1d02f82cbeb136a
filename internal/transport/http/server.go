package http

import (
	"github.com/gin-gonic/gin"

	"llm-session-relay/internal/bootstrap"
	"llm-session-relay/internal/transport/http/handler"
	"llm-session-relay/internal/transport/http/middleware"
	"llm-session-relay/internal/transport/http/response"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(middleware.RequestLogger(app.Logger), gin.Recovery())
	router.NoRoute(func(c *gin.Context) {
		response.Error(c, 404, "Not Found")
	})

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/health", healthHandler.Live)
	router.GET("/healthz", healthHandler.Check)

	sessionHandler := handler.NewSessionHandler(app.Sessions)
	router.POST("/sessions", sessionHandler.CreateSession)
	router.POST("/sessions/:id/message", sessionHandler.SendMessage)

	return router
}
