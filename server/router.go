package server

import (
	"net/http"

	"github.com/dice-app/dice/server/middlewares"
	"github.com/dice-app/dice/session"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter wires every route of the api server. Extra middlewares run after
// the default ones on every route.
func NewRouter(svc *session.Service, metrics *middlewares.MetricsCollector, admin middlewares.AdminCredential, extra ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default())
	router.Use(metrics.Metrics())
	router.Use(extra...)

	h := &Handlers{Service: svc}

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
	router.GET("/metrics", metrics.Handler())

	adminGroup := router.Group("/admin", middlewares.AdminAuth(admin))
	adminGroup.POST("/sessions", h.CreateSession)
	adminGroup.GET("/sessions/:code/export", h.ExportSession)

	participantGroup := router.Group("/p/:code")
	participantGroup.GET("", h.Enter)
	participantGroup.POST("/intro", h.CompleteIntro)
	participantGroup.POST("/briefing", h.CompleteBriefing)
	participantGroup.GET("/feed", h.FeedView)
	participantGroup.POST("/feed", h.SubmitFeed)
	participantGroup.GET("/redirect", h.RedirectView)
	participantGroup.GET("/debrief", h.Debrief)

	return router
}
