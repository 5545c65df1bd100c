package main

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/counseling-api/internal/handler"
	"github.com/noah-isme/counseling-api/internal/middleware"
	"github.com/noah-isme/counseling-api/internal/models"
)

type routeDeps struct {
	auth       *handler.AuthHandler
	approvals  *handler.ApprovalHandler
	assign     *handler.AssignmentHandler
	sessions   *handler.SessionHandler
	children   *handler.ChildHandler
	concerns   *handler.ConcernHandler
	dashboard  *handler.DashboardHandler
	volunteers *handler.VolunteerHandler
	knowledge  *handler.KnowledgeHandler
	validator  middleware.TokenValidator
	audit      middleware.AuditRecorder
}

func registerRoutes(api *gin.RouterGroup, d routeDeps) {
	auth := api.Group("/auth")
	auth.POST("/signup", d.auth.Signup)
	auth.POST("/login", d.auth.Login)
	auth.POST("/refresh", d.auth.Refresh)

	secured := api.Group("")
	secured.Use(middleware.JWT(d.validator))
	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	secured.POST("/auth/logout", d.auth.Logout)
	secured.GET("/auth/me", d.auth.Me)

	secured.GET("/user-approvals", adminOnly, d.approvals.List)
	secured.POST("/user-approvals", adminOnly, d.approvals.Decide)

	secured.GET("/volunteers", adminOnly, d.volunteers.List)

	secured.GET("/assignments", adminOnly, d.assign.List)
	secured.POST("/assignments", adminOnly, d.assign.Mutate)

	children := secured.Group("/children")
	children.GET("", d.children.List)
	children.GET("/:id", d.children.Get)
	children.GET("/:id/memories", d.sessions.Memories)
	children.POST("", adminOnly, d.children.Create)
	children.PUT("/:id", adminOnly, d.children.Update)
	children.DELETE("/:id", adminOnly, d.children.Delete)

	sessions := secured.Group("/sessions")
	sessions.POST("", d.sessions.Transition)
	sessions.GET("", d.sessions.List)
	sessions.POST("/summary", d.sessions.SaveSummary)
	sessions.GET("/summary", d.sessions.GetSummary)
	sessions.GET("/:id", d.sessions.Get)

	concerns := secured.Group("/concerns")
	concerns.POST("", d.concerns.Create)
	concerns.GET("", d.concerns.List)
	concerns.PATCH("/:id/status", d.concerns.UpdateStatus)

	dashboard := secured.Group("/dashboard")
	dashboard.GET("/stats", d.dashboard.Stats)
	dashboard.GET("/map-data", adminOnly, d.dashboard.MapData)
	dashboard.GET("/map-data/export", adminOnly, middleware.Audit(d.audit, models.AuditActionDashboardExport, "dashboard"), d.dashboard.ExportMap)
	dashboard.GET("/trends", d.dashboard.Trends)
	dashboard.GET("/concern-analytics", d.dashboard.ConcernAnalytics)

	secured.GET("/knowledge-base", d.knowledge.Articles)
	secured.GET("/cultural-stories", d.knowledge.Stories)
}
