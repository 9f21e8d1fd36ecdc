package api

import (
	"github.com/AksiHijau/green-action-backend/internal/activity"
	"github.com/AksiHijau/green-action-backend/internal/leaderboard"
	"github.com/AksiHijau/green-action-backend/internal/profile"
	"github.com/AksiHijau/green-action-backend/internal/stats"
	"github.com/gin-gonic/gin"
)

// SetupRoutes 注册项目的所有API路由
func SetupRoutes(router *gin.Engine) {
	api := router.Group("/api")
	{
		// 活动相关的路由：提交时签发cookie，其余操作只加载已有身份
		activityRoutes := api.Group("/activities")
		{
			activityRoutes.POST("", profile.EnsureUserCookieMiddleware(), activity.SubmitActivity)
			activityRoutes.GET("", profile.LoadUserMiddleware(), activity.ListMyActivities)
			activityRoutes.PUT("/:id", profile.LoadUserMiddleware(), activity.UpdateActivity)
			activityRoutes.DELETE("/:id", profile.LoadUserMiddleware(), activity.RemoveActivity)
			activityRoutes.POST("/:id/review", activity.ReviewActivityHandler)
		}

		// 档案相关的路由
		profileRoutes := api.Group("/profile", profile.LoadUserMiddleware())
		{
			profileRoutes.GET("", profile.GetProfileHandler)
			profileRoutes.PUT("", profile.UpdateProfileHandler)
			profileRoutes.GET("/stats", profile.GetMyStatsHandler)
		}

		// 统计与排行相关的路由
		api.GET("/stats", stats.GetSiteStatsHandler)
		api.GET("/provinces", stats.GetProvincesHandler)
		api.GET("/leaderboard", leaderboard.GetLeaderboardHandler)

		// 重算相关的路由
		recalcRoutes := api.Group("/recalculate")
		{
			recalcRoutes.POST("/points", stats.RecalculatePointsHandler)
			recalcRoutes.POST("/province-stats", stats.RecalculateProvinceStatsHandler)
			recalcRoutes.POST("/province-ranks", stats.RecalculateProvinceRanksHandler)
		}
	}
}
