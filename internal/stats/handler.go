package stats

import (
	"net/http"
	"strconv"
	"time"

	"github.com/AksiHijau/green-action-backend/internal/platform/database"
	"github.com/AksiHijau/green-action-backend/internal/platform/metadata"
	"github.com/AksiHijau/green-action-backend/internal/profile"
	"github.com/AksiHijau/green-action-backend/internal/province"
	"github.com/gin-gonic/gin"
)

// SiteStatsResponse 是全站概览接口的响应模型。
// 重算时间戳来自metadata表，从未重算过时省略。
type SiteStatsResponse struct {
	TotalUsers      int64 `json:"totalUsers"`
	TotalActivities int64 `json:"totalActivities"`
	ActiveProvinces int64 `json:"activeProvinces"`
	// KnownProvinces 是ActiveProvinces的分母：坐标表中的省份总数
	KnownProvinces       int    `json:"knownProvinces"`
	LastPointsRecalcAt   string `json:"lastPointsRecalcAt,omitempty"`
	LastProvinceRecalcAt string `json:"lastProvinceRecalcAt,omitempty"`
}

// orderableColumns 是provinces接口允许排序的字段白名单，
// 防止orderBy参数被拼接为任意SQL。
var orderableColumns = map[string]string{
	"rank":             "rank",
	"name":             "name",
	"totalUsers":       "total_users",
	"totalActivities":  "total_activities",
	"totalPoints":      "total_points",
	"avgPointsPerUser": "avg_points_per_user",
}

// GetSiteStatsHandler 返回全站概览统计，全部读取Redis实时投影。
func GetSiteStatsHandler(c *gin.Context) {
	var resp SiteStatsResponse

	totalUsers, err := database.RDB.SCard(database.Ctx, profile.KnownUsersKey).Result()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取用户总数失败"})
		return
	}
	resp.TotalUsers = totalUsers

	// 计数器尚未初始化时按0处理
	if raw, err := database.RDB.Get(database.Ctx, metadata.RedisTotalActivitiesKey).Result(); err == nil {
		resp.TotalActivities, _ = strconv.ParseInt(raw, 10, 64)
	}

	active, err := database.RDB.ZCount(database.Ctx, province.LivePointsKey, "(0", "+inf").Result()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取活跃省份数失败"})
		return
	}
	resp.ActiveProvinces = active
	resp.KnownProvinces = province.KnownProvinces()

	if t, err := metadata.GetLastRecalcAt(database.DB, metadata.LastPointsRecalcAtKey); err == nil && !t.IsZero() {
		resp.LastPointsRecalcAt = t.Format(time.RFC3339)
	}
	if t, err := metadata.GetLastRecalcAt(database.DB, metadata.LastProvinceRecalcAtKey); err == nil && !t.IsZero() {
		resp.LastProvinceRecalcAt = t.Format(time.RFC3339)
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// GetProvincesHandler 返回省份统计列表。
// 支持 limit、orderBy、orderDirection 三个查询参数。
func GetProvincesHandler(c *gin.Context) {
	column, ok := orderableColumns[c.DefaultQuery("orderBy", "rank")]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "不支持的排序字段"})
		return
	}
	direction := c.DefaultQuery("orderDirection", "asc")
	if direction != "asc" && direction != "desc" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "orderDirection必须是asc或desc"})
		return
	}

	query := database.DB.Model(&province.ProvinceStats{}).Order(column + " " + direction)
	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit必须是正整数"})
			return
		}
		query = query.Limit(limit)
	}

	var list []province.ProvinceStats
	if err := query.Find(&list).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取省份统计失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

// RecalculatePointsHandler 触发一次全量的用户积分重算。
func RecalculatePointsHandler(c *gin.Context) {
	report, err := RecalculateUserPoints()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":      "用户积分重算完成",
		"updatedCount": report.UpdatedCount,
		"failedCount":  report.FailedCount,
	})
}

// RecalculateProvinceStatsHandler 触发一次全量的省份统计重建。
func RecalculateProvinceStatsHandler(c *gin.Context) {
	report, err := RecalculateProvinceStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":      "省份统计重建完成",
		"updatedCount": report.UpdatedCount,
		"failedCount":  report.FailedCount,
	})
}

// RecalculateProvinceRanksHandler 触发一次省份名次重排。
func RecalculateProvinceRanksHandler(c *gin.Context) {
	report, err := RecalculateProvinceRanks()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":      "省份名次重排完成",
		"updatedCount": report.UpdatedCount,
		"failedCount":  report.FailedCount,
	})
}
