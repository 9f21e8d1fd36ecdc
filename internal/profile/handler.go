package profile

import (
	"encoding/json"
	"net/http"

	"github.com/AksiHijau/green-action-backend/internal/platform/database"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// ProfileResponse 是档案接口的API响应模型。
type ProfileResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Province    string `json:"province"`
	Points      int    `json:"points"`
	Rank        int    `json:"rank"`
}

// UpdateProfileRequestBody 定义了更新档案的请求体。
type UpdateProfileRequestBody struct {
	DisplayName string `json:"displayName"`
	Province    string `json:"province"`
}

// GetProfile 返回当前用户的档案。
func GetProfileHandler(c *gin.Context) {
	userID := c.GetString(UserIDKey)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "缺少用户身份"})
		return
	}

	p, err := GetProfile(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取用户档案失败"})
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "用户档案不存在"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": ProfileResponse{
		ID:          p.UUID,
		DisplayName: p.DisplayName,
		Province:    p.Province,
		Points:      p.Points,
		Rank:        p.Rank,
	}})
}

// GetMyStatsHandler 返回当前用户的实时统计，直接读取Redis投影。
func GetMyStatsHandler(c *gin.Context) {
	userID := c.GetString(UserIDKey)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "缺少用户身份"})
		return
	}

	RLockRepository()
	defer RUnlockRepository()

	statsJSON, err := database.RDB.HGet(database.Ctx, StatsKey, userID).Result()
	if err == redis.Nil {
		// 尚未有任何已审核活动的用户返回零值统计
		c.JSON(http.StatusOK, gin.H{"data": UserStats{}})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取用户统计失败"})
		return
	}

	var stats UserStats
	if err := json.Unmarshal([]byte(statsJSON), &stats); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "解析用户统计失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": stats})
}

// UpdateProfileHandler 更新当前用户的展示名与省份。
// 响应中带回新旧省份，客户端的失效协调器据此让两侧省份统计失效。
func UpdateProfileHandler(c *gin.Context) {
	userID := c.GetString(UserIDKey)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "缺少用户身份"})
		return
	}

	var body UpdateProfileRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: " + err.Error()})
		return
	}

	oldProvince, err := UpdateProfile(userID, body.DisplayName, body.Province)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "更新用户档案失败"})
		return
	}

	// 省份变化后，该用户的积分应立刻计入新省份的下一次聚合；
	// 这里只需保证排行榜投影里的member仍然有效，无需同步重算。
	if body.Province != "" && body.Province != oldProvince {
		database.RDB.SAdd(database.Ctx, DirtySetKey, userID)
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"oldProvince": oldProvince,
			"newProvince": body.Province,
		},
		"success": true,
	})
}
