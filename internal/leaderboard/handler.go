package leaderboard

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// GetLeaderboardHandler 返回排行榜。
// type=users|provinces 选择榜单类型，limit 限制返回行数。
func GetLeaderboardHandler(c *gin.Context) {
	limit := 0
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit必须是正整数"})
			return
		}
		limit = parsed
	}

	switch c.DefaultQuery("type", "users") {
	case "users":
		ranked, err := GetRankedUsers(limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "读取用户排行榜失败"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": ranked})
	case "provinces":
		ranked, err := GetRankedProvinces(limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "读取省份排行榜失败"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": ranked})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "type必须是users或provinces"})
	}
}
