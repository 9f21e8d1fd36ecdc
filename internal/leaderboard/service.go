package leaderboard

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/AksiHijau/green-action-backend/internal/platform/database"
	"github.com/AksiHijau/green-action-backend/internal/profile"
	"github.com/AksiHijau/green-action-backend/internal/province"
)

// --- DTO 定义 ---

// RankedUserDTO 是用户排行榜的单行数据。
type RankedUserDTO struct {
	Rank        int    `json:"rank"`
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	Province    string `json:"province"`
	Points      int    `json:"points"`
	Activities  int    `json:"activities"`
}

// RankedProvinceDTO 是省份排行榜的单行数据。
type RankedProvinceDTO struct {
	Rank             int     `json:"rank"`
	Name             string  `json:"name"`
	TotalUsers       int     `json:"totalUsers"`
	TotalActivities  int     `json:"totalActivities"`
	TotalPoints      int     `json:"totalPoints"`
	AvgPointsPerUser float64 `json:"avgPointsPerUser"`
}

// --- Service Functions ---

// GetRankedUsers 从Redis中获取按积分排序的用户列表。
// limit <= 0 时返回全部。
func GetRankedUsers(limit int) ([]RankedUserDTO, error) {
	profile.RLockRepository()
	defer profile.RUnlockRepository()

	// 1. 从Sorted Set获取所有用户UUID及分数，按分数从高到低
	entries, err := database.RDB.ZRevRangeWithScores(database.Ctx, profile.RankingKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("无法从Redis获取用户排行: %w", err)
	}
	if len(entries) == 0 {
		return []RankedUserDTO{}, nil
	}

	// 2. 同分用户按UUID升序排列，保证名次在两次读取之间不跳动
	// （ZSET对同分member按字典序保存，但方向与我们的约定相反）
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Member.(string) < entries[j].Member.(string)
	})
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}

	userIDs := make([]string, len(entries))
	for i, e := range entries {
		userIDs[i] = e.Member.(string)
	}

	// 3. 使用Pipeline批量获取动态统计
	statsJSONs, err := database.RDB.HMGet(database.Ctx, profile.StatsKey, userIDs...).Result()
	if err != nil {
		return nil, fmt.Errorf("无法从Redis获取用户统计: %w", err)
	}

	// 4. 展示名与省份仍在数据库中，批量补齐
	var profiles []profile.Profile
	if err := database.DB.Select("uuid", "display_name", "province").Where("uuid IN ?", userIDs).Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("无法读取用户档案: %w", err)
	}
	profileByUUID := make(map[string]profile.Profile, len(profiles))
	for _, p := range profiles {
		profileByUUID[p.UUID] = p
	}

	// 5. 组合成DTO列表
	ranked := make([]RankedUserDTO, 0, len(userIDs))
	for i, id := range userIDs {
		var stats profile.UserStats
		if statsJSONs[i] != nil {
			_ = json.Unmarshal([]byte(statsJSONs[i].(string)), &stats)
		}
		p := profileByUUID[id]
		ranked = append(ranked, RankedUserDTO{
			Rank:        i + 1,
			UserID:      id,
			DisplayName: p.DisplayName,
			Province:    p.Province,
			Points:      stats.Points,
			Activities:  stats.Activities,
		})
	}
	return ranked, nil
}

// GetRankedProvinces 从Redis中获取按总积分排序的省份列表。
// limit <= 0 时返回全部。
func GetRankedProvinces(limit int) ([]RankedProvinceDTO, error) {
	profile.RLockRepository()
	defer profile.RUnlockRepository()

	raw, err := database.RDB.HGetAll(database.Ctx, province.StatsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("无法从Redis获取省份统计: %w", err)
	}
	if len(raw) == 0 {
		return []RankedProvinceDTO{}, nil
	}

	ranked := make([]RankedProvinceDTO, 0, len(raw))
	for name, entryJSON := range raw {
		var entry province.ProvinceStatsEntry
		if err := json.Unmarshal([]byte(entryJSON), &entry); err != nil {
			continue
		}
		ranked = append(ranked, RankedProvinceDTO{
			Name:             name,
			TotalUsers:       entry.TotalUsers,
			TotalActivities:  entry.TotalActivities,
			TotalPoints:      entry.TotalPoints,
			AvgPointsPerUser: entry.AvgPointsPerUser,
		})
	}

	// 同分省份按名称升序，与全量重算的排序键一致
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].TotalPoints != ranked[j].TotalPoints {
			return ranked[i].TotalPoints > ranked[j].TotalPoints
		}
		return ranked[i].Name < ranked[j].Name
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	if limit > 0 && limit < len(ranked) {
		ranked = ranked[:limit]
	}
	return ranked, nil
}
