package client

import (
	"context"
	"time"

	"github.com/AksiHijau/green-action-backend/pkg/swr"
)

// --- API 行模型 ---

// ProvinceRow 是 /api/provinces 返回的单行数据。
type ProvinceRow struct {
	Name             string  `json:"name"`
	TotalUsers       int     `json:"totalUsers"`
	TotalActivities  int     `json:"totalActivities"`
	TotalPoints      int     `json:"totalPoints"`
	AvgPointsPerUser float64 `json:"avgPointsPerUser"`
	Rank             int     `json:"rank"`
}

// SiteStats 是 /api/stats 返回的全站概览。
type SiteStats struct {
	TotalUsers      int64 `json:"totalUsers"`
	TotalActivities int64 `json:"totalActivities"`
	ActiveProvinces int64 `json:"activeProvinces"`
}

// LeaderboardUserRow 是用户排行榜的单行数据。
type LeaderboardUserRow struct {
	Rank        int    `json:"rank"`
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	Province    string `json:"province"`
	Points      int    `json:"points"`
	Activities  int    `json:"activities"`
}

// LeaderboardProvinceRow 是省份排行榜的单行数据。
type LeaderboardProvinceRow struct {
	Rank             int     `json:"rank"`
	Name             string  `json:"name"`
	TotalUsers       int     `json:"totalUsers"`
	TotalActivities  int     `json:"totalActivities"`
	TotalPoints      int     `json:"totalPoints"`
	AvgPointsPerUser float64 `json:"avgPointsPerUser"`
}

// ActivityRow 是 /api/activities 返回的单行数据。
type ActivityRow struct {
	ID         string `json:"id"`
	UserID     string `json:"userId"`
	CategoryID string `json:"categoryId"`
	Title      string `json:"title"`
	Points     int    `json:"points"`
	Province   string `json:"province"`
	Location   string `json:"location"`
	ImageURL   string `json:"imageUrl"`
	Status     string `json:"status"`
	CreatedAt  string `json:"createdAt"`
}

// UserStats 是用户自己的统计数据。
type UserStats struct {
	Points     int `json:"points"`
	Activities int `json:"activities"`
}

// --- 按数据易变性划分的缓存策略 ---

var (
	// 省份列表几乎只在全量重算后变化，长TTL
	provincesConfig = swr.Config{
		TTL:              time.Hour,
		DedupingInterval: 2 * time.Second,
		RetryCount:       2,
		RetryInterval:    500 * time.Millisecond,
		Timeout:          10 * time.Second,
	}

	// 全站概览由实时计数器支撑，中等TTL
	statsConfig = swr.Config{
		TTL:              5 * time.Minute,
		DedupingInterval: 2 * time.Second,
		RetryCount:       2,
		RetryInterval:    500 * time.Millisecond,
		Timeout:          10 * time.Second,
	}

	// 排行榜变化最快：短TTL、后台定时刷新、窗口聚焦时重验证
	leaderboardConfig = swr.Config{
		TTL:                   30 * time.Second,
		DedupingInterval:      2 * time.Second,
		RefreshInterval:       30 * time.Second,
		RevalidateOnFocus:     true,
		RevalidateOnReconnect: true,
		RetryCount:            2,
		RetryInterval:         500 * time.Millisecond,
		Timeout:               10 * time.Second,
	}

	// 用户自己的数据在提交活动后立即被显式失效，TTL只是兜底
	userDataConfig = swr.Config{
		TTL:               time.Minute,
		DedupingInterval:  2 * time.Second,
		RevalidateOnFocus: true,
		RetryCount:        2,
		RetryInterval:     500 * time.Millisecond,
		Timeout:           10 * time.Second,
	}
)

// Resources 捆绑了客户端核心的全部资源及其缓存策略。
type Resources struct {
	Provinces            *swr.Resource[[]ProvinceRow]
	Stats                *swr.Resource[SiteStats]
	LeaderboardUsers     *swr.Resource[[]LeaderboardUserRow]
	LeaderboardProvinces *swr.Resource[[]LeaderboardProvinceRow]
	UserActivities       *swr.Resource[[]ActivityRow]
	UserStats            *swr.Resource[UserStats]
}

// NewResources 基于一个API客户端构建全部资源。
// 每个资源持有独立的命名空间缓存，互不干扰。
func NewResources(api *swr.Client) *Resources {
	return &Resources{
		Provinces: swr.NewResource("provinces", provincesConfig, nil,
			func(ctx context.Context, key string) ([]ProvinceRow, error) {
				var rows []ProvinceRow
				err := api.GetJSON(ctx, "/api/provinces", &rows)
				return rows, err
			}),
		Stats: swr.NewResource("stats", statsConfig, nil,
			func(ctx context.Context, key string) (SiteStats, error) {
				var s SiteStats
				err := api.GetJSON(ctx, "/api/stats", &s)
				return s, err
			}),
		LeaderboardUsers: swr.NewResource("leaderboard-users", leaderboardConfig, nil,
			func(ctx context.Context, key string) ([]LeaderboardUserRow, error) {
				var rows []LeaderboardUserRow
				err := api.GetJSON(ctx, "/api/leaderboard?type=users", &rows)
				return rows, err
			}),
		LeaderboardProvinces: swr.NewResource("leaderboard-provinces", leaderboardConfig, nil,
			func(ctx context.Context, key string) ([]LeaderboardProvinceRow, error) {
				var rows []LeaderboardProvinceRow
				err := api.GetJSON(ctx, "/api/leaderboard?type=provinces", &rows)
				return rows, err
			}),
		// 用户身份由cookie携带，key只用于本地缓存隔离
		UserActivities: swr.NewResource("user-activities", userDataConfig, nil,
			func(ctx context.Context, key string) ([]ActivityRow, error) {
				var rows []ActivityRow
				err := api.GetJSON(ctx, "/api/activities", &rows)
				return rows, err
			}),
		UserStats: swr.NewResource("user-stats", userDataConfig, nil,
			func(ctx context.Context, key string) (UserStats, error) {
				var s UserStats
				err := api.GetJSON(ctx, "/api/profile/stats", &s)
				return s, err
			}),
	}
}
