package client

// 资源键的构造函数。键是缓存命名空间内的唯一标识，
// 同时也是Hook层去重与失效的单位。
// 空键表示该资源当前被禁用（例如用户未登录时）。

// ProvincesKey 是省份统计列表的资源键。
func ProvincesKey() string {
	return "provinces"
}

// StatsKey 是全站概览统计的资源键。
func StatsKey() string {
	return "stats"
}

// LeaderboardKey 构造排行榜的资源键，typ 为 users 或 provinces。
func LeaderboardKey(typ string) string {
	return "leaderboard/" + typ
}

// UserActivitiesKey 构造某个用户活动列表的资源键。
// 用户未登录（userID为空）时返回空键，对应的获取会被跳过。
func UserActivitiesKey(userID string) string {
	if userID == "" {
		return ""
	}
	return "users/" + userID + "/activities"
}

// UserStatsKey 构造某个用户统计的资源键。
func UserStatsKey(userID string) string {
	if userID == "" {
		return ""
	}
	return "users/" + userID + "/stats"
}
