package province

// 定义与省份相关的Redis键名
const (
	// StatsKey 是一个Redis Hash，存储每个省份的聚合统计
	// Field: 省份名
	// Value: ProvinceStatsEntry 的JSON序列化字符串
	StatsKey = "province:stats"

	// RankingKey 是一个Redis Sorted Set，按TotalPoints对省份实时排序
	// Score: TotalPoints
	// Member: 省份名
	RankingKey = "province:ranking"

	// LivePointsKey 是一个Redis Sorted Set，由活动投影处理器实时累加，
	// 在两次全量重算之间提供近似的省份积分视图
	LivePointsKey = "province:points"
)

// ProvinceStatsEntry 定义了在 province:stats Hash中存储的聚合数据
type ProvinceStatsEntry struct {
	TotalUsers       int     `json:"totalUsers"`
	TotalActivities  int     `json:"totalActivities"`
	TotalPoints      int     `json:"totalPoints"`
	AvgPointsPerUser float64 `json:"avgPointsPerUser"`
	Rank             int     `json:"rank"`
}
