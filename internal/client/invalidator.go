package client

import (
	"time"
)

// Invalidator 是缓存失效协调器：
// 状态变更发生后，根据规则表推导出最小的过期key集合并触发重验证。
// 所有失效操作都是幂等的，对已过期或不存在的key是no-op。
type Invalidator struct {
	res *Resources

	// provinceDelay 是活动提交后到省份数据失效之间的延迟，
	// 对应服务端异步聚合的最终一致窗口：立即失效只会读到尚未聚合的旧值。
	provinceDelay time.Duration

	// schedule 将一个函数安排在延迟后执行，测试中可替换为同步实现
	schedule func(d time.Duration, fn func())
}

// NewInvalidator 创建失效协调器。
func NewInvalidator(res *Resources, provinceDelay time.Duration) *Invalidator {
	return &Invalidator{
		res:           res,
		provinceDelay: provinceDelay,
		schedule: func(d time.Duration, fn func()) {
			time.AfterFunc(d, fn)
		},
	}
}

// ActivitySubmitted 处理“活动已提交”事件：
// 立即失效该用户自己的活动列表与统计；
// 省份与省份排行榜在延迟之后失效，等待服务端聚合跟上。
func (iv *Invalidator) ActivitySubmitted(userID string) {
	iv.res.UserActivities.Invalidate(UserActivitiesKey(userID))
	iv.res.UserStats.Invalidate(UserStatsKey(userID))
	iv.res.LeaderboardUsers.Invalidate(LeaderboardKey("users"))

	iv.schedule(iv.provinceDelay, func() {
		iv.res.Provinces.Invalidate(ProvincesKey())
		iv.res.LeaderboardProvinces.Invalidate(LeaderboardKey("provinces"))
	})
}

// ProvinceChanged 处理“用户迁移省份”事件：
// 新旧省份的聚合数据都已过期，用户在排行榜上的省份展示也随之失效。
func (iv *Invalidator) ProvinceChanged(userID, oldProvince, newProvince string) {
	iv.res.Provinces.Invalidate(ProvincesKey())
	iv.res.LeaderboardUsers.Invalidate(LeaderboardKey("users"))
	iv.res.LeaderboardProvinces.Invalidate(LeaderboardKey("provinces"))
	iv.res.UserStats.Invalidate(UserStatsKey(userID))
}

// ActivityReviewed 处理“活动审核通过/驳回”事件，失效范围与提交一致。
func (iv *Invalidator) ActivityReviewed(userID string) {
	iv.ActivitySubmitted(userID)
}
