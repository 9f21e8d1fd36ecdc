package stats

import (
	"sort"

	"github.com/AksiHijau/green-action-backend/internal/activity"
	"github.com/AksiHijau/green-action-backend/internal/profile"
	"github.com/AksiHijau/green-action-backend/internal/province"
)

// UserTotals 是按用户聚合出的积分与活动数。
type UserTotals struct {
	Points     int
	Activities int
}

// SumPointsByUser 按用户分组累加已通过审核的活动。
// 未出现在结果中的用户（没有任何已通过活动）保持原状，不会被清零。
func SumPointsByUser(rows []activity.Activity) map[string]UserTotals {
	totals := make(map[string]UserTotals)
	for _, a := range rows {
		if a.Status != activity.StatusApproved || a.UserUUID == "" {
			continue
		}
		t := totals[a.UserUUID]
		t.Points += a.Points
		t.Activities++
		totals[a.UserUUID] = t
	}
	return totals
}

// BuildProvinceStats 从已通过的活动构建各省份的聚合统计。
// provinceOf 将用户UUID映射到该用户档案上的当前省份：
// 聚合始终按档案当前省份进行，而不是活动提交时记录的省份快照，
// 两者在用户迁移省份后可能不一致。
func BuildProvinceStats(rows []activity.Activity, provinceOf func(userUUID string) string) []province.ProvinceStats {
	type accumulator struct {
		users           map[string]struct{}
		totalPoints     int
		totalActivities int
	}
	byProvince := make(map[string]*accumulator)

	for _, a := range rows {
		if a.Status != activity.StatusApproved || a.UserUUID == "" {
			continue
		}
		name := provinceOf(a.UserUUID)
		if name == "" {
			continue
		}
		acc, ok := byProvince[name]
		if !ok {
			acc = &accumulator{users: make(map[string]struct{})}
			byProvince[name] = acc
		}
		acc.users[a.UserUUID] = struct{}{}
		acc.totalPoints += a.Points
		acc.totalActivities++
	}

	result := make([]province.ProvinceStats, 0, len(byProvince))
	for name, acc := range byProvince {
		stats := province.ProvinceStats{
			Name:            name,
			TotalUsers:      len(acc.users),
			TotalActivities: acc.totalActivities,
			TotalPoints:     acc.totalPoints,
		}
		// 防御除零：没有用户的省份平均分为0
		if stats.TotalUsers > 0 {
			stats.AvgPointsPerUser = float64(stats.TotalPoints) / float64(stats.TotalUsers)
		}
		result = append(result, stats)
	}

	// 按名称排序，保证输出顺序确定
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// AssignProvinceRanks 按 (TotalPoints 降序, Name 升序) 重排并写入名次。
// 名称作为次级排序键保证了全序，因此对相同输入重复执行结果完全一致。
func AssignProvinceRanks(list []province.ProvinceStats) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].TotalPoints != list[j].TotalPoints {
			return list[i].TotalPoints > list[j].TotalPoints
		}
		return list[i].Name < list[j].Name
	})
	for i := range list {
		list[i].Rank = i + 1
	}
}

// AssignUserRanks 按 (Points 降序, UUID 升序) 重排并写入名次。
// UUID作为显式的次级排序键，避免同分用户的名次在两次重算之间跳动。
func AssignUserRanks(list []profile.Profile) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].Points != list[j].Points {
			return list[i].Points > list[j].Points
		}
		return list[i].UUID < list[j].UUID
	})
	for i := range list {
		list[i].Rank = i + 1
	}
}
