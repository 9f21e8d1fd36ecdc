package stats

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/AksiHijau/green-action-backend/internal/activity"
	"github.com/AksiHijau/green-action-backend/internal/platform/database"
	"github.com/AksiHijau/green-action-backend/internal/platform/metadata"
	"github.com/AksiHijau/green-action-backend/internal/profile"
	"github.com/AksiHijau/green-action-backend/internal/province"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm/clause"
)

// writeConcurrency 限制重算pass中并发落库的goroutine数量。
// 各行的写入互相独立（不同用户/省份对应不同的行），因此可以安全并发。
var writeConcurrency = 8

// ConfigureEngine 设置重算引擎的写并发度，由main在启动时调用。
func ConfigureEngine(concurrency int) {
	if concurrency > 0 {
		writeConcurrency = concurrency
	}
}

// Report 汇总一次批量重算的结果。
// 单行失败只计数、不中断整个批次，由调用方决定是否告警或重试。
type Report struct {
	UpdatedCount int      `json:"updatedCount"`
	FailedCount  int      `json:"failedCount"`
	Failures     []string `json:"-"`
}

func (r *Report) merge(other Report) {
	r.UpdatedCount += other.UpdatedCount
	r.FailedCount += other.FailedCount
	r.Failures = append(r.Failures, other.Failures...)
}

// runBatch 以有界并发对每个key执行一次独立写入，收集成功/失败计数。
// 任何一行的失败都不会取消其余行。
func runBatch(keys []string, write func(key string) error) Report {
	g := new(errgroup.Group)
	g.SetLimit(writeConcurrency)

	var mu sync.Mutex
	var report Report
	for _, key := range keys {
		key := key
		g.Go(func() error {
			err := write(key)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.FailedCount++
				report.Failures = append(report.Failures, fmt.Sprintf("%s: %v", key, err))
			} else {
				report.UpdatedCount++
			}
			return nil
		})
	}
	_ = g.Wait() // 各写入函数自行上报错误，不经errgroup传播
	sort.Strings(report.Failures)
	return report
}

// RecalculateUserPoints 从权威的活动表全量重算每个用户的积分，
// 写回档案表与Redis排行榜投影，最后按积分重排用户名次。
// 在此出现过的用户其总分会被覆盖；没有任何已审核活动的用户保持不变。
func RecalculateUserPoints() (Report, error) {
	var rows []activity.Activity
	if err := database.DB.Where("status = ?", activity.StatusApproved).Find(&rows).Error; err != nil {
		return Report{}, fmt.Errorf("无法读取已审核活动: %w", err)
	}
	totals := SumPointsByUser(rows)

	userIDs := make([]string, 0, len(totals))
	for id := range totals {
		userIDs = append(userIDs, id)
	}
	sort.Strings(userIDs)

	// 全程持有仓库写锁，避免与活动投影处理器或快照交错
	profile.LockRepository()
	defer profile.UnlockRepository()

	report := runBatch(userIDs, func(userID string) error {
		return writeUserTotal(userID, totals[userID])
	})

	if rankReport, err := reassignUserRanks(); err != nil {
		report.Failures = append(report.Failures, fmt.Sprintf("rank pass: %v", err))
		report.FailedCount++
	} else {
		report.merge(rankReport)
	}

	if err := metadata.SetLastRecalcAt(database.DB, metadata.LastPointsRecalcAtKey, time.Now()); err != nil {
		fmt.Printf("警告: 无法记录积分重算检查点: %v\n", err)
	}
	return report, nil
}

// writeUserTotal 将一个用户的新总分独立写入数据库与Redis投影。
func writeUserTotal(userID string, t UserTotals) error {
	err := database.DB.Model(&profile.Profile{}).Where("uuid = ?", userID).
		Updates(map[string]any{"points": t.Points, "activities": t.Activities}).Error
	if err != nil {
		return fmt.Errorf("更新档案积分失败: %w", err)
	}

	statsJSON, err := json.Marshal(profile.UserStats{Points: t.Points, Activities: t.Activities})
	if err != nil {
		return err
	}
	pipe := database.RDB.TxPipeline()
	pipe.HSet(database.Ctx, profile.StatsKey, userID, string(statsJSON))
	pipe.ZAdd(database.Ctx, profile.RankingKey, redis.Z{Score: float64(t.Points), Member: userID})
	if _, err := pipe.Exec(database.Ctx); err != nil {
		return fmt.Errorf("更新Redis投影失败: %w", err)
	}
	return nil
}

// reassignUserRanks 在积分写入完成后重排所有用户的名次列。
func reassignUserRanks() (Report, error) {
	var profiles []profile.Profile
	if err := database.DB.Find(&profiles).Error; err != nil {
		return Report{}, fmt.Errorf("无法读取用户档案: %w", err)
	}
	AssignUserRanks(profiles)

	byUUID := make(map[string]int, len(profiles))
	keys := make([]string, 0, len(profiles))
	for _, p := range profiles {
		byUUID[p.UUID] = p.Rank
		keys = append(keys, p.UUID)
	}
	return runBatch(keys, func(userID string) error {
		return database.DB.Model(&profile.Profile{}).Where("uuid = ?", userID).
			Update("rank", byUUID[userID]).Error
	}), nil
}

// RecalculateProvinceStats 从已审核活动全量重建各省份的聚合行。
// 按用户档案上的当前省份分组。名次列不在此pass中修改，
// 由独立的RecalculateProvinceRanks负责。
func RecalculateProvinceStats() (Report, error) {
	var rows []activity.Activity
	if err := database.DB.Where("status = ?", activity.StatusApproved).Find(&rows).Error; err != nil {
		return Report{}, fmt.Errorf("无法读取已审核活动: %w", err)
	}

	var profiles []profile.Profile
	if err := database.DB.Select("uuid", "province").Find(&profiles).Error; err != nil {
		return Report{}, fmt.Errorf("无法读取用户档案: %w", err)
	}
	provinceByUser := make(map[string]string, len(profiles))
	for _, p := range profiles {
		provinceByUser[p.UUID] = p.Province
	}

	list := BuildProvinceStats(rows, func(userID string) string {
		return provinceByUser[userID]
	})
	byName := make(map[string]province.ProvinceStats, len(list))
	names := make([]string, 0, len(list))
	for _, s := range list {
		byName[s.Name] = s
		names = append(names, s.Name)
	}

	var existing []string
	if err := database.DB.Model(&province.ProvinceStats{}).Pluck("name", &existing).Error; err != nil {
		return Report{}, fmt.Errorf("无法读取现有省份列表: %w", err)
	}

	profile.LockRepository()
	defer profile.UnlockRepository()

	report := runBatch(names, func(name string) error {
		return upsertProvinceStats(byName[name])
	})

	// 最后一个用户迁出后，该省份不再出现在重算结果中，
	// 其旧聚合行必须随本次全量重建一并清除
	if stale := staleProvinceNames(existing, byName); len(stale) > 0 {
		report.merge(runBatch(stale, removeProvinceStats))
	}

	// 重建实时积分视图，作为下一轮增量累加的基线
	if err := rebuildLivePoints(list); err != nil {
		fmt.Printf("警告: 无法重建省份实时积分视图: %v\n", err)
	}
	if err := metadata.SetLastRecalcAt(database.DB, metadata.LastProvinceRecalcAtKey, time.Now()); err != nil {
		fmt.Printf("警告: 无法记录省份重算检查点: %v\n", err)
	}
	return report, nil
}

// upsertProvinceStats 按省份名幂等地写入一行聚合统计，不触碰名次列。
func upsertProvinceStats(s province.ProvinceStats) error {
	err := database.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_users", "total_activities", "total_points", "avg_points_per_user", "updated_at",
		}),
	}).Create(&s).Error
	if err != nil {
		return fmt.Errorf("写入省份统计失败: %w", err)
	}

	entry := province.ProvinceStatsEntry{
		TotalUsers:       s.TotalUsers,
		TotalActivities:  s.TotalActivities,
		TotalPoints:      s.TotalPoints,
		AvgPointsPerUser: s.AvgPointsPerUser,
		Rank:             s.Rank,
	}
	entryJSON, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	pipe := database.RDB.TxPipeline()
	pipe.HSet(database.Ctx, province.StatsKey, s.Name, string(entryJSON))
	pipe.ZAdd(database.Ctx, province.RankingKey, redis.Z{Score: float64(s.TotalPoints), Member: s.Name})
	if _, err := pipe.Exec(database.Ctx); err != nil {
		return fmt.Errorf("更新省份Redis投影失败: %w", err)
	}
	return nil
}

// staleProvinceNames 返回existing中没有出现在本次重算结果里的省份名，
// 排序后返回以保证删除顺序稳定。
func staleProvinceNames(existing []string, current map[string]province.ProvinceStats) []string {
	var stale []string
	for _, name := range existing {
		if _, ok := current[name]; !ok {
			stale = append(stale, name)
		}
	}
	sort.Strings(stale)
	return stale
}

// removeProvinceStats 删除一个省份的聚合行及其Redis投影。
func removeProvinceStats(name string) error {
	err := database.DB.Where("name = ?", name).Delete(&province.ProvinceStats{}).Error
	if err != nil {
		return fmt.Errorf("删除省份统计失败: %w", err)
	}
	pipe := database.RDB.TxPipeline()
	pipe.HDel(database.Ctx, province.StatsKey, name)
	pipe.ZRem(database.Ctx, province.RankingKey, name)
	if _, err := pipe.Exec(database.Ctx); err != nil {
		return fmt.Errorf("删除省份Redis投影失败: %w", err)
	}
	return nil
}

// rebuildLivePoints 用权威总分覆盖处理器维护的实时积分ZSET。
func rebuildLivePoints(list []province.ProvinceStats) error {
	pipe := database.RDB.TxPipeline()
	pipe.Del(database.Ctx, province.LivePointsKey)
	for _, s := range list {
		pipe.ZAdd(database.Ctx, province.LivePointsKey, redis.Z{Score: float64(s.TotalPoints), Member: s.Name})
	}
	_, err := pipe.Exec(database.Ctx)
	return err
}

// RecalculateProvinceRanks 按 (TotalPoints DESC, Name ASC) 重排所有省份行
// 并写入 rank = 位置+1。与统计重算解耦：可以只刷新名次而不重算总和。
// 对相同输入重复执行是幂等的。
func RecalculateProvinceRanks() (Report, error) {
	var list []province.ProvinceStats
	if err := database.DB.Find(&list).Error; err != nil {
		return Report{}, fmt.Errorf("无法读取省份统计: %w", err)
	}
	AssignProvinceRanks(list)

	byName := make(map[string]province.ProvinceStats, len(list))
	names := make([]string, 0, len(list))
	for _, s := range list {
		byName[s.Name] = s
		names = append(names, s.Name)
	}

	profile.LockRepository()
	defer profile.UnlockRepository()

	return runBatch(names, func(name string) error {
		s := byName[name]
		err := database.DB.Model(&province.ProvinceStats{}).Where("name = ?", name).
			Update("rank", s.Rank).Error
		if err != nil {
			return fmt.Errorf("更新省份名次失败: %w", err)
		}

		entry := province.ProvinceStatsEntry{
			TotalUsers:       s.TotalUsers,
			TotalActivities:  s.TotalActivities,
			TotalPoints:      s.TotalPoints,
			AvgPointsPerUser: s.AvgPointsPerUser,
			Rank:             s.Rank,
		}
		entryJSON, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		return database.RDB.HSet(database.Ctx, province.StatsKey, name, string(entryJSON)).Err()
	}), nil
}
