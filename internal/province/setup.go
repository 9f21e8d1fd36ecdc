package province

import (
	"encoding/json"
	"fmt"

	"github.com/AksiHijau/green-action-backend/internal/platform/database"
	"github.com/redis/go-redis/v9"
)

// migrateDB 负责自动迁移数据库表结构
func migrateDB() error {
	if err := database.DB.AutoMigrate(&ProvinceStats{}); err != nil {
		return fmt.Errorf("无法迁移province_stats表: %w", err)
	}
	fmt.Println("ProvinceStats数据库表迁移成功。")
	return nil
}

// WarmupCache 从SQL加载省份聚合数据，预热Redis中的统计哈希与排行。
// 注意：此函数不加锁，调用方需保证在安全时机调用。
func WarmupCache() error {
	var rows []ProvinceStats
	if err := database.DB.Find(&rows).Error; err != nil {
		return fmt.Errorf("无法从数据库读取省份统计: %w", err)
	}

	pipe := database.RDB.Pipeline()
	pipe.Del(database.Ctx, StatsKey, RankingKey, LivePointsKey)

	for _, row := range rows {
		entry := ProvinceStatsEntry{
			TotalUsers:       row.TotalUsers,
			TotalActivities:  row.TotalActivities,
			TotalPoints:      row.TotalPoints,
			AvgPointsPerUser: row.AvgPointsPerUser,
			Rank:             row.Rank,
		}
		entryJSON, _ := json.Marshal(entry)
		pipe.HSet(database.Ctx, StatsKey, row.Name, entryJSON)
		pipe.ZAdd(database.Ctx, RankingKey, redis.Z{Score: float64(row.TotalPoints), Member: row.Name})
		// 实时视图从上次落盘的总分继续累加
		pipe.ZAdd(database.Ctx, LivePointsKey, redis.Z{Score: float64(row.TotalPoints), Member: row.Name})
	}

	if _, err := pipe.Exec(database.Ctx); err != nil {
		return fmt.Errorf("预热省份统计到Redis失败: %w", err)
	}

	fmt.Printf("成功预热 %d 个省份的聚合数据到Redis。\n", len(rows))
	return nil
}

// PrimeCachedDB 是province模块的初始化总入口
func PrimeCachedDB() error {
	if err := migrateDB(); err != nil {
		return err
	}
	return WarmupCache()
}
