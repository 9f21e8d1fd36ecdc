package profile

import (
	"encoding/json"
	"fmt"

	"github.com/AksiHijau/green-action-backend/internal/platform/database"
	"github.com/redis/go-redis/v9"
)

// migrateDB 负责自动迁移数据库表结构
func migrateDB() error {
	if err := database.DB.AutoMigrate(&Profile{}); err != nil {
		return fmt.Errorf("无法迁移profile表: %w", err)
	}
	fmt.Println("Profile数据库表迁移成功。")
	return nil
}

// WarmupCache 从SQL加载所有用户档案，预热Redis中的已知用户集合、
// 统计哈希与积分排行。
// 注意：此函数不加锁，调用方需要在安全时机（单线程启动或重建大锁下）调用。
func WarmupCache() error {
	var profiles []Profile
	if err := database.DB.Find(&profiles).Error; err != nil {
		return fmt.Errorf("无法从数据库读取用户档案: %w", err)
	}

	pipe := database.RDB.Pipeline()
	pipe.Del(database.Ctx, KnownUsersKey, StatsKey, RankingKey)

	if len(profiles) == 0 {
		if _, err := pipe.Exec(database.Ctx); err != nil {
			return fmt.Errorf("清理用户缓存失败: %w", err)
		}
		fmt.Println("无现有用户数据，无需预热用户缓存。")
		return nil
	}

	members := make([]interface{}, len(profiles))
	ranking := make([]redis.Z, 0, len(profiles))
	for i, p := range profiles {
		members[i] = p.UUID
		stats := UserStats{Points: p.Points, Activities: p.Activities}
		statsJSON, _ := json.Marshal(stats)
		pipe.HSet(database.Ctx, StatsKey, p.UUID, statsJSON)
		ranking = append(ranking, redis.Z{Score: float64(p.Points), Member: p.UUID})
	}
	pipe.SAdd(database.Ctx, KnownUsersKey, members...)
	pipe.ZAdd(database.Ctx, RankingKey, ranking...)

	if _, err := pipe.Exec(database.Ctx); err != nil {
		return fmt.Errorf("预热用户档案到Redis失败: %w", err)
	}

	fmt.Printf("成功预热 %d 个用户档案到Redis。\n", len(profiles))
	return nil
}

// PrimeCachedDB 是profile模块的初始化总入口
func PrimeCachedDB() error {
	if err := migrateDB(); err != nil {
		return err
	}
	if err := WarmupCache(); err != nil {
		return err
	}
	return nil
}
