package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/AksiHijau/green-action-backend/internal/platform/database"
	"github.com/AksiHijau/green-action-backend/internal/platform/metadata"
	"github.com/AksiHijau/green-action-backend/internal/profile"
	"github.com/AksiHijau/green-action-backend/pkg/lifecycle"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const backupInterval = 10 * time.Minute // 定时快照频率

var backupMutex sync.Mutex // 避免定时快照与停机快照竞态

// StartBackupScheduler 启动一个后台Goroutine来定期将Redis投影落盘。
// 它接收一个lifecycle.Handle来管理其生命周期。
func StartBackupScheduler(handle *lifecycle.Handle) {
	defer handle.Close()
	fmt.Println("用户积分快照调度器已启动。")

	for {
		// 可中断的休眠代替ticker，停机信号能立刻唤醒并退出循环
		if err := handle.Sleep(backupInterval); err != nil {
			fmt.Printf("快照调度器: 休眠被中断，正在关闭...\n")
			return
		}

		if !database.IsRedisHealthy() {
			fmt.Println("快照调度器: 检测到Redis不可用，跳过本次快照。")
			continue
		}

		fmt.Println("快照调度器: 正在执行定时快照...")
		if err := CreateConsistentSnapshotInDB(handle.Ctx()); err != nil {
			if err != context.Canceled && err != context.DeadlineExceeded {
				fmt.Printf("快照调度器错误: 执行快照失败: %v\n", err)
			}
		} else {
			fmt.Println("快照调度器: 快照成功。")
		}
	}
}

// CreateConsistentSnapshotInDB 将Redis中的实时投影原子地持久化回数据库：
// 自上次快照以来统计发生变化的用户（脏集合）的积分与名次，
// 以及活动投影处理器的检查点。
func CreateConsistentSnapshotInDB(ctx context.Context) (err error) {
	backupMutex.Lock()
	defer backupMutex.Unlock()

	var lastActivityIDCmd *redis.StringCmd
	var rankedIDsCmd *redis.StringSliceCmd

	var dirtyUserIDs []string
	var dirtyUserStats []interface{}

	transferred, err := func() (bool, error) {
		// profile模块在两批Redis操作期间保持锁定，确保脏集合与统计不撕裂
		profile.LockRepository()
		defer profile.UnlockRepository()

		dirtySetExists, err := database.RDB.Exists(ctx, profile.DirtySetKey).Result()
		if err != nil {
			return false, fmt.Errorf("无法检查Redis中 DirtySetKey 是否存在: %w", err)
		}

		// 1. 使用原子事务(TxPipeline)从Redis获取快照
		pipe := database.RDB.TxPipeline()
		lastActivityIDCmd = pipe.Get(database.Ctx, metadata.RedisLastProjectedActivityIDKey)
		rankedIDsCmd = pipe.ZRevRange(database.Ctx, profile.RankingKey, 0, -1)
		dirtyUserIDsCmd := pipe.SMembers(database.Ctx, profile.DirtySetKey)
		if dirtySetExists > 0 {
			pipe.Rename(database.Ctx, profile.DirtySetKey, profile.ProcessingDirtySetKey)
		}
		_, err = pipe.Exec(database.Ctx)
		if err != nil {
			return false, fmt.Errorf("无法从Redis原子地获取快照数据: %w", err)
		}
		// TxPipeline成功后脏集合已被消费，失败时需要合并还原

		dirtyUserIDs, err = dirtyUserIDsCmd.Result()
		if err != nil {
			return true, fmt.Errorf("获取脏用户集合失败: %w", err)
		}
		if len(dirtyUserIDs) > 0 {
			dirtyUserStats, err = database.RDB.HMGet(database.Ctx, profile.StatsKey, dirtyUserIDs...).Result()
			if err != nil {
				return true, fmt.Errorf("获取脏用户统计失败: %w", err)
			}
		}
		return true, nil
	}()

	if transferred {
		defer func() {
			if err != nil {
				pipe := database.RDB.TxPipeline()
				pipe.SUnionStore(database.Ctx, profile.DirtySetKey, profile.DirtySetKey, profile.ProcessingDirtySetKey)
				pipe.Del(database.Ctx, profile.ProcessingDirtySetKey)
				pipe.Exec(database.Ctx)
			} else {
				database.RDB.Del(database.Ctx, profile.ProcessingDirtySetKey)
			}
		}()
	}

	if err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	// 2. 准备将写入数据库的数据
	var lastActivityID uint
	if raw, rawErr := lastActivityIDCmd.Uint64(); rawErr == nil {
		lastActivityID = uint(raw)
	} else if rawErr != redis.Nil {
		return fmt.Errorf("获取投影检查点失败: %w", rawErr)
	}

	lastSnapshotID, err := metadata.GetLastProjectedActivityID(database.DB)
	if err != nil {
		return fmt.Errorf("获取上次快照检查点失败: %w", err)
	}
	// 检查点未前进且没有脏用户，无需落盘
	if lastActivityID == lastSnapshotID && len(dirtyUserIDs) == 0 {
		return nil
	}

	rankedIDs, err := rankedIDsCmd.Result()
	if err != nil {
		return fmt.Errorf("获取用户排行失败: %w", err)
	}
	rankByUUID := make(map[string]int, len(rankedIDs))
	for i, id := range rankedIDs {
		rankByUUID[id] = i + 1
	}

	profilesToUpsert := make([]profile.Profile, 0, len(dirtyUserIDs))
	for i, userID := range dirtyUserIDs {
		raw, ok := dirtyUserStats[i].(string)
		if !ok {
			continue // 统计缺失的用户留给下一次全量重算
		}
		var stats profile.UserStats
		if err := json.Unmarshal([]byte(raw), &stats); err != nil {
			return fmt.Errorf("解析用户 %s 的统计数据失败: %w", userID, err)
		}
		profilesToUpsert = append(profilesToUpsert, profile.Profile{
			UUID:       userID,
			Points:     stats.Points,
			Activities: stats.Activities,
			Rank:       rankByUUID[userID],
		})
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	// 3. 将快照数据持久化到数据库
	const maxRetry = 3
	for i := 0; i < maxRetry; i++ {
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if len(profilesToUpsert) > 0 {
				err := tx.Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "uuid"}},
					DoUpdates: clause.AssignmentColumns([]string{"points", "activities", "rank", "updated_at"}),
				}).Create(&profilesToUpsert).Error
				if err != nil {
					return fmt.Errorf("批量更新用户档案失败: %w", err)
				}
			}

			if err := metadata.SetLastProjectedActivityID(tx, lastActivityID); err != nil {
				return fmt.Errorf("更新投影检查点失败: %w", err)
			}
			return nil
		})

		if err == nil || !database.IsRetryableError(err) {
			break
		}
	}
	return err
}
