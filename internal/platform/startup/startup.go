package startup

import (
	"context"
	"fmt"

	"github.com/AksiHijau/green-action-backend/internal/activity"
	"github.com/AksiHijau/green-action-backend/internal/platform/backup"
	"github.com/AksiHijau/green-action-backend/internal/platform/metadata"
	"github.com/AksiHijau/green-action-backend/internal/profile"
	"github.com/AksiHijau/green-action-backend/internal/province"
)

// InitializeApplication 是应用首次启动时执行的总入口
func InitializeApplication() error {
	fmt.Println("开始应用首次初始化...")

	if err := metadata.PrimeCachedDB(); err != nil {
		return err
	}
	if err := profile.PrimeCachedDB(); err != nil {
		return err
	}
	if err := province.PrimeCachedDB(); err != nil {
		return err
	}
	if err := activity.PrimeDB(); err != nil {
		return err
	}

	fmt.Println("应用初始化完成！")
	return nil
}

// RebuildCache 在运行时热重建Redis缓存。
// 健康检查器在检测到Redis重启后调用它，用数据库中的权威数据恢复全部投影。
func RebuildCache() error {
	fmt.Println("开始缓存热重建...")

	if err := metadata.WarmupCache(); err != nil {
		return err
	}

	err := func() error {
		profile.LockRepository()
		defer profile.UnlockRepository()
		if err := profile.WarmupCache(); err != nil {
			return err
		}
		if err := province.WarmupCache(); err != nil {
			return err
		}
		return nil
	}()
	if err != nil {
		return err
	}

	// 触发一次新的快照，让数据库检查点与重建后的缓存对齐
	fmt.Println("缓存热重建完成，正在触发一次新的数据快照...")
	if err := backup.CreateConsistentSnapshotInDB(context.Background()); err != nil {
		fmt.Printf("警告: 缓存热重建后的快照创建失败: %v\n", err)
	} else {
		fmt.Println("快照创建成功！")
	}

	return nil
}
