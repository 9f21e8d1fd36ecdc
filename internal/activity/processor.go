package activity

import (
	"container/heap"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/AksiHijau/green-action-backend/internal/platform/database"
	"github.com/AksiHijau/green-action-backend/internal/platform/metadata"
	"github.com/AksiHijau/green-action-backend/internal/profile"
	"github.com/AksiHijau/green-action-backend/internal/province"
	"github.com/AksiHijau/green-action-backend/pkg/lifecycle"
	"github.com/redis/go-redis/v9"
)

// activityMinHeap 实现了 container/heap 接口，按gorm ID排序
type activityMinHeap []Activity

func (h activityMinHeap) Len() int            { return len(h) }
func (h activityMinHeap) Less(i, j int) bool  { return h[i].ID < h[j].ID }
func (h activityMinHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *activityMinHeap) Push(x interface{}) { *h = append(*h, x.(Activity)) }
func (h *activityMinHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}

// activityProcessor 是一个单一写入者，负责按ID顺序把通过审核的活动
// 计入Redis投影（用户积分、排行榜、省份积分）。
// 投影写入与HTTP请求解耦：提交接口只负责入队，这里异步消化。
type activityProcessor struct {
	activityChan    chan Activity
	lastProcessedID uint
	buffer          *activityMinHeap
	processMutex    sync.Mutex
	isShutdown      bool
	shutdownMutex   sync.Mutex
}

// globalProcessor 是私有的全局processor实例
var globalProcessor = activityProcessor{
	activityChan: make(chan Activity, 10000),
}

// initializeProcessor 初始化全局processor
func initializeProcessor(startID uint) {
	globalProcessor.lastProcessedID = startID
	h := &activityMinHeap{}
	heap.Init(h)
	globalProcessor.buffer = h
}

// startProcessor 启动processor的主处理循环和巡查员
func startProcessor(gracefulHandle, forcefulHandle *lifecycle.Handle) {
	defer gracefulHandle.Close()
	defer forcefulHandle.Close()
	fmt.Println("活动投影处理器 (Activity Processor) 已启动。")

	// 立刻收集启动前遗漏的活动
	globalProcessor.checkAndRequeueMissed(gracefulHandle.Ctx())
	patrollerCtx, patrollerCancel := context.WithCancel(gracefulHandle.Ctx())
	defer patrollerCancel()
	go globalProcessor.runPatroller(patrollerCtx)

	globalProcessor.runMainLoop(gracefulHandle, forcefulHandle)
}

// submitActivityToQueue 供服务层调用，提交一条已通过审核的活动
func submitActivityToQueue(a Activity) {
	globalProcessor.shutdownMutex.Lock()
	if globalProcessor.isShutdown {
		globalProcessor.shutdownMutex.Unlock()
		fmt.Printf("警告: 投影队列已关闭，放弃处理 activity ID: %d\n", a.ID)
		return
	}
	select {
	case globalProcessor.activityChan <- a:
		globalProcessor.shutdownMutex.Unlock()
	default:
		globalProcessor.shutdownMutex.Unlock()
		fmt.Printf("警告: 投影队列已满，暂时放弃实时处理 activity ID: %d\n", a.ID)
	}
}

// runMainLoop 是处理器的主事件循环，响应两阶段停机
func (ap *activityProcessor) runMainLoop(gracefulHandle, forcefulHandle *lifecycle.Handle) {
	for {
		select {
		case <-gracefulHandle.Done():
			fmt.Println("Activity Processor: 收到优雅停机信号，正在处理剩余任务...")
			ap.drainQueue(forcefulHandle)
			fmt.Println("Activity Processor: 优雅停机完成，主循环退出。")
			return
		default:
			ap.processSingle(gracefulHandle)
		}
	}
}

// drainQueue 在收到优雅停机信号后，尽力处理完暂存区和channel中的剩余任务
func (ap *activityProcessor) drainQueue(forcefulHandle *lifecycle.Handle) {
	ap.checkAndRequeueMissed(forcefulHandle.Ctx())
	select {
	case <-forcefulHandle.Done():
		fmt.Println("Activity Processor: 收到强制停机信号，排空队列被中断。")
		return
	default:
	}

	// 关闭channel，不再接收新任务
	ap.shutdownMutex.Lock()
	ap.isShutdown = true
	close(ap.activityChan)
	ap.shutdownMutex.Unlock()

	for a := range ap.activityChan {
		ap.processMutex.Lock()
		heap.Push(ap.buffer, a)
		ap.processMutex.Unlock()
	}

	for {
		select {
		case <-forcefulHandle.Done():
			fmt.Println("Activity Processor: 收到强制停机信号，排空队列被中断。")
			return
		default:
		}

		ap.processMutex.Lock()
		if ap.buffer.Len() == 0 {
			ap.processMutex.Unlock()
			return
		}
		// 只处理连续的任务
		if (*ap.buffer)[0].ID == ap.lastProcessedID+1 {
			a := heap.Pop(ap.buffer).(Activity)
			ap.processMutex.Unlock()
			// 排空模式下不重试，失败直接放弃
			if err := ap.applyToProjection(a); err == nil {
				ap.processMutex.Lock()
				ap.lastProcessedID = a.ID
				ap.processMutex.Unlock()
			} else {
				fmt.Printf("排空队列时处理 activity ID %d 失败，已放弃: %v\n", a.ID, err)
			}
		} else {
			ap.processMutex.Unlock()
			return
		}
	}
}

func (ap *activityProcessor) processSingle(gracefulHandle *lifecycle.Handle) {
	next, err := ap.getNextContinuous(gracefulHandle)
	if err != nil {
		return
	}

	if !database.IsRedisHealthy() {
		fmt.Println("Activity Processor: 检测到Redis不可用或正在重建，暂停处理...")
		gracefulHandle.Sleep(5 * time.Second)
		ap.processMutex.Lock()
		heap.Push(ap.buffer, next)
		ap.processMutex.Unlock()
		return
	}

	select {
	case <-gracefulHandle.Done():
		return
	default:
	}

	err = ap.applyWithRetry(gracefulHandle, next)
	if err != nil {
		if err != context.Canceled && err != context.DeadlineExceeded {
			fmt.Printf("错误: 处理 activity ID %d 失败，已放回队列: %v\n", next.ID, err)
		}
		ap.processMutex.Lock()
		heap.Push(ap.buffer, next)
		ap.processMutex.Unlock()
		return
	}

	ap.processMutex.Lock()
	ap.lastProcessedID = next.ID
	ap.processMutex.Unlock()
}

// getNextContinuous 阻塞等待下一条连续ID的活动，可被gracefulHandle中断
func (ap *activityProcessor) getNextContinuous(gracefulHandle *lifecycle.Handle) (Activity, error) {
	for {
		ap.processMutex.Lock()
		// 丢弃过时的堆顶元素
		for ap.buffer.Len() > 0 && (*ap.buffer)[0].ID <= ap.lastProcessedID {
			heap.Pop(ap.buffer)
		}

		if ap.buffer.Len() > 0 && (*ap.buffer)[0].ID == ap.lastProcessedID+1 {
			a := heap.Pop(ap.buffer).(Activity)
			ap.processMutex.Unlock()
			return a, nil
		}
		ap.processMutex.Unlock()

		select {
		case <-gracefulHandle.Done():
			return Activity{}, gracefulHandle.Err()
		case a := <-ap.activityChan:
			ap.processMutex.Lock()
			if a.ID <= ap.lastProcessedID {
				ap.processMutex.Unlock()
				continue
			}
			if a.ID == ap.lastProcessedID+1 {
				ap.processMutex.Unlock()
				return a, nil
			}
			heap.Push(ap.buffer, a)
			ap.processMutex.Unlock()
		}
	}
}

// applyWithRetry 带指数退避和健康检查的重试逻辑
func (ap *activityProcessor) applyWithRetry(gracefulHandle *lifecycle.Handle, a Activity) error {
	initialDelay := 8 * time.Millisecond
	maxDelay := 2 * time.Second

	delay := initialDelay
	for delay < maxDelay {
		err := ap.applyToProjection(a)
		if err == nil {
			return nil
		}
		if err = gracefulHandle.Sleep(delay); err != nil {
			return err
		}
		delay *= 2
	}

	// 长循环告警模式
	for {
		if !database.IsRedisHealthy() {
			return errors.New("redis became unhealthy during retry")
		}

		err := ap.applyToProjection(a)
		if err == nil {
			return nil
		}

		fmt.Printf("告警: Redis持续写入失败，将在%v后重试 activity ID %d\n", maxDelay, a.ID)
		if err := gracefulHandle.Sleep(maxDelay); err != nil {
			return err
		}
	}
}

// runPatroller 启动后台巡查员，定期检查数据库中是否有被遗漏的活动
func (ap *activityProcessor) runPatroller(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ap.checkAndRequeueMissed(ctx)
		}
	}
}

func (ap *activityProcessor) checkAndRequeueMissed(ctx context.Context) {
	if !database.IsRedisHealthy() {
		return
	}

	ap.processMutex.Lock()
	startID := ap.lastProcessedID
	bufferMinID := uint(0)
	if ap.buffer.Len() > 0 {
		bufferMinID = (*ap.buffer)[0].ID
	}
	ap.processMutex.Unlock()

	select {
	case <-ctx.Done():
		return
	default:
	}

	var missed []Activity
	query := database.DB.Where("id > ? AND status = ?", startID, StatusApproved)
	if bufferMinID > 0 {
		query = query.Where("id < ?", bufferMinID)
	}
	query.Order("id asc").Limit(1000).Find(&missed)

	if len(missed) > 0 {
		ap.processMutex.Lock()
		currentID := ap.lastProcessedID
		ap.processMutex.Unlock()
		if bufferMinID > 0 && currentID >= bufferMinID {
			return
		}

		fmt.Printf("巡查员: 发现 %d 条未投影的活动，正在提交处理...\n", len(missed))
		for _, a := range missed {
			select {
			case <-ctx.Done():
				return
			default:
				if a.ID > currentID {
					submitActivityToQueue(a)
				}
			}
		}
	}
}

// applyToProjection 将单条活动的积分原子地计入Redis投影。
// 省份按用户档案的当前省份累加，而不是活动上的省份快照。
func (ap *activityProcessor) applyToProjection(a Activity) error {
	profile.LockRepository()
	defer profile.UnlockRepository()

	ap.processMutex.Lock()
	currentID := ap.lastProcessedID
	ap.processMutex.Unlock()
	if currentID >= a.ID {
		return nil
	}

	// 1. 读取用户当前统计
	statsJSON, err := database.RDB.HGet(database.Ctx, profile.StatsKey, a.UserUUID).Result()
	stats := profile.UserStats{}
	if err == nil {
		_ = json.Unmarshal([]byte(statsJSON), &stats)
	} else if err != redis.Nil {
		return fmt.Errorf("无法从Redis获取用户统计: %w", err)
	}
	stats.Points += a.Points
	stats.Activities++

	// 2. 查询档案上的当前省份
	var prof profile.Profile
	if err := database.DB.Select("province").Where("uuid = ?", a.UserUUID).First(&prof).Error; err != nil {
		return fmt.Errorf("无法读取用户 %s 的档案省份: %w", a.UserUUID, err)
	}

	// 3. 原子地写回投影与检查点
	newStatsJSON, _ := json.Marshal(stats)
	pipe := database.RDB.TxPipeline()
	pipe.HSet(database.Ctx, profile.StatsKey, a.UserUUID, newStatsJSON)
	pipe.ZAdd(database.Ctx, profile.RankingKey, redis.Z{Score: float64(stats.Points), Member: a.UserUUID})
	pipe.SAdd(database.Ctx, profile.DirtySetKey, a.UserUUID)
	if prof.Province != "" {
		pipe.ZIncrBy(database.Ctx, province.LivePointsKey, float64(a.Points), prof.Province)
	}
	pipe.Incr(database.Ctx, metadata.RedisTotalActivitiesKey)
	pipe.Set(database.Ctx, metadata.RedisLastProjectedActivityIDKey, a.ID, 0)

	_, err = pipe.Exec(database.Ctx)
	return err
}
