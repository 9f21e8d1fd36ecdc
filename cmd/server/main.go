package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/AksiHijau/green-action-backend/api"
	"github.com/AksiHijau/green-action-backend/internal/activity"
	"github.com/AksiHijau/green-action-backend/internal/platform/backup"
	"github.com/AksiHijau/green-action-backend/internal/platform/config"
	"github.com/AksiHijau/green-action-backend/internal/platform/database"
	"github.com/AksiHijau/green-action-backend/internal/platform/health"
	"github.com/AksiHijau/green-action-backend/internal/platform/shutdown"
	"github.com/AksiHijau/green-action-backend/internal/platform/startup"
	"github.com/AksiHijau/green-action-backend/internal/platform/storage"
	"github.com/AksiHijau/green-action-backend/internal/stats"
	"github.com/AksiHijau/green-action-backend/pkg/lifecycle"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// .env缺失不是错误，环境变量可能由部署环境直接提供
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("加载配置失败: %v", err))
	}

	database.InitDB(cfg.Database)
	database.InitRedis(cfg.Database.Redis)

	// 1. 阻塞式获取初始Run ID
	health.InitializeRunID()

	// 2. 执行应用首次启动初始化流程
	if err := startup.InitializeApplication(); err != nil {
		panic(fmt.Sprintf("应用初始化失败，无法启动: %v", err))
	}

	// 3. 阻塞式执行一次启动后健康检查
	fmt.Println("正在执行启动后健康检查...")
	health.PerformCheck()

	// 4. 异步启动后台的持续健康检查器
	go health.StartRedisHealthCheck()

	// 5. 注入各模块的运行时依赖
	stats.ConfigureEngine(cfg.Aggregation.WriteConcurrency)

	var uploader storage.Uploader = storage.NopUploader{}
	if cfg.Storage.CloudName != "" {
		cloudUploader, err := storage.NewCloudinaryUploader(cfg.Storage)
		if err != nil {
			panic(fmt.Sprintf("初始化Cloudinary失败: %v", err))
		}
		uploader = cloudUploader
		fmt.Println("Cloudinary对象存储已启用。")
	} else {
		fmt.Println("未配置对象存储，活动照片上传被禁用。")
	}
	activity.ConfigureModule(uploader)

	// 6. 创建生命周期管理器并启动后台服务
	gracefulMgr := lifecycle.NewManager()
	forcefulMgr := lifecycle.NewManager()

	processorGraceful, err := gracefulMgr.NewServiceHandle("activity-processor")
	if err != nil {
		panic(err)
	}
	processorForceful, err := forcefulMgr.NewServiceHandle("activity-processor")
	if err != nil {
		panic(err)
	}
	if err := activity.StartActivityProcessor(processorGraceful, processorForceful); err != nil {
		panic(fmt.Sprintf("启动Activity Processor失败: %v", err))
	}

	backupHandle, err := gracefulMgr.NewServiceHandle("backup-scheduler")
	if err != nil {
		panic(err)
	}
	go backup.StartBackupScheduler(backupHandle)

	// 7. 配置HTTP服务器
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.Cors.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api.SetupRoutes(r)

	server := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: r,
	}

	go func() {
		fmt.Printf("服务器已准备就绪，开始监听 %s\n", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			panic("Failed to start server: " + err.Error())
		}
	}()

	// 8. 阻塞等待停机信号，编排两阶段停机与最终快照
	coordinator := shutdown.NewCoordinator(gracefulMgr, forcefulMgr)
	coordinator.ListenForSignalsAndShutdown(server)
}
