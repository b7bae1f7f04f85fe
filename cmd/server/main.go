package main

import (
	"fmt"
	"log"
	"smartnotes-backend/internal/config"
	"smartnotes-backend/internal/database"
	"smartnotes-backend/internal/routes"
	"smartnotes-backend/internal/services"
	"smartnotes-backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// 加载环境变量
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// 初始化配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	logger.Init(cfg.Log)

	// 设置 Gin 模式
	gin.SetMode(cfg.Server.Mode)

	// 初始化数据库
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// 运行数据库自动迁移
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to auto migrate: %v", err)
	}

	log.Println("数据库自动迁移完成")

	// 初始化 AI 客户端
	if cfg.AI.APIKey == "" {
		log.Println("警告: 未配置 AI API Key，摘要将退化为抽取式")
	}
	aiService := services.NewAIService(cfg.AI)

	// 初始化路由
	router := routes.Setup(db, cfg, aiService)

	// 启动服务器
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Server starting on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
