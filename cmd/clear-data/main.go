package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/docqa-project/docqa-backend/internal/conf"
	"github.com/docqa-project/docqa-backend/internal/knowledge/maintenance"
	"github.com/docqa-project/docqa-backend/internal/knowledge/storage"
	"github.com/docqa-project/docqa-backend/internal/knowledge/types"
	"github.com/docqa-project/docqa-backend/internal/pkg/logger"
)

var (
	configFile = flag.String("config", "config.yaml", "config file path")
	simple     = flag.Bool("simple", false, "only delete data, keep the vector db directory")
)

func main() {
	flag.Parse()

	config, err := conf.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	lgr, err := logger.New(logger.DefaultConfig())
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer lgr.Sync()

	fmt.Println("==========================================")
	fmt.Println("清理文档问答数据")
	fmt.Println("==========================================")

	ctx := context.Background()

	// 1. 打开存储
	fmt.Println("\n1. 打开向量库与登记库...")
	registry, err := storage.OpenRegistry(config.Storage.VectorDBDir, lgr)
	if err != nil {
		log.Fatalf("打开登记库失败: %v", err)
	}
	defer registry.Close()

	store, err := storage.NewChromemStore(config.Storage.VectorDBDir, lgr)
	if err != nil {
		log.Fatalf("打开向量库失败: %v", err)
	}
	fmt.Println("   ✓ 存储已打开")

	mgr, err := maintenance.New(&maintenance.Config{
		Store:      store,
		Registry:   registry,
		VectorDir:  config.Storage.VectorDBDir,
		UploadsDir: config.Storage.UploadDir,
		Logger:     lgr,
	})
	if err != nil {
		log.Fatalf("创建运维管理器失败: %v", err)
	}

	// 2. 统计清理前数据
	fmt.Println("\n2. 统计清理前数据...")
	printStats(ctx, mgr)

	// 3. 执行清理
	fmt.Println("\n3. 执行清理...")
	var result types.ClearResult
	if *simple {
		result = mgr.SimpleClear(ctx)
	} else {
		result = mgr.ClearWithFallback(ctx)
	}
	if !result.Success {
		log.Fatalf("清理失败: %s", result.Error)
	}
	fmt.Printf("   ✓ 清理完成（方式: %s）\n", result.MethodUsed)
	if result.UploadsCleared {
		fmt.Println("   ✓ 上传文件已删除")
	}

	// 4. 验证清理结果
	fmt.Println("\n4. 验证清理结果...")
	printStats(ctx, mgr)

	fmt.Println("\n==========================================")
	fmt.Println("清理完成！")
	fmt.Println("==========================================")
}

func printStats(ctx context.Context, mgr *maintenance.Manager) {
	status := mgr.Status(ctx)
	fmt.Printf("   集合数量: %d\n", status.VectorDBCollections)
	fmt.Printf("   分块数量: %d\n", status.VectorDBDocuments)
	fmt.Printf("   上传文件: %d\n", status.UploadedFiles)
	fmt.Printf("   完全清空: %v\n", status.DatabaseCompletelyClear)
}
