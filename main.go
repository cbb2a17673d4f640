package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fachebot/text-digest/internal/config"
	"github.com/fachebot/text-digest/internal/logger"
	"github.com/fachebot/text-digest/internal/svc"

	"github.com/joho/godotenv"
)

var configFile = flag.String("f", "etc/config.yaml", "the config file")

func main() {
	flag.Parse()

	// 读取 .env，文件不存在时忽略
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warnf("读取 .env 失败, %s", err)
	}

	// 读取配置文件
	c, err := config.LoadFromFile(*configFile)
	if err != nil {
		logger.Fatalf("读取配置文件失败, %s", err)
	}
	logger.Setup(c.Log)

	// 创建服务上下文
	svcCtx := svc.NewServiceContext(c)

	// 启动运行记录清理任务
	if err := svcCtx.Janitor.Start(); err != nil {
		logger.Fatalf("[Janitor] 启动清理任务失败: %s", err)
	}

	// 启动 HTTP 服务
	srv, err := svcCtx.NewServer()
	if err != nil {
		logger.Fatalf("[Server] 创建 HTTP 服务失败: %s", err)
	}
	srv.Start()

	// 等待程序退出
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch

	// 优雅关闭
	logger.Infof("正在关闭服务...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("[Server] %v", err)
	}
	svcCtx.Janitor.Stop()
	svcCtx.Close()
	logger.Infof("服务已停止")
}
