package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	hertzzerolog "github.com/hertz-contrib/logger/zerolog"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"github.com/spf13/pflag"

	"resume-analyzer-go/internal/api/handler"
	"resume-analyzer-go/internal/api/router"
	"resume-analyzer-go/internal/config"
	"resume-analyzer-go/internal/extractor"
	"resume-analyzer-go/internal/logger"
	"resume-analyzer-go/internal/outbox"
	"resume-analyzer-go/internal/parser"
	"resume-analyzer-go/internal/processor"
	"resume-analyzer-go/internal/ratelimit"
	"resume-analyzer-go/internal/storage"
	"resume-analyzer-go/internal/tracing"
)

var (
	version     = "1.0.0"           //nolint:gochecknoglobals
	serviceName = "resume-analyzer" //nolint:gochecknoglobals
)

func main() {
	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "", "配置文件路径，留空按默认位置查找")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("加载配置失败")
	}
	initLogger(cfg)
	glog.Infof("%s %s 配置加载成功", serviceName, version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracer, err := tracing.InitTracer(ctx, cfg.Tracing)
	if err != nil {
		glog.Warnf("初始化链路追踪失败，继续运行: %v", err)
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		_ = shutdownTracer(flushCtx)
	}()

	storageManager, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		glog.Fatalf("初始化存储失败: %v", err)
	}
	defer storageManager.Close()
	glog.Info("存储服务初始化成功")

	ext, err := extractor.NewFromConfig(cfg.Extractor)
	if err != nil {
		glog.Fatalf("初始化抽取器失败: %v", err)
	}

	provider, err := parser.NewFromConfig(ctx, cfg)
	if err != nil {
		glog.Fatalf("初始化PDF文本提取失败: %v", err)
	}
	glog.Infof("使用文本提取: %s", provider.Name())

	opts := append(processor.FromStorage(cfg, storageManager), processor.WithTextProvider(provider))
	service, err := processor.NewResumeService(ext, storageManager.Database, opts...)
	if err != nil {
		glog.Fatalf("初始化ResumeService失败: %v", err)
	}

	var relay *outbox.MessageRelay
	if storageManager.Database.OutboxEnabled() {
		relay = outbox.NewMessageRelay(storageManager.Database.DB(), storageManager.RabbitMQ)
		relay.Start(ctx)
		glog.Info("消息中继服务已启动")
	}

	if storageManager.RabbitMQ != nil && storageManager.MinIO != nil {
		if _, err := service.StartUploadConsumer(ctx); err != nil {
			glog.Fatalf("启动简历上传消费者失败: %v", err)
		}
	} else {
		glog.Warn("未配置RabbitMQ或MinIO，异步上传不可用")
	}

	resumeHandler := handler.NewResumeHandler(service, ext.Vocabulary())
	registerHealthChecks(resumeHandler, storageManager)

	tracer, tracerCfg := hertztracing.NewServerTracer()
	h := server.New(
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
		server.WithMaxRequestBodySize(cfg.Server.MaxRequestBody),
		tracer,
	)
	h.Use(hertztracing.ServerMiddleware(tracerCfg))
	h.Use(func(c context.Context, ctx *app.RequestContext) {
		start := time.Now()
		ctx.Next(c)
		glog.CtxInfof(c, "%s %s -> %d (%s)", string(ctx.Method()), string(ctx.Path()), ctx.Response.StatusCode(), time.Since(start))
	})

	var ingest []app.HandlerFunc
	if rpm := cfg.Server.IngestRatePerMinute; rpm > 0 {
		ingest = append(ingest, ratelimit.Middleware(ratelimit.NewTokenBucket(rpm, cfg.Server.IngestBurst)))
		glog.Infof("上传接口限流: %d 次/分钟", rpm)
	}
	router.RegisterRoutes(h, resumeHandler, ingest...)
	glog.Infof("HTTP 服务器启动中，监听地址: %s", cfg.Server.Address)

	go func() {
		if err := h.Run(); err != nil {
			glog.Fatalf("启动HTTP服务器失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	glog.Info("接收到终止信号，正在优雅退出...")

	// 先停止消费和中继，再关闭HTTP
	cancel()
	if relay != nil {
		relay.Stop()
		glog.Info("消息中继服务已停止")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		glog.Errorf("服务器关闭失败: %v", err)
	}
	glog.Info("优雅退出完成")
}

// initLogger 初始化全局日志并接管hertz日志
func initLogger(cfg *config.Config) {
	logger.Init(logger.Config(cfg.Logger))
	glog.SetLogger(hertzzerolog.From(logger.Logger))
	if cfg.Logger.Level == "debug" {
		glog.SetLevel(glog.LevelDebug)
	} else {
		glog.SetLevel(glog.LevelInfo)
	}
}

func registerHealthChecks(h *handler.ResumeHandler, st *storage.Storage) {
	h.AddHealthCheck("database", func(ctx context.Context) error {
		sqlDB, err := st.Database.DB().DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})
	if st.Redis != nil {
		h.AddHealthCheck("redis", st.Redis.Ping)
	}
}
