package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/zoeyai/cardvision/internal/logger"
	"github.com/zoeyai/cardvision/pkg/config"
	"github.com/zoeyai/cardvision/pkg/runner"
	"github.com/zoeyai/cardvision/pkg/server"
	"github.com/zoeyai/cardvision/pkg/source"
	"github.com/zoeyai/cardvision/pkg/stats"
	"github.com/zoeyai/cardvision/pkg/vision"
	"github.com/zoeyai/cardvision/pkg/vision/templates"
)

// 版本信息 (可通过 ldflags 注入)
var (
	Version   = vision.Version
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	var (
		configFile   = flag.String("config", "", "配置文件路径 (默认 ~/.cardvision/config.json)")
		imagePath    = flag.String("image", "", "识别单张图片")
		multi        = flag.Bool("multi", false, "多卡模式")
		live         = flag.Bool("live", false, "从帧来源持续识别")
		sourceKind   = flag.String("source", "", "帧来源: camera | video | rtsp | images | screen")
		sourceURI    = flag.String("uri", "", "视频文件、RTSP 地址或图片目录")
		serve        = flag.Bool("serve", false, "启动 HTTP 服务")
		addr         = flag.String("addr", "", "HTTP 监听地址 (例: :8080)")
		templateDir  = flag.String("templates", "", "模板目录")
		genTemplates = flag.String("gen-templates", "", "在指定目录生成合成模板后退出")
		selfCheck    = flag.Bool("selfcheck", false, "用合成卡片自检 52 张牌")
		debug        = flag.Bool("debug", false, "输出调试日志和完整分数表")
		saveConfig   = flag.Bool("save", false, "保存配置到本地")
		showVersion  = flag.Bool("version", false, "显示版本信息")
		showHelp     = flag.Bool("help", false, "显示帮助信息")
	)

	flag.Parse()

	if *showVersion {
		printVersion()
		return
	}
	if *showHelp {
		printHelp()
		return
	}

	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Printf("[WARN] 读取 .env 失败: %v\n", err)
	}

	manager := config.GetDefaultManager()
	if *configFile != "" {
		manager = config.NewManagerWithFile(*configFile)
	}
	cfg, err := manager.Load()
	if err != nil {
		fmt.Printf("[WARN] 加载配置失败: %v\n", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		fmt.Printf("[ERROR] 环境变量错误: %v\n", err)
		os.Exit(1)
	}

	// 命令行参数优先级最高
	if *templateDir != "" {
		cfg.Templates.Dir = *templateDir
	}
	if *sourceKind != "" {
		cfg.Source.Kind = *sourceKind
	}
	if *sourceURI != "" {
		cfg.Source.URI = *sourceURI
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *debug {
		cfg.Log.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		fmt.Printf("[ERROR] %v\n", err)
		os.Exit(1)
	}
	if err := setupLogger(cfg.Log); err != nil {
		fmt.Printf("[WARN] 日志文件不可用: %v\n", err)
	}
	defer logger.Close()

	if *saveConfig {
		if err := manager.Save(cfg); err != nil {
			fmt.Printf("[WARN] 保存配置失败: %v\n", err)
		} else {
			fmt.Printf("[INFO] 配置已保存到 %s\n", manager.GetConfigFile())
		}
	}

	switch {
	case *genTemplates != "":
		if err := generateTemplates(*genTemplates, cfg.Vision); err != nil {
			fmt.Printf("[ERROR] 生成模板失败: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("[INFO] 合成模板已写入 %s\n", *genTemplates)
		return

	case *selfCheck:
		ok, err := runSelfCheck(cfg.Vision)
		if err != nil {
			fmt.Printf("[ERROR] 自检失败: %v\n", err)
			os.Exit(1)
		}
		if !ok {
			os.Exit(2)
		}
		return
	}

	opts := []vision.Option{
		vision.WithVisionConfig(cfg.Vision),
		vision.WithScores(*debug),
		vision.WithKeepCards(*serve),
	}
	p, err := vision.NewPipeline(templates.NewDirStore(cfg.Templates.Dir), opts...)
	if err != nil {
		fmt.Printf("[ERROR] %v\n", err)
		fmt.Println("[INFO] 可以使用 -gen-templates 生成合成模板")
		os.Exit(1)
	}
	defer p.Close()

	if *imagePath != "" {
		if err := classifyImage(p, *imagePath, *multi); err != nil {
			fmt.Printf("[ERROR] %v\n", err)
			os.Exit(1)
		}
		return
	}

	if !*live && !*serve {
		printHelp()
		return
	}

	fmt.Println("========================================")
	fmt.Printf("  Card Vision v%s\n", Version)
	fmt.Println("========================================")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	session := stats.NewSession(stats.DefaultHistorySize)
	var srv *server.Server
	errCh := make(chan error, 2)
	running := 0

	if *serve {
		srv = server.New(p, session, server.Options{WebSocket: cfg.Server.WebSocket})
		running++
		go func() {
			errCh <- srv.Run(ctx, cfg.Server.Addr)
		}()
		fmt.Printf("[INFO] HTTP 服务: %s\n", cfg.Server.Addr)
	}

	if *live {
		if cfg.Source.Kind == source.KindScreen && !source.ScreenCaptureAllowed() {
			fmt.Println("[ERROR] 缺少屏幕录制权限")
			fmt.Println(source.ScreenCaptureInstructions())
			source.OpenScreenCaptureSettings()
			os.Exit(1)
		}
		src, err := source.Open(cfg.Source)
		if err != nil {
			fmt.Printf("[ERROR] 打开帧来源失败: %v\n", err)
			os.Exit(1)
		}
		defer src.Close()

		r := runner.New(p, runner.WithMultiCard(*multi), runner.WithSession(session))
		running++
		go func() {
			errCh <- r.Run(ctx, src, func(f runner.Frame) error {
				printFrame(f)
				if srv != nil {
					srv.Publish(f)
				}
				return nil
			})
		}()
		fmt.Printf("[INFO] 帧来源: %s\n", cfg.Source.Kind)
	}

	fmt.Println("[INFO] 按 Ctrl+C 退出")

	for i := 0; i < running; i++ {
		if err := <-errCh; err != nil {
			fmt.Printf("[ERROR] %v\n", err)
			stop()
		} else if *live && !*serve {
			break
		}
	}

	fmt.Println()
	fmt.Println("[INFO] 会话统计:")
	fmt.Print(session.Summary().Format())
	fmt.Println("[INFO] 已退出")
}

func setupLogger(lc config.LogConfig) error {
	logger.SetLevel(logger.ParseLevel(lc.Level))
	if lc.File != "" {
		return logger.SetFile(true, lc.File)
	}
	return nil
}

func classifyImage(p *vision.Pipeline, path string, multi bool) error {
	frame, err := vision.ReadImage(path)
	if err != nil {
		return err
	}
	defer frame.Close()

	var results []vision.CardResult
	if multi {
		results, err = p.ProcessFrame(frame)
	} else {
		var res *vision.CardResult
		res, err = p.ProcessLargest(frame)
		if res != nil {
			results = []vision.CardResult{*res}
		}
	}
	if err != nil {
		return fmt.Errorf("识别失败: %w", err)
	}
	defer vision.CloseResults(results)

	out, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func printFrame(f runner.Frame) {
	if len(f.Results) == 0 {
		return
	}
	for _, r := range f.Results {
		fmt.Printf("[FRAME %d] %s\n", f.Index, r.Format())
	}
	if f.Smoothed != "" {
		fmt.Printf("[FRAME %d] 平滑结果: %s\n", f.Index, f.Smoothed)
	}
}

// printVersion 打印版本信息
func printVersion() {
	fmt.Printf("Card Vision v%s\n", Version)
	fmt.Printf("Build Time: %s\n", BuildTime)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}

// printHelp 打印帮助信息
func printHelp() {
	fmt.Println("Card Vision - 扑克牌点数花色识别")
	fmt.Println()
	fmt.Println("用法:")
	fmt.Println("  cardvision [选项]")
	fmt.Println()
	fmt.Println("选项:")
	fmt.Println("  -config string         配置文件路径")
	fmt.Println("  -image string          识别单张图片并输出 JSON")
	fmt.Println("  -multi                 多卡模式")
	fmt.Println("  -live                  从帧来源持续识别")
	fmt.Println("  -source string         帧来源: camera | video | rtsp | images | screen")
	fmt.Println("  -uri string            视频文件、RTSP 地址或图片目录")
	fmt.Println("  -serve                 启动 HTTP 服务")
	fmt.Println("  -addr string           HTTP 监听地址")
	fmt.Println("  -templates string      模板目录")
	fmt.Println("  -gen-templates string  生成合成模板")
	fmt.Println("  -selfcheck             用合成卡片自检")
	fmt.Println("  -debug                 调试日志")
	fmt.Println("  -save                  保存配置到本地")
	fmt.Println("  -version               显示版本信息")
	fmt.Println("  -help                  显示帮助信息")
	fmt.Println()
	fmt.Println("示例:")
	fmt.Println("  # 识别一张图片")
	fmt.Println("  cardvision -templates ./templates -image table.jpg -multi")
	fmt.Println()
	fmt.Println("  # 从 RTSP 摄像头识别并提供 HTTP 服务")
	fmt.Println("  cardvision -live -source rtsp -uri rtsp://192.168.1.10:554/stream -serve")
	fmt.Println()
	fmt.Printf("配置文件位置: %s\n", config.GetDefaultManager().GetConfigFile())
	fmt.Printf("环境变量前缀: %s\n", config.EnvPrefix)
}
