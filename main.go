package main

import (
	"flag"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/xpzouying/xlsx-image-embed/configs"
)

func main() {
	var (
		port      string
		workDir   string
		timeout   time.Duration
		retries   uint
		policy    string
		userAgent string
		debug     bool
	)
	flag.StringVar(&port, "port", ":18060", "端口")
	flag.StringVar(&workDir, "work-dir", "", "工作目录（缓存/输出/上传），默认读取 "+configs.WorkDirEnv)
	flag.DurationVar(&timeout, "timeout", configs.DefaultFetchTimeout, "单张图片下载超时")
	flag.UintVar(&retries, "retries", 1, "下载尝试次数，1 表示不重试")
	flag.StringVar(&policy, "policy", string(configs.ScaleShrinkOnly), "缩放策略: shrink(只缩小)/always(总是适配单元格)")
	flag.StringVar(&userAgent, "user-agent", "", "下载图片时使用的 User-Agent")
	flag.BoolVar(&debug, "debug", false, "输出调试日志")
	flag.Parse()

	if debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if workDir != "" {
		configs.SetWorkDir(workDir)
	}
	configs.InitFetchTimeout(timeout)
	configs.InitFetchAttempts(retries)
	configs.InitScalePolicy(policy)
	configs.SetUserAgent(userAgent)

	logrus.Infof("工作目录: %s", configs.GetWorkDir())

	// 初始化服务
	embedService, err := NewEmbedService()
	if err != nil {
		logrus.Fatalf("failed to init service: %v", err)
	}

	// 创建并启动应用服务器
	appServer := NewAppServer(embedService)
	if err := appServer.Start(port); err != nil {
		logrus.Fatalf("failed to run server: %v", err)
	}
}
