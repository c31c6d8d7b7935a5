// xlsximg 命令行工具：把 Excel 中的图片链接下载并嵌入单元格
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/xpzouying/xlsx-image-embed/configs"
	"github.com/xpzouying/xlsx-image-embed/pkg/downloader"
	"github.com/xpzouying/xlsx-image-embed/pkg/embedder"
	"github.com/xpzouying/xlsx-image-embed/pkg/fitter"
)

type runFlags struct {
	sheet     string
	cacheDir  string
	outputDir string
	timeout   time.Duration
	retries   uint
	policy    string
	userAgent string
	annotate  bool
	autoFit   bool
	verbose   bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "xlsximg",
		Short:        "把 Excel 中的图片链接嵌入为图片",
		SilenceUsage: true,
	}
	rootCmd.AddCommand(newRunCmd())
	return rootCmd
}

func newRunCmd() *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "run [input.xlsx]",
		Short: "处理一个 Excel 文件",
		Long: `下载工作表中所有图片链接指向的图片，嵌入到链接所在的单元格，
输出文件名为 output_embedded_<输入文件名>。单个图片失败不影响其他图片。`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0], f)
		},
	}

	cmd.Flags().StringVarP(&f.sheet, "sheet", "s", configs.DefaultSheetName, "工作表名称")
	cmd.Flags().StringVar(&f.cacheDir, "cache-dir", "", "工作目录（图片缓存、转换结果），默认读取 "+configs.WorkDirEnv)
	cmd.Flags().StringVarP(&f.outputDir, "output-dir", "o", "", "输出目录（默认为工作目录下的 output）")
	cmd.Flags().DurationVar(&f.timeout, "timeout", configs.DefaultFetchTimeout, "单张图片下载超时")
	cmd.Flags().UintVar(&f.retries, "retries", 1, "下载尝试次数，1 表示不重试")
	cmd.Flags().StringVar(&f.policy, "policy", string(configs.ScaleShrinkOnly), "缩放策略: shrink, always")
	cmd.Flags().StringVar(&f.userAgent, "user-agent", "", "下载图片时使用的 User-Agent（默认模拟浏览器）")
	cmd.Flags().BoolVar(&f.annotate, "annotate", false, "在失败的单元格上添加批注")
	cmd.Flags().BoolVar(&f.autoFit, "autofit", false, "按文字宽度调整纯文字列的列宽")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "输出调试日志")

	return cmd
}

func run(cmd *cobra.Command, inputPath string, f runFlags) error {
	if f.verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if _, err := os.Stat(inputPath); err != nil {
		return fmt.Errorf("file not found: %s", inputPath)
	}

	switch configs.ScalePolicy(f.policy) {
	case configs.ScaleShrinkOnly, configs.ScaleAlways:
	default:
		return fmt.Errorf("invalid policy: %s (must be shrink or always)", f.policy)
	}

	if f.cacheDir != "" {
		configs.SetWorkDir(f.cacheDir)
	}
	configs.InitFetchTimeout(f.timeout)
	configs.InitFetchAttempts(f.retries)
	configs.InitScalePolicy(f.policy)

	outputDir := f.outputDir
	if outputDir == "" {
		outputDir = configs.GetOutputPath()
	}

	d, err := downloader.NewImageDownloader(
		configs.GetImagesPath(),
		downloader.WithConvertedPath(configs.GetConvertedPath()),
		downloader.WithUserAgent(f.userAgent),
	)
	if err != nil {
		return fmt.Errorf("init downloader failed: %w", err)
	}

	out := cmd.OutOrStdout()
	pipeline := embedder.New(
		downloader.NewImageProcessor(d, configs.GetConvertedPath()),
		embedder.WithOutputDir(outputDir),
		embedder.WithPolicy(fitter.ParsePolicy(f.policy)),
		embedder.WithAnnotateFailures(f.annotate),
		embedder.WithAutoFitText(f.autoFit),
		embedder.WithProgress(func(p embedder.Progress) {
			fmt.Fprintln(out, p.String())
		}),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := pipeline.Run(ctx, inputPath, f.sheet)
	if err != nil {
		return fmt.Errorf("process failed: %w", err)
	}

	fmt.Fprintln(out, result.Summary())
	fmt.Fprintf(out, "输出文件: %s\n", result.OutputPath)
	if len(result.Failures) > 0 {
		fmt.Fprintln(out)
		writeFailureTable(out, result.Failures, urlColumnWidth)
	}
	return nil
}
