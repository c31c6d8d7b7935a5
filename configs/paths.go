package configs

import (
	"os"
	"path/filepath"
)

const (
	WorkDirEnv = "XLSX_IMAGE_WORK_DIR"

	DefaultWorkDirName = "xlsx-image-embed"
	ImagesDir          = "temp_images"
	ConvertedDir       = "converted_images"
	OutputDir          = "output"
	UploadsDir         = "uploads"
	ReportsDir         = "reports"
)

var workDir = ""

// SetWorkDir 设置工作目录，所有缓存/输出目录都在其下
func SetWorkDir(dir string) {
	workDir = dir
}

// GetWorkDir 获取工作目录。
// 优先级：SetWorkDir > 环境变量 XLSX_IMAGE_WORK_DIR > 系统临时目录
func GetWorkDir() string {
	if workDir != "" {
		return workDir
	}
	if dir := os.Getenv(WorkDirEnv); dir != "" {
		return dir
	}
	return filepath.Join(os.TempDir(), DefaultWorkDirName)
}

// GetImagesPath 原始图片下载缓存目录
func GetImagesPath() string {
	return filepath.Join(GetWorkDir(), ImagesDir)
}

// GetConvertedPath webp 转换后的 png 目录
func GetConvertedPath() string {
	return filepath.Join(GetWorkDir(), ConvertedDir)
}

// GetOutputPath 输出 Excel 目录
func GetOutputPath() string {
	return filepath.Join(GetWorkDir(), OutputDir)
}

// GetUploadsPath 上传文件保存目录
func GetUploadsPath() string {
	return filepath.Join(GetWorkDir(), UploadsDir)
}

// GetReportsPath 运行报告目录
func GetReportsPath() string {
	return filepath.Join(GetWorkDir(), ReportsDir)
}
