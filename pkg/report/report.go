// Package report 以 JSON 文件的形式保存每次处理的结果，按输出文件名查找。
package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/xpzouying/xlsx-image-embed/pkg/embedder"
)

var (
	ErrNotFound    = errors.New("report not found")
	ErrInvalidName = errors.New("invalid report name")
)

type Store interface {
	Save(outputName string, result *embedder.RunResult) error
	Load(outputName string) (*embedder.RunResult, error)
	Delete(outputName string) error
}

type localStore struct {
	dir string
}

func NewLocalStore(dir string) Store {
	if dir == "" {
		panic("dir is required")
	}

	return &localStore{
		dir: dir,
	}
}

// Save 保存报告，已存在时覆盖。
func (s *localStore) Save(outputName string, result *embedder.RunResult) error {
	path, err := s.path(outputName)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return errors.Wrap(err, "failed to create report dir")
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal report")
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write report")
	}
	return os.Rename(tmp, path)
}

// Load 读取报告。
func (s *localStore) Load(outputName string) (*embedder.RunResult, error) {
	path, err := s.path(outputName)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(ErrNotFound, outputName)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read report")
	}

	var result embedder.RunResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, errors.Wrap(err, "failed to parse report")
	}
	return &result, nil
}

// Delete 删除报告。
func (s *localStore) Delete(outputName string) error {
	path, err := s.path(outputName)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		// 文件不存在，返回 nil（认为已经删除）
		return nil
	}
	return os.Remove(path)
}

func (s *localStore) path(outputName string) (string, error) {
	if !ValidName(outputName) {
		return "", errors.Wrap(ErrInvalidName, outputName)
	}
	return filepath.Join(s.dir, outputName+".json"), nil
}

// ValidName 只接受不含路径的文件名
func ValidName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && filepath.Base(name) == name
}
