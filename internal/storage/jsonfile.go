package storage // 基于 JSON 文件的实体存储层

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ReadJSONFile 读取并解析 JSON 文件。文件不存在时不报错，保持 v 的零值。
func ReadJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("读取文件 %s 失败: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("解析文件 %s 失败: %w", path, err)
	}
	return nil
}

// WriteJSONFile 原子写入 JSON 文件：先写临时文件再 rename，
// 避免并发读者看到写了一半的文件。原子性仅限单文件，不存在跨文件事务。
func WriteJSONFile(path string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("创建数据目录 %s 失败: %w", dir, err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化数据失败: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("写入临时文件 %s 失败: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("原子替换文件 %s 失败: %w", path, err)
	}
	return nil
}
