package utils

import (
	"fmt"
	"sync"
	"time"

	sf "github.com/bwmarrin/snowflake"
)

// SnowflakeNode 封装雪花算法节点
type SnowflakeNode struct {
	node *sf.Node
}

var (
	snowflake   *SnowflakeNode
	snowflakeMu sync.RWMutex
)

// InitSnowflake 初始化雪花算法节点
// startTime: 起始时间，格式："2006-01-02"
// machineID: 机器ID (0-1023)
func InitSnowflake(startTime string, machineID int64) error {
	st, err := time.Parse("2006-01-02", startTime)
	if err != nil {
		return fmt.Errorf("解析雪花算法起始时间失败: %w", err)
	}

	snowflakeMu.Lock()
	defer snowflakeMu.Unlock()

	sf.Epoch = st.UnixNano() / 1000000
	node, err := sf.NewNode(machineID)
	if err != nil {
		return fmt.Errorf("创建雪花节点失败: %w", err)
	}
	snowflake = &SnowflakeNode{node: node}
	return nil
}

// GenerateID 生成唯一ID
func GenerateID() (int64, error) {
	snowflakeMu.RLock()
	defer snowflakeMu.RUnlock()
	if snowflake == nil || snowflake.node == nil {
		return 0, fmt.Errorf("雪花节点未初始化")
	}
	return snowflake.node.Generate().Int64(), nil
}

// GenerateIDString 生成字符串形式的唯一ID
func GenerateIDString() (string, error) {
	snowflakeMu.RLock()
	defer snowflakeMu.RUnlock()
	if snowflake == nil || snowflake.node == nil {
		return "", fmt.Errorf("雪花节点未初始化")
	}
	return snowflake.node.Generate().Base58(), nil
}
