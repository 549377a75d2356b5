package storage

import "time"

// FlowRecord 捕获流量的持久化记录。
// 常用筛选列单独落列，完整流量以原始 JSON 存在 Raw 中，
// 响应与标签的后续补写直接在 Raw 上打补丁。
type FlowRecord struct {
	ID        uint   `gorm:"primaryKey"`
	FlowID    string `gorm:"uniqueIndex;size:64"`
	Host      string `gorm:"index;size:255"`
	Method    string `gorm:"size:16"`
	Path      string `gorm:"size:1024"`
	Status    int    `gorm:"index"`
	IsLLMAPI  bool   `gorm:"index"`
	Raw       string
	CreatedAt time.Time
	UpdatedAt time.Time
}
