package notify

import "time"

// Message 渠道无关的通知内容
type Message struct {
	Level Level
	Title string
	Body  string

	// Labels 附加信息，例如申请编号、状态
	Labels map[string]string

	Link string
	At   time.Time
}

// Level 通知级别
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
)
