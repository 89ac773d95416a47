package clock

import (
	"context"
	"fmt"
	"time"
)

// 事件时间戳格式：UTC，微秒精度，以Z结尾
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

// Clock 事件流时钟
// 功能：提供事件时间戳、事件间的节奏等待与运行时长统计
// 说明：时间源可注入，测试中可使用固定或递增的时间
type Clock struct {
	Interval time.Duration // 相邻事件之间的等待时间，0表示不等待

	now   func() time.Time
	start time.Time
}

// New 根据事件间隔创建时钟，使用系统时间
func New(interval time.Duration) *Clock {
	return NewWithSource(interval, time.Now)
}

// NewWithSource 使用指定时间源创建时钟
// 参数：interval-事件间隔，now-时间源
// 返回：初始化完成的时钟实例
func NewWithSource(interval time.Duration, now func() time.Time) *Clock {
	c := &Clock{
		Interval: interval,
		now:      now,
	}
	c.Init()
	return c
}

// Init 重置运行起点
func (c *Clock) Init() {
	c.start = c.now()
}

// Now 当前时刻
func (c *Clock) Now() time.Time {
	return c.now()
}

// Timestamp 当前时刻的事件时间戳字符串
func (c *Clock) Timestamp() string {
	return c.now().UTC().Format(TimestampLayout)
}

// Wait 事件间的节奏等待
// 功能：等待Interval，期间可被ctx取消
// 返回：true表示正常等待结束，false表示ctx已取消
// 说明：Interval为0时只检查ctx，不让出调度
func (c *Clock) Wait(ctx context.Context) bool {
	if c.Interval <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(c.Interval)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Elapsed 自Init以来的运行时长
func (c *Clock) Elapsed() time.Duration {
	return c.now().Sub(c.start)
}

// String 获取运行时长的字符串表示（HH:MM:SS）
func (c *Clock) String() string {
	hour, minute, second := c.GetHourMinuteSecond()
	return fmt.Sprintf("%02d:%02d:%02d", hour, minute, int(second))
}

// GetHourMinuteSecond 将运行时长分解为小时、分钟、秒
// 返回：小时、分钟、秒（秒为浮点数，支持亚秒级精度）
func (c *Clock) GetHourMinuteSecond() (int, int, float64) {
	t := c.Elapsed().Seconds()
	hour := int(t) / 3600
	minute := int(t) % 3600 / 60
	second := t - float64(hour*3600+minute*60)
	return hour, minute, second
}
