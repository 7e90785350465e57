// Package clock 提供可注入的时钟抽象
//
// 设计说明:
// 1. "逾期"判断依赖"今天"的日期,直接调用time.Now()的代码无法做确定性测试
// 2. 业务代码依赖Clock接口,生产环境注入System,测试注入Fixed
package clock

import (
	"time"

	"github.com/xiebiao/library/pkg/dates"
)

// Clock 时钟接口
type Clock interface {
	// Now 当前时间
	Now() time.Time

	// Today 当前日历日期
	Today() dates.Date
}

// System 系统时钟(生产环境使用)
type System struct{}

// NewSystem 创建系统时钟
func NewSystem() System {
	return System{}
}

func (System) Now() time.Time {
	return time.Now()
}

func (System) Today() dates.Date {
	return dates.FromTime(time.Now())
}

// Fixed 固定时钟(测试使用)
type Fixed struct {
	T time.Time
}

// NewFixed 创建固定在指定时间的时钟
func NewFixed(t time.Time) *Fixed {
	return &Fixed{T: t}
}

// NewFixedDate 创建固定在指定日期零点的时钟
func NewFixedDate(d dates.Date) *Fixed {
	return &Fixed{T: d.Time()}
}

func (f *Fixed) Now() time.Time {
	return f.T
}

func (f *Fixed) Today() dates.Date {
	return dates.FromTime(f.T)
}

// Advance 将固定时钟向前拨动(测试推进"今天")
func (f *Fixed) Advance(d time.Duration) {
	f.T = f.T.Add(d)
}

// AdvanceDays 按天拨动固定时钟
func (f *Fixed) AdvanceDays(days int) {
	f.T = f.T.AddDate(0, 0, days)
}
