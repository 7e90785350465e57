// Package dates 提供"日历日期"类型(不含时分秒)
//
// 设计说明:
// 1. 借阅日期、应还日期、还书日期都是日历日期,不是时间点
// 2. 内部统一使用UTC零点表示,日期加减不受服务器时区影响
//    (如果直接用time.Time做AddDate,本地时区与UTC的偏移可能导致日期±1天)
// 3. JSON序列化格式固定为YYYY-MM-DD(与前端约定一致)
// 4. 实现sql.Scanner/driver.Valuer,可直接映射MySQL的DATE列
package dates

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// Layout 日期的字符串格式(YYYY-MM-DD)
const Layout = "2006-01-02"

// Date 日历日期
// 零值表示"无日期"(IsZero() == true),对应数据库的NULL
type Date struct {
	t time.Time // 恒为UTC零点
}

// New 根据年月日构造日期
func New(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// Parse 解析YYYY-MM-DD格式的日期字符串
func Parse(s string) (Date, error) {
	// 兼容带时间部分的输入(如"2024-01-01T00:00:00Z"),只取日期部分
	if idx := strings.IndexByte(s, 'T'); idx != -1 {
		s = s[:idx]
	}
	t, err := time.Parse(Layout, s)
	if err != nil {
		return Date{}, fmt.Errorf("无效的日期格式(期望YYYY-MM-DD): %w", err)
	}
	return Date{t: t.UTC()}, nil
}

// FromTime 从time.Time提取日历日期(按t自身所在时区的年月日)
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return New(y, m, d)
}

// IsZero 是否为空日期
func (d Date) IsZero() bool {
	return d.t.IsZero()
}

// AddDays 日期加减(days可为负数)
// 基于UTC零点运算,跨月、跨年、闰年都由time包处理
func (d Date) AddDays(days int) Date {
	return Date{t: d.t.AddDate(0, 0, days)}
}

// AddYears 日期按年加减(会员有效期用)
func (d Date) AddYears(years int) Date {
	return Date{t: d.t.AddDate(years, 0, 0)}
}

// Before 判断d是否早于other
func (d Date) Before(other Date) bool {
	return d.t.Before(other.t)
}

// After 判断d是否晚于other
func (d Date) After(other Date) bool {
	return d.t.After(other.t)
}

// Equal 判断两个日期是否相同
func (d Date) Equal(other Date) bool {
	return d.t.Equal(other.t)
}

// DaysUntil 计算从d到other相差的天数(other在d之后为正)
func (d Date) DaysUntil(other Date) int {
	return int(other.t.Sub(d.t) / (24 * time.Hour))
}

// String 返回YYYY-MM-DD格式字符串,空日期返回""
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(Layout)
}

// Time 返回底层time.Time(UTC零点)
func (d Date) Time() time.Time {
	return d.t
}

// MarshalJSON 序列化为"YYYY-MM-DD",空日期序列化为null
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON 从"YYYY-MM-DD"或null反序列化
func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" || s == `""` {
		*d = Date{}
		return nil
	}
	s = strings.Trim(s, `"`)
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value 实现driver.Valuer,空日期写入NULL
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.t, nil
}

// Scan 实现sql.Scanner,支持DATE列的time.Time/[]byte/string三种驱动返回值
func (d *Date) Scan(value interface{}) error {
	if value == nil {
		*d = Date{}
		return nil
	}
	switch v := value.(type) {
	case time.Time:
		*d = FromTime(v)
		return nil
	case []byte:
		parsed, err := Parse(string(v))
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case string:
		parsed, err := Parse(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	default:
		return fmt.Errorf("无法将%T扫描为dates.Date", value)
	}
}
