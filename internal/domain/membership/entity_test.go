package membership

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/xiebiao/library/pkg/dates"
)

// TestNewMembership 测试会员创建(有效期一年)
func TestNewMembership(t *testing.T) {
	m := NewMembership(7, dates.New(2024, time.March, 10))

	assert.Equal(t, "2025-03-10", m.EndDate.String())
	assert.Equal(t, StatusActive, m.Status)
	assert.False(t, m.IsExpired(dates.New(2025, time.March, 10)))
	assert.True(t, m.IsExpired(dates.New(2025, time.March, 11)))
}

// TestMembership_Extend 测试续费(未过期顺延,已过期重新起算)
func TestMembership_Extend(t *testing.T) {
	t.Run("未过期顺延", func(t *testing.T) {
		m := NewMembership(7, dates.New(2024, time.January, 1))
		today := dates.New(2024, time.June, 1)

		periodStart, periodEnd := m.Extend(today)

		// 缴费周期从旧的到期日开始,不吞掉剩余时间
		assert.Equal(t, "2025-01-01", periodStart.String())
		assert.Equal(t, "2026-01-01", periodEnd.String())
		assert.Equal(t, "2026-01-01", m.EndDate.String())
		assert.Equal(t, "2024-01-01", m.StartDate.String())
	})

	t.Run("已过期从当天重新起算", func(t *testing.T) {
		m := NewMembership(7, dates.New(2022, time.January, 1))
		today := dates.New(2024, time.June, 1)

		periodStart, periodEnd := m.Extend(today)

		assert.Equal(t, "2024-06-01", periodStart.String())
		assert.Equal(t, "2025-06-01", periodEnd.String())
		assert.Equal(t, "2024-06-01", m.StartDate.String())
		assert.Equal(t, StatusActive, m.Status)
	})
}

// TestMembership_DaysLeft 测试剩余天数
func TestMembership_DaysLeft(t *testing.T) {
	m := NewMembership(7, dates.New(2024, time.January, 1))

	assert.Equal(t, 366, m.DaysLeft(dates.New(2024, time.January, 1))) // 2024是闰年
	assert.Equal(t, -1, m.DaysLeft(dates.New(2025, time.January, 2)))
}

// TestNewPayment 测试缴费记录(默认年费20元)
func TestNewPayment(t *testing.T) {
	p := NewPayment(7, 0, dates.New(2024, time.January, 1), dates.New(2025, time.January, 1))
	assert.Equal(t, AnnualFee, p.Amount)
	assert.Equal(t, int64(2000), p.Amount)
}
