package borrow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/library/pkg/dates"
)

// TestNewRecord 测试借阅记录创建(应还日期推导)
func TestNewRecord(t *testing.T) {
	t.Run("应还日期为借出日期加14天", func(t *testing.T) {
		borrowDate := dates.New(2024, time.January, 1)
		r := NewRecord(7, 3, borrowDate, DefaultLoanPeriodDays)

		assert.Equal(t, "2024-01-15", r.DueDate.String())
		assert.Equal(t, StatusBorrowed, r.Status)
		assert.Nil(t, r.ReturnDate)
	})

	t.Run("借期跨月", func(t *testing.T) {
		r := NewRecord(1, 1, dates.New(2024, time.January, 25), 14)
		assert.Equal(t, "2024-02-08", r.DueDate.String())
	})

	t.Run("非法借期回退到默认值", func(t *testing.T) {
		r := NewRecord(1, 1, dates.New(2024, time.March, 1), 0)
		assert.Equal(t, "2024-03-15", r.DueDate.String())
	})
}

// TestRecord_Overdue 测试逾期判断(严格晚于应还日才算逾期)
func TestRecord_Overdue(t *testing.T) {
	r := NewRecord(1, 1, dates.New(2024, time.January, 1), 14)

	tests := []struct {
		name    string
		today   dates.Date
		overdue bool
	}{
		{"到期前", dates.New(2024, time.January, 10), false},
		{"到期当天不算逾期", dates.New(2024, time.January, 15), false},
		{"到期次日起算逾期", dates.New(2024, time.January, 16), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.overdue, r.IsOverdue(tt.today))
		})
	}

	t.Run("已归还的记录不算逾期", func(t *testing.T) {
		r2 := NewRecord(1, 1, dates.New(2024, time.January, 1), 14)
		require.NoError(t, r2.MarkReturned(dates.New(2024, time.February, 1)))
		assert.False(t, r2.IsOverdue(dates.New(2024, time.March, 1)))
	})
}

// TestRecord_CurrentStatus 测试状态推导(ReturnDate为权威标志)
func TestRecord_CurrentStatus(t *testing.T) {
	r := NewRecord(1, 1, dates.New(2024, time.January, 1), 14)

	assert.Equal(t, StatusBorrowed, r.CurrentStatus(dates.New(2024, time.January, 10)))
	assert.Equal(t, StatusOverdue, r.CurrentStatus(dates.New(2024, time.January, 20)))

	// 冗余Status滞后时,以ReturnDate推导为准
	r.Status = StatusOverdue
	require.NoError(t, r.MarkReturned(dates.New(2024, time.January, 21)))
	assert.Equal(t, StatusReturned, r.CurrentStatus(dates.New(2024, time.January, 22)))
}

// TestRecord_MarkReturned 测试重复归还被拒绝
func TestRecord_MarkReturned(t *testing.T) {
	r := NewRecord(1, 1, dates.New(2024, time.January, 1), 14)

	require.NoError(t, r.MarkReturned(dates.New(2024, time.January, 10)))
	require.NotNil(t, r.ReturnDate)
	assert.Equal(t, "2024-01-10", r.ReturnDate.String())

	err := r.MarkReturned(dates.New(2024, time.January, 11))
	assert.ErrorIs(t, err, ErrAlreadyReturned)
	// 第一次的归还日期不被覆盖
	assert.Equal(t, "2024-01-10", r.ReturnDate.String())
}

// TestClassifyUrgency 测试在借记录紧急程度分档
func TestClassifyUrgency(t *testing.T) {
	assert.Equal(t, UrgencyNormal, ClassifyUrgency(10))
	assert.Equal(t, UrgencyDueSoon, ClassifyUrgency(3))
	assert.Equal(t, UrgencyDueSoon, ClassifyUrgency(0))
	assert.Equal(t, UrgencyOverdue, ClassifyUrgency(-1))
}
