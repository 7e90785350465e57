package integration

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 教学说明：借阅模块集成测试
//
// 借阅模块是本项目的核心，包含以下关键技术点：
// 1. 数据库事务（Transaction）
// 2. 悲观锁防超借（SELECT FOR UPDATE）
// 3. 并发控制
// 4. 逾期罚款与还书拦截
//
// 这个测试文件验证了这些核心功能的正确性

// bookCopies 查询图书当前馆藏数
func bookCopies(t *testing.T, bookID uint) int {
	t.Helper()
	resp := GetJSON(t, fmt.Sprintf("%s/books/%d", BaseURL, bookID), "")
	require.Equal(t, 0, resp.Code, "查询图书失败: %s", resp.Message)

	var data BookData
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	return data.TotalCopies
}

// TestBorrowCreate 测试借书功能
func TestBorrowCreate(t *testing.T) {
	RequireServer(t)
	adminToken := LoginTestAdmin(t)
	_, token := RegisterTestUser(t, "borrower")

	t.Run("正常借书", func(t *testing.T) {
		bookID := CreateTestBook(t, adminToken, "借书测试图书", 3)

		resp := PostJSON(t, BaseURL+"/borrowings", map[string]interface{}{"book_id": bookID}, token)
		assert.Equal(t, 0, resp.Code, "借书应该成功")

		var data BorrowData
		err := json.Unmarshal(resp.Data, &data)
		require.NoError(t, err, "解析响应数据失败")

		assert.NotZero(t, data.BorrowID, "借阅ID应该大于0")
		assert.Equal(t, bookID, data.BookID)
		assert.Equal(t, "borrowed", data.Status)
		assert.NotEmpty(t, data.DueDate, "应返回应还日期")

		// 借出后馆藏数减1
		assert.Equal(t, 2, bookCopies(t, bookID), "借出一本后馆藏应为2")

		t.Logf("✓ 借书成功，借阅ID: %d, 应还日期: %s", data.BorrowID, data.DueDate)
	})

	t.Run("未登录不能借书", func(t *testing.T) {
		resp := PostJSON(t, BaseURL+"/borrowings", map[string]interface{}{"book_id": 1}, "")
		assert.Equal(t, 40100, resp.Code, "未登录应该被拒绝")

		t.Logf("✓ 未登录正确被拒绝: %s", resp.Message)
	})

	t.Run("图书不存在应失败", func(t *testing.T) {
		resp := PostJSON(t, BaseURL+"/borrowings", map[string]interface{}{"book_id": 999999}, token)

		assert.Equal(t, 40402, resp.Code, "图书不存在应该失败")
		assert.Contains(t, resp.Message, "not found")

		t.Logf("✓ 图书不存在正确返回错误: %s", resp.Message)
	})

	t.Run("无可借副本应失败", func(t *testing.T) {
		bookID := CreateTestBook(t, adminToken, "唯一副本图书", 1)

		resp1 := PostJSON(t, BaseURL+"/borrowings", map[string]interface{}{"book_id": bookID}, token)
		require.Equal(t, 0, resp1.Code, "第一次借书应该成功")

		resp2 := PostJSON(t, BaseURL+"/borrowings", map[string]interface{}{"book_id": bookID}, token)
		assert.Equal(t, 40001, resp2.Code, "副本借完后应该失败")
		assert.Contains(t, resp2.Message, "No copies available")

		t.Logf("✓ 无可借副本正确返回错误: %s", resp2.Message)
	})

	t.Run("下架图书不可借", func(t *testing.T) {
		bookID := CreateTestBook(t, adminToken, "下架测试图书", 2)
		delResp := DeleteJSON(t, fmt.Sprintf("%s/books/%d", BaseURL, bookID), adminToken)
		require.Equal(t, 0, delResp.Code, "下架失败")

		resp := PostJSON(t, BaseURL+"/borrowings", map[string]interface{}{"book_id": bookID}, token)
		assert.Equal(t, 40002, resp.Code, "下架图书不可借")
		assert.Contains(t, resp.Message, "no longer available")

		t.Logf("✓ 下架图书正确返回错误: %s", resp.Message)
	})
}

// TestBorrowReturn 测试还书功能
func TestBorrowReturn(t *testing.T) {
	RequireServer(t)
	adminToken := LoginTestAdmin(t)
	_, token := RegisterTestUser(t, "returner")

	t.Run("正常归还", func(t *testing.T) {
		bookID := CreateTestBook(t, adminToken, "还书测试图书", 2)
		borrowID := BorrowTestBook(t, token, bookID)
		require.Equal(t, 1, bookCopies(t, bookID), "借出后馆藏应为1")

		resp := PutJSON(t, fmt.Sprintf("%s/borrowings/%d/return", BaseURL, borrowID), nil, token)
		assert.Equal(t, 0, resp.Code, "归还应该成功: %s", resp.Message)

		var data BorrowData
		err := json.Unmarshal(resp.Data, &data)
		require.NoError(t, err, "解析响应数据失败")

		assert.Equal(t, "returned", data.Status)
		assert.NotEmpty(t, data.ReturnDate, "应返回归还日期")

		// 归还后馆藏恢复
		assert.Equal(t, 2, bookCopies(t, bookID), "归还后馆藏应恢复为2")

		t.Logf("✓ 归还成功，归还日期: %s", data.ReturnDate)
	})

	t.Run("重复归还应失败", func(t *testing.T) {
		bookID := CreateTestBook(t, adminToken, "重复归还测试", 1)
		borrowID := BorrowTestBook(t, token, bookID)

		resp1 := PutJSON(t, fmt.Sprintf("%s/borrowings/%d/return", BaseURL, borrowID), nil, token)
		require.Equal(t, 0, resp1.Code, "第一次归还应该成功")

		resp2 := PutJSON(t, fmt.Sprintf("%s/borrowings/%d/return", BaseURL, borrowID), nil, token)
		assert.Equal(t, 40003, resp2.Code, "重复归还应该失败")
		assert.Contains(t, resp2.Message, "already returned")

		// 幂等保护：馆藏不会被加两次
		assert.Equal(t, 1, bookCopies(t, bookID), "馆藏不应超过录入数")

		t.Logf("✓ 重复归还正确返回错误: %s", resp2.Message)
	})

	t.Run("归还后可以再借", func(t *testing.T) {
		bookID := CreateTestBook(t, adminToken, "循环借阅测试", 1)

		borrowID := BorrowTestBook(t, token, bookID)
		resp := PutJSON(t, fmt.Sprintf("%s/borrowings/%d/return", BaseURL, borrowID), nil, token)
		require.Equal(t, 0, resp.Code, "归还失败")

		// 同一本书可以再次借出
		BorrowTestBook(t, token, bookID)
		assert.Equal(t, 0, bookCopies(t, bookID))

		t.Logf("✓ 归还后再借成功")
	})
}

// TestBorrowConcurrency 测试并发借书（防超借核心场景）
//
// 教学说明：
// 这是本项目最重要的测试之一，验证了悲观锁防超借的正确性
//
// 场景设计：
// - 馆藏：10本
// - 并发请求：20个goroutine同时借书
// - 预期结果：10个成功，10个失败（无可借副本）
//
// 技术要点：
// - 使用 sync.WaitGroup 等待所有goroutine完成
// - 使用 sync.Mutex 保护共享变量（成功/失败计数）
// - SELECT FOR UPDATE 确保同一时刻只有一个事务能锁定图书行
func TestBorrowConcurrency(t *testing.T) {
	RequireServer(t)
	adminToken := LoginTestAdmin(t)
	_, token := RegisterTestUser(t, "concurrency_tester")

	t.Run("并发借书防超借", func(t *testing.T) {
		bookID := CreateTestBook(t, adminToken, "并发测试图书", 10)

		var (
			wg           sync.WaitGroup
			mu           sync.Mutex
			successCount int
			noCopyCount  int
			otherErrors  []string
		)

		concurrency := 20
		for i := 0; i < concurrency; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()

				resp := PostJSON(t, BaseURL+"/borrowings", map[string]interface{}{"book_id": bookID}, token)

				mu.Lock()
				defer mu.Unlock()
				switch resp.Code {
				case 0:
					successCount++
				case 40001:
					noCopyCount++
				default:
					otherErrors = append(otherErrors, resp.Message)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 10, successCount, "成功借出数应该等于馆藏数")
		assert.Equal(t, 10, noCopyCount, "其余请求应因无可借副本失败")
		assert.Empty(t, otherErrors, "不应出现其他错误")
		assert.Equal(t, 0, bookCopies(t, bookID), "馆藏应恰好清零,不可为负")

		t.Logf("✓ 防超借测试通过: 成功%d, 失败%d", successCount, noCopyCount)
	})

	t.Run("多个读者抢借最后一本", func(t *testing.T) {
		bookID := CreateTestBook(t, adminToken, "热门图书", 1)

		tokens := make([]string, 0, 5)
		for i := 1; i <= 5; i++ {
			_, readerToken := RegisterTestUser(t, fmt.Sprintf("reader%d", i))
			tokens = append(tokens, readerToken)
		}

		var (
			wg           sync.WaitGroup
			mu           sync.Mutex
			successCount int
		)

		for _, readerToken := range tokens {
			wg.Add(1)
			go func(tk string) {
				defer wg.Done()

				resp := PostJSON(t, BaseURL+"/borrowings", map[string]interface{}{"book_id": bookID}, tk)

				mu.Lock()
				if resp.Code == 0 {
					successCount++
				}
				mu.Unlock()
			}(readerToken)
		}
		wg.Wait()

		assert.Equal(t, 1, successCount, "只能有一个读者借到最后一本")

		t.Logf("✓ 5个读者抢借,恰好1人成功")
	})
}

// TestOverdueFineFlow 测试逾期罚款完整流程
//
// 教学说明：
// 端到端验证"逾期 → 开罚单 → 拦截还书 → 缴费 → 放行"闭环：
// 1. 补录一笔早已逾期的借阅
// 2. 管理员触发逾期同步,生成罚单
// 3. 未缴费时还书被拦截
// 4. 缴费后归还成功
func TestOverdueFineFlow(t *testing.T) {
	RequireServer(t)
	adminToken := LoginTestAdmin(t)
	_, token := RegisterTestUser(t, "overdue_reader")

	bookID := CreateTestBook(t, adminToken, "逾期测试图书", 1)

	// Step 1: 补录逾期借阅（借出日期和应还日期都在过去）
	t.Log("➜ Step 1: 补录逾期借阅")
	borrowResp := PostJSON(t, BaseURL+"/borrowings", map[string]interface{}{
		"book_id":     bookID,
		"borrow_date": "2020-01-01",
		"due_date":    "2020-01-15",
	}, token)
	require.Equal(t, 0, borrowResp.Code, "补录借阅失败: %s", borrowResp.Message)

	var borrowData BorrowData
	require.NoError(t, json.Unmarshal(borrowResp.Data, &borrowData))
	t.Logf("✓ 借阅已补录，应还日期: %s", borrowData.DueDate)

	// Step 2: 管理员触发逾期同步
	t.Log("➜ Step 2: 触发逾期同步")
	syncResp := PostJSON(t, BaseURL+"/fines/sync-overdue", nil, adminToken)
	require.Equal(t, 0, syncResp.Code, "逾期同步失败: %s", syncResp.Message)

	var syncData struct {
		Synced       bool `json:"synced"`
		TotalOverdue int  `json:"totalOverdue"`
		FinesCreated int  `json:"finesCreated"`
	}
	require.NoError(t, json.Unmarshal(syncResp.Data, &syncData))
	assert.True(t, syncData.Synced)
	assert.GreaterOrEqual(t, syncData.FinesCreated, 1, "至少应为本次逾期开一张罚单")
	t.Logf("✓ 逾期同步完成，本次开罚单%d张", syncData.FinesCreated)

	// Step 3: 查询我的罚款
	t.Log("➜ Step 3: 查询我的罚款")
	myFines := findMyFine(t, token, bookID)
	require.NotNil(t, myFines, "应能查到本书的罚单")
	assert.Equal(t, "not paid", myFines.PaidStatus)
	assert.Equal(t, "2020-01-16", myFines.FineCreatedDate, "罚款日期应为应还日期次日")
	t.Logf("✓ 罚单已生成，ID: %d, 金额: %d分", myFines.FineID, myFines.Amount)

	// Step 3b: 读者可查看罚款详情,管理员可修正金额
	detailResp := GetJSON(t, fmt.Sprintf("%s/fines/%d", BaseURL, myFines.FineID), token)
	require.Equal(t, 0, detailResp.Code, "读者应能查看自己的罚款详情: %s", detailResp.Message)

	updateResp := PutJSON(t, fmt.Sprintf("%s/fines/%d", BaseURL, myFines.FineID),
		map[string]interface{}{"amount": 800}, adminToken)
	require.Equal(t, 0, updateResp.Code, "管理员修正罚款金额失败: %s", updateResp.Message)

	var updatedFine FineData
	require.NoError(t, json.Unmarshal(updateResp.Data, &updatedFine))
	assert.Equal(t, int64(800), updatedFine.Amount, "修正后的金额应生效")
	t.Logf("✓ 罚款金额已修正为%d分", updatedFine.Amount)

	// Step 4: 未缴费还书被拦截
	t.Log("➜ Step 4: 未缴费还书被拦截")
	blockedResp := PutJSON(t, fmt.Sprintf("%s/borrowings/%d/return", BaseURL, borrowData.BorrowID), nil, token)
	assert.Equal(t, 40004, blockedResp.Code, "未缴罚款时还书应被拦截")
	assert.Contains(t, blockedResp.Message, "unpaid fines")
	t.Logf("✓ 还书正确被拦截: %s", blockedResp.Message)

	// Step 5: 重复同步不会重复开罚单（幂等性）
	t.Log("➜ Step 5: 验证同步幂等性")
	PostJSON(t, BaseURL+"/fines/sync-overdue", nil, adminToken)
	assert.Equal(t, 1, countMyFines(t, token, bookID), "重复同步不应产生第二张罚单")
	t.Logf("✓ 重复同步未产生新罚单")

	// Step 6: 缴纳罚款
	t.Log("➜ Step 6: 缴纳罚款")
	payResp := PutJSON(t, fmt.Sprintf("%s/fines/%d/pay", BaseURL, myFines.FineID), nil, token)
	require.Equal(t, 0, payResp.Code, "缴费失败: %s", payResp.Message)

	var payData struct {
		FineID       uint   `json:"fine_id"`
		PaidStatus   string `json:"paid_status"`
		FinePaidDate string `json:"fine_paid_date"`
	}
	require.NoError(t, json.Unmarshal(payResp.Data, &payData))
	assert.Equal(t, "paid", payData.PaidStatus)
	t.Logf("✓ 缴费成功，缴费日期: %s", payData.FinePaidDate)

	// 重复缴费应失败
	repayResp := PutJSON(t, fmt.Sprintf("%s/fines/%d/pay", BaseURL, myFines.FineID), nil, token)
	assert.Equal(t, 40007, repayResp.Code, "重复缴费应该失败")

	// Step 7: 缴费后归还成功
	t.Log("➜ Step 7: 缴费后归还")
	returnResp := PutJSON(t, fmt.Sprintf("%s/borrowings/%d/return", BaseURL, borrowData.BorrowID), nil, token)
	assert.Equal(t, 0, returnResp.Code, "缴费后归还应该成功: %s", returnResp.Message)
	assert.Equal(t, 1, bookCopies(t, bookID), "归还后馆藏恢复")

	t.Log("✅ 逾期罚款闭环测试通过")
}

// myFinesData GET /fines/my 响应数据
type myFinesData struct {
	Fines  []FineData `json:"fines"`
	Totals struct {
		TotalUnpaid int64 `json:"total_unpaid"`
		TotalAll    int64 `json:"total_all"`
	} `json:"totals"`
}

// findMyFine 在我的罚款中查找指定图书的罚单
func findMyFine(t *testing.T, token string, bookID uint) *FineData {
	t.Helper()
	resp := GetJSON(t, BaseURL+"/fines/my", token)
	require.Equal(t, 0, resp.Code, "查询罚款失败: %s", resp.Message)

	var data myFinesData
	require.NoError(t, json.Unmarshal(resp.Data, &data))

	for i := range data.Fines {
		if data.Fines[i].BookID == bookID {
			return &data.Fines[i]
		}
	}
	return nil
}

// countMyFines 统计指定图书的罚单数
func countMyFines(t *testing.T, token string, bookID uint) int {
	t.Helper()
	resp := GetJSON(t, BaseURL+"/fines/my", token)
	require.Equal(t, 0, resp.Code)

	var data myFinesData
	require.NoError(t, json.Unmarshal(resp.Data, &data))

	count := 0
	for _, f := range data.Fines {
		if f.BookID == bookID {
			count++
		}
	}
	return count
}
