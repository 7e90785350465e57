package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// 教学说明：测试辅助工具
// 这个文件包含集成测试的通用辅助函数，遵循DRY原则（Don't Repeat Yourself）
// 将重复的代码（HTTP请求、JSON解析）封装成可复用的函数

const (
	// BaseURL API基础URL
	BaseURL = "http://localhost:8080/api/v1"
	// PingURL 服务健康检查URL
	PingURL = "http://localhost:8080/ping"
	// Timeout HTTP请求超时时间
	Timeout = 10 * time.Second
)

// Response 统一响应结构
type Response struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// LoginData 登录响应数据
type LoginData struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// BookData 图书响应数据
type BookData struct {
	BookID      uint   `json:"book_id"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	ISBN        string `json:"isbn"`
	TotalCopies int    `json:"total_copies"`
	Available   bool   `json:"available"`
}

// BorrowData 借阅响应数据
type BorrowData struct {
	BorrowID   uint   `json:"borrow_id"`
	UserID     uint   `json:"user_id"`
	BookID     uint   `json:"book_id"`
	BorrowDate string `json:"borrow_date"`
	DueDate    string `json:"due_date"`
	ReturnDate string `json:"return_date"`
	Status     string `json:"status"`
}

// FineData 罚款响应数据
type FineData struct {
	FineID          uint   `json:"fine_id"`
	UserID          uint   `json:"user_id"`
	BookID          uint   `json:"book_id"`
	Amount          int64  `json:"amount"`
	FineCreatedDate string `json:"fine_created_date"`
	PaidStatus      string `json:"paid_status"`
	FinePaidDate    string `json:"fine_paid_date"`
}

// RequireServer 检查被测服务是否在运行,未运行则跳过测试
//
// 教学说明：
// 集成测试依赖完整的运行环境(MySQL/Redis/API进程),
// 环境不在时跳过而非失败,避免污染单元测试的结果
func RequireServer(t *testing.T) {
	t.Helper()
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(PingURL)
	if err != nil {
		t.Skipf("API服务未运行,跳过集成测试: %v", err)
	}
	resp.Body.Close()
}

// PostJSON 发送POST请求并解析JSON响应
//
// 教学说明：
// - 使用*testing.T参数，可以在失败时立即终止测试
// - 使用require包进行断言，失败会立即停止（不继续执行）
// - 返回*Response而非error，简化调用方代码
func PostJSON(t *testing.T, url string, data interface{}, token string) *Response {
	t.Helper()
	var body io.Reader
	if data != nil {
		jsonData, err := json.Marshal(data)
		require.NoError(t, err, "JSON序列化失败")
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest("POST", url, body)
	require.NoError(t, err, "创建HTTP请求失败")

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return doRequest(t, req)
}

// PutJSON 发送PUT请求并解析JSON响应
func PutJSON(t *testing.T, url string, data interface{}, token string) *Response {
	t.Helper()
	var body io.Reader
	if data != nil {
		jsonData, err := json.Marshal(data)
		require.NoError(t, err, "JSON序列化失败")
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest("PUT", url, body)
	require.NoError(t, err, "创建HTTP请求失败")

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return doRequest(t, req)
}

// GetJSON 发送GET请求并解析JSON响应
func GetJSON(t *testing.T, url string, token string) *Response {
	t.Helper()
	req, err := http.NewRequest("GET", url, nil)
	require.NoError(t, err, "创建HTTP请求失败")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return doRequest(t, req)
}

// DeleteJSON 发送DELETE请求并解析JSON响应
func DeleteJSON(t *testing.T, url string, token string) *Response {
	t.Helper()
	req, err := http.NewRequest("DELETE", url, nil)
	require.NoError(t, err, "创建HTTP请求失败")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return doRequest(t, req)
}

func doRequest(t *testing.T, req *http.Request) *Response {
	t.Helper()
	client := &http.Client{Timeout: Timeout}
	resp, err := client.Do(req)
	require.NoError(t, err, "发送HTTP请求失败")
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "读取响应体失败")

	var result Response
	err = json.Unmarshal(body, &result)
	require.NoError(t, err, "解析JSON响应失败: %s", string(body))

	return &result
}

// GenerateTestEmail 生成唯一的测试邮箱
//
// 教学说明：
// 使用纳秒时间戳确保邮箱唯一性，避免测试重复运行时邮箱冲突
func GenerateTestEmail(prefix string) string {
	return fmt.Sprintf("%s_%d@test.com", prefix, time.Now().UnixNano())
}

// GenerateSuffix 生成唯一的数字后缀（用于拼接可搜索的测试数据）
func GenerateSuffix() int64 {
	return time.Now().UnixNano() % 1000000
}

// GenerateTestISBN 生成唯一的测试ISBN
//
// 教学说明：
// ISBN-13格式：978 + 10位数字
// 使用时间戳的后10位确保唯一性
func GenerateTestISBN() string {
	timestamp := time.Now().UnixNano()
	return fmt.Sprintf("978%010d", timestamp%10000000000)
}

// RegisterTestUser 注册测试读者并返回Token
//
// 教学说明：
// 这是一个"高阶"辅助函数，封装了注册+登录的完整流程
// 简化了测试代码，让测试更关注业务逻辑而非基础设施
func RegisterTestUser(t *testing.T, name string) (email string, token string) {
	t.Helper()
	email = GenerateTestEmail(name)
	registerReq := map[string]string{
		"email":      email,
		"password":   "Test1234",
		"first_name": name,
		"last_name":  "Tester",
	}

	registerResp := PostJSON(t, BaseURL+"/users/register", registerReq, "")
	require.Equal(t, 0, registerResp.Code, "注册失败: %s", registerResp.Message)

	return email, LoginTestUser(t, email, "Test1234")
}

// LoginTestUser 登录并返回AccessToken
func LoginTestUser(t *testing.T, email, password string) string {
	t.Helper()
	loginReq := map[string]string{
		"email":    email,
		"password": password,
	}

	loginResp := PostJSON(t, BaseURL+"/users/login", loginReq, "")
	require.Equal(t, 0, loginResp.Code, "登录失败: %s", loginResp.Message)

	var loginData LoginData
	err := json.Unmarshal(loginResp.Data, &loginData)
	require.NoError(t, err, "解析登录响应失败")

	return loginData.AccessToken
}

// LoginTestAdmin 以管理员身份登录
//
// 教学说明：
// 注册接口只产生普通读者，管理员账号由建库脚本预置，
// 测试环境通过环境变量指定凭据（默认对应cmd/seed工具的缺省账号）
func LoginTestAdmin(t *testing.T) string {
	t.Helper()
	email := os.Getenv("TEST_ADMIN_EMAIL")
	if email == "" {
		email = "admin@library.test"
	}
	password := os.Getenv("TEST_ADMIN_PASSWORD")
	if password == "" {
		password = "Admin1234"
	}
	return LoginTestUser(t, email, password)
}

// CreateTestBook 录入测试图书并返回图书ID（需要管理员Token）
func CreateTestBook(t *testing.T, adminToken string, title string, totalCopies int) uint {
	t.Helper()
	bookReq := map[string]interface{}{
		"title":        title,
		"author":       "测试作者",
		"isbn":         GenerateTestISBN(),
		"total_copies": totalCopies,
		"description":  "集成测试用图书",
	}

	bookResp := PostJSON(t, BaseURL+"/books", bookReq, adminToken)
	require.Equal(t, 0, bookResp.Code, "图书录入失败: %s", bookResp.Message)

	var created struct {
		BookID uint `json:"book_id"`
	}
	err := json.Unmarshal(bookResp.Data, &created)
	require.NoError(t, err, "解析图书响应失败")
	require.NotZero(t, created.BookID)

	return created.BookID
}

// BorrowTestBook 借出图书并返回借阅ID
func BorrowTestBook(t *testing.T, token string, bookID uint) uint {
	t.Helper()
	resp := PostJSON(t, BaseURL+"/borrowings", map[string]interface{}{"book_id": bookID}, token)
	require.Equal(t, 0, resp.Code, "借书失败: %s", resp.Message)

	var data BorrowData
	err := json.Unmarshal(resp.Data, &data)
	require.NoError(t, err, "解析借阅响应失败")

	return data.BorrowID
}
