//go:build wireinject
// +build wireinject

// Wire依赖注入配置文件
//
// Wire在编译期生成依赖组装代码：
// Step 1: 编写wire.go（本文件），定义Providers和Injector
// Step 2: 运行 `wire gen ./cmd/api`
// Step 3: Wire生成wire_gen.go，包含完整的依赖创建代码
// Step 4: main.go调用wire_gen.go中的InitializeApp()

package main

import (
	"github.com/gin-gonic/gin"
	"github.com/google/wire"
	goredis "github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	appbook "github.com/xiebiao/library/internal/application/book"
	appborrow "github.com/xiebiao/library/internal/application/borrow"
	"github.com/xiebiao/library/internal/application/event"
	appfine "github.com/xiebiao/library/internal/application/fine"
	appmembership "github.com/xiebiao/library/internal/application/membership"
	appuser "github.com/xiebiao/library/internal/application/user"
	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/borrow"
	"github.com/xiebiao/library/internal/domain/fine"
	"github.com/xiebiao/library/internal/domain/membership"
	"github.com/xiebiao/library/internal/domain/shared"
	"github.com/xiebiao/library/internal/domain/user"
	"github.com/xiebiao/library/internal/infrastructure/config"
	"github.com/xiebiao/library/internal/infrastructure/mq"
	"github.com/xiebiao/library/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/library/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/library/internal/interface/http/handler"
	"github.com/xiebiao/library/internal/interface/http/middleware"
	"github.com/xiebiao/library/pkg/clock"
	"github.com/xiebiao/library/pkg/jwt"
	"github.com/xiebiao/library/pkg/metrics"
	"github.com/xiebiao/library/pkg/response"
)

// ========================================
// Wire Provider Sets (依赖分组)
// ========================================

// infrastructureSet 基础设施层依赖
// 包含：配置加载、数据库连接、Redis连接、事件通知
var infrastructureSet = wire.NewSet(
	config.Load,     // 加载配置文件
	mysql.NewDB,     // 创建MySQL连接
	redis.NewClient, // 创建Redis连接
	mq.NewNotifier,  // 事件通知(MQ未启用时降级为日志输出)
	provideClock,    // 系统时钟
)

// repositorySet 仓储层依赖
// 包含：所有Repository的构造函数
var repositorySet = wire.NewSet(
	mysql.NewUserRepository,       // 用户仓储
	mysql.NewBookRepository,       // 图书仓储
	mysql.NewBorrowRepository,     // 借阅仓储
	mysql.NewFineRepository,       // 罚款仓储
	mysql.NewMembershipRepository, // 会员仓储
	provideTxManager,              // 事务管理器(行锁超时从配置提取)
)

// domainSet 领域层依赖
var domainSet = wire.NewSet(
	user.NewService, // 用户领域服务
)

// applicationSet 应用层依赖
// 包含：所有Use Case的构造函数
// 说明：构造参数含配置标量(借期/罚款金额/年费)的用例走自定义Provider
var applicationSet = wire.NewSet(
	appuser.NewRegisterUseCase,       // 用户注册用例
	appuser.NewLoginUseCase,          // 用户登录用例
	appuser.NewLogoutUseCase,         // 用户登出用例
	appbook.NewManageBookUseCase,     // 图书管理用例
	appbook.NewListBooksUseCase,      // 图书列表用例
	provideCreateBorrowUseCase,       // 借书用例
	appborrow.NewReturnBookUseCase,   // 还书用例
	appborrow.NewListBorrowsUseCase,  // 借阅列表用例
	appborrow.NewGetBorrowUseCase,    // 借阅详情用例
	appborrow.NewManageBorrowUseCase, // 借阅管理用例
	provideSyncOverdueUseCase,        // 逾期同步用例
	appfine.NewPayFineUseCase,        // 缴纳罚款用例
	appfine.NewListFinesUseCase,      // 罚款列表用例
	appfine.NewManageFineUseCase,     // 罚款管理用例
	provideMembershipUseCase,         // 会员用例
)

// middlewareSet 中间件依赖
var middlewareSet = wire.NewSet(
	provideJWTManager,            // JWT管理器（需要从config提取参数）
	provideSessionStore,          // Session存储（需要从Redis创建）
	middleware.NewAuthMiddleware, // 认证中间件
)

// handlerSet HTTP处理器依赖
var handlerSet = wire.NewSet(
	handler.NewUserHandler,       // 用户处理器
	handler.NewBookHandler,       // 图书处理器
	handler.NewBorrowHandler,     // 借阅处理器
	handler.NewFineHandler,       // 罚款处理器
	handler.NewMembershipHandler, // 会员处理器
)

// ========================================
// Custom Providers (自定义Provider)
// ========================================
// 说明：构造参数需要从Config提取的依赖,Wire无法自动组装,手动编写Provider

// provideJWTManager 从配置创建JWT管理器
func provideJWTManager(cfg *config.Config) *jwt.Manager {
	return jwt.NewManager(
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpire,
		cfg.JWT.RefreshTokenExpire,
	)
}

// provideSessionStore 从Redis客户端创建Session存储
func provideSessionStore(client *goredis.Client) *redis.SessionStore {
	return redis.NewSessionStore(client)
}

// provideClock 系统时钟
func provideClock() clock.Clock {
	return clock.NewSystem()
}

// provideTxManager 从配置创建事务管理器
func provideTxManager(db *gorm.DB, cfg *config.Config) shared.TxManager {
	return mysql.NewTxManager(db, cfg.Library.LockWaitTimeout)
}

// provideCreateBorrowUseCase 借书用例(借期从配置提取)
func provideCreateBorrowUseCase(
	borrowRepo borrow.Repository,
	bookRepo book.Repository,
	txManager shared.TxManager,
	clk clock.Clock,
	notifier event.Notifier,
	cfg *config.Config,
) *appborrow.CreateBorrowUseCase {
	return appborrow.NewCreateBorrowUseCase(
		borrowRepo, bookRepo, txManager, clk, notifier, cfg.Library.LoanPeriodDays)
}

// provideSyncOverdueUseCase 逾期同步用例(罚款金额从配置提取)
func provideSyncOverdueUseCase(
	fineRepo fine.Repository,
	borrowRepo borrow.Repository,
	clk clock.Clock,
	notifier event.Notifier,
	cfg *config.Config,
) *appfine.SyncOverdueUseCase {
	return appfine.NewSyncOverdueUseCase(
		fineRepo, borrowRepo, clk, notifier, cfg.Library.FineAmount)
}

// provideMembershipUseCase 会员用例(年费从配置提取)
func provideMembershipUseCase(
	membershipRepo membership.Repository,
	txManager shared.TxManager,
	clk clock.Clock,
	notifier event.Notifier,
	cfg *config.Config,
) *appmembership.MembershipUseCase {
	return appmembership.NewMembershipUseCase(
		membershipRepo, txManager, clk, notifier, cfg.Library.MembershipFee)
}

// provideGinEngine 创建并配置Gin引擎
func provideGinEngine(
	cfg *config.Config,
	userHandler *handler.UserHandler,
	bookHandler *handler.BookHandler,
	borrowHandler *handler.BorrowHandler,
	fineHandler *handler.FineHandler,
	membershipHandler *handler.MembershipHandler,
	authMiddleware *middleware.AuthMiddleware,
) *gin.Engine {
	// 设置运行模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	metrics.InitMetrics()

	r := gin.New()
	r.Use(middleware.Logger(), gin.Recovery(), middleware.Metrics())
	if cfg.Tracing.Enabled {
		r.Use(middleware.Tracing())
	}

	// 健康检查
	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{
			"message": "pong",
			"status":  "healthy",
		})
	})

	// Prometheus指标
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Swagger文档路由
	// 访问 http://localhost:8080/swagger/index.html 查看API文档
	// 生产环境建议禁用Swagger或添加访问控制
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	registerRoutes(r, userHandler, bookHandler, borrowHandler, fineHandler, membershipHandler, authMiddleware)

	return r
}

// ========================================
// Wire Injector (依赖注入器)
// ========================================

// InitializeApp 初始化整个应用
// 返回：配置好的Gin引擎、清理函数(关闭MQ连接)
func InitializeApp() (*gin.Engine, func(), error) {
	wire.Build(
		// 基础设施层
		infrastructureSet,

		// 仓储层
		repositorySet,

		// 领域层
		domainSet,

		// 应用层
		applicationSet,

		// 中间件层
		middlewareSet,

		// 接口层
		handlerSet,

		// Gin引擎
		provideGinEngine,
	)

	// 返回值是占位符,实际初始化代码由Wire生成在wire_gen.go中
	return nil, nil, nil
}
