package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"

	appbook "github.com/xiebiao/library/internal/application/book"
	appborrow "github.com/xiebiao/library/internal/application/borrow"
	appfine "github.com/xiebiao/library/internal/application/fine"
	appmembership "github.com/xiebiao/library/internal/application/membership"
	appuser "github.com/xiebiao/library/internal/application/user"
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
	"github.com/xiebiao/library/pkg/tracing"
)

// main 主程序入口
// 说明：手动依赖注入（wire.go提供Wire版本的自动组装）
func main() {
	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	fmt.Printf("✓ 配置加载成功\n")
	fmt.Printf("  - 服务端口: %d\n", cfg.Server.Port)
	fmt.Printf("  - 运行模式: %s\n", cfg.Server.Mode)
	fmt.Printf("  - 数据库: %s:%d/%s\n", cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)
	fmt.Printf("  - Redis: %s\n", cfg.Redis.Addr())

	// 2. 初始化Prometheus指标
	metrics.InitMetrics()

	// 初始化分布式追踪(可选,需要Jaeger等OTLP collector)
	if cfg.Tracing.Enabled {
		shutdown, err := tracing.InitTracer("library-api", cfg.Tracing.Endpoint)
		if err != nil {
			log.Fatalf("初始化Tracer失败: %v", err)
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				log.Printf("[tracing] shutdown: %v", err)
			}
		}()
		fmt.Printf("  - 追踪上报: %s\n", cfg.Tracing.Endpoint)
	}

	// 3. 初始化数据库连接
	db, err := mysql.NewDB(cfg)
	if err != nil {
		log.Fatalf("初始化数据库失败: %v", err)
	}

	// 4. 初始化Redis连接
	redisClient, err := redis.NewClient(cfg)
	if err != nil {
		log.Fatalf("初始化Redis失败: %v", err)
	}

	// 5. 初始化事件通知（MQ未启用时降级为日志输出）
	notifier, mqCleanup, err := mq.NewNotifier(cfg)
	if err != nil {
		log.Fatalf("初始化事件通知失败: %v", err)
	}
	defer mqCleanup()

	// 6. 依赖注入（手动组装）
	// 依赖注入链：Repository ← Service ← UseCase ← Handler

	// 基础设施层
	userRepo := mysql.NewUserRepository(db)
	bookRepo := mysql.NewBookRepository(db)
	borrowRepo := mysql.NewBorrowRepository(db)
	fineRepo := mysql.NewFineRepository(db)
	membershipRepo := mysql.NewMembershipRepository(db)
	txManager := mysql.NewTxManager(db, cfg.Library.LockWaitTimeout)
	sessionStore := redis.NewSessionStore(redisClient)
	jwtManager := jwt.NewManager(
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpire,
		cfg.JWT.RefreshTokenExpire,
	)
	clk := clock.NewSystem()

	// 领域层
	userService := user.NewService(userRepo)

	// 应用层
	registerUseCase := appuser.NewRegisterUseCase(userService, membershipRepo, txManager, clk)
	loginUseCase := appuser.NewLoginUseCase(userService, jwtManager, sessionStore)
	logoutUseCase := appuser.NewLogoutUseCase(sessionStore)

	manageBookUseCase := appbook.NewManageBookUseCase(bookRepo)
	listBooksUseCase := appbook.NewListBooksUseCase(bookRepo)

	createBorrowUseCase := appborrow.NewCreateBorrowUseCase(
		borrowRepo, bookRepo, txManager, clk, notifier, cfg.Library.LoanPeriodDays)
	returnBookUseCase := appborrow.NewReturnBookUseCase(
		borrowRepo, bookRepo, fineRepo, txManager, clk, notifier)
	listBorrowsUseCase := appborrow.NewListBorrowsUseCase(borrowRepo, clk)
	getBorrowUseCase := appborrow.NewGetBorrowUseCase(borrowRepo, clk)
	manageBorrowUseCase := appborrow.NewManageBorrowUseCase(borrowRepo)

	syncOverdueUseCase := appfine.NewSyncOverdueUseCase(
		fineRepo, borrowRepo, clk, notifier, cfg.Library.FineAmount)
	payFineUseCase := appfine.NewPayFineUseCase(fineRepo, txManager, clk, notifier)
	listFinesUseCase := appfine.NewListFinesUseCase(fineRepo, membershipRepo)
	manageFineUseCase := appfine.NewManageFineUseCase(fineRepo, clk)

	membershipUseCase := appmembership.NewMembershipUseCase(
		membershipRepo, txManager, clk, notifier, cfg.Library.MembershipFee)

	// 接口层
	userHandler := handler.NewUserHandler(registerUseCase, loginUseCase, logoutUseCase)
	bookHandler := handler.NewBookHandler(manageBookUseCase, listBooksUseCase)
	borrowHandler := handler.NewBorrowHandler(
		createBorrowUseCase, returnBookUseCase, listBorrowsUseCase, getBorrowUseCase, manageBorrowUseCase)
	fineHandler := handler.NewFineHandler(
		syncOverdueUseCase, payFineUseCase, listFinesUseCase, manageFineUseCase)
	membershipHandler := handler.NewMembershipHandler(membershipUseCase)
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, sessionStore)

	// 7. 启动逾期扫描定时任务
	// 说明：扫描本身幂等,多实例部署时重复执行也不会重复开罚单
	if cfg.Library.SweepInterval > 0 {
		go runOverdueSweep(syncOverdueUseCase, cfg.Library.SweepInterval)
	}

	// 8. 初始化Gin引擎
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.Logger(), gin.Recovery(), middleware.Metrics())
	if cfg.Tracing.Enabled {
		r.Use(middleware.Tracing())
	}

	// 9. 注册路由
	registerRoutes(r, userHandler, bookHandler, borrowHandler, fineHandler, membershipHandler, authMiddleware)

	// 10. 启动服务
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	fmt.Printf("\n🚀 服务启动成功！\n")
	fmt.Printf("   访问地址: http://localhost%s\n", addr)
	fmt.Printf("   健康检查: http://localhost%s/ping\n", addr)
	fmt.Printf("   指标采集: http://localhost%s/metrics\n", addr)
	fmt.Printf("\n按Ctrl+C停止服务\n\n")

	if err := r.Run(addr); err != nil {
		log.Fatalf("启动服务失败: %v", err)
	}
}

// runOverdueSweep 周期性执行逾期同步
func runOverdueSweep(uc *appfine.SyncOverdueUseCase, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		result, err := uc.Execute(ctx)
		cancel()
		if err != nil {
			log.Printf("[sweep] scheduled run failed: %v", err)
			continue
		}
		if result.FinesCreated > 0 {
			log.Printf("[sweep] scheduled run: %d overdue, %d fines created",
				result.TotalOverdue, result.FinesCreated)
		}
	}
}

// registerRoutes 注册路由
func registerRoutes(
	r *gin.Engine,
	userHandler *handler.UserHandler,
	bookHandler *handler.BookHandler,
	borrowHandler *handler.BorrowHandler,
	fineHandler *handler.FineHandler,
	membershipHandler *handler.MembershipHandler,
	authMiddleware *middleware.AuthMiddleware,
) {
	// 健康检查
	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{
			"message": "pong",
			"status":  "healthy",
		})
	})

	// Prometheus指标
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// API路由组
	v1 := r.Group("/api/v1")
	{
		// 用户模块（公开接口，不需要登录）
		users := v1.Group("/users")
		{
			users.POST("/register", userHandler.Register)
			users.POST("/login", userHandler.Login)
			users.POST("/logout", authMiddleware.RequireAuth(), userHandler.Logout)
		}

		// 图书模块
		books := v1.Group("/books")
		{
			// 查询接口公开,带Token时管理员可查看已下架图书
			books.GET("", authMiddleware.OptionalAuth(), bookHandler.List)
			books.GET("/:id", bookHandler.Get)

			// 管理接口
			books.POST("", authMiddleware.RequireAuth(), authMiddleware.RequireAdmin(), bookHandler.Create)
			books.PUT("/:id", authMiddleware.RequireAuth(), authMiddleware.RequireAdmin(), bookHandler.Update)
			books.DELETE("/:id", authMiddleware.RequireAuth(), authMiddleware.RequireAdmin(), bookHandler.Delete)
		}

		// 借阅模块（全部需要登录）
		borrowings := v1.Group("/borrowings")
		borrowings.Use(authMiddleware.RequireAuth())
		{
			borrowings.POST("", borrowHandler.Create)
			borrowings.PUT("/:id/return", borrowHandler.Return)
			borrowings.GET("/my", borrowHandler.ListMy)
			borrowings.GET("/:id", borrowHandler.Get)

			// 管理接口
			admin := borrowings.Group("")
			admin.Use(authMiddleware.RequireAdmin())
			{
				admin.GET("", borrowHandler.List)
				admin.GET("/active", borrowHandler.ListActive)
				admin.GET("/overdue", borrowHandler.ListOverdue)
				admin.PUT("/:id", borrowHandler.Update)
				admin.DELETE("/:id", borrowHandler.Delete)
			}
		}

		// 罚款模块（全部需要登录）
		fines := v1.Group("/fines")
		fines.Use(authMiddleware.RequireAuth())
		{
			fines.GET("/my", fineHandler.ListMy)
			fines.GET("/:id", fineHandler.Get)
			fines.PUT("/:id/pay", fineHandler.Pay)

			// 管理接口
			admin := fines.Group("")
			admin.Use(authMiddleware.RequireAdmin())
			{
				admin.GET("", fineHandler.List)
				admin.POST("", fineHandler.Create)
				admin.PUT("/:id", fineHandler.Update)
				admin.DELETE("/:id", fineHandler.Delete)
				admin.POST("/sync-overdue", fineHandler.SyncOverdue)
			}
		}

		// 缴费流水（管理员）
		v1.GET("/payments", authMiddleware.RequireAuth(), authMiddleware.RequireAdmin(), fineHandler.ListPayments)

		// 会员模块（全部需要登录）
		membership := v1.Group("/membership")
		membership.Use(authMiddleware.RequireAuth())
		{
			membership.GET("", membershipHandler.GetMy)
			membership.POST("/extend", membershipHandler.Extend)
			membership.GET("/payments", membershipHandler.ListMyPayments)
		}
	}
}
