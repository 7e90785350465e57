// 管理员账号种子工具
//
// 注册接口只产生普通读者,图书管理员不走注册流程,
// 由本工具直接建库(用户+会员记录在同一事务中创建):
//
//	go run ./cmd/seed -email admin@library.test -password Admin1234
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/xiebiao/library/internal/domain/membership"
	"github.com/xiebiao/library/internal/domain/user"
	"github.com/xiebiao/library/internal/infrastructure/config"
	"github.com/xiebiao/library/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/library/pkg/clock"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

func main() {
	email := flag.String("email", "admin@library.test", "管理员邮箱")
	password := flag.String("password", "Admin1234", "管理员密码")
	firstName := flag.String("first-name", "Library", "名")
	lastName := flag.String("last-name", "Admin", "姓")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	db, err := mysql.NewDB(cfg)
	if err != nil {
		log.Fatalf("初始化数据库失败: %v", err)
	}

	userRepo := mysql.NewUserRepository(db)
	membershipRepo := mysql.NewMembershipRepository(db)
	txManager := mysql.NewTxManager(db, cfg.Library.LockWaitTimeout)
	today := clock.NewSystem().Today()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if existing, err := userRepo.FindByEmail(ctx, *email); err == nil {
		fmt.Printf("账号已存在: %s (id=%d, role=%s),跳过\n", existing.Email, existing.ID, existing.Role)
		return
	} else if !errors.Is(err, apperrors.ErrUserNotFound) {
		log.Fatalf("查询账号失败: %v", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(*password), 12)
	if err != nil {
		log.Fatalf("密码加密失败: %v", err)
	}

	u := user.NewUser(*email, string(hashed), *firstName, *lastName, user.RoleAdmin)
	err = txManager.Transaction(ctx, func(txCtx context.Context) error {
		if err := userRepo.Create(txCtx, u); err != nil {
			return err
		}
		return membershipRepo.Create(txCtx, membership.NewMembership(u.ID, today))
	})
	if err != nil {
		log.Fatalf("创建管理员失败: %v", err)
	}

	fmt.Printf("✓ 管理员创建成功: %s (id=%d)\n", u.Email, u.ID)
}
