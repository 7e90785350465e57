package user

import (
	"time"
)

// Role 用户角色
type Role string

const (
	// RoleUser 普通读者
	RoleUser Role = "user"
	// RoleAdmin 图书管理员
	RoleAdmin Role = "admin"
)

// User 用户实体(聚合根)
// DDD设计说明:
// 1. User是用户聚合的根实体,包含用户的核心属性
// 2. 密码已加密存储(bcrypt),不应该有GetPassword()等方法暴露明文
// 3. 领域实体不依赖GORM tag(infrastructure层的Repository实现时会处理映射)
type User struct {
	ID        uint
	Email     string
	Password  string // bcrypt哈希值
	FirstName string
	LastName  string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewUser 创建新用户(工厂方法)
// hashedPassword必须是bcrypt加密后的密码
func NewUser(email, hashedPassword, firstName, lastName string, role Role) *User {
	if role == "" {
		role = RoleUser
	}
	now := time.Now()
	return &User{
		Email:     email,
		Password:  hashedPassword,
		FirstName: firstName,
		LastName:  lastName,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsAdmin 是否为管理员
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// FullName 姓名拼接(展示用)
func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}

// UpdateProfile 更新个人信息(领域行为)
func (u *User) UpdateProfile(firstName, lastName string) {
	if firstName != "" {
		u.FirstName = firstName
	}
	if lastName != "" {
		u.LastName = lastName
	}
	u.UpdatedAt = time.Now()
}
