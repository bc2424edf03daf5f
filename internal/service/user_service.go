package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/where2dive/internal/db"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	// ErrUserNotFound 在指定用户不存在时返回
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists 注册时邮箱已被占用
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidCredentials 登录凭据不匹配
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidUserInput 注册信息不完整
	ErrInvalidUserInput = errors.New("invalid user input")
)

// registration 为注册字段的校验规则
type registration struct {
	Email    string `validate:"required,email,max=255"`
	Password string `validate:"min=4,max=72"`
	Nickname string `validate:"max=40"`
}

// UserService 负责账号注册与登录校验
type UserService struct {
	db       *gorm.DB
	validate *validator.Validate
}

// NewUserService 构造 UserService
func NewUserService(gdb *gorm.DB) *UserService {
	return &UserService{db: gdb, validate: validator.New()}
}

// Register 以 bcrypt 哈希创建账号，昵称缺省取邮箱前缀
func (s *UserService) Register(email, password, nickname string) (*db.User, error) {
	input := registration{
		Email:    strings.ToLower(strings.TrimSpace(email)),
		Password: strings.TrimSpace(password),
		Nickname: strings.TrimSpace(nickname),
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidUserInput, err)
	}
	normalized := input.Email

	var count int64
	if err := s.db.Model(&db.User{}).Where("email = ?", normalized).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check user: %w", err)
	}
	if count > 0 {
		return nil, ErrUserExists
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	nickname = input.Nickname
	if nickname == "" {
		nickname, _, _ = strings.Cut(normalized, "@")
	}

	user := db.User{Email: normalized, Password: string(hashed), Nickname: nickname}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

// Authenticate 校验邮箱与密码
func (s *UserService) Authenticate(email, password string) (*db.User, error) {
	var user db.User
	if err := s.db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(strings.TrimSpace(password))); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// Get 根据 ID 获取用户
func (s *UserService) Get(id uint) (*db.User, error) {
	var user db.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}
