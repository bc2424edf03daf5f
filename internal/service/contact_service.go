package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/where2dive/internal/db"
	"gorm.io/gorm"
)

// ErrContactInvalid 联系表单字段缺失或格式错误
var ErrContactInvalid = errors.New("invalid contact message")

// ContactStatusUnread 为新留言的初始状态
const ContactStatusUnread = "unread"

// ContactInput 为联系表单提交的字段
type ContactInput struct {
	Name    string `validate:"required,max=80"`
	Email   string `validate:"required,email,max=255"`
	Subject string `validate:"max=200"`
	Message string `validate:"required,max=5000"`
}

// ContactService 保存站点联系表单的留言
type ContactService struct {
	db       *gorm.DB
	validate *validator.Validate
	policy   *bluemonday.Policy
}

// NewContactService 构造 ContactService
func NewContactService(gdb *gorm.DB) *ContactService {
	return &ContactService{db: gdb, validate: validator.New(), policy: bluemonday.StrictPolicy()}
}

// Submit 去除 HTML 后保存留言
func (s *ContactService) Submit(input ContactInput) (*db.ContactMessage, error) {
	input.Name = s.clean(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	input.Subject = s.clean(input.Subject)
	input.Message = s.clean(input.Message)

	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContactInvalid, err)
	}

	message := db.ContactMessage{
		Name:    input.Name,
		Email:   input.Email,
		Subject: input.Subject,
		Message: input.Message,
		Status:  ContactStatusUnread,
	}
	if err := s.db.Create(&message).Error; err != nil {
		return nil, fmt.Errorf("create contact message: %w", err)
	}
	return &message, nil
}

func (s *ContactService) clean(value string) string {
	return strings.TrimSpace(s.policy.Sanitize(value))
}
