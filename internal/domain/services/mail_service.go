package services

import (
	"fmt"
	"strings"

	"github.com/m-istighfar/BE-M-Blood/internal/infrastructure/config"
	Logger "github.com/m-istighfar/BE-M-Blood/pkg/logger"
	"gopkg.in/gomail.v2"
)

// Mailer 邮件发送接口
type Mailer interface {
	SendVerificationEmail(to, token string) error
	SendPlain(to, subject, body string) error
}

// MailService 通过 SMTP 发送邮件，未配置 SMTP 时只记录日志
type MailService struct {
	Config *config.Config
	dialer *gomail.Dialer
}

// NewMailService 创建邮件服务
func NewMailService(cfg *config.Config) *MailService {
	s := &MailService{Config: cfg}
	if cfg.SMTPHost != "" {
		s.dialer = gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
	}
	return s
}

// VerificationLink 邮箱验证链接
func (s *MailService) VerificationLink(token string) string {
	return fmt.Sprintf("%s/api/auth/verify-email/%s", strings.TrimRight(s.Config.AppBaseURL, "/"), token)
}

// 1 SendVerificationEmail 发送邮箱验证邮件
func (s *MailService) SendVerificationEmail(to, token string) error {
	body := fmt.Sprintf("Click on the link to verify your email: %s", s.VerificationLink(token))
	return s.SendPlain(to, "Email Verification", body)
}

// 2 SendPlain 发送纯文本邮件
func (s *MailService) SendPlain(to, subject, body string) error {
	if s.dialer == nil {
		Logger.Info("未配置SMTP，邮件未发送: to=%s subject=%s body=%s", to, subject, body)
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.Config.SMTPFrom)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("发送邮件失败: %w", err)
	}
	return nil
}
