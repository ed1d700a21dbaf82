package service

import (
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"slidereview_backend/internal/config"
	"slidereview_backend/internal/model"
	"slidereview_backend/pkg/monitoring"

	"go.uber.org/zap"
)

type MailKind string

const (
	MailInvite   MailKind = "invite"
	MailWelcome  MailKind = "welcome"
	MailReminder MailKind = "reminder"
)

// MailService renders caselist mail templates and delivers them over SMTP.
// Templates use %first_name%, %last_name%, %username%, %deadline% and
// %caselisturl% placeholders. With no SMTP host configured mails are
// logged and dropped so the rest of the flow keeps working.
type MailService struct {
	cfg     config.MailConfig
	baseURL string
	logger  *zap.Logger
}

func NewMailService(cfg config.MailConfig, baseURL string, logger *zap.Logger) *MailService {
	return &MailService{cfg: cfg, baseURL: baseURL, logger: logger}
}

// RenderTemplate substitutes the placeholder variables into a mail template.
func (s *MailService) RenderTemplate(tmpl string, user *model.User, cl *model.CaseList) string {
	deadline := ""
	if cl.EndDate != nil {
		deadline = cl.EndDate.Format("2006-01-02")
	}
	r := strings.NewReplacer(
		"%first_name%", user.FirstName,
		"%last_name%", user.LastName,
		"%username%", user.Username,
		"%deadline%", deadline,
		"%caselisturl%", fmt.Sprintf("%s/list/%s", s.baseURL, cl.Slug),
	)
	return r.Replace(tmpl)
}

// SendMembershipMail delivers the welcome or reminder template to a member.
// Missing templates or addresses are skipped silently.
func (s *MailService) SendMembershipMail(ucl *model.UserCaseList, kind MailKind) {
	if ucl.User == nil || ucl.CaseList == nil || ucl.User.Email == "" {
		return
	}
	var tmpl, subject string
	switch kind {
	case MailWelcome:
		tmpl = ucl.CaseList.WelcomeMail
		subject = fmt.Sprintf("Welcome to %s", ucl.CaseList.Name)
	case MailReminder:
		tmpl = ucl.CaseList.ReminderMail
		subject = fmt.Sprintf("Reminder: %s", ucl.CaseList.Name)
	default:
		return
	}
	if tmpl == "" {
		return
	}
	body := s.RenderTemplate(tmpl, ucl.User, ucl.CaseList)
	s.send(kind, ucl.User.Email, subject, body)
}

// SendInvitationMail mails the invitation key to the invitee address.
func (s *MailService) SendInvitationMail(inv *model.CaseListInvitation) {
	if inv.Email == "" || inv.CaseList == nil || inv.CaseList.InviteMail == "" {
		return
	}
	invitee := &model.User{Email: inv.Email}
	body := s.RenderTemplate(inv.CaseList.InviteMail, invitee, inv.CaseList)
	body += fmt.Sprintf("\n\n%s/invitation/%s\n", s.baseURL, inv.Key)
	subject := fmt.Sprintf("Invitation: %s", inv.CaseList.Name)
	s.send(MailInvite, inv.Email, subject, body)
}

func (s *MailService) send(kind MailKind, to, subject, body string) {
	if s.cfg.Host == "" {
		s.logger.Info("mail delivery skipped, no SMTP host configured",
			zap.String("to", to), zap.String("subject", subject))
		monitoring.MailCounter.WithLabelValues(string(kind), "skipped").Inc()
		return
	}
	msg := strings.Join([]string{
		"From: " + s.cfg.From,
		"To: " + to,
		"Subject: " + subject,
		"Date: " + time.Now().Format(time.RFC1123Z),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.User != "" {
		auth = smtp.PlainAuth("", s.cfg.User, s.cfg.Pass, s.cfg.Host)
	}
	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{to}, []byte(msg)); err != nil {
		s.logger.Error("mail delivery failed", zap.String("to", to), zap.Error(err))
		monitoring.MailCounter.WithLabelValues(string(kind), "error").Inc()
		return
	}
	monitoring.MailCounter.WithLabelValues(string(kind), "sent").Inc()
}
