package notify

import (
	"fmt"

	"github.com/asaskevich/EventBus"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
	"gorm.io/gorm"

	"github.com/ZiadAmrAbdElmonaam/embabi-store-next-sub000/config"
	"github.com/ZiadAmrAbdElmonaam/embabi-store-next-sub000/internal/checkout"
	"github.com/ZiadAmrAbdElmonaam/embabi-store-next-sub000/internal/domain"
)

// Mailer sends order confirmation email off the event bus. Sends run on a
// bounded worker pool so a slow SMTP relay cannot pile up goroutines; a
// dropped or failed send is logged and never affects the committed order.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
	db     *gorm.DB
	pool   *ants.Pool
}

func NewMailer(cfg config.SmtpConfig, db *gorm.DB) (*Mailer, error) {
	pool, err := ants.NewPool(8, ants.WithNonblocking(true))
	if err != nil {
		return nil, err
	}
	return &Mailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		db:     db,
		pool:   pool,
	}, nil
}

// Subscribe attaches the mailer to the post-commit topic.
func (m *Mailer) Subscribe(bus EventBus.Bus) error {
	return bus.SubscribeAsync(checkout.TopicOrderCreated, m.onOrderCreated, false)
}

func (m *Mailer) Close() {
	m.pool.Release()
}

func (m *Mailer) onOrderCreated(ev checkout.OrderCreatedEvent) {
	err := m.pool.Submit(func() {
		m.sendConfirmation(ev)
	})
	if err != nil {
		zap.L().Warn("confirmation mail dropped, send pool saturated",
			zap.Int64("order_id", ev.OrderID))
	}
}

func (m *Mailer) sendConfirmation(ev checkout.OrderCreatedEvent) {
	var user domain.SysUser
	if err := m.db.First(&user, ev.UserID).Error; err != nil {
		zap.L().Warn("confirmation mail skipped, user lookup failed",
			zap.Int64("order_id", ev.OrderID),
			zap.Int64("user_id", ev.UserID),
			zap.Error(err))
		return
	}
	if user.Email == "" || user.Email == "N/A" {
		return
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", user.Email)
	msg.SetHeader("Subject", fmt.Sprintf("Order %d confirmed", ev.OrderID))
	payLine := "You will pay in cash on delivery."
	if ev.PaymentMethod == domain.PaymentMethodOnline {
		payLine = "Complete your payment online to start processing."
	}
	msg.SetBody("text/plain", fmt.Sprintf(
		"Hi %s,\n\nYour order %d has been received. Total: %.2f EGP.\n%s\n\nEmbabi Store",
		user.Username, ev.OrderID, ev.Total, payLine))

	if err := m.dialer.DialAndSend(msg); err != nil {
		zap.L().Error("confirmation mail failed",
			zap.Int64("order_id", ev.OrderID),
			zap.String("to", user.Email),
			zap.Error(err))
		return
	}
	zap.L().Info("confirmation mail sent",
		zap.Int64("order_id", ev.OrderID),
		zap.String("to", user.Email))
}
