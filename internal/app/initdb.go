package app

import (
	"errors"
	"time"

	"github.com/spf13/cast"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ZiadAmrAbdElmonaam/embabi-store-next-sub000/internal/domain"
	"github.com/ZiadAmrAbdElmonaam/embabi-store-next-sub000/pkg/common"
)

func (a *Application) checkSuper() {
	const superUsername = "admin"
	const defaultPassword = "embabistore"

	hashedPassword := common.Sha256HashWithSalt(defaultPassword, common.GetSecretSalt())

	var operator domain.SysUser
	err := a.gormDB.Where("username = ?", superUsername).First(&operator).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := a.gormDB.Create(&domain.SysUser{
			ID:        common.UUIDint64(),
			Username:  superUsername,
			Email:     common.NA,
			Password:  hashedPassword,
			Level:     "super",
			Status:    common.ENABLED,
			LastLogin: time.Now(),
		}).Error; err != nil {
			zap.L().Error("failed to create default super admin", zap.Error(err))
		} else {
			zap.L().Info("initialized default super admin account", zap.String("username", superUsername))
		}
	case err != nil:
		zap.L().Error("failed to query super admin", zap.Error(err))
	}
}

// defaultSettings are inserted once at boot; the admin console edits them in
// place afterwards. The shipping fee seeds from the config file so a fresh
// deployment has one source for the value.
func (a *Application) defaultSettings() []domain.SysConfig {
	return []domain.SysConfig{
		{Type: "checkout", Name: "maintenance_mode", Value: "false", Remark: "reject all checkouts while enabled"},
		{Type: "checkout", Name: "shipping_fee", Value: cast.ToString(a.appConfig.Checkout.ShippingFee), Remark: "flat shipping fee added to every order"},
		{Type: "checkout", Name: "online_surcharge_percent", Value: "0", Remark: "extra percentage charged by the payment gateway, not part of the order total"},
	}
}

func (a *Application) checkSettings() {
	for _, s := range a.defaultSettings() {
		var existing domain.SysConfig
		err := a.gormDB.Where("type = ? AND name = ?", s.Type, s.Name).First(&existing).Error
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		s.ID = common.UUIDint64()
		if err := a.gormDB.Create(&s).Error; err != nil {
			zap.L().Error("failed to seed setting",
				zap.String("type", s.Type),
				zap.String("name", s.Name),
				zap.Error(err))
		}
	}
}
