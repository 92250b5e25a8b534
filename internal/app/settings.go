package app

import (
	"strings"
	"sync"
	"time"

	"github.com/spf13/cast"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ZiadAmrAbdElmonaam/embabi-store-next-sub000/internal/domain"
	"github.com/ZiadAmrAbdElmonaam/embabi-store-next-sub000/pkg/common"
)

const settingsCacheTTL = 30 * time.Second

// SettingsManager reads site settings from the sys_config table through a
// short-lived cache. The maintenance flag is read on every checkout, so the
// cache keeps that off the hot path while still picking up admin changes
// within the TTL.
type SettingsManager struct {
	db       *gorm.DB
	mu       sync.RWMutex
	values   map[string]string
	loadedAt time.Time
}

func NewSettingsManager(db *gorm.DB) *SettingsManager {
	return &SettingsManager{db: db, values: map[string]string{}}
}

func settingKey(category, name string) string {
	return strings.ToLower(category) + "/" + strings.ToLower(name)
}

func (m *SettingsManager) get(category, name string) string {
	m.mu.RLock()
	fresh := time.Since(m.loadedAt) < settingsCacheTTL
	v, ok := m.values[settingKey(category, name)]
	m.mu.RUnlock()
	if fresh && ok {
		return v
	}
	m.reload()
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.values[settingKey(category, name)]
}

func (m *SettingsManager) reload() {
	var rows []domain.SysConfig
	if err := m.db.Find(&rows).Error; err != nil {
		zap.L().Error("settings reload failed", zap.Error(err))
		return
	}
	values := make(map[string]string, len(rows))
	for _, row := range rows {
		values[settingKey(row.Type, row.Name)] = row.Value
	}
	m.mu.Lock()
	m.values = values
	m.loadedAt = time.Now()
	m.mu.Unlock()
}

// Invalidate drops the cache so the next read hits the table.
func (m *SettingsManager) Invalidate() {
	m.mu.Lock()
	m.loadedAt = time.Time{}
	m.mu.Unlock()
}

func (m *SettingsManager) GetString(category, name string) string {
	return m.get(category, name)
}

func (m *SettingsManager) GetBool(category, name string) bool {
	return cast.ToBool(m.get(category, name))
}

func (m *SettingsManager) GetInt64(category, name string) int64 {
	return cast.ToInt64(m.get(category, name))
}

func (m *SettingsManager) GetFloat64(category, name string) float64 {
	return cast.ToFloat64(m.get(category, name))
}

// Set upserts one setting and invalidates the cache.
func (m *SettingsManager) Set(category, name, value string) error {
	row := domain.SysConfig{
		ID:    common.UUIDint64(),
		Type:  category,
		Name:  name,
		Value: value,
	}
	err := m.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "type"}, {Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return err
	}
	m.Invalidate()
	return nil
}
