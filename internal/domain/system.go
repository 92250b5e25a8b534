package domain

import (
	"time"
)

type SysConfig struct {
	ID        int64     `json:"id,string"   form:"id"`
	Sort      int       `json:"sort"  form:"sort"`
	Type      string    `gorm:"index;uniqueIndex:idx_sys_config_type_name" json:"type" form:"type"`
	Name      string    `gorm:"index;uniqueIndex:idx_sys_config_type_name" json:"name" form:"name"`
	Value     string    `json:"value" form:"value"`
	Remark    string    `json:"remark" form:"remark"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName Specify table name
func (SysConfig) TableName() string {
	return "sys_config"
}

// SysUser is a storefront account. Session issuance lives outside this
// service; checkout only needs the id carried by the bearer token.
type SysUser struct {
	ID        int64     `json:"id,string" form:"id"`
	Username  string    `gorm:"index" json:"username" form:"username"`
	Email     string    `json:"email" form:"email"`
	Password  string    `json:"-" form:"-"`
	Level     string    `gorm:"size:16" json:"level" form:"level"`
	Status    string    `gorm:"size:16" json:"status" form:"status"`
	LastLogin time.Time `json:"last_login" form:"last_login"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName Specify table name
func (SysUser) TableName() string {
	return "sys_user"
}
