package model

import "time"

// EffectivePermissions 用户有效权限快照，缓存的基本单位
type EffectivePermissions struct {
	UserID      uint64       `json:"user_id"`
	Admin       bool         `json:"admin"`    // 持有管理员角色，放行一切
	RoleIDs     []uint64     `json:"role_ids"` // 直接持有及继承得到的角色
	Permissions []Permission `json:"permissions"`
	ResolvedAt  time.Time    `json:"resolved_at"`
}

// HasCode 是否持有权限编码(不考虑管理员放行)
func (e *EffectivePermissions) HasCode(code string) bool {
	for i := range e.Permissions {
		if e.Permissions[i].Code == code {
			return true
		}
	}
	return false
}

// Codes 权限编码列表
func (e *EffectivePermissions) Codes() []string {
	codes := make([]string, 0, len(e.Permissions))
	for i := range e.Permissions {
		codes = append(codes, e.Permissions[i].Code)
	}
	return codes
}
