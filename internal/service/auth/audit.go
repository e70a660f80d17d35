package auth

import (
	"context"

	"accesscore/internal/model"
	"accesscore/internal/pkg/event"
	"accesscore/internal/pkg/logger"
)

func auditOf[E event.Event](d *event.Dispatcher, resource string) {
	event.Subscribe[E](d, "audit-log", event.HandlerFunc[E](func(ctx context.Context, e E) error {
		logger.LogAudit(e.EventName(), resource, "success", logger.CorrelationID(ctx), map[string]interface{}{
			"event_id":    e.EventID(),
			"occurred_at": logger.FormatTimestamp(e.OccurredAt()),
			"payload":     e,
		})
		return nil
	}))
}

// RegisterAudit 全部领域事件写入审计日志
func RegisterAudit(d *event.Dispatcher) {
	auditOf[model.UserCreated](d, "user")
	auditOf[model.UserProfileUpdated](d, "user")
	auditOf[model.UserPasswordChanged](d, "user")
	auditOf[model.UserStatusChanged](d, "user")
	auditOf[model.UserRoleAdded](d, "user")
	auditOf[model.UserRoleRemoved](d, "user")
	auditOf[model.UserDepartmentAdded](d, "user")
	auditOf[model.UserDepartmentRemoved](d, "user")
	auditOf[model.UserPrimaryDepartmentChanged](d, "user")
	auditOf[model.UserDeleted](d, "user")

	auditOf[model.RoleCreated](d, "role")
	auditOf[model.RoleUpdated](d, "role")
	auditOf[model.RoleParentChanged](d, "role")
	auditOf[model.RolePermissionAdded](d, "role")
	auditOf[model.RolePermissionRemoved](d, "role")
	auditOf[model.RolePermissionsBulkChanged](d, "role")
	auditOf[model.RoleMenuAdded](d, "role")
	auditOf[model.RoleMenuRemoved](d, "role")
	auditOf[model.RoleMenusBulkChanged](d, "role")
	auditOf[model.RoleDeleted](d, "role")

	auditOf[model.PermissionCreated](d, "permission")
	auditOf[model.PermissionUpdated](d, "permission")
	auditOf[model.PermissionDeleted](d, "permission")

	auditOf[model.MenuCreated](d, "menu")
	auditOf[model.MenuUpdated](d, "menu")
	auditOf[model.MenuParentChanged](d, "menu")
	auditOf[model.MenuDeleted](d, "menu")

	auditOf[model.DepartmentCreated](d, "department")
	auditOf[model.DepartmentUpdated](d, "department")
	auditOf[model.DepartmentParentChanged](d, "department")
	auditOf[model.DepartmentDeleted](d, "department")
}
