package system

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorClassification(t *testing.T) {
	validation := NewValidationError(FieldFailure{Field: "code", Message: "required"}, FieldFailure{Field: "name", Message: "too long"})
	assert.True(t, IsValidationError(validation))
	assert.Equal(t, "validation failed: code: required; name: too long", validation.Error())

	notFound := fmt.Errorf("load: %w", NewNotFoundError("role", uint64(9)))
	assert.True(t, IsNotFound(notFound))
	assert.Equal(t, "load: role 9 not found", notFound.Error())

	rule := NewBusinessRuleError(RuleHierarchyCycle, "role %d closes a cycle", 3)
	assert.True(t, IsBusinessRule(rule, ""))
	assert.True(t, IsBusinessRule(rule, RuleHierarchyCycle))
	assert.False(t, IsBusinessRule(rule, RuleRoleInUse))

	internal := NewInternalError("resolve", errors.New("db down"))
	assert.True(t, IsInternal(internal))
	assert.False(t, IsClientError(internal))

	dispatch := NewDispatchError("RoleCreated", errors.New("subscriber failed"))
	assert.True(t, IsPostCommit(dispatch))
	assert.False(t, IsInternal(dispatch))
}

func TestPublicMessage(t *testing.T) {
	assert.Equal(t, "", PublicMessage(nil))
	assert.Equal(t, "内部错误", PublicMessage(NewInternalError("save", errors.New("dsn=root:pw@tcp"))))
	assert.Equal(t, "role 1 not found", PublicMessage(NewNotFoundError("role", 1)))
	assert.Equal(t, "操作已生效，但部分通知未送达", PublicMessage(NewDispatchError("X", errors.New("y"))))
}
