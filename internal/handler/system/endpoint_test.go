package system

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"accesscore/internal/model"
	"accesscore/internal/model/system"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", system.NewValidationError(system.FieldFailure{Field: "email", Message: "invalid"}), http.StatusBadRequest},
		{"not found", system.NewNotFoundError("user", 7), http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("load: %w", system.NewNotFoundError("role", 1)), http.StatusNotFound},
		{"business rule", system.NewBusinessRuleError(system.RuleHierarchyCycle, "cycle"), http.StatusConflict},
		{"permission denied", system.ErrPermissionDenied, http.StatusForbidden},
		{"unauthorized", system.ErrUnauthorized, http.StatusUnauthorized},
		{"internal", system.NewInternalError("save", errors.New("disk full")), http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StatusOf(tc.err))
		})
	}
}

func writeErrorResponse(t *testing.T, err error) (*httptest.ResponseRecorder, model.APIResponse) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	WriteError(c, err)

	var resp model.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func TestWriteErrorValidation(t *testing.T) {
	w, resp := writeErrorResponse(t, system.NewValidationError(
		system.FieldFailure{Field: "email", Message: "invalid"},
		system.FieldFailure{Field: "password", Message: "too short"},
	))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "failed", resp.Status)
	assert.Equal(t, "validation failed", resp.Message)
	assert.Len(t, resp.Errors, 2)
}

func TestWriteErrorBusinessRule(t *testing.T) {
	w, resp := writeErrorResponse(t, system.NewBusinessRuleError(system.RuleRoleInUse, "role %s is in use", "ops"))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, system.RuleRoleInUse, resp.Error)
}

func TestWriteErrorHidesInternalDetail(t *testing.T) {
	w, resp := writeErrorResponse(t, system.NewInternalError("save user", errors.New("dial tcp 10.0.0.5:3306: refused")))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, resp.Message, "10.0.0.5")
}
