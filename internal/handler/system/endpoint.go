/**
 * @author: sun977
 * @date: 2025.08.29
 * @description: 命令管道端点到Gin处理函数的适配，错误类别到HTTP状态码的映射
 * @func:
 * 	1.serve 绑定请求、执行端点、写响应
 * 	2.StatusOf 错误分类到状态码
 * 	3.WriteError 统一错误响应
 */
package system

import (
	"errors"
	"io"
	"net/http"

	"accesscore/internal/app/master/middleware"
	"accesscore/internal/model"
	"accesscore/internal/model/system"
	"accesscore/internal/service/pipeline"

	"github.com/gin-gonic/gin"
)

// Binder 在默认绑定之后继续填充请求
type Binder[R any] func(c *gin.Context, req *R) error

// bind 依次绑定 JSON 请求体、查询参数、路径参数，后者覆盖前者
func bind[R any](c *gin.Context, req *R) error {
	if c.Request.Method != http.MethodGet {
		if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
	}
	if c.Request.URL.RawQuery != "" {
		if err := c.ShouldBindQuery(req); err != nil {
			return err
		}
	}
	if len(c.Params) > 0 {
		if err := c.ShouldBindUri(req); err != nil {
			return err
		}
	}
	return nil
}

func serve[R pipeline.Request, T any](c *gin.Context, ep *pipeline.Endpoint[R, T], status int, binders ...Binder[R]) {
	var req R
	if err := bind(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, model.APIResponse{
			Code:    http.StatusBadRequest,
			Status:  "failed",
			Message: "invalid request body",
			Error:   err.Error(),
		})
		return
	}
	for _, b := range binders {
		if err := b(c, &req); err != nil {
			WriteError(c, err)
			return
		}
	}

	result, err := ep.Execute(c.Request.Context(), req)
	if err != nil && !system.IsPostCommit(err) {
		WriteError(c, err)
		return
	}
	resp := model.APIResponse{Code: status, Status: "success", Message: ep.Name(), Data: result}
	if err != nil {
		// 写入已生效，只提示通知失败
		resp.Message = system.PublicMessage(err)
	}
	c.JSON(status, resp)
}

// StatusOf 错误分类对应的HTTP状态码
func StatusOf(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case system.IsValidationError(err):
		return http.StatusBadRequest
	case system.IsNotFound(err):
		return http.StatusNotFound
	case system.IsBusinessRule(err, ""):
		return http.StatusConflict
	case errors.Is(err, system.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, system.ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// WriteError 统一错误响应，内部错误只返回概要信息
func WriteError(c *gin.Context, err error) {
	status := StatusOf(err)
	resp := model.APIResponse{Code: status, Status: "failed", Message: system.PublicMessage(err)}
	var verr *system.ValidationError
	if errors.As(err, &verr) {
		resp.Message = "validation failed"
		resp.Errors = verr.Failures
	}
	var rule *system.BusinessRuleError
	if errors.As(err, &rule) {
		resp.Error = rule.Rule
	}
	if status == http.StatusForbidden || status == http.StatusUnauthorized {
		resp.Message = err.Error()
	}
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, resp)
}

// self 把路径中的用户替换为当前登录用户
func self(c *gin.Context) (uint64, error) {
	id, ok := middleware.CurrentUserID(c)
	if !ok {
		return 0, system.ErrUnauthorized
	}
	return id, nil
}
