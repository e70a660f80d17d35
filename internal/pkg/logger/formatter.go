// 结构化日志辅助函数
package logger

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// FormatTimestamp 格式化时间戳为统一的毫秒精度格式
func FormatTimestamp(t time.Time) string {
	return t.Format(timestampFormat)
}

// NowFormatted 返回当前时间的格式化字符串
func NowFormatted() string {
	return FormatTimestamp(time.Now())
}

// LogType 日志类型枚举
type LogType string

const (
	// AccessLog 访问日志 - 记录HTTP请求
	AccessLog LogType = "access"
	// BusinessLog 业务日志 - 记录命令执行结果
	BusinessLog LogType = "business"
	// ErrorLog 错误日志 - 记录系统错误和异常
	ErrorLog LogType = "error"
	// SystemLog 系统日志 - 记录系统运行状态
	SystemLog LogType = "system"
	// AuditLog 审计日志 - 记录已提交的领域事件和授权决策
	AuditLog LogType = "audit"
)

// withExtra 合并额外字段
func withExtra(fields logrus.Fields, extra map[string]interface{}) logrus.Fields {
	for k, v := range extra {
		fields[k] = v
	}
	return fields
}

// LogAccessRequest 记录HTTP访问日志
func LogAccessRequest(c *gin.Context, startTime time.Time, userID uint64) {
	base().WithFields(logrus.Fields{
		"type":          AccessLog,
		"method":        c.Request.Method,
		"path":          c.Request.URL.Path,
		"query":         c.Request.URL.RawQuery,
		"status_code":   c.Writer.Status(),
		"response_time": time.Since(startTime).Milliseconds(),
		"client_ip":     c.ClientIP(),
		"user_agent":    c.Request.UserAgent(),
		"user_id":       userID,
	}).Info("HTTP request processed")
}

// LogBusinessOperation 记录业务操作日志
// result 为 success 时记 Info，否则记 Warn
func LogBusinessOperation(operation string, userID uint64, correlationID, result, message string, extraFields map[string]interface{}) {
	fields := withExtra(logrus.Fields{
		"type":           BusinessLog,
		"operation":      operation,
		"user_id":        userID,
		"correlation_id": correlationID,
		"result":         result,
		"message":        message,
	}, extraFields)

	if result == "success" {
		base().WithFields(fields).Info(fmt.Sprintf("Business operation: %s", operation))
	} else {
		base().WithFields(fields).Warn(fmt.Sprintf("Business operation failed: %s", operation))
	}
}

// LogBusinessError 记录业务失败(客户端可见的错误，如校验失败、业务规则冲突)
func LogBusinessError(err error, operation, correlationID, result string, extraFields map[string]interface{}) {
	if err == nil {
		return
	}
	fields := withExtra(logrus.Fields{
		"type":           BusinessLog,
		"operation":      operation,
		"correlation_id": correlationID,
		"result":         result,
		"error":          err.Error(),
	}, extraFields)
	base().WithFields(fields).Warn(fmt.Sprintf("Business operation failed: %s", operation))
}

// LogError 记录错误日志
func LogError(err error, correlationID string, userID uint64, operation string, extraFields map[string]interface{}) {
	if err == nil {
		return
	}
	fields := withExtra(logrus.Fields{
		"type":           ErrorLog,
		"error":          err.Error(),
		"correlation_id": correlationID,
		"user_id":        userID,
		"operation":      operation,
	}, extraFields)
	base().WithFields(fields).Errorf("System error occurred: %s", err.Error())
}

// LogSystemEvent 记录系统事件日志(启动、关闭、组件状态)
func LogSystemEvent(component, event, message string, level logrus.Level, extraFields map[string]interface{}) {
	fields := withExtra(logrus.Fields{
		"type":      SystemLog,
		"component": component,
		"event":     event,
		"message":   message,
	}, extraFields)
	base().WithFields(fields).Log(level, fmt.Sprintf("System event: %s - %s", component, event))
}

// LogAudit 记录审计日志
func LogAudit(action, resource, result, correlationID string, extraFields map[string]interface{}) {
	fields := withExtra(logrus.Fields{
		"type":           AuditLog,
		"action":         action,
		"resource":       resource,
		"result":         result,
		"correlation_id": correlationID,
	}, extraFields)
	base().WithFields(fields).Info(fmt.Sprintf("Audit: %s on %s", action, resource))
}
