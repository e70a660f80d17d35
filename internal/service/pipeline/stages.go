package pipeline

import (
	"context"
	"errors"
	"time"

	"accesscore/internal/model/system"
	"accesscore/internal/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	resultSuccess    = "success"
	resultInvalid    = "invalid"
	resultRejected   = "rejected"
	resultFailed     = "failed"
	resultPostCommit = "post_commit_failed"
)

// validationStage 结构体标签校验 + 自定义校验，全部失败项合并后返回
func (e *Endpoint[R, T]) validationStage(next Handler[R, T]) Handler[R, T] {
	return func(ctx context.Context, req R) (T, error) {
		var zero T
		failures, err := e.collectFailures(ctx, req)
		if err != nil {
			return zero, err
		}
		if len(failures) == 0 {
			return next(ctx, req)
		}

		verr := system.NewValidationError(failures...)
		e.pipeline.metrics.Requests.WithLabelValues(e.name, req.Kind().String(), resultInvalid).Inc()
		logger.WithFields(logrus.Fields{
			"type":           logger.BusinessLog,
			"request":        e.name,
			"kind":           req.Kind().String(),
			"correlation_id": logger.CorrelationID(ctx),
			"result":         resultInvalid,
			"failures":       len(failures),
			"error":          verr.Error(),
		}).Warn("request validation failed")
		return zero, verr
	}
}

func (e *Endpoint[R, T]) collectFailures(ctx context.Context, req R) ([]system.FieldFailure, error) {
	var failures []system.FieldFailure
	if err := e.pipeline.validate.StructCtx(ctx, req); err != nil {
		var fieldErrs validator.ValidationErrors
		var invalid *validator.InvalidValidationError
		switch {
		case errors.As(err, &fieldErrs):
			for _, fe := range fieldErrs {
				failures = append(failures, system.FieldFailure{Field: fe.Field(), Message: describe(fe)})
			}
		case errors.As(err, &invalid):
			// 非结构体请求不做标签校验
		default:
			return nil, system.NewInternalError("validate "+e.name, err)
		}
	}
	for _, v := range e.validators {
		failures = append(failures, v(ctx, req)...)
	}
	return failures, nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of [" + fe.Param() + "]"
	default:
		if fe.Param() != "" {
			return "failed " + fe.Tag() + "=" + fe.Param()
		}
		return "failed " + fe.Tag()
	}
}

// loggingStage 记录开始与结束；错误原样返回
func (e *Endpoint[R, T]) loggingStage(next Handler[R, T]) Handler[R, T] {
	return func(ctx context.Context, req R) (T, error) {
		cid := logger.CorrelationID(ctx)
		if cid == "" {
			cid = uuid.NewString()
			ctx = logger.WithCorrelationID(ctx, cid)
		}
		kind := req.Kind().String()
		fields := logrus.Fields{
			"type":           logger.BusinessLog,
			"request":        e.name,
			"kind":           kind,
			"correlation_id": cid,
		}
		logger.WithFields(fields).Info("request started")
		logger.WithFields(fields).WithField("payload", payloadFields(req)).Debug("request payload")

		start := time.Now()
		res, err := next(ctx, req)
		elapsed := time.Since(start)
		e.pipeline.metrics.Duration.WithLabelValues(e.name, kind).Observe(elapsed.Seconds())

		entry := logger.WithFields(fields).WithField("duration_ms", elapsed.Milliseconds())
		switch {
		case err == nil:
			e.pipeline.metrics.Requests.WithLabelValues(e.name, kind, resultSuccess).Inc()
			entry.WithField("result", resultSuccess).Info("request completed")
		case system.IsPostCommit(err):
			e.pipeline.metrics.Requests.WithLabelValues(e.name, kind, resultPostCommit).Inc()
			entry.WithFields(logrus.Fields{"type": logger.ErrorLog, "result": resultPostCommit, "error": err.Error()}).
				Error("request committed but event dispatch failed")
		case system.IsClientError(err):
			e.pipeline.metrics.Requests.WithLabelValues(e.name, kind, resultRejected).Inc()
			entry.WithFields(logrus.Fields{"result": resultRejected, "error": err.Error()}).Warn("request rejected")
		default:
			e.pipeline.metrics.Requests.WithLabelValues(e.name, kind, resultFailed).Inc()
			entry.WithFields(logrus.Fields{"type": logger.ErrorLog, "result": resultFailed, "error": err.Error()}).
				Error("request failed")
		}
		return res, err
	}
}

// transactionStage Query 直接透传；Command 开启事务，已有外层事务时加入外层事务
func (e *Endpoint[R, T]) transactionStage(next Handler[R, T]) Handler[R, T] {
	return func(ctx context.Context, req R) (res T, err error) {
		if req.Kind() != KindCommand {
			return next(ctx, req)
		}
		var zero T
		if e.pipeline.provider == nil {
			return zero, system.NewInternalError(e.name, errors.New("no unit of work provider"))
		}
		ctx, uow := e.pipeline.provider(ctx)
		if uow.InTransaction() {
			e.pipeline.metrics.Transactions.WithLabelValues("joined").Inc()
			return next(ctx, req)
		}
		if err := uow.BeginTransaction(ctx); err != nil {
			return zero, err
		}

		defer func() {
			if p := recover(); p != nil {
				e.rollback(ctx, uow)
				panic(p)
			}
		}()

		res, err = next(ctx, req)
		if err != nil {
			e.rollback(ctx, uow)
			return zero, err
		}

		if err := uow.Commit(ctx); err != nil {
			if system.IsPostCommit(err) {
				e.pipeline.metrics.Transactions.WithLabelValues("dispatch_failed").Inc()
				return res, err
			}
			e.pipeline.metrics.Transactions.WithLabelValues("rolled_back").Inc()
			return zero, err
		}
		e.pipeline.metrics.Transactions.WithLabelValues("committed").Inc()
		return res, nil
	}
}

func (e *Endpoint[R, T]) rollback(ctx context.Context, uow UnitOfWork) {
	e.pipeline.metrics.Transactions.WithLabelValues("rolled_back").Inc()
	if err := uow.Rollback(); err != nil {
		logger.WithFields(logrus.Fields{
			"type":           logger.ErrorLog,
			"request":        e.name,
			"correlation_id": logger.CorrelationID(ctx),
			"error":          err.Error(),
		}).Error("transaction rollback failed")
	}
}
