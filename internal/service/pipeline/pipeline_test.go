package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"accesscore/internal/model/system"
	"accesscore/internal/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeUoW 记录事务调用次数
type fakeUoW struct {
	active    bool
	begins    int
	commits   int
	rollbacks int
	commitErr error
}

func (f *fakeUoW) InTransaction() bool { return f.active }

func (f *fakeUoW) BeginTransaction(ctx context.Context) error {
	if f.active {
		return nil
	}
	f.active = true
	f.begins++
	return nil
}

func (f *fakeUoW) Commit(ctx context.Context) error {
	f.active = false
	f.commits++
	return f.commitErr
}

func (f *fakeUoW) Rollback() error {
	f.active = false
	f.rollbacks++
	return nil
}

type uowKey struct{}

// provider 与真实实现一致：上下文里已有时复用
func provider(u *fakeUoW) UnitOfWorkProvider {
	return func(ctx context.Context) (context.Context, UnitOfWork) {
		if existing, ok := ctx.Value(uowKey{}).(*fakeUoW); ok {
			return ctx, existing
		}
		return context.WithValue(ctx, uowKey{}, u), u
	}
}

type createThing struct {
	Command
	Name  string `json:"name" validate:"required,max=8"`
	Email string `json:"email" validate:"omitempty,email"`
}

type getThing struct {
	Query
	ID uint64 `json:"id" validate:"required"`
}

func capture(t *testing.T) *test.Hook {
	t.Helper()
	l, hook := test.NewNullLogger()
	l.SetLevel(logrus.DebugLevel)
	logger.Use(l)
	t.Cleanup(func() { logger.LoggerInstance = nil })
	return hook
}

func messages(hook *test.Hook) []string {
	var out []string
	for _, e := range hook.AllEntries() {
		out = append(out, e.Message)
	}
	return out
}

func TestValidationFailureNeverOpensTransaction(t *testing.T) {
	hook := capture(t)
	u := &fakeUoW{}
	p := New(provider(u), nil)
	called := false
	ep := Register(p, "CreateThing", func(ctx context.Context, req createThing) (uint64, error) {
		called = true
		return 1, nil
	})

	_, err := ep.Execute(context.Background(), createThing{Name: "far-too-long-name", Email: "nope"})
	require.Error(t, err)

	var verr *system.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ElementsMatch(t, []system.FieldFailure{
		{Field: "name", Message: "must be at most 8"},
		{Field: "email", Message: "must be a valid email"},
	}, verr.Failures)
	assert.False(t, called)
	assert.Equal(t, 0, u.begins)

	assert.Equal(t, []string{"request validation failed"}, messages(hook))
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "invalid", hook.LastEntry().Data["result"])
}

func TestCustomValidatorsAreMerged(t *testing.T) {
	capture(t)
	u := &fakeUoW{}
	p := New(provider(u), nil)
	ep := Register(p, "CreateThing", func(ctx context.Context, req createThing) (uint64, error) { return 1, nil },
		func(ctx context.Context, req createThing) []system.FieldFailure {
			if req.Name == "admin" {
				return []system.FieldFailure{{Field: "name", Message: "is reserved"}}
			}
			return nil
		})

	_, err := ep.Execute(context.Background(), createThing{Name: "admin"})
	assert.True(t, system.IsValidationError(err))
	assert.Contains(t, err.Error(), "name: is reserved")
	assert.Equal(t, 0, u.begins)

	id, err := ep.Execute(context.Background(), createThing{Name: "ok"})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)
	assert.Equal(t, 1, u.commits)
}

func TestCommandCommitsAndLogs(t *testing.T) {
	hook := capture(t)
	u := &fakeUoW{}
	metrics := NewMetrics(prometheus.NewRegistry())
	p := New(provider(u), metrics)
	var seenCID string
	ep := Register(p, "CreateThing", func(ctx context.Context, req createThing) (string, error) {
		assert.True(t, u.InTransaction())
		seenCID = logger.CorrelationID(ctx)
		return "done", nil
	})

	res, err := ep.Execute(context.Background(), createThing{Name: "x"})
	require.NoError(t, err)
	assert.Equal(t, "done", res)
	assert.Equal(t, 1, u.begins)
	assert.Equal(t, 1, u.commits)
	assert.Equal(t, 0, u.rollbacks)
	assert.NotEmpty(t, seenCID)

	assert.Equal(t, []string{"request started", "request payload", "request completed"}, messages(hook))
	for _, e := range hook.AllEntries() {
		assert.Equal(t, seenCID, e.Data["correlation_id"])
	}
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.Requests.WithLabelValues("CreateThing", "command", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.Transactions.WithLabelValues("committed")))
}

func TestHandlerErrorRollsBackAndPassesThrough(t *testing.T) {
	hook := capture(t)
	u := &fakeUoW{}
	p := New(provider(u), nil)
	boom := system.NewBusinessRuleError(system.RuleHierarchyCycle, "role 1 would close a cycle")
	ep := Register(p, "CreateThing", func(ctx context.Context, req createThing) (int, error) {
		return 7, boom
	})

	res, err := ep.Execute(context.Background(), createThing{Name: "x"})
	assert.Same(t, boom, err, "logging stage must not transform errors")
	assert.Zero(t, res)
	assert.Equal(t, 1, u.rollbacks)
	assert.Equal(t, 0, u.commits)
	assert.Equal(t, "request rejected", hook.LastEntry().Message)
}

func TestQueryBypassesTransaction(t *testing.T) {
	capture(t)
	u := &fakeUoW{}
	p := New(provider(u), nil)
	ep := Register(p, "GetThing", func(ctx context.Context, req getThing) (uint64, error) {
		return req.ID * 2, nil
	})

	res, err := ep.Execute(context.Background(), getThing{ID: 21})
	require.NoError(t, err)
	assert.Equal(t, uint64(42), res)
	assert.Equal(t, 0, u.begins)
}

func TestNestedCommandJoinsAmbientTransaction(t *testing.T) {
	capture(t)
	u := &fakeUoW{}
	p := New(provider(u), nil)
	inner := Register(p, "Inner", func(ctx context.Context, req createThing) (int, error) { return 1, nil })
	outer := Register(p, "Outer", func(ctx context.Context, req createThing) (int, error) {
		n, err := inner.Execute(ctx, createThing{Name: "inner"})
		return n + 1, err
	})

	res, err := outer.Execute(context.Background(), createThing{Name: "outer"})
	require.NoError(t, err)
	assert.Equal(t, 2, res)
	assert.Equal(t, 1, u.begins)
	assert.Equal(t, 1, u.commits)
}

func TestPostCommitFailureKeepsResult(t *testing.T) {
	hook := capture(t)
	u := &fakeUoW{commitErr: system.NewDispatchError("RoleDeleted", errors.New("subscriber down"))}
	p := New(provider(u), nil)
	ep := Register(p, "CreateThing", func(ctx context.Context, req createThing) (uint64, error) { return 5, nil })

	res, err := ep.Execute(context.Background(), createThing{Name: "x"})
	require.Error(t, err)
	assert.True(t, system.IsPostCommit(err))
	assert.Equal(t, uint64(5), res)
	assert.Equal(t, 0, u.rollbacks)
	assert.Equal(t, "request committed but event dispatch failed", hook.LastEntry().Message)
	assert.Equal(t, logger.ErrorLog, hook.LastEntry().Data["type"])
}

func TestPanicRollsBack(t *testing.T) {
	capture(t)
	u := &fakeUoW{}
	p := New(provider(u), nil)
	ep := Register(p, "CreateThing", func(ctx context.Context, req createThing) (int, error) { panic("kaboom") })

	assert.PanicsWithValue(t, "kaboom", func() { _, _ = ep.Execute(context.Background(), createThing{Name: "x"}) })
	assert.Equal(t, 1, u.rollbacks)
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	p := New(nil, nil)
	Register(p, "GetThing", func(ctx context.Context, req getThing) (int, error) { return 0, nil })
	assert.Panics(t, func() {
		Register(p, "GetThing", func(ctx context.Context, req getThing) (int, error) { return 0, nil })
	})
	assert.Equal(t, []string{"GetThing"}, p.Names())
}

func TestCommandWithoutProviderFails(t *testing.T) {
	capture(t)
	p := New(nil, nil)
	ep := Register(p, "CreateThing", func(ctx context.Context, req createThing) (int, error) { return 1, nil })
	_, err := ep.Execute(context.Background(), createThing{Name: "x"})
	assert.True(t, system.IsInternal(err))
}

func TestKindMarkers(t *testing.T) {
	assert.Equal(t, KindCommand, createThing{}.Kind())
	assert.Equal(t, KindQuery, getThing{}.Kind())
	assert.Equal(t, KindQuery, kindOf((*getThing)(nil)))
	assert.Equal(t, "query", KindQuery.String())
}

type setSecret struct {
	Command
	Name   string `json:"name" validate:"required"`
	Secret string `json:"secret" log:"-"`
	Hint   string `json:"hint" log:"-"`
}

func TestPayloadRedactsTaggedFields(t *testing.T) {
	hook := capture(t)
	p := New(provider(&fakeUoW{}), nil)
	ep := Register(p, "SetSecret", func(ctx context.Context, req setSecret) (bool, error) { return true, nil })

	_, err := ep.Execute(context.Background(), setSecret{Name: "db", Secret: "hunter2-Pa55"})
	require.NoError(t, err)

	var payload map[string]interface{}
	for _, e := range hook.AllEntries() {
		assert.NotContains(t, fmt.Sprint(e.Data), "hunter2-Pa55")
		if e.Message == "request payload" {
			payload, _ = e.Data["payload"].(map[string]interface{})
		}
	}
	require.NotNil(t, payload)
	assert.Equal(t, "db", payload["Name"])
	assert.Equal(t, redactedValue, payload["Secret"])
	assert.NotContains(t, payload, "Hint")
}
