package logger

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/gstbook/internal/businesscontext"
	obscontext "github.com/smallbiznis/gstbook/internal/observability/context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func TestWithContextAddsCorrelationFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	base := zap.New(core)

	ctx := obscontext.WithRequestID(context.Background(), "req-1")
	ctx = businesscontext.WithBusinessID(ctx, snowflake.ID(11))
	ctx = businesscontext.WithUserID(ctx, snowflake.ID(22))

	WithContext(ctx, base).Info("hello")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "11", fields["business_id"])
	assert.Equal(t, "22", fields["user_id"])
	assert.Equal(t, "", fields["trace_id"])
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(nil, Config{Level: "loud"})
	assert.Error(t, err)
}

func TestDescribeSQL(t *testing.T) {
	cases := []struct {
		sql   string
		op    string
		table string
	}{
		{"select * from invoices", "SELECT", "invoices"},
		{"SELECT count(*) FROM `invoices` WHERE business_id = ?", "SELECT", "invoices"},
		{`INSERT INTO "invoice_items" ("id") VALUES (?)`, "INSERT", "invoice_items"},
		{"WITH x AS (select 1) UPDATE invoice_sequences SET last_value = last_value + 1", "UPDATE", "invoice_sequences"},
		{"DELETE FROM invoice_items WHERE invoice_id = ?", "DELETE", "invoice_items"},
		{"", "UNKNOWN", ""},
	}
	for _, tc := range cases {
		op, table := describeSQL(tc.sql)
		assert.Equal(t, tc.op, op, tc.sql)
		assert.Equal(t, tc.table, table, tc.sql)
	}
	assert.Equal(t, "UPDATE", operationFromSQL("update invoices set status = ?"))
}

func TestParseGormLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, ParseGormLevel("off"))
	assert.Equal(t, gormlogger.Error, ParseGormLevel("ERROR"))
	assert.Equal(t, gormlogger.Info, ParseGormLevel(" debug "))
	assert.Equal(t, gormlogger.Warn, ParseGormLevel("nonsense"))
}

func TestGormLoggerLogMode(t *testing.T) {
	l := NewGormLogger(GormLoggerConfig{Level: gormlogger.Warn})
	silent := l.LogMode(gormlogger.Silent).(*GormLogger)
	assert.Equal(t, gormlogger.Silent, silent.level)
	assert.Equal(t, gormlogger.Warn, l.level)
}

func TestGormLoggerTrace(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	l := NewGormLogger(GormLoggerConfig{Level: gormlogger.Warn, SlowThreshold: time.Second})
	query := func() (string, int64) { return "SELECT * FROM invoices WHERE id = ?", 1 }

	l.Trace(context.Background(), time.Now(), query, nil)
	assert.Equal(t, 0, logs.Len())

	l.Trace(context.Background(), time.Now(), query, gormlogger.ErrRecordNotFound)
	assert.Equal(t, 0, logs.Len())

	l.Trace(context.Background(), time.Now().Add(-2*time.Second), query, nil)
	require.Equal(t, 1, logs.Len())
	slow := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, slow.Level)
	assert.Equal(t, "invoices", slow.ContextMap()["table"])
	assert.Equal(t, true, slow.ContextMap()["slow"])

	l.Trace(context.Background(), time.Now(), query, errors.New("boom"))
	require.Equal(t, 2, logs.Len())
	failed := logs.All()[1]
	assert.Equal(t, zapcore.ErrorLevel, failed.Level)
	assert.Equal(t, "boom", failed.ContextMap()["error"])
}

func TestRequestLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, requestLevel("/health", 200, ""))
	assert.Equal(t, zapcore.ErrorLevel, requestLevel("/metrics", 500, ""))
	assert.Equal(t, zapcore.InfoLevel, requestLevel("/api/invoices", 201, ""))
	assert.Equal(t, zapcore.InfoLevel, requestLevel("/api/invoices", 400, "validation_error"))
	assert.Equal(t, zapcore.WarnLevel, requestLevel("/api/invoices/:id", 404, "not_found"))
	assert.Equal(t, zapcore.ErrorLevel, requestLevel("/api/invoices", 500, "internal_error"))
}

func TestGinMiddlewareLogsRequest(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware(MiddlewareConfig{
		ErrorClassifier: func(error) (string, string) { return "not_found", "invoice_not_found" },
	}))
	r.GET("/api/invoices/:id", func(c *gin.Context) {
		_ = c.Error(errors.New("missing"))
		c.Status(http.StatusNotFound)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/invoices/9", nil)
	req.Header.Set(HeaderRequestID, "req-9")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-9", w.Header().Get(HeaderRequestID))
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	fields := entry.ContextMap()
	assert.Equal(t, "req-9", fields["request_id"])
	assert.Equal(t, "/api/invoices/:id", fields["route"])
	assert.Equal(t, "9", fields["invoice_id"])
	assert.Equal(t, "invoice_not_found", fields["error_code"])
}
