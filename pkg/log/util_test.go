package log

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestToFields(t *testing.T) {
	now := time.Now()
	boom := errors.New("boom")

	tests := []struct {
		name     string
		input    []any
		wantKeys []string
	}{
		{"empty input", []any{}, nil},
		{"string-int-bool", []any{"a", "x", "b", 123, "c", true}, []string{"a", "b", "c"}},
		{"time type", []any{"t", now}, []string{"t"}},
		{"error only", []any{boom}, []string{"error"}},
		{"zap field passthrough", []any{zap.String("x", "y"), "num", 42}, []string{"x", "num"}},
		{"odd number of args", []any{"key1", "val1", "key2"}, []string{"key1", "arg#2"}},
		{"non-string key", []any{123, "value"}, []string{"invalid_key_1"}},
		{"named error", []any{"cause", boom}, []string{"cause"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := toFields(tt.input...)

			keys := make([]string, 0, len(fields))
			for _, f := range fields {
				keys = append(keys, f.Key)
			}
			if tt.wantKeys == nil {
				assert.Empty(t, keys)
				return
			}
			assert.Equal(t, tt.wantKeys, keys)
		})
	}
}

func TestTypedField(t *testing.T) {
	assert.Equal(t, zapcore.StringType, typedField("s", "v").Type)
	assert.Equal(t, zapcore.Int64Type, typedField("i", int64(7)).Type)
	assert.Equal(t, zapcore.DurationType, typedField("d", time.Second).Type)
	assert.Equal(t, zapcore.ErrorType, typedField("e", errors.New("x")).Type)
}

func TestOptionsValidate(t *testing.T) {
	opts := NewOptions()
	assert.Empty(t, opts.Validate())

	opts.Level = "loud"
	opts.Format = "xml"
	assert.Len(t, opts.Validate(), 2)
}

func TestContextLogger(t *testing.T) {
	l := NewNopLogger().WithName("request")
	ctx := WithContext(context.Background(), l)

	require.Same(t, l, FromContext(ctx))
	assert.Same(t, Std(), FromContext(context.Background()))
}
