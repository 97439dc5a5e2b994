package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHandler_RedactsSensitiveKeys(t *testing.T) {
	// Given: Production JSON handler
	var buf bytes.Buffer
	log := slog.New(newHandler("prod", &buf))

	// When: Logging a credential next to a regular field
	log.Info("신청 접수", "session_token", "abc.def", "Password", "secret", "letter_id", 3)

	// Then: Credentials are replaced, other fields kept
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "[REDACTED]", line["session_token"])
	assert.Equal(t, "[REDACTED]", line["Password"])
	assert.EqualValues(t, 3, line["letter_id"])
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(newHandler("local", &buf))
	t.Cleanup(func() { level.Set(slog.LevelInfo) })

	// Given: Local env logs debug
	log.Debug("디버그")
	assert.Contains(t, buf.String(), "디버그")

	// When: Raising the level
	require.NoError(t, SetLevel("warn"))
	buf.Reset()
	log.Info("정보")

	// Then: Info is dropped
	assert.Empty(t, buf.String())
	assert.Error(t, SetLevel("loud"))
	assert.NoError(t, SetLevel(""))
}

func TestWith_BindsAttributes(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))
	ctx := WithLogger(context.Background(), base)

	// When: Binding member_id once
	ctx = With(ctx, "member_id", "7")
	FromContext(ctx).Info("조회")

	// Then: Later lines carry it
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "7", line["member_id"])
	assert.Same(t, slog.Default(), FromContext(context.Background()))
}
