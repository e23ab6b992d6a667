package logging

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	kiterrors "github.com/c0deZ3R0/go-merge-kit/errors"
)

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		level   string
		enabled slog.Level
		muted   slog.Level
	}{
		{"debug", slog.LevelDebug, slog.LevelDebug - 4},
		{"info", slog.LevelInfo, slog.LevelDebug},
		{"warn", slog.LevelWarn, slog.LevelInfo},
		{"error", slog.LevelError, slog.LevelWarn},
		{"bogus", slog.LevelInfo, slog.LevelDebug},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger := NewLogger(Config{Level: tt.level, Format: "json"})
			ctx := context.Background()
			if !logger.Enabled(ctx, tt.enabled) {
				t.Errorf("level %q should enable %v", tt.level, tt.enabled)
			}
			if logger.Enabled(ctx, tt.muted) {
				t.Errorf("level %q should mute %v", tt.level, tt.muted)
			}
		})
	}
}

func TestLogger_WithOperationAndComponent(t *testing.T) {
	logger := NewLogger(Config{Level: "info", Format: "json"})

	child := logger.WithOperation(Operation("merge")).WithComponent(Component("merger"))
	if child == nil || child.Logger == nil {
		t.Fatal("expected a usable child logger")
	}
	// Child loggers share the parent's handler configuration.
	if !child.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("child logger lost the configured level")
	}
}

func TestOperationAndComponentLogValues(t *testing.T) {
	if got := Operation("merge").LogValue().String(); got != "merge" {
		t.Errorf("unexpected operation value %q", got)
	}
	if got := Component("registry").LogValue().String(); got != "registry" {
		t.Errorf("unexpected component value %q", got)
	}
}

func TestMergeErrorValuer(t *testing.T) {
	mergeErr := &kiterrors.MergeError{
		Op:        kiterrors.OpResolve,
		Component: "registry",
		Code:      kiterrors.ErrCodeConflictFailure,
		Err:       errors.New("boom"),
		Metadata:  map[string]interface{}{"conflict_id": "conflict-1"},
	}

	value := MergeErrorValuer{MergeError: mergeErr}.LogValue()
	if value.Kind() != slog.KindGroup {
		t.Fatalf("expected a group value, got %v", value.Kind())
	}

	attrs := map[string]bool{}
	for _, attr := range value.Group() {
		attrs[attr.Key] = true
	}
	for _, key := range []string{"operation", "component", "code", "retryable", "error", "metadata"} {
		if !attrs[key] {
			t.Errorf("missing %q attribute in %v", key, value)
		}
	}
}

func TestLogOperation(t *testing.T) {
	logger := NewLogger(Config{Level: "debug", Format: "json"})
	ctx := context.Background()

	if err := logger.LogOperation(ctx, Operation("detect"), Component("registry"), func() error {
		return nil
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantErr := errors.New("failed")
	if err := logger.LogOperation(ctx, Operation("detect"), Component("registry"), func() error {
		return wantErr
	}); !errors.Is(err, wantErr) {
		t.Fatalf("expected the callback error back, got %v", err)
	}
}

func TestDefault_Initializes(t *testing.T) {
	defaultLogger = nil
	if Default() == nil {
		t.Fatal("expected Default to initialize a logger")
	}
}
