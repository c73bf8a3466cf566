package gv

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/gogpu/gv/backend/recording"
)

func TestLoggerDefaultSilent(t *testing.T) {
	l := Logger()
	if l == nil {
		t.Fatal("Logger() returned nil")
	}
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn} {
		if l.Enabled(context.Background(), level) {
			t.Errorf("default logger enabled for %v", level)
		}
	}
}

func TestSetLogger(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	r, err := NewRenderer(recording.New())
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	ctx, err := r.BeginFrame(10, 10)
	if err != nil {
		t.Fatal(err)
	}
	_ = ctx.Fill(square(0, 0, 5), SolidPaint(Red))
	if err := ctx.EndFrame(); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"renderer created", "frame submitted"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

type loggingBackend struct {
	*recording.Backend
	logger *slog.Logger
}

func (b *loggingBackend) SetLogger(l *slog.Logger) { b.logger = l }

func TestSetLoggerReachesBackends(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	b := &loggingBackend{Backend: recording.New()}
	r, err := NewRenderer(b)
	if err != nil {
		t.Fatal(err)
	}
	custom := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	SetLogger(custom)
	if b.logger != custom {
		t.Error("SetLogger did not reach the backend of an open renderer")
	}
	r.Close()

	SetLogger(nil)
	if b.logger != custom {
		t.Error("closed renderer's backend still receives loggers")
	}
	if Logger().Enabled(context.Background(), slog.LevelError) {
		t.Error("SetLogger(nil) did not restore the silent logger")
	}
}
