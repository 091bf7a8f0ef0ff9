package cli

import (
	"bytes"
	"context"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"
)

func TestSetupLoggerFormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := setupLogger(&buf, "api", "warn", "json")

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line logged at warn level: %s", out)
	}
	if !strings.Contains(out, `"msg":"shown"`) || !strings.Contains(out, `"component":"api"`) {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestGracefulShutdownRunsCleanup(t *testing.T) {
	sig := make(chan os.Signal, 1)
	cleaned := make(chan struct{})
	ctx, done := gracefulShutdown(setupLogger(&bytes.Buffer{}, "test", "", ""), time.Second, sig, func(context.Context) {
		close(cleaned)
	})

	sig <- syscall.SIGTERM
	WaitForShutdown(ctx, done)

	select {
	case <-cleaned:
	default:
		t.Fatal("cleanup did not run")
	}
	if ctx.Err() == nil {
		t.Error("context not cancelled")
	}
}

func TestGracefulShutdownTimeout(t *testing.T) {
	sig := make(chan os.Signal, 1)
	block := make(chan struct{})
	defer close(block)
	ctx, done := gracefulShutdown(setupLogger(&bytes.Buffer{}, "test", "", ""), 20*time.Millisecond, sig, func(context.Context) {
		<-block
	})

	sig <- syscall.SIGINT
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("shutdown did not give up after the timeout")
	}
	if ctx.Err() == nil {
		t.Error("context not cancelled")
	}
}
