package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestInitLogger_File(t *testing.T) {
	defer func() { Logger = zap.NewNop() }()

	path := filepath.Join(t.TempDir(), "transfer.log")
	if err := InitLogger(path, "info"); err != nil {
		t.Fatalf("InitLogger: %v", err)
	}

	Logger.Debug("hidden below level")
	Logger.Info("state changed", zap.String("state", "Confirmed"))
	Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `"state":"Confirmed"`) {
		t.Fatalf("expected structured field in log, got: %s", out)
	}
	if !strings.Contains(out, `"time":`) {
		t.Fatalf("expected time key in log, got: %s", out)
	}
	if strings.Contains(out, "hidden below level") {
		t.Fatalf("debug entry should be filtered at info level: %s", out)
	}
}

func TestInitLogger_BadLevel(t *testing.T) {
	if err := InitLogger("", "loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
