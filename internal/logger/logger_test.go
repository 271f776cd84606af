package logger

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func TestResolveLogFilePathUsesWorkdirLogs(t *testing.T) {
	tmp := t.TempDir()
	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(oldWD) })
	if err := os.Chdir(tmp); err != nil {
		t.Fatalf("chdir: %v", err)
	}

	got, err := resolveLogFilePath(Options{})
	if err != nil {
		t.Fatalf("resolve path: %v", err)
	}
	if filepath.Base(got) != defaultFilename {
		t.Fatalf("unexpected filename: %s", got)
	}
	realTmp, _ := filepath.EvalSymlinks(tmp)
	realDir, _ := filepath.EvalSymlinks(filepath.Dir(got))
	if realDir != filepath.Join(realTmp, defaultDir) {
		t.Fatalf("unexpected dir: %s", realDir)
	}
}

func TestResolveLogFilePathCustom(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")
	got, err := resolveLogFilePath(Options{Dir: dir, Filename: "ingest.log"})
	if err != nil {
		t.Fatalf("resolve path: %v", err)
	}
	if got != filepath.Join(dir, "ingest.log") {
		t.Fatalf("unexpected path: %s", got)
	}
	if _, err := os.Stat(got); err != nil {
		t.Fatalf("log file not created: %v", err)
	}
}

func TestResolveLevel(t *testing.T) {
	cases := []struct {
		raw   string
		debug bool
		want  zap.AtomicLevel
	}{
		{"", true, zap.NewAtomicLevelAt(zap.DebugLevel)},
		{"", false, zap.NewAtomicLevelAt(zap.InfoLevel)},
		{"warn", true, zap.NewAtomicLevelAt(zap.WarnLevel)},
		{"bogus", false, zap.NewAtomicLevelAt(zap.InfoLevel)},
	}
	for _, tc := range cases {
		got := resolveLevel(tc.raw, tc.debug)
		if got.Level() != tc.want.Level() {
			t.Fatalf("resolveLevel(%q,%v)=%s want %s", tc.raw, tc.debug, got.Level(), tc.want.Level())
		}
	}
}

func TestZFallsBackBeforeInit(t *testing.T) {
	if Z() == nil {
		t.Fatalf("expected fallback logger")
	}
	Init("debug", Options{})
	if Z() == nil {
		t.Fatalf("expected initialized logger")
	}
}

func TestStaticFieldsSortedAndFiltered(t *testing.T) {
	fields := staticFields(map[string]string{"mode": "worker", "app": "earnko", "empty": " ", "": "x"})
	if len(fields) != 2 || fields[0].Key != "app" || fields[1].Key != "mode" {
		t.Fatalf("unexpected fields %+v", fields)
	}
}
