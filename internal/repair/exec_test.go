package repair

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/communityambulance/mtrepair/internal/core/config"
	"github.com/communityambulance/mtrepair/internal/core/domain"
)

// writeHelper drops a shell script standing in for the repair helper.
func writeHelper(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("script helper requires a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "helper.sh")
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExecProvider_Success(t *testing.T) {
	helper := writeHelper(t, `[ "$1" = "clear-reftables" ] || exit 2`)
	p := NewExecProvider(config.RepairConfig{HelperPath: helper, SpawnRetries: 1}, nil)

	if err := p.Attempt(context.Background(), domain.KindReferenceTableCorrupt); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
}

func TestExecProvider_PassesExtraArgs(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "seen-args")
	helper := writeHelper(t, `echo "$@" > `+marker)
	p := NewExecProvider(config.RepairConfig{
		HelperPath:   helper,
		ExtraArgs:    []string{"--quiet"},
		SpawnRetries: 1,
	}, nil)

	if err := p.Attempt(context.Background(), domain.KindCorruptSchema); err != nil {
		t.Fatalf("attempt: %v", err)
	}
	data, err := os.ReadFile(marker)
	if err != nil {
		t.Fatal(err)
	}
	got := strings.TrimSpace(string(data))
	if got != "hard-reset --quiet" {
		t.Errorf("unexpected helper args: %q", got)
	}
}

func TestExecProvider_FailureCarriesStderr(t *testing.T) {
	helper := writeHelper(t, `echo "device record locked" >&2; exit 1`)
	p := NewExecProvider(config.RepairConfig{HelperPath: helper, SpawnRetries: 1}, nil)

	err := p.Attempt(context.Background(), domain.KindDeviceInfoInvalid)
	if err == nil {
		t.Fatal("expected failure")
	}
	if !strings.Contains(err.Error(), "device record locked") {
		t.Errorf("expected stderr in reason, got %v", err)
	}
}

func TestExecProvider_Timeout(t *testing.T) {
	helper := writeHelper(t, `sleep 5`)
	p := NewExecProvider(config.RepairConfig{HelperPath: helper, SpawnRetries: 1}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := p.Attempt(ctx, domain.KindStoresNotCorrectlySetUp)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Errorf("expected timeout reason, got %v", err)
	}
}

func TestExecProvider_MissingHelper(t *testing.T) {
	p := NewExecProvider(config.RepairConfig{
		HelperPath:   filepath.Join(t.TempDir(), "no-such-helper"),
		SpawnRetries: 1,
	}, nil)

	if err := p.Attempt(context.Background(), domain.KindReferenceTableCorrupt); err == nil {
		t.Fatal("expected error for missing helper binary")
	}
}

func TestExecProvider_UnknownRepairClass(t *testing.T) {
	p := NewExecProvider(config.RepairConfig{HelperPath: "/bin/true", SpawnRetries: 1}, nil)

	if err := p.Attempt(context.Background(), domain.ErrorKind("MADE_UP")); err == nil {
		t.Fatal("expected error for kind without a repair class")
	}
}
