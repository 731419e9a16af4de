//go:build e2e

package e2e

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var binaryPath string

const testSalt = "e2e-test-salt"

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "veil-e2e-build-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "e2e TestMain: mkdir temp: %v\n", err)
		os.Exit(1)
	}
	binaryPath = filepath.Join(dir, "veil")
	cmd := exec.Command("go", "build", "-o", binaryPath, "../../cmd/veil")
	cmd.Env = append(os.Environ(), "CGO_ENABLED=1")
	if out, err := cmd.CombinedOutput(); err != nil {
		fmt.Fprintf(os.Stderr, "e2e TestMain: build: %v\n%s\n", err, out)
		os.RemoveAll(dir)
		os.Exit(1)
	}

	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

// RunVeil runs the veil binary with the given args and stdin. dataDir is
// VEIL_DATA_DIR; env adds or overrides variables. Returns stdout, stderr
// and the exit code (-1 when the process failed to start).
func RunVeil(t *testing.T, dataDir, stdin string, env map[string]string, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()
	cmd := exec.Command(binaryPath, args...)
	cmd.Env = os.Environ()
	cmd.Env = append(cmd.Env, "VEIL_DATA_DIR="+dataDir)
	cmd.Env = append(cmd.Env, "VEIL_HASH_SALT="+testSalt)
	for k, v := range env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	cmd.Dir = dataDir
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	err := cmd.Run()
	exitCode = 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = -1
		}
	}
	return outBuf.String(), errBuf.String(), exitCode
}

func TestVersionCommand(t *testing.T) {
	stdout, _, code := RunVeil(t, t.TempDir(), "", nil, "version")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "veil")
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()

	stdout, _, code := RunVeil(t, dir, "", nil, "validate", "pesel", "44051401458")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "valid")

	stdout, _, code = RunVeil(t, dir, "", nil, "validate", "pesel", "44051401459")
	assert.NotEqual(t, 0, code)
	assert.Contains(t, stdout, "invalid")
}

func TestAnonymizeFile(t *testing.T) {
	dir := t.TempDir()
	docPath := filepath.Join(dir, "doc.txt")
	require.NoError(t, os.WriteFile(docPath, []byte("PESEL klienta: 44051401458"), 0o600))

	stdout, stderr, code := RunVeil(t, dir, "", nil, "anonymize", docPath)
	require.Equal(t, 0, code, "stderr: %s", stderr)
	assert.Contains(t, stdout, "[PESEL]")
	assert.NotContains(t, stdout, "44051401458")
}

func TestAnonymizeStdin(t *testing.T) {
	stdout, stderr, code := RunVeil(t, t.TempDir(), "Kontakt: jan.kowalski@example.com", nil, "anonymize")
	require.Equal(t, 0, code, "stderr: %s", stderr)
	assert.Contains(t, stdout, "[EMAIL]")
}

func TestAnonymizeFakeIsSeedStable(t *testing.T) {
	dir := t.TempDir()
	docPath := filepath.Join(dir, "doc.txt")
	require.NoError(t, os.WriteFile(docPath, []byte("NIP: 7740001454, IBAN: PL61109010140000071219812874"), 0o600))

	first, _, code := RunVeil(t, dir, "", nil, "anonymize", "--fake", "--seed", "7", docPath)
	require.Equal(t, 0, code)
	second, _, code := RunVeil(t, dir, "", nil, "anonymize", "--fake", "--seed", "7", docPath)
	require.Equal(t, 0, code)

	assert.Equal(t, first, second)
	assert.NotContains(t, first, "7740001454")
}

func TestScanJSON(t *testing.T) {
	stdout, _, code := RunVeil(t, t.TempDir(), "PESEL 44051401458", nil, "scan", "--json")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, `"PESEL"`)
	assert.Contains(t, stdout, "44051401458")
}

func TestAuditRoundTrip(t *testing.T) {
	dir := t.TempDir()
	docPath := filepath.Join(dir, "doc.txt")
	require.NoError(t, os.WriteFile(docPath, []byte("PESEL 44051401458"), 0o600))

	_, stderr, code := RunVeil(t, dir, "", nil, "anonymize", "--audit", docPath)
	require.Equal(t, 0, code, "stderr: %s", stderr)

	stdout, _, code := RunVeil(t, dir, "", nil, "audit", "list")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, docPath)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.GreaterOrEqual(t, len(lines), 2)
	runID := strings.Fields(lines[1])[0]

	stdout, _, code = RunVeil(t, dir, "", nil, "audit", "reveal", runID, "0")
	require.Equal(t, 0, code)
	assert.Equal(t, "44051401458", strings.TrimSpace(stdout))
}
