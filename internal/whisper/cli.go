package whisper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/fmueller/jabcount/internal/platform"
	"go.uber.org/zap"
)

// EnvEnginePath overrides engine discovery.
const EnvEnginePath = "JABCOUNT_WHISPER_PATH"

// CLIEngine runs whisper-cli once per request.
type CLIEngine struct {
	Executable string
	Logger     *zap.Logger
}

// NewCLIEngine locates whisper-cli: the EnvEnginePath override first, then
// the directories shipped next to the jabcount binary, then PATH.
func NewCLIEngine(logger *zap.Logger) (*CLIEngine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if override := strings.TrimSpace(os.Getenv(EnvEnginePath)); override != "" {
		if err := checkExecutable(override); err != nil {
			return nil, fmt.Errorf("%s is not executable: %w", EnvEnginePath, err)
		}
		return &CLIEngine{Executable: override, Logger: logger}, nil
	}

	self, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("resolve jabcount executable path: %w", err)
	}

	path, err := LocateEngine(self, exec.LookPath)
	if err != nil {
		return nil, err
	}
	return &CLIEngine{Executable: path, Logger: logger}, nil
}

// LocateEngine returns the first executable candidate near self, falling back
// to lookPath.
func LocateEngine(self string, lookPath func(string) (string, error)) (string, error) {
	for _, candidate := range EngineCandidates(self) {
		if checkExecutable(candidate) == nil {
			return candidate, nil
		}
	}

	if lookPath != nil {
		if path, err := lookPath(engineBinaryName()); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("whisper engine not found near %s or on PATH; install whisper.cpp or set %s", self, EnvEnginePath)
}

// EngineCandidates lists where a packaged whisper-cli may live relative to
// the jabcount executable, in search order.
func EngineCandidates(self string) []string {
	binDir := filepath.Dir(self)
	name := engineBinaryName()

	return []string{
		filepath.Join(binDir, "..", "libexec", "whisper", name),
		filepath.Join(binDir, "libexec", "whisper", name),
		filepath.Join(binDir, "packaging", "whisper", platform.Target(), name),
		filepath.Join(binDir, name),
	}
}

func (e *CLIEngine) Transcribe(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.AudioPath) == "" {
		return "", errors.New("audio path is required")
	}
	if strings.TrimSpace(req.ModelPath) == "" {
		return "", errors.New("model path is required")
	}
	if err := checkExecutable(e.Executable); err != nil {
		return "", fmt.Errorf("whisper engine missing or not executable: %w", err)
	}

	logger := e.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	outBase := strings.TrimSuffix(req.AudioPath, filepath.Ext(req.AudioPath)) + ".whisper"
	txtPath := outBase + ".txt"
	defer os.Remove(txtPath)

	args := []string{"-m", req.ModelPath, "-f", req.AudioPath, "-nt", "-np", "-otxt", "-of", outBase}
	if lang := strings.TrimSpace(req.Language); lang != "" && lang != "auto" {
		args = append(args, "-l", lang)
	}

	cmd := exec.CommandContext(ctx, e.Executable, args...)
	var stderr bytes.Buffer
	cmd.Stdout = io.Discard
	cmd.Stderr = &stderr

	logger.Debug("running whisper engine", zap.String("engine", e.Executable), zap.Strings("args", args))
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", diagnose(e.Executable, err, strings.TrimSpace(stderr.String()))
	}

	content, err := os.ReadFile(txtPath)
	if err != nil {
		return "", fmt.Errorf("read whisper output: %w", err)
	}

	return strings.Join(strings.Fields(string(content)), " "), nil
}

// diagnose turns common engine crashes into actionable errors.
func diagnose(executable string, runErr error, stderr string) error {
	lower := strings.ToLower(stderr)

	for _, marker := range []string{
		"error while loading shared libraries",
		"cannot open shared object file",
		"dyld: library not loaded",
		"image not found",
	} {
		if strings.Contains(lower, marker) {
			return fmt.Errorf("whisper engine at %s is missing shared libraries (%s); rebuild whisper-cli with BUILD_SHARED_LIBS=OFF", executable, stderr)
		}
	}

	if strings.Contains(lower, "illegal instruction") || strings.Contains(strings.ToLower(runErr.Error()), "illegal instruction") {
		return fmt.Errorf("whisper engine crashed with an illegal CPU instruction; set %s to a whisper-cli built for this CPU", EnvEnginePath)
	}

	if stderr == "" {
		return fmt.Errorf("whisper transcribe failed: %w", runErr)
	}
	return fmt.Errorf("whisper transcribe failed: %w (%s)", runErr, stderr)
}

func engineBinaryName() string {
	if runtime.GOOS == "windows" {
		return "whisper-cli.exe"
	}
	return "whisper-cli"
}

func checkExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	if runtime.GOOS != "windows" && info.Mode()&0o111 == 0 {
		return fmt.Errorf("%s is not executable", path)
	}
	return nil
}
