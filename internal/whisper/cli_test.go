package whisper

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/fmueller/jabcount/internal/platform"
	"github.com/stretchr/testify/require"
)

func writeStubEngine(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs require a POSIX shell")
	}

	path := filepath.Join(t.TempDir(), "whisper-cli")
	script := "#!/bin/sh\nout=\"\"\nwhile [ $# -gt 0 ]; do\n  if [ \"$1\" = \"-of\" ]; then out=\"$2\"; fi\n  shift\ndone\n" + body
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestCLIEngineTranscribeNormalizesWhitespace(t *testing.T) {
	t.Parallel()

	engine := &CLIEngine{Executable: writeStubEngine(t, "printf ' you\\n  jabroni \\n' > \"$out.txt\"\n")}
	audio := filepath.Join(t.TempDir(), "chunk-0001.wav")
	require.NoError(t, os.WriteFile(audio, []byte("RIFF"), 0o644))

	text, err := engine.Transcribe(context.Background(), Request{AudioPath: audio, ModelPath: "model.bin", Language: "en"})
	require.NoError(t, err)
	require.Equal(t, "you jabroni", text)

	_, err = os.Stat(filepath.Join(filepath.Dir(audio), "chunk-0001.whisper.txt"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestCLIEngineReportsMissingSharedLibraries(t *testing.T) {
	t.Parallel()

	engine := &CLIEngine{Executable: writeStubEngine(t, "echo 'error while loading shared libraries: libwhisper.so.1' >&2\nexit 127\n")}

	_, err := engine.Transcribe(context.Background(), Request{AudioPath: filepath.Join(t.TempDir(), "a.wav"), ModelPath: "m.bin"})
	require.ErrorContains(t, err, "missing shared libraries")
}

func TestCLIEngineValidatesRequest(t *testing.T) {
	t.Parallel()

	engine := &CLIEngine{Executable: "/nonexistent"}
	_, err := engine.Transcribe(context.Background(), Request{ModelPath: "m.bin"})
	require.ErrorContains(t, err, "audio path")

	_, err = engine.Transcribe(context.Background(), Request{AudioPath: "a.wav"})
	require.ErrorContains(t, err, "model path")

	_, err = engine.Transcribe(context.Background(), Request{AudioPath: "a.wav", ModelPath: "m.bin"})
	require.ErrorContains(t, err, "not executable")
}

func TestLocateEngineFindsLibexecSibling(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	self := filepath.Join(root, "bin", "jabcount")
	engineDir := filepath.Join(root, "libexec", "whisper")
	require.NoError(t, os.MkdirAll(filepath.Dir(self), 0o755))
	require.NoError(t, os.MkdirAll(engineDir, 0o755))
	require.NoError(t, os.WriteFile(self, nil, 0o755))

	enginePath := filepath.Join(engineDir, engineBinaryName())
	require.NoError(t, os.WriteFile(enginePath, nil, 0o755))

	resolved, err := LocateEngine(self, nil)
	require.NoError(t, err)
	require.Equal(t, enginePath, resolved)
}

func TestLocateEngineFindsPackagingDirForLocalBuilds(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	self := filepath.Join(root, "jabcount")
	targetDir := filepath.Join(root, "packaging", "whisper", platform.Target())
	require.NoError(t, os.MkdirAll(targetDir, 0o755))
	enginePath := filepath.Join(targetDir, engineBinaryName())
	require.NoError(t, os.WriteFile(enginePath, nil, 0o755))

	resolved, err := LocateEngine(self, nil)
	require.NoError(t, err)
	require.Equal(t, enginePath, resolved)
}

func TestLocateEngineFallsBackToPath(t *testing.T) {
	t.Parallel()

	self := filepath.Join(t.TempDir(), "jabcount")
	lookPath := func(name string) (string, error) {
		return "/usr/local/bin/" + name, nil
	}

	resolved, err := LocateEngine(self, lookPath)
	require.NoError(t, err)
	require.Equal(t, "/usr/local/bin/"+engineBinaryName(), resolved)
}

func TestLocateEngineMissing(t *testing.T) {
	t.Parallel()

	self := filepath.Join(t.TempDir(), "jabcount")
	lookPath := func(string) (string, error) { return "", errors.New("not found") }

	_, err := LocateEngine(self, lookPath)
	require.ErrorContains(t, err, "whisper engine not found")
}

func TestDiagnoseIllegalInstruction(t *testing.T) {
	t.Parallel()

	err := diagnose("/bin/whisper-cli", errors.New("signal: illegal instruction (core dumped)"), "")
	require.ErrorContains(t, err, "illegal CPU instruction")

	err = diagnose("/bin/whisper-cli", errors.New("exit status 1"), "bad model")
	require.ErrorContains(t, err, "bad model")
}
