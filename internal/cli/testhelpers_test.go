package cli

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/fmueller/jabcount/internal/listen"
	"github.com/fmueller/jabcount/internal/store"
	"github.com/fmueller/jabcount/internal/whisper"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func runCommand(t *testing.T, args []string) (stdout string, stderr string, err error) {
	t.Helper()
	return runApp(t, newAppState(), args, nil)
}

func runApp(t *testing.T, app *appState, args []string, stdin io.Reader) (stdout string, stderr string, err error) {
	t.Helper()

	cmd := newRootCmd(app)
	outBuf := new(bytes.Buffer)
	errBuf := new(bytes.Buffer)

	cmd.SetOut(outBuf)
	cmd.SetErr(errBuf)
	if stdin != nil {
		cmd.SetIn(stdin)
	}
	cmd.SetArgs(args)

	err = cmd.ExecuteContext(context.Background())
	return outBuf.String(), errBuf.String(), err
}

// sinkArgs points the counter page and data file into a temp directory.
func sinkArgs(t *testing.T) (args []string, htmlPath, dataPath string) {
	t.Helper()

	dir := t.TempDir()
	htmlPath = filepath.Join(dir, "counter.html")
	dataPath = filepath.Join(dir, "count.json")
	return []string{"--html", htmlPath, "--data", dataPath, "--quiet"}, htmlPath, dataPath
}

// fakeModel writes a placeholder model file and returns its path.
func fakeModel(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "ggml-test.bin")
	require.NoError(t, os.WriteFile(path, []byte("model"), 0o644))
	return path
}

type scriptedEngine struct {
	replies []string
}

func (e *scriptedEngine) Transcribe(_ context.Context, req whisper.Request) (string, error) {
	if _, err := os.Stat(req.AudioPath); err != nil {
		return "", err
	}
	if len(e.replies) == 0 {
		return "", nil
	}
	reply := e.replies[0]
	e.replies = e.replies[1:]
	return reply, nil
}

func withEngine(app *appState, engine whisper.Engine) {
	app.engineFn = func(*zap.Logger) (whisper.Engine, error) {
		return engine, nil
	}
}

func withRecorder(app *appState, rec listen.Recorder) {
	app.recorderFn = func(string) (listen.Recorder, error) {
		return rec, nil
	}
}

func readCount(t *testing.T, dataPath string) int64 {
	t.Helper()

	rec, err := (&store.File{Path: dataPath}).Load()
	require.NoError(t, err)
	return rec.Count
}

func makePCM16WAVForTest(samples []int16, sampleRate int, channels int) []byte {
	bytesPerSample := 2
	dataSize := len(samples) * bytesPerSample
	fmtChunkSize := 16
	riffSize := 4 + (8 + fmtChunkSize) + (8 + dataSize)

	out := make([]byte, 12+8+fmtChunkSize+8+dataSize)
	off := 0

	copy(out[off:], []byte("RIFF"))
	off += 4
	binary.LittleEndian.PutUint32(out[off:], uint32(riffSize))
	off += 4
	copy(out[off:], []byte("WAVE"))
	off += 4

	copy(out[off:], []byte("fmt "))
	off += 4
	binary.LittleEndian.PutUint32(out[off:], uint32(fmtChunkSize))
	off += 4
	binary.LittleEndian.PutUint16(out[off:], 1)
	off += 2
	binary.LittleEndian.PutUint16(out[off:], uint16(channels))
	off += 2
	binary.LittleEndian.PutUint32(out[off:], uint32(sampleRate))
	off += 4
	binary.LittleEndian.PutUint32(out[off:], uint32(sampleRate*channels*bytesPerSample))
	off += 4
	binary.LittleEndian.PutUint16(out[off:], uint16(channels*bytesPerSample))
	off += 2
	binary.LittleEndian.PutUint16(out[off:], 16)
	off += 2

	copy(out[off:], []byte("data"))
	off += 4
	binary.LittleEndian.PutUint32(out[off:], uint32(dataSize))
	off += 4

	for _, s := range samples {
		binary.LittleEndian.PutUint16(out[off:], uint16(s))
		off += 2
	}

	return out
}
