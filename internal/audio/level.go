// Package audio measures recorded chunks so silent ones can skip the speech
// engine.
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

var (
	ErrUnsupportedWAV = errors.New("unsupported wav format")
	ErrInvalidWAV     = errors.New("invalid wav file")
)

// Level is the loudness of a chunk in dBFS. Digital silence is -Inf.
type Level struct {
	RMSdBFS  float64
	PeakdBFS float64
	Samples  int64
}

// Gate decides whether a chunk is quiet enough to skip.
type Gate struct {
	ThresholdDBFS float64
}

// Silent reports whether l is below the gate. The peak may exceed the
// threshold by 6 dB so a single click does not open the gate.
func (g Gate) Silent(l Level) bool {
	if l.Samples == 0 || math.IsInf(l.PeakdBFS, -1) {
		return true
	}
	return l.RMSdBFS <= g.ThresholdDBFS && l.PeakdBFS <= g.ThresholdDBFS+6
}

// MeasureWAV reads a 16-bit PCM WAV file and returns its level.
func MeasureWAV(path string) (Level, error) {
	f, err := os.Open(path)
	if err != nil {
		return Level{}, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	data, err := readPCM16(f)
	if err != nil {
		return Level{}, err
	}
	return measurePCM16(data), nil
}

type chunkHeader struct {
	ID   [4]byte
	Size uint32
}

// readPCM16 walks the RIFF chunks and returns the data chunk payload.
func readPCM16(r io.ReadSeeker) ([]byte, error) {
	var riff struct {
		ID   [4]byte
		Size uint32
		Form [4]byte
	}
	if err := binary.Read(r, binary.LittleEndian, &riff); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWAV, err)
	}
	if string(riff.ID[:]) != "RIFF" || string(riff.Form[:]) != "WAVE" {
		return nil, ErrInvalidWAV
	}

	sawFormat := false
	for {
		var hdr chunkHeader
		if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, ErrInvalidWAV
			}
			return nil, fmt.Errorf("read wav chunk header: %w", err)
		}
		padded := int64(hdr.Size) + int64(hdr.Size%2)

		switch string(hdr.ID[:]) {
		case "fmt ":
			if hdr.Size < 16 {
				return nil, ErrInvalidWAV
			}
			var format struct {
				AudioFormat   uint16
				Channels      uint16
				SampleRate    uint32
				ByteRate      uint32
				BlockAlign    uint16
				BitsPerSample uint16
			}
			if err := binary.Read(r, binary.LittleEndian, &format); err != nil {
				return nil, fmt.Errorf("read wav fmt chunk: %w", err)
			}
			if format.AudioFormat != 1 || format.BitsPerSample != 16 {
				return nil, ErrUnsupportedWAV
			}
			sawFormat = true
			if _, err := r.Seek(padded-16, io.SeekCurrent); err != nil {
				return nil, fmt.Errorf("skip wav fmt extension: %w", err)
			}
		case "data":
			if !sawFormat {
				return nil, ErrInvalidWAV
			}
			data := make([]byte, hdr.Size)
			n, err := io.ReadFull(r, data)
			if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, fmt.Errorf("read wav data: %w", err)
			}
			// recorders that are interrupted leave the declared size too large
			return data[:n], nil
		default:
			if _, err := r.Seek(padded, io.SeekCurrent); err != nil {
				return nil, fmt.Errorf("skip wav chunk %q: %w", hdr.ID[:], err)
			}
		}
	}
}

func measurePCM16(data []byte) Level {
	samples := int64(len(data) / 2)
	if samples == 0 {
		return Level{RMSdBFS: math.Inf(-1), PeakdBFS: math.Inf(-1)}
	}

	var peak, sumSquares float64
	for i := 0; i+1 < len(data); i += 2 {
		v := math.Abs(float64(int16(binary.LittleEndian.Uint16(data[i:]))) / 32768)
		sumSquares += v * v
		if v > peak {
			peak = v
		}
	}

	return Level{
		RMSdBFS:  toDBFS(math.Sqrt(sumSquares / float64(samples))),
		PeakdBFS: toDBFS(peak),
		Samples:  samples,
	}
}

func toDBFS(amplitude float64) float64 {
	if amplitude <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(amplitude)
}
