package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrDecode indicates that audio data could not be decoded: the file is
// missing, unreadable, or not a valid 16-bit PCM RIFF/WAVE stream. Callers
// check for it with errors.Is.
var ErrDecode = errors.New("audio: undecodable wave data")

// Decode reads a RIFF/WAVE stream and returns its samples as mono 16-bit PCM
// together with the sample rate. Only uncompressed 16-bit PCM is accepted;
// stereo input is downmixed to mono by averaging the channels.
//
// Any structural problem (truncated header, missing chunks, unsupported
// format) is reported as an error wrapping [ErrDecode].
func Decode(r io.Reader) ([]int16, int, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, fmt.Errorf("audio: read wave stream: %w", errors.Join(ErrDecode, err))
	}
	return decodeWAV(raw)
}

// DecodeFile decodes the WAV file at path. A missing or unreadable file is a
// decode failure: the returned error wraps both [ErrDecode] and the
// underlying I/O error, so errors.Is(err, os.ErrNotExist) still works.
func DecodeFile(path string) ([]int16, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("audio: open %q: %w", path, errors.Join(ErrDecode, err))
	}
	defer f.Close()
	pcm, rate, err := Decode(f)
	if err != nil {
		return nil, 0, fmt.Errorf("audio: decode %q: %w", path, err)
	}
	return pcm, rate, nil
}

// decodeWAV walks the RIFF chunks in raw. Hardcoding a 44-byte header offset
// is not safe because the fmt chunk size varies between encoders.
func decodeWAV(raw []byte) ([]int16, int, error) {
	if len(raw) < 12 || string(raw[0:4]) != "RIFF" || string(raw[8:12]) != "WAVE" {
		return nil, 0, fmt.Errorf("%w: missing RIFF/WAVE header", ErrDecode)
	}

	var (
		sampleRate int
		channels   int
		bits       int
		format     int
		foundFmt   bool
	)

	offset := 12
	for offset+8 <= len(raw) {
		chunkID := string(raw[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(raw[offset+4 : offset+8]))
		body := offset + 8

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 || body+16 > len(raw) {
				return nil, 0, fmt.Errorf("%w: short fmt chunk", ErrDecode)
			}
			fmtData := raw[body:]
			format = int(binary.LittleEndian.Uint16(fmtData[0:2]))
			channels = int(binary.LittleEndian.Uint16(fmtData[2:4]))
			sampleRate = int(binary.LittleEndian.Uint32(fmtData[4:8]))
			bits = int(binary.LittleEndian.Uint16(fmtData[14:16]))
			foundFmt = true

		case "data":
			if !foundFmt {
				return nil, 0, fmt.Errorf("%w: data chunk before fmt chunk", ErrDecode)
			}
			if format != 1 || bits != 16 {
				return nil, 0, fmt.Errorf("%w: unsupported format (format=%d bits=%d), expected 16-bit PCM", ErrDecode, format, bits)
			}
			if channels != 1 && channels != 2 {
				return nil, 0, fmt.Errorf("%w: unsupported channel count %d", ErrDecode, channels)
			}
			if sampleRate <= 0 {
				return nil, 0, fmt.Errorf("%w: invalid sample rate %d", ErrDecode, sampleRate)
			}
			end := body + chunkSize
			if end > len(raw) {
				end = len(raw)
			}
			pcm := decodePCM(raw[body:end], channels)
			return pcm, sampleRate, nil
		}

		// Chunks are word-aligned: odd sizes carry one pad byte.
		offset = body + chunkSize
		if chunkSize%2 != 0 {
			offset++
		}
	}
	return nil, 0, fmt.Errorf("%w: missing data chunk", ErrDecode)
}

// decodePCM converts little-endian int16 bytes to samples, averaging stereo
// frames down to mono. The average of two int16 values always fits in int16,
// so no clamping is needed here.
func decodePCM(data []byte, channels int) []int16 {
	if channels == 1 {
		out := make([]int16, len(data)/2)
		for i := range out {
			out[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
		}
		return out
	}
	frames := len(data) / 4
	out := make([]int16, frames)
	for i := range out {
		l := int32(int16(binary.LittleEndian.Uint16(data[i*4:])))
		r := int32(int16(binary.LittleEndian.Uint16(data[i*4+2:])))
		out[i] = int16((l + r) / 2)
	}
	return out
}

// Encode writes pcm as a mono 16-bit PCM RIFF/WAVE stream at the given
// sample rate.
func Encode(w io.Writer, pcm []int16, sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("audio: encode: invalid sample rate %d", sampleRate)
	}

	dataLen := len(pcm) * 2
	header := make([]byte, 44)
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(36+dataLen))
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(header[22:24], 1) // mono
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(sampleRate*2)) // byte rate
	binary.LittleEndian.PutUint16(header[32:34], 2)                    // block align
	binary.LittleEndian.PutUint16(header[34:36], 16)                   // bits per sample
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(dataLen))

	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("audio: write wave header: %w", err)
	}

	body := make([]byte, dataLen)
	for i, s := range pcm {
		binary.LittleEndian.PutUint16(body[i*2:], uint16(s))
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("audio: write wave data: %w", err)
	}
	return nil
}

// EncodeFile writes pcm to a WAV file at path, creating or truncating it.
func EncodeFile(path string, pcm []int16, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("audio: create %q: %w", path, err)
	}
	if err := Encode(f, pcm, sampleRate); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("audio: close %q: %w", path, err)
	}
	return nil
}
