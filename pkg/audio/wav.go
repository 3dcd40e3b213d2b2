package audio

import (
	"encoding/binary"
	"fmt"
)

// Audio format constants. The device delivers 16-bit signed mono PCM at
// 16 kHz, and the archive service expects the same format inside a WAV
// container.
const (
	SampleRate    = 16000
	NumChannels   = 1
	BitsPerSample = 16

	// ByteRate and BlockAlign are derived from the fixed format.
	ByteRate   = SampleRate * NumChannels * BitsPerSample / 8
	BlockAlign = NumChannels * BitsPerSample / 8

	headerSize = 44
)

// EncodeWAV wraps raw PCM samples in a canonical RIFF/WAVE container:
// a 44-byte little-endian header with one fmt sub-chunk (PCM, mono, 16 kHz,
// 16-bit) followed by one data sub-chunk holding the samples.
func EncodeWAV(samples []int16) []byte {
	dataSize := len(samples) * 2
	buf := make([]byte, headerSize+dataSize)

	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataSize))
	copy(buf[8:12], "WAVE")

	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16) // fmt chunk size
	binary.LittleEndian.PutUint16(buf[20:22], 1)  // audio format (PCM)
	binary.LittleEndian.PutUint16(buf[22:24], NumChannels)
	binary.LittleEndian.PutUint32(buf[24:28], SampleRate)
	binary.LittleEndian.PutUint32(buf[28:32], ByteRate)
	binary.LittleEndian.PutUint16(buf[32:34], BlockAlign)
	binary.LittleEndian.PutUint16(buf[34:36], BitsPerSample)

	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))

	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[headerSize+i*2:], uint16(s))
	}

	return buf
}

// DecodeWAV parses a canonical WAV file produced by EncodeWAV and returns
// the raw PCM samples. It rejects files whose format differs from the fixed
// capture format.
func DecodeWAV(data []byte) ([]int16, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("wav data too short: %d bytes", len(data))
	}

	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, fmt.Errorf("not a RIFF/WAVE file")
	}
	if string(data[12:16]) != "fmt " || string(data[36:40]) != "data" {
		return nil, fmt.Errorf("unexpected chunk layout")
	}

	if format := binary.LittleEndian.Uint16(data[20:22]); format != 1 {
		return nil, fmt.Errorf("unsupported audio format %d (want PCM)", format)
	}
	if channels := binary.LittleEndian.Uint16(data[22:24]); channels != NumChannels {
		return nil, fmt.Errorf("unsupported channel count %d", channels)
	}
	if rate := binary.LittleEndian.Uint32(data[24:28]); rate != SampleRate {
		return nil, fmt.Errorf("unsupported sample rate %d", rate)
	}
	if bits := binary.LittleEndian.Uint16(data[34:36]); bits != BitsPerSample {
		return nil, fmt.Errorf("unsupported bit depth %d", bits)
	}

	dataSize := int(binary.LittleEndian.Uint32(data[40:44]))
	if headerSize+dataSize > len(data) {
		return nil, fmt.Errorf("data chunk size %d exceeds file length %d", dataSize, len(data))
	}

	samples := make([]int16, dataSize/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[headerSize+i*2:]))
	}

	return samples, nil
}

// PCMFromBytes reinterprets little-endian byte pairs as 16-bit signed
// samples, the layout audio chunks arrive in from the device host. A
// trailing odd byte is dropped.
func PCMFromBytes(data []byte) []int16 {
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return samples
}
