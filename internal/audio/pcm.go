package audio

import (
	"encoding/binary"
	"time"
)

// PCM layout used between decode and encode: 48kHz stereo s16le
const (
	// SampleRate is the number of sample frames per second
	SampleRate = 48000
	// Channels is the interleaved channel count
	Channels = 2
	// BitDepth is the bits per sample
	BitDepth = 16

	// BytesPerFrame is the size of one interleaved sample frame
	BytesPerFrame = Channels * BitDepth / 8
)

// BytesToSamples converts little-endian s16le bytes to int16 samples.
// A trailing odd byte is dropped.
func BytesToSamples(b []byte) []int16 {
	if len(b)%2 != 0 {
		b = b[:len(b)-1]
	}

	samples := make([]int16, len(b)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(b[i*2 : i*2+2]))
	}
	return samples
}

// SamplesToBytes converts int16 samples to little-endian bytes.
func SamplesToBytes(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}

// Concat joins interleaved clips back to back. Each clip is cut to a whole
// number of frames so channels stay aligned across the seams.
func Concat(clips ...[]int16) []int16 {
	total := 0
	for _, c := range clips {
		total += len(c) - len(c)%Channels
	}

	out := make([]int16, 0, total)
	for _, c := range clips {
		out = append(out, c[:len(c)-len(c)%Channels]...)
	}
	return out
}

// Duration returns the play time of interleaved samples at SampleRate.
func Duration(samples []int16) time.Duration {
	frames := len(samples) / Channels
	return time.Duration(frames) * time.Second / SampleRate
}

// SamplesFor returns the interleaved sample count covering d.
func SamplesFor(d time.Duration) int {
	frames := int(d * SampleRate / time.Second)
	return frames * Channels
}
