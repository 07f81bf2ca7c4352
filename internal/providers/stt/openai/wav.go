package openai

import (
	"bytes"
	"encoding/binary"

	"companion-voice-go/internal/contracts/providers"
)

// encodeWAV wraps raw 16-bit little-endian PCM in a RIFF/WAV container. The
// transcription endpoint rejects headerless audio.
func encodeWAV(audio providers.PCM) []byte {
	const (
		bitsPerSample = 16
		headerSize    = 44
	)
	dataLen := len(audio.Data)
	blockAlign := audio.Channels * bitsPerSample / 8
	byteRate := audio.SampleRate * blockAlign

	buf := bytes.NewBuffer(make([]byte, 0, headerSize+dataLen))
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(buf, binary.LittleEndian, uint16(audio.Channels))
	binary.Write(buf, binary.LittleEndian, uint32(audio.SampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(buf, binary.LittleEndian, uint16(bitsPerSample))

	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(dataLen))
	buf.Write(audio.Data)

	return buf.Bytes()
}
