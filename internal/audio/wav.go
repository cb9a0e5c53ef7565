package audio

import (
	"encoding/binary"
	"fmt"
	"io"
)

// WriteWAV writes pcm as a 48kHz stereo 16-bit RIFF/WAVE stream.
func WriteWAV(w io.Writer, pcm []int16) error {
	dataLen := uint32(len(pcm) * 2)
	blockAlign := uint16(Channels * BitDepth / 8)
	hdr := struct {
		Riff          [4]byte
		Size          uint32
		Wave          [4]byte
		Fmt           [4]byte
		FmtLen        uint32
		Format        uint16
		Channels      uint16
		SampleRate    uint32
		ByteRate      uint32
		BlockAlign    uint16
		BitsPerSample uint16
		Data          [4]byte
		DataLen       uint32
	}{
		Riff:          [4]byte{'R', 'I', 'F', 'F'},
		Size:          36 + dataLen,
		Wave:          [4]byte{'W', 'A', 'V', 'E'},
		Fmt:           [4]byte{'f', 'm', 't', ' '},
		FmtLen:        16,
		Format:        1,
		Channels:      Channels,
		SampleRate:    SampleRate,
		ByteRate:      SampleRate * uint32(blockAlign),
		BlockAlign:    blockAlign,
		BitsPerSample: BitDepth,
		Data:          [4]byte{'d', 'a', 't', 'a'},
		DataLen:       dataLen,
	}
	if err := binary.Write(w, binary.LittleEndian, hdr); err != nil {
		return fmt.Errorf("write wav header: %w", err)
	}
	if _, err := w.Write(SamplesToBytes(pcm)); err != nil {
		return fmt.Errorf("write wav data: %w", err)
	}
	return nil
}
