package audio

import (
	"context"
	"fmt"
	"os/exec"
)

// Decoder turns a media source (path or URL) into PCM.
type Decoder func(ctx context.Context, src string) (Buffer, error)

// FFmpegDecoder returns a Decoder that shells out to ffmpeg (bin defaults to
// "ffmpeg" on PATH).
func FFmpegDecoder(bin string) Decoder {
	if bin == "" {
		bin = "ffmpeg"
	}
	return func(ctx context.Context, src string) (Buffer, error) {
		return DecodeFile(ctx, bin, src)
	}
}

// DecodeFile runs ffmpeg to decode src to interleaved stereo int16 at 48kHz.
func DecodeFile(ctx context.Context, bin, src string) (Buffer, error) {
	cmd := exec.CommandContext(ctx, bin,
		"-i", src,
		"-vn",
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", "48000",
		"-ac", "2",
		"-loglevel", "error",
		"pipe:1",
	)
	out, err := cmd.Output()
	if err != nil {
		return Buffer{}, fmt.Errorf("ffmpeg decode %s: %w", src, err)
	}
	samples := BytesToSamples(out)
	if len(samples) == 0 {
		return Buffer{}, fmt.Errorf("ffmpeg decode %s: no audio", src)
	}
	return Buffer{Samples: samples}, nil
}
