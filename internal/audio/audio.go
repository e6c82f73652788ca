// Package audio provides interfaces and implementations for audio transcoding.
package audio

import "context"

// Transcoder defines the interface for converting an audio file into the AAC
// buffer used during the mux stage.
type Transcoder interface {
	// TranscodeToAAC decodes the audio at src and writes an AAC-encoded M4A
	// file to dst. The input may be any format ffmpeg can decode (mp3, wav,
	// ogg, m4a, aac, opus). The caller owns dst and is responsible for
	// removing it.
	TranscodeToAAC(ctx context.Context, src, dst string) error
}
