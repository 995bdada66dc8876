// Package voice validates audio uploads, transcribes them, and splits
// transcripts into candidate ideas.
package voice

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Format is an accepted audio container.
type Format string

// Accepted formats.
const (
	FormatWAV  Format = "wav"
	FormatMP3  Format = "mp3"
	FormatOGG  Format = "ogg"
	FormatM4A  Format = "m4a"
	FormatWebM Format = "webm"
)

// Formats lists every accepted format.
var Formats = []Format{FormatWAV, FormatMP3, FormatOGG, FormatM4A, FormatWebM}

// DefaultMaxBytes caps an upload at 10 MiB.
const DefaultMaxBytes = 10 << 20

var (
	// ErrUnsupportedFormat means the declared format is outside Formats.
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrUnrecognizedAudio means the bytes do not look like any accepted format.
	ErrUnrecognizedAudio = errors.New("file content is not recognized audio")

	// ErrFormatMismatch means the content sniffs as a different accepted format.
	ErrFormatMismatch = errors.New("declared format does not match file content")

	// ErrTooLarge means the upload exceeds the size cap.
	ErrTooLarge = errors.New("audio file too large")

	// ErrEmptyAudio means no bytes were uploaded.
	ErrEmptyAudio = errors.New("audio file is empty")
)

// ParseFormat normalizes a declared format or file extension ("MP3", ".mp3").
func ParseFormat(s string) (Format, error) {
	f := Format(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "."))
	switch f {
	case FormatWAV, FormatMP3, FormatOGG, FormatM4A, FormatWebM:
		return f, nil
	case "wave":
		return FormatWAV, nil
	case "mpeg", "mpga":
		return FormatMP3, nil
	case "oga", "opus":
		return FormatOGG, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// ContentType returns the MIME type sent upstream for f.
func (f Format) ContentType() string {
	switch f {
	case FormatWAV:
		return "audio/wav"
	case FormatMP3:
		return "audio/mpeg"
	case FormatOGG:
		return "audio/ogg"
	case FormatM4A:
		return "audio/mp4"
	case FormatWebM:
		return "audio/webm"
	default:
		return "application/octet-stream"
	}
}

// mimeFormats maps sniffed MIME types to formats. Parents are walked, so
// children like audio/ogg resolve through application/ogg as well.
var mimeFormats = map[string]Format{
	"audio/wav":       FormatWAV,
	"audio/x-wav":     FormatWAV,
	"audio/wave":      FormatWAV,
	"audio/mpeg":      FormatMP3,
	"audio/mp3":       FormatMP3,
	"application/ogg": FormatOGG,
	"audio/ogg":       FormatOGG,
	"audio/x-m4a":     FormatM4A,
	"audio/mp4":       FormatM4A,
	"video/mp4":       FormatM4A,
	"audio/webm":      FormatWebM,
	"video/webm":      FormatWebM,
}

// magicPrefixes catch short or truncated uploads the sniffer cannot place.
var magicPrefixes = []struct {
	prefix []byte
	format Format
}{
	{[]byte("RIFF"), FormatWAV},
	{[]byte("ID3"), FormatMP3},
	{[]byte{0xFF, 0xFB}, FormatMP3},
	{[]byte("OggS"), FormatOGG},
}

// Sniff identifies the container from the leading bytes.
func Sniff(data []byte) (Format, bool) {
	for m := mimetype.Detect(data); m != nil; m = m.Parent() {
		if f, ok := mimeFormats[m.String()]; ok {
			return f, true
		}
	}
	for _, p := range magicPrefixes {
		if bytes.HasPrefix(data, p.prefix) {
			return p.format, true
		}
	}
	return "", false
}

// Upload is an audio file received from a client.
type Upload struct {
	Data     []byte
	Filename string
	// Declared is the client-supplied format; the filename extension is
	// used when empty.
	Declared string
}

// Validate checks the upload against the size cap and the allow-list and
// returns the sniffed format. The declared format must be accepted, and the
// content must sniff as that same format.
func Validate(u Upload, maxBytes int64) (Format, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if len(u.Data) == 0 {
		return "", ErrEmptyAudio
	}
	if int64(len(u.Data)) > maxBytes {
		return "", fmt.Errorf("%w: %d bytes exceeds %d", ErrTooLarge, len(u.Data), maxBytes)
	}

	declared := u.Declared
	if declared == "" {
		declared = filepath.Ext(u.Filename)
	}
	var want Format
	if declared != "" {
		f, err := ParseFormat(declared)
		if err != nil {
			return "", err
		}
		want = f
	}

	format, ok := Sniff(u.Data)
	if !ok {
		return "", ErrUnrecognizedAudio
	}
	if want != "" && want != format {
		return "", fmt.Errorf("%w: declared %s, content is %s", ErrFormatMismatch, want, format)
	}
	return format, nil
}
