package library

import (
	"crypto/md5"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"medley/pkg/models"

	"github.com/dhowden/tag"
	"github.com/go-audio/wav"
	"github.com/mewkiz/flac"
	"github.com/sirupsen/logrus"
	"github.com/tcolgate/mp3"
)

// Extractor turns local audio files into seed library track entries.
type Extractor struct {
	supportedFormats []string
	artworkDir       string
	logger           *logrus.Logger
}

// NewExtractor creates a metadata extractor. Embedded artwork is written
// into artworkDir; pass an empty string to skip artwork extraction.
func NewExtractor(supportedFormats []string, artworkDir string, logger *logrus.Logger) *Extractor {
	return &Extractor{
		supportedFormats: supportedFormats,
		artworkDir:       artworkDir,
		logger:           logger,
	}
}

// ExtractTrack reads tags and duration from an audio file and builds the
// seed track entry for it. The track has no id; the store assigns one when
// it consumes the seed file.
func (e *Extractor) ExtractTrack(filePath string) (models.Track, error) {
	startTime := time.Now()

	file, err := os.Open(filePath)
	if err != nil {
		return models.Track{}, fmt.Errorf("opening %s: %w", filePath, err)
	}
	defer file.Close()

	track := models.Track{
		URL:    filePath,
		Title:  titleFromFilename(filePath),
		Artist: "Unknown Artist",
	}

	// Duration is informational only; a failure just leaves it unset.
	if duration, err := e.calculateDuration(filePath); err != nil {
		e.logger.WithError(err).WithField("file_path", filePath).Warn("Failed to calculate duration")
	} else {
		track.Duration = duration
	}

	metadata, err := tag.ReadFrom(file)
	if err != nil {
		// No usable tags; keep the filename-derived title.
		e.logger.WithError(err).WithField("file_path", filePath).Warn("Failed to read tags, using filename")
		return track, nil
	}

	if title := metadata.Title(); title != "" {
		track.Title = title
	}
	if artist := metadata.Artist(); artist != "" {
		track.Artist = artist
	}
	track.Artwork = e.extractArtwork(metadata)

	e.logger.WithFields(logrus.Fields{
		"file_path":       filePath,
		"title":           track.Title,
		"artist":          track.Artist,
		"duration":        track.Duration,
		"processing_time": time.Since(startTime),
	}).Debug("Extracted track metadata")

	return track, nil
}

// titleFromFilename derives a display title from the file name.
func titleFromFilename(filePath string) string {
	filename := filepath.Base(filePath)
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}

// extractArtwork writes embedded artwork to the artwork directory, named by
// content hash so identical covers dedupe, and returns the URI path the
// server serves it under. Returns "" when there is nothing to extract.
func (e *Extractor) extractArtwork(metadata tag.Metadata) string {
	if e.artworkDir == "" {
		return ""
	}
	picture := metadata.Picture()
	if picture == nil {
		return ""
	}

	ext := ".jpg"
	if strings.Contains(picture.MIMEType, "png") {
		ext = ".png"
	}
	name := fmt.Sprintf("%x%s", md5.Sum(picture.Data), ext)

	if err := os.MkdirAll(e.artworkDir, 0755); err != nil {
		e.logger.WithError(err).Warn("Could not create artwork directory")
		return ""
	}
	dest := filepath.Join(e.artworkDir, name)
	if _, err := os.Stat(dest); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(dest, picture.Data, 0o644); err != nil {
			e.logger.WithError(err).WithField("artwork", dest).Warn("Could not write artwork")
			return ""
		}
	}

	return "/artwork/" + name
}

// calculateDuration calculates the duration of an audio file in seconds
func (e *Extractor) calculateDuration(filePath string) (float64, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".mp3":
		return e.durationMP3(filePath)
	case ".flac":
		return e.durationFLAC(filePath)
	case ".wav":
		return e.durationWAV(filePath)
	case ".m4a":
		return e.durationM4A(filePath)
	default:
		return 0, fmt.Errorf("unsupported format: %s", ext)
	}
}

// durationMP3 sums decoded frame durations.
func (e *Extractor) durationMP3(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	dec := mp3.NewDecoder(f)
	var total time.Duration
	var skipped int
	frames := 0
	for {
		var fr mp3.Frame
		if err := dec.Decode(&fr, &skipped); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			if frames == 0 {
				return 0, fmt.Errorf("no decodable mp3 frames in %s", filepath.Base(path))
			}
			break // partial decode; use what we have
		}
		total += fr.Duration()
		frames++
	}
	return total.Seconds(), nil
}

// durationFLAC reads the STREAMINFO metadata block.
func (e *Extractor) durationFLAC(path string) (float64, error) {
	stream, err := flac.ParseFile(path)
	if err != nil {
		return 0, err
	}
	si := stream.Info
	if si.NSamples == 0 || si.SampleRate == 0 {
		return 0, fmt.Errorf("flac stream missing sample info")
	}
	return float64(si.NSamples) / float64(si.SampleRate), nil
}

// durationWAV approximates from the header and PCM byte count.
func (e *Extractor) durationWAV(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return 0, fmt.Errorf("invalid wav file")
	}
	if dec.SampleRate == 0 || dec.BitDepth == 0 || dec.NumChans == 0 {
		return 0, fmt.Errorf("invalid wav header")
	}

	st, err := f.Stat()
	if err != nil {
		return 0, err
	}
	headerSize := int64(44)
	pcmBytes := st.Size() - headerSize
	if pcmBytes < 0 {
		pcmBytes = 0
	}
	bytesPerSampleFrame := int64(dec.BitDepth/8) * int64(dec.NumChans)
	if bytesPerSampleFrame <= 0 {
		return 0, fmt.Errorf("invalid sample frame size")
	}
	sampleFrames := pcmBytes / bytesPerSampleFrame
	return float64(sampleFrames) / float64(dec.SampleRate), nil
}

// durationM4A reads timescale and duration from the mvhd atom inside moov.
// A minimal manual atom scan keeps the MP4 handling dependency-free.
func (e *Extractor) durationM4A(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	head := make([]byte, 8)
	for {
		if _, err := io.ReadFull(f, head); err != nil {
			return 0, err
		}
		size := binary.BigEndian.Uint32(head[0:4])
		if size < 8 {
			return 0, fmt.Errorf("invalid atom size")
		}
		if string(head[4:8]) == "moov" {
			return e.scanMoovForDuration(f, int64(size)-8)
		}
		// skip rest of atom
		if _, err := f.Seek(int64(size)-8, io.SeekCurrent); err != nil {
			return 0, err
		}
	}
}

// scanMoovForDuration walks the sub-atoms of one moov atom until mvhd.
func (e *Extractor) scanMoovForDuration(f *os.File, limit int64) (float64, error) {
	subHead := make([]byte, 8)
	for read := int64(0); read < limit; {
		if _, err := io.ReadFull(f, subHead); err != nil {
			return 0, err
		}
		subSize := binary.BigEndian.Uint32(subHead[0:4])
		if subSize < 8 {
			return 0, fmt.Errorf("invalid sub-atom size")
		}

		if string(subHead[4:8]) != "mvhd" {
			if _, err := f.Seek(int64(subSize)-8, io.SeekCurrent); err != nil {
				return 0, err
			}
			read += int64(subSize)
			continue
		}

		version := make([]byte, 1)
		if _, err := io.ReadFull(f, version); err != nil {
			return 0, err
		}
		var skip int64
		if version[0] == 1 { // 64-bit creation/modification times
			skip = 3 + 8 + 8
		} else {
			skip = 3 + 4 + 4
		}
		if _, err := f.Seek(skip, io.SeekCurrent); err != nil {
			return 0, err
		}

		fields := make([]byte, 8)
		if _, err := io.ReadFull(f, fields); err != nil {
			return 0, err
		}
		timescale := binary.BigEndian.Uint32(fields[0:4])
		durUnits := binary.BigEndian.Uint32(fields[4:8])
		if timescale == 0 {
			return 0, fmt.Errorf("invalid timescale")
		}
		return float64(durUnits) / float64(timescale), nil
	}
	return 0, fmt.Errorf("mvhd atom not found")
}

// IsAudioFile checks if a file is a supported audio format
func (e *Extractor) IsAudioFile(filePath string) bool {
	ext := strings.ToLower(filepath.Ext(filePath))
	for _, format := range e.supportedFormats {
		if ext == format {
			return true
		}
	}
	return false
}
