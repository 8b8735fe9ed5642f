// Command seedgen builds the bundled seed library file consumed by the
// track store on first run. It scans a music directory, extracts tags,
// durations and embedded artwork, and writes the entries as one JSON array.
package main

import (
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"strings"

	"medley/internal/library"

	"github.com/sirupsen/logrus"
)

func main() {
	musicDir := flag.String("music", "./music", "directory to scan for audio files")
	out := flag.String("out", "./library.json", "seed library file to write")
	artworkDir := flag.String("artwork", "./data/artwork", "directory for extracted artwork (empty to skip)")
	formats := flag.String("formats", ".mp3,.flac,.wav,.m4a", "comma-separated audio extensions")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	if _, err := os.Stat(*musicDir); os.IsNotExist(err) {
		logger.WithField("music_dir", *musicDir).Fatal("Music directory does not exist")
	}

	extractor := library.NewExtractor(strings.Split(*formats, ","), *artworkDir, logger)
	scanner := library.NewScanner(extractor, logger)

	tracks, err := scanner.Scan(*musicDir)
	if err != nil {
		logger.WithError(err).Fatal("Error scanning music directory")
	}

	data, err := json.MarshalIndent(tracks, "", "  ")
	if err != nil {
		logger.WithError(err).Fatal("Error encoding seed library")
	}

	if dir := filepath.Dir(*out); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.WithError(err).Fatal("Error creating output directory")
		}
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		logger.WithError(err).Fatal("Error writing seed library")
	}

	logger.WithFields(logrus.Fields{
		"out":    *out,
		"tracks": len(tracks),
	}).Info("Seed library written")
}
