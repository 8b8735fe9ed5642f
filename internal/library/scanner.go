package library

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"medley/pkg/models"

	"github.com/sirupsen/logrus"
)

// Scanner walks a music directory and extracts a seed track entry from
// every supported audio file it finds.
type Scanner struct {
	extractor *Extractor
	logger    *logrus.Logger
}

// NewScanner creates a scanner using the given extractor.
func NewScanner(extractor *Extractor, logger *logrus.Logger) *Scanner {
	return &Scanner{
		extractor: extractor,
		logger:    logger,
	}
}

// Scan walks root and returns the extracted tracks, sorted by file path so
// repeated runs produce the seed file in a stable order. Extraction runs on
// a small worker pool; files that fail to extract are logged and skipped.
func (s *Scanner) Scan(root string) ([]models.Track, error) {
	var (
		mu     sync.Mutex
		tracks []models.Track
		wg     sync.WaitGroup
	)
	jobs := make(chan string, 100)

	// Start worker pool
	numWorkers := runtime.NumCPU()
	for i := 0; i < numWorkers; i++ {
		go func() {
			for path := range jobs {
				track, err := s.extractor.ExtractTrack(path)
				if err != nil {
					s.logger.WithError(err).WithField("file_path", path).Error("Error extracting track")
					wg.Done()
					continue
				}
				mu.Lock()
				tracks = append(tracks, track)
				mu.Unlock()
				s.logger.WithFields(logrus.Fields{
					"artist": track.Artist,
					"title":  track.Title,
				}).Info("Added track")
				wg.Done()
			}
		}()
	}

	// Walk directory and enqueue jobs
	walkErr := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && s.extractor.IsAudioFile(path) {
			wg.Add(1)
			jobs <- path
		}
		return nil
	})

	// Close jobs channel and wait for all workers
	close(jobs)
	wg.Wait()

	sort.Slice(tracks, func(i, j int) bool { return tracks[i].URL < tracks[j].URL })

	s.logger.WithField("count", len(tracks)).Info("Library scan complete")
	return tracks, walkErr
}
