package processor

import (
	"sync"
	"time"

	"github.com/streamingfast/dmetrics"
	"github.com/streamingfast/shutter"
	"go.uber.org/zap"
)

type Stats struct {
	*shutter.Shutter

	recordRate    *dmetrics.AvgRatePromCounter
	hashedRecords *dmetrics.ValueFromMetric
	hashedFiles   *dmetrics.ValueFromMetric
	lastFileLock  sync.Mutex
	lastFile      string
	logger        *zap.Logger
}

func NewStats(logger *zap.Logger) *Stats {
	return &Stats{
		Shutter: shutter.New(),

		recordRate:    dmetrics.MustNewAvgRateFromPromCounter(HashedRecordsCount, 1*time.Second, 30*time.Second, "records"),
		hashedRecords: dmetrics.NewValueFromMetric(HashedRecordsCount, "records"),
		hashedFiles:   dmetrics.NewValueFromMetric(HashedFilesCount, "files"),
		logger:        logger,
	}
}

func (s *Stats) RecordFile(filename string) {
	s.lastFileLock.Lock()
	defer s.lastFileLock.Unlock()

	s.lastFile = filename
}

func (s *Stats) Start(each time.Duration) {
	if s.IsTerminating() || s.IsTerminated() {
		panic("already shutdown, refusing to start again")
	}

	go func() {
		ticker := time.NewTicker(each)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.LogNow()
			case <-s.Terminating():
				return
			}
		}
	}()
}

func (s *Stats) LogNow() {
	s.lastFileLock.Lock()
	lastFile := s.lastFile
	s.lastFileLock.Unlock()

	if lastFile == "" {
		s.logger.Info("fieldhash processor hashed no file yet")
		return
	}

	// Logging fields order is important as it affects the final rendering, we carefully ordered
	// them so the development logs looks nicer.
	s.logger.Info("fieldhash processor stats",
		zap.Stringer("record_rate", s.recordRate),
		zap.Uint64("hashed_records", s.hashedRecords.ValueUint()),
		zap.Uint64("hashed_files", s.hashedFiles.ValueUint()),
		zap.String("last_file", lastFile),
	)
}

func (s *Stats) Close() {
	s.Shutdown(nil)
}
