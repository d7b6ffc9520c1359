package processor

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/abourget/llerrgroup"
	"github.com/streamingfast/dstore"
	"github.com/streamingfast/fieldhash/record"
	"github.com/streamingfast/logging"
	"github.com/streamingfast/shutter"
	"go.uber.org/zap"
)

const (
	InputExtension  = ".jsonl"
	OutputExtension = ".csv"
)

// Processor hashes every record of the JSONL files found in an input store
// and writes, for each of them, a CSV file of hashes to an output store.
type Processor struct {
	*shutter.Shutter

	inputStore  dstore.Store
	outputStore dstore.Store
	hasher      *record.Hasher
	concurrency int

	stats         *Stats
	statsInterval time.Duration

	logger *zap.Logger
	tracer logging.Tracer
}

type Option func(p *Processor)

// WithStatsInterval sets how often progress is logged, 0 disables it.
func WithStatsInterval(interval time.Duration) Option {
	return func(p *Processor) {
		p.statsInterval = interval
	}
}

func New(
	inputStore dstore.Store,
	outputStore dstore.Store,
	hasher *record.Hasher,
	concurrency int,
	logger *zap.Logger,
	tracer logging.Tracer,
	opts ...Option,
) *Processor {
	if logger == nil {
		logger, tracer = zlog, defaultTracer
	}

	if concurrency <= 0 {
		concurrency = 1
	}

	p := &Processor{
		Shutter:       shutter.New(),
		inputStore:    inputStore,
		outputStore:   outputStore,
		hasher:        hasher,
		concurrency:   concurrency,
		stats:         NewStats(logger),
		statsInterval: 15 * time.Second,
		logger:        logger,
		tracer:        tracer,
	}

	for _, opt := range opts {
		opt(p)
	}

	p.OnTerminating(func(_ error) {
		p.stats.LogNow()
		p.stats.Close()
	})

	return p
}

func (p *Processor) Run(ctx context.Context) {
	if p.statsInterval > 0 {
		p.stats.Start(p.statsInterval)
	}

	p.Shutdown(p.run(ctx))
}

func (p *Processor) run(ctx context.Context) error {
	p.logger.Info("retrieving input files", zap.Stringer("input_store", p.inputStore.BaseURL()))

	filenames, err := p.filesToHash(ctx)
	if err != nil {
		return err
	}

	if len(filenames) == 0 {
		return fmt.Errorf("no %s file found in input store", InputExtension)
	}

	p.logger.Info("found files to hash",
		zap.Int("file_count", len(filenames)),
		zap.Int("concurrency", p.concurrency),
		zap.Strings("keys", p.hasher.Keys()),
	)

	llg := llerrgroup.New(p.concurrency)
	for _, filename := range filenames {
		if llg.Stop() {
			break
		}

		filename := filename
		llg.Go(func() error {
			if err := p.hashFile(ctx, filename); err != nil {
				return fmt.Errorf("hashing file %q: %w", filename, err)
			}
			return nil
		})
	}

	if err := llg.Wait(); err != nil {
		return err
	}

	p.logger.Info("all files hashed", zap.Int("file_count", len(filenames)))
	return nil
}

func (p *Processor) filesToHash(ctx context.Context) (out []string, err error) {
	fileCount := 0
	err = p.inputStore.Walk(ctx, "", func(filename string) error {
		fileCount++
		if strings.HasSuffix(filename, InputExtension) {
			out = append(out, filename)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to walk input files: %w", err)
	}

	p.logger.Debug("walked input store", zap.Int("seen_file_count", fileCount), zap.Int("input_file_count", len(out)))
	return out, nil
}

// OutputFilename returns the name of the CSV object holding the hashes of
// the given input file.
func OutputFilename(inputFilename string) string {
	return strings.TrimSuffix(inputFilename, InputExtension) + OutputExtension
}

func (p *Processor) hashFile(ctx context.Context, filename string) error {
	p.logger.Debug("hashing input file", zap.String("filename", filename))

	reader, err := p.inputStore.OpenObject(ctx, filename)
	if err != nil {
		return fmt.Errorf("unable to open input file: %w", err)
	}
	defer reader.Close()

	writer := NewWriter(ctx, p.outputStore, OutputFilename(filename))
	if err := writer.WriteHeader(); err != nil {
		writer.Abort(err)
		return fmt.Errorf("writing csv header: %w", err)
	}

	recordCount, err := p.hashRecords(reader, filename, writer)
	if err != nil {
		writer.Abort(err)
		return err
	}

	if err := writer.Close(); err != nil {
		return err
	}

	HashedFilesCount.Inc()
	p.stats.RecordFile(filename)

	p.logger.Debug("input file hashed", zap.String("filename", filename), zap.Int("record_count", recordCount))
	return nil
}

func (p *Processor) hashRecords(reader io.Reader, filename string, writer *Writer) (recordCount int, err error) {
	bufReader := bufio.NewReader(reader)

	var lineNum uint64
	for {
		line, readErr := bufReader.ReadBytes('\n')
		if readErr != nil && readErr != io.EOF {
			return recordCount, fmt.Errorf("unable to read newline: %w", readErr)
		}

		if len(line) > 0 {
			lineNum++

			if trimmed := bytes.TrimSpace(line); len(trimmed) == 0 {
				SkippedLinesCount.Inc()
			} else {
				hash, err := p.hashLine(trimmed)
				if err != nil {
					return recordCount, fmt.Errorf("line %d: %w", lineNum, err)
				}

				if p.tracer.Enabled() {
					p.logger.Debug("record hashed", zap.String("filename", filename), zap.Uint64("line", lineNum), zap.Int32("hash", hash))
				}

				if err := writer.Write(filename, lineNum, hash); err != nil {
					return recordCount, fmt.Errorf("writing hash of line %d: %w", lineNum, err)
				}

				recordCount++
				HashedRecordsCount.Inc()
			}
		}

		if readErr == io.EOF {
			return recordCount, nil
		}
	}
}

func (p *Processor) hashLine(line []byte) (int32, error) {
	r, err := record.Decode(line)
	if err != nil {
		return 0, err
	}

	return p.hasher.Hash(r)
}
