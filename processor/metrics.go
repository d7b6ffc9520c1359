package processor

import (
	"github.com/streamingfast/dmetrics"
)

func RegisterMetrics() {
	metrics.Register()
}

var metrics = dmetrics.NewSet()

var HashedFilesCount = metrics.NewCounter("fieldhash_hashed_files_count", "The number of input files hashed so far")
var HashedRecordsCount = metrics.NewCounter("fieldhash_hashed_records_count", "The number of records hashed so far")
var SkippedLinesCount = metrics.NewCounter("fieldhash_skipped_lines_count", "The number of blank input lines skipped so far")
