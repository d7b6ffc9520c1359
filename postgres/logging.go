package postgres

import (
	"github.com/streamingfast/logging"
)

var zlog, tracer = logging.PackageLogger("fieldhash-postgres", "github.com/streamingfast/fieldhash/postgres")
