package hasher

import (
	"github.com/streamingfast/logging"
)

var zlog, tracer = logging.PackageLogger("hasher", "github.com/streamingfast/fieldhash/hasher")
