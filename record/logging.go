package record

import (
	"github.com/streamingfast/logging"
)

var zlog, tracer = logging.PackageLogger("record", "github.com/streamingfast/fieldhash/record")
