package processor

import (
	"github.com/streamingfast/logging"
)

var zlog, defaultTracer = logging.PackageLogger("processor", "github.com/streamingfast/fieldhash/processor")
