package schema

import (
	"github.com/streamingfast/logging"
)

var zlog, _ = logging.PackageLogger("schema", "github.com/streamingfast/fieldhash/schema")
