package main

import (
	"github.com/streamingfast/cli"
	"github.com/streamingfast/logging"
)

var zlog, tracer = logging.RootLogger("fieldhash", "github.com/streamingfast/fieldhash/cmd/fieldhash")

func init() {
	cli.SetLogger(zlog, tracer)
}
