package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/streamingfast/cli"
	. "github.com/streamingfast/cli"
	"github.com/streamingfast/cli/sflags"
	"github.com/streamingfast/dstore"
	"github.com/streamingfast/fieldhash/processor"
	"github.com/streamingfast/fieldhash/record"
	"github.com/streamingfast/fieldhash/schema"
	"github.com/streamingfast/shutter"
	"go.uber.org/zap"
)

var hashCmd = Command(hashE,
	"hash <input-store> <output-store>",
	"Computes the combined hash of every record of the JSONL files found in <input-store>",
	Description(`
		Reads every '.jsonl' file of <input-store> and writes, for each of them, a '.csv' file of
		the same name to <output-store> holding one 'file,line,hash' row per record.

		The record keys contributing to the hash, in order, come from '--fields' or from the
		declaration order of '--entity' fields in '--graphql-schema'. Without any of them, every
		key of a record contributes, in sorted order.

		Arguments:
		- <input-store>: Store URL (local path, gs://, s3://, ...) containing JSONL record files.
		- <output-store>: Store URL where CSV hash files will be written.
	`),
	ExactArgs(2),
	Flags(func(flags *pflag.FlagSet) {
		flags.StringSlice("fields", nil, "Ordered record keys contributing to the hash, mutually exclusive with --graphql-schema")
		flags.String("graphql-schema", "", "Path to a graphql schema, the fields of --entity contribute to the hash in declaration order")
		flags.String("entity", "", "Name of the --graphql-schema entity describing the records")
		flags.Bool("snake-case", false, "Convert --graphql-schema field names to snake case to find them in records")
		flags.Int("concurrency", 4, "Number of input files hashed concurrently")
		flags.Duration("stats-interval", 15*time.Second, "Interval at which hashing progress is logged, 0 disables it")
	}),
)

func hashE(cmd *cobra.Command, args []string) error {
	app := shutter.New()

	ctx, cancelApp := context.WithCancel(cmd.Context())
	app.OnTerminating(func(_ error) {
		cancelApp()
	})

	processor.RegisterMetrics()

	keys, err := contributorKeys(cmd)
	if err != nil {
		return err
	}

	inputStore, err := dstore.NewStore(args[0], "", "", false)
	if err != nil {
		return fmt.Errorf("unable to create input store: %w", err)
	}

	outputStore, err := dstore.NewStore(args[1], "", "", true)
	if err != nil {
		return fmt.Errorf("unable to create output store: %w", err)
	}

	proc := processor.New(
		inputStore,
		outputStore,
		record.NewHasher(nil, keys...),
		sflags.MustGetInt(cmd, "concurrency"),
		zlog,
		tracer,
		processor.WithStatsInterval(sflags.MustGetDuration(cmd, "stats-interval")),
	)

	proc.OnTerminating(app.Shutdown)
	app.OnTerminating(func(err error) {
		proc.Shutdown(err)
	})

	go proc.Run(ctx)
	zlog.Info("ready, waiting for signal to quit")

	signalHandler, isSignaled, _ := cli.SetupSignalHandler(0*time.Second, zlog)
	select {
	case <-signalHandler:
		go app.Shutdown(nil)
	case <-app.Terminating():
		zlog.Info("run terminating", zap.Bool("from_signal", isSignaled.Load()), zap.Bool("with_error", app.Err() != nil))
	}

	zlog.Info("waiting for run termination")
	select {
	case <-app.Terminated():
	case <-time.After(30 * time.Second):
		zlog.Warn("application did not terminate within 30s")
	}

	if err := app.Err(); err != nil {
		zlog.Error("unsuccessful termination", zap.Error(err))
		return err
	}

	zlog.Info("run terminated gracefully")
	return nil
}

func contributorKeys(cmd *cobra.Command) ([]string, error) {
	fields := sflags.MustGetStringSlice(cmd, "fields")
	graphqlSchemaFilename := sflags.MustGetString(cmd, "graphql-schema")
	entityName := sflags.MustGetString(cmd, "entity")

	switch {
	case len(fields) > 0 && graphqlSchemaFilename != "":
		return nil, fmt.Errorf("flags --fields and --graphql-schema are mutually exclusive")

	case len(fields) > 0:
		return fields, nil

	case graphqlSchemaFilename != "":
		if entityName == "" {
			return nil, fmt.Errorf("flag --entity is required with --graphql-schema")
		}

		entities, err := schema.GetEntitiesFromSchema(graphqlSchemaFilename)
		if err != nil {
			return nil, fmt.Errorf("reading schema from %q: %w", graphqlSchemaFilename, err)
		}

		entity, err := schema.FindEntity(entities, entityName)
		if err != nil {
			return nil, err
		}

		return entity.ContributorNames(sflags.MustGetBool(cmd, "snake-case")), nil
	}

	return nil, nil
}
