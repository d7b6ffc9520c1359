package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	. "github.com/streamingfast/cli"
	"github.com/streamingfast/cli/sflags"
	"github.com/streamingfast/fieldhash/schema"
)

var listEntitiesCmd = Command(listEntitiesE,
	"list-entities <graphql-schema>",
	"List the entities of <graphql-schema> along with the record keys contributing to their hash, in order",
	ExactArgs(1),
	Flags(func(flags *pflag.FlagSet) {
		flags.Bool("snake-case", false, "Print snake case record keys instead of schema field names")
	}),
)

func listEntitiesE(cmd *cobra.Command, args []string) error {
	entities, err := schema.GetEntitiesFromSchema(args[0])
	if err != nil {
		return err
	}

	snakeCase := sflags.MustGetBool(cmd, "snake-case")
	for _, entity := range entities {
		fmt.Printf("%s: %s\n", entity.Name, strings.Join(entity.ContributorNames(snakeCase), ","))
	}

	return nil
}
