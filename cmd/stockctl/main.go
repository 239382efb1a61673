// Command stockctl tareas de operación sobre el libro de stock: alta del admin,
// consulta de niveles, exportación y migraciones.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")

	commander.Register(&seedCmd{}, "setup")
	commander.Register(&migrateCmd{}, "setup")
	commander.Register(&levelsCmd{}, "stock")
	commander.Register(&exportCmd{}, "stock")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
