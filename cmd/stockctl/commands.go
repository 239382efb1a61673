package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/export"
	"github.com/jhoicas/stock-ledger/internal/bootstrap"
	"github.com/jhoicas/stock-ledger/internal/domain/stock"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// openApp carga la configuración y arma los casos de uso.
func openApp(ctx context.Context) (*bootstrap.App, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})
	app, err := bootstrap.Build(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return app, cfg, nil
}

// ── seed ──────────────────────────────────────────────────────────────────────

type seedCmd struct{}

func (*seedCmd) Name() string     { return "seed" }
func (*seedCmd) Synopsis() string { return "create the default admin account" }
func (*seedCmd) Usage() string {
	return `stockctl seed

  Creates ADMIN_USERNAME with ADMIN_PASSWORD if it does not exist and rewrites
  the adminUsers projection from the user roles.
`
}
func (*seedCmd) SetFlags(*flag.FlagSet) {}

func (*seedCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	app, cfg, err := openApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		return subcommands.ExitFailure
	}
	defer app.Close()

	created, err := app.Seed(ctx, cfg.Admin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error seeding admin: %v\n", err)
		return subcommands.ExitFailure
	}
	if created {
		fmt.Printf("admin %q created\n", cfg.Admin.Username)
	} else {
		fmt.Printf("admin %q already exists\n", cfg.Admin.Username)
	}
	return subcommands.ExitSuccess
}

// ── migrate ───────────────────────────────────────────────────────────────────

type migrateCmd struct{}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "apply the postgres schema migrations" }
func (*migrateCmd) Usage() string {
	return `stockctl migrate

  Applies the embedded migrations to DATABASE_URL (or the DB_* settings).
`
}
func (*migrateCmd) SetFlags(*flag.FlagSet) {}

func (*migrateCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return subcommands.ExitFailure
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})
	if err := postgres.Migrate(cfg.DB.ConnectionString(), log.Named("migrate")); err != nil {
		fmt.Fprintf(os.Stderr, "Error applying migrations: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Println("migrations applied")
	return subcommands.ExitSuccess
}

// ── levels ────────────────────────────────────────────────────────────────────

type levelsCmd struct {
	snapshot bool
	raw      bool
}

func (*levelsCmd) Name() string     { return "levels" }
func (*levelsCmd) Synopsis() string { return "display the stock level of every item" }
func (*levelsCmd) Usage() string {
	return `stockctl levels [-snapshot] [-raw]

  Prints a table with the current level of each item, flagging low stock.
`
}

func (c *levelsCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.snapshot, "snapshot", false, "read the materialized stock_levels table (postgres backend only)")
	f.BoolVar(&c.raw, "raw", false, "print plain markdown instead of rendering it")
}

func (c *levelsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	app, _, err := openApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		return subcommands.ExitFailure
	}
	defer app.Close()

	var rows []dto.StockLevelDTO
	if c.snapshot {
		if app.Levels == nil {
			fmt.Fprintln(os.Stderr, "Error: -snapshot requires STORE_BACKEND=postgres")
			return subcommands.ExitUsageError
		}
		levels, err := app.Levels.List(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading snapshot: %v\n", err)
			return subcommands.ExitFailure
		}
		for _, l := range levels {
			rows = append(rows, dto.StockLevelDTO{ItemKey: l.ItemKey, DisplayName: l.DisplayName, Quantity: l.Quantity, LowStock: stock.IsLow(l.Quantity)})
		}
	} else {
		rows, err = app.Ledger.Levels(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error computing levels: %v\n", err)
			return subcommands.ExitFailure
		}
	}

	md := levelsMarkdown(rows)
	if c.raw {
		fmt.Print(md)
		return subcommands.ExitSuccess
	}
	printMarkdown(md)
	return subcommands.ExitSuccess
}

// levelsMarkdown tabla markdown de niveles.
func levelsMarkdown(rows []dto.StockLevelDTO) string {
	var sb strings.Builder
	sb.WriteString("# Stock levels\n\n")
	if len(rows) == 0 {
		sb.WriteString("_No items in the ledger._\n")
		return sb.String()
	}
	sb.WriteString("| Item | Quantity | Status |\n")
	sb.WriteString("|:-----|---------:|:-------|\n")
	for _, r := range rows {
		status := "ok"
		if r.LowStock {
			status = "**low**"
		}
		fmt.Fprintf(&sb, "| %s | %s | %s |\n", escapeCell(r.DisplayName), r.Quantity.String(), status)
	}
	return sb.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// printMarkdown renderiza md para la terminal; si falla, lo imprime tal cual.
func printMarkdown(md string) {
	out, err := glamour.Render(md, "dark")
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}

// ── export ────────────────────────────────────────────────────────────────────

type exportCmd struct {
	format string
	output string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "export the whole ledger to a file" }
func (*exportCmd) Usage() string {
	return `stockctl export [-f xlsx|pdf|xml] [-o <file>]

  Writes every transaction to Inventory_Export_<date>.<ext> (or -o).
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.format, "f", string(export.FormatXLSX), "output format: xlsx, pdf or xml")
	f.StringVar(&c.output, "o", "", "output file (default Inventory_Export_<date>.<ext>)")
}

func (c *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	format, err := export.ParseFormat(c.format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	app, _, err := openApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		return subcommands.ExitFailure
	}
	defer app.Close()

	file, err := app.Export.Export(ctx, format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error exporting: %v\n", err)
		return subcommands.ExitFailure
	}
	name := c.output
	if name == "" {
		name = file.Name
	}
	if err := os.WriteFile(name, file.Content, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", name, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("%s written (%d bytes)\n", name, len(file.Content))
	return subcommands.ExitSuccess
}
