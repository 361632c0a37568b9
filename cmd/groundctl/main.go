package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/groundcrewhq/groundcrew/internal/export"
	"github.com/groundcrewhq/groundcrew/internal/models"
	"github.com/groundcrewhq/groundcrew/internal/store"
)

var CLI struct {
	Version     kong.VersionFlag
	DatabaseURL string `help:"Postgres connection string." env:"DATABASE_URL" required:""`

	Migrate MigrateCmd `cmd:"" help:"Apply or roll back schema migrations."`
	Seed    SeedCmd    `cmd:"" help:"Load a small demo dataset."`
	Export  ExportCmd  `cmd:"" help:"Write a CSV export to stdout or a file."`
}

// Context carries shared command dependencies.
type Context struct {
	DatabaseURL string
	DB          *sql.DB
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("groundctl"),
		kong.Description("Operator tooling for the groundcrew back office"),
		kong.UsageOnError(),
		kong.Vars{"version": "v0.1.0"},
	)

	db, err := store.Open(CLI.DatabaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := ctx.Run(&Context{DatabaseURL: CLI.DatabaseURL, DB: db}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type MigrateCmd struct {
	Dir  string `help:"Migrations directory." default:"migrations" type:"path"`
	Down bool   `help:"Roll back one migration instead of applying all."`
}

func (c *MigrateCmd) Run(ctx *Context) error {
	m, err := migrate.New("file://"+c.Dir, ctx.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open migrations: %w", err)
	}
	defer m.Close()

	if c.Down {
		err = m.Steps(-1)
	} else {
		err = m.Up()
	}
	if err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			fmt.Println("nothing to migrate")
			return nil
		}
		return err
	}
	fmt.Println("migrations applied")
	return nil
}

type SeedCmd struct{}

func (c *SeedCmd) Run(cliCtx *Context) error {
	ctx := context.Background()

	teams := store.NewTeamStore(cliCtx.DB)
	team, err := teams.Create(ctx, store.TeamParams{
		Name:         "North Sanitation",
		Zones:        []string{"North"},
		DefaultShift: models.ShiftGreen,
		Capacity:     12,
	})
	if err != nil {
		return fmt.Errorf("seed team: %w", err)
	}

	staff := store.NewStaffStore(cliCtx.DB)
	seedStaff := []store.StaffParams{
		{Name: "Asha Verma", Phone: "+919876543210", Role: models.RoleSupervisor, TeamIDs: []string{team.ID}, Shift: models.ShiftGreen, Zone: "North"},
		{Name: "Ravi Kumar", Phone: "+919876543211", Role: models.RoleStaff, TeamIDs: []string{team.ID}, Shift: models.ShiftGreen, Zone: "North"},
		{Name: "Meena Joshi", Phone: "+919876543212", Role: models.RoleStaff, TeamIDs: []string{team.ID}, Shift: models.ShiftOrange, Zone: "East"},
	}
	for _, params := range seedStaff {
		if _, err := staff.Create(ctx, params, "seed"); err != nil {
			return fmt.Errorf("seed staff %s: %w", params.Name, err)
		}
	}

	facilities := store.NewFacilityStore(cliCtx.DB)
	seedFacilities := []store.FacilityParams{
		{Code: "TLT-N-001", Type: models.FacilityToilet, Zone: "North", Latitude: 25.4358, Longitude: 81.8463},
		{Code: "BIN-N-001", Type: models.FacilityBin, Zone: "North", Latitude: 25.4361, Longitude: 81.8470},
		{Code: "WTR-E-001", Type: models.FacilityWater, Zone: "East", Latitude: 25.4322, Longitude: 81.8501},
	}
	for _, params := range seedFacilities {
		if _, err := facilities.Create(ctx, params); err != nil {
			return fmt.Errorf("seed facility %s: %w", params.Code, err)
		}
	}

	fmt.Printf("seeded 1 team, %d staff, %d facilities\n", len(seedStaff), len(seedFacilities))
	return nil
}

type ExportCmd struct {
	Kind string `arg:"" enum:"staff,tasks,issues" help:"Dataset to export."`
	Out  string `help:"Output file. Defaults to stdout." type:"path"`
}

func (c *ExportCmd) Run(cliCtx *Context) error {
	ctx := context.Background()

	var out io.Writer = os.Stdout
	if c.Out != "" {
		f, err := os.Create(c.Out)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	switch c.Kind {
	case "staff":
		members, err := store.NewStaffStore(cliCtx.DB).List(ctx, store.StaffFilter{})
		if err != nil {
			return err
		}
		return export.StaffCSV(out, members)
	case "tasks":
		tasks, err := store.NewTaskStore(cliCtx.DB).List(ctx, store.TaskFilter{})
		if err != nil {
			return err
		}
		return export.TasksCSV(out, tasks)
	case "issues":
		issues, err := store.NewIssueStore(cliCtx.DB).List(ctx, store.IssueFilter{})
		if err != nil {
			return err
		}
		return export.IssuesCSV(out, issues)
	}
	return fmt.Errorf("unknown export kind %q", c.Kind)
}
