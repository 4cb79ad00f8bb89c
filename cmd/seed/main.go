// seed inserts development sample data: labs with locations plus one audit per lab imported
// through the regular CSV import path. Idempotent: skips when the first sample lab exists.
package main

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	auditrepo "inventory-audit/backend/internal/audit/repository"
	auditservice "inventory-audit/backend/internal/audit/service"
	"inventory-audit/backend/internal/config"
	"inventory-audit/backend/internal/db"
	"inventory-audit/backend/internal/db/migrate"
	labdomain "inventory-audit/backend/internal/lab/domain"
	labrepo "inventory-audit/backend/internal/lab/repository"
	"inventory-audit/backend/internal/platform/logging"
)

//go:embed sample_audit.csv
var sampleAudit []byte

type sampleLab struct {
	name     string
	location string
	date     string
}

var sampleLabs = []sampleLab{
	{name: "Laboratório de Química", location: "Bloco A, sala 101", date: "2025-02-10T09:00:00Z"},
	{name: "Laboratório de Física", location: "Bloco A, sala 204", date: "2025-03-15T14:30:00Z"},
	{name: "Laboratório de Biologia", location: "Bloco C, sala 12", date: "2025-04-02T08:00:00Z"},
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "seed:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	return &cobra.Command{
		Use:           "seed",
		Short:         "Insert sample labs and audits for local development",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return fmt.Errorf("logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			if cfg.AutoMigrate {
				if err := migrate.Run(cfg.DatabaseURL, "up"); err != nil {
					return fmt.Errorf("migrate: %w", err)
				}
			}
			conn, err := db.Open(cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("db: %w", err)
			}
			defer conn.Close()

			_, err = seed(cmd.Context(), conn, logger, cmd.OutOrStdout())
			return err
		},
	}
}

// seed creates the sample labs and imports sampleAudit into each. It reports false when the data
// was already present.
func seed(ctx context.Context, conn *db.DB, logger *zap.Logger, out io.Writer) (bool, error) {
	labs := labrepo.NewSQLRepository(conn)
	existing, err := labs.List(ctx)
	if err != nil {
		return false, fmt.Errorf("seed check: %w", err)
	}
	for _, l := range existing {
		if l.Name == sampleLabs[0].name {
			fmt.Fprintf(out, "Seed already applied (%s exists). Skipping.\n", l.Name)
			return false, nil
		}
	}

	importer := auditservice.NewImportService(labs, auditrepo.NewSQLRepository(conn), auditservice.ImportOptions{Logger: logger})
	for _, s := range sampleLabs {
		loc := s.location
		if err := labs.Create(ctx, &labdomain.Lab{Name: s.name, Location: &loc}); err != nil {
			return false, fmt.Errorf("create lab %q: %w", s.name, err)
		}
		res, err := importer.Import(ctx, auditservice.ImportRequest{
			LabName: s.name,
			Notes:   "Auditoria de exemplo",
			Date:    s.date,
			File:    bytes.NewReader(sampleAudit),
		})
		if err != nil {
			return false, fmt.Errorf("import sample audit for %q: %w", s.name, err)
		}
		fmt.Fprintf(out, "Seeded %s: audit %d with %d items\n", s.name, res.AuditID, res.ItemCount)
	}
	return true, nil
}
