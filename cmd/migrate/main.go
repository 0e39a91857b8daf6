// migrate aplica o revierte las migraciones embebidas sobre la base configurada.
//
// Uso: go run ./cmd/migrate [up|down|version|steps N|force V]
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/jhoicas/stock-ledger/internal/infrastructure/migration"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
	flag "github.com/spf13/pflag"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "uso: migrate [up|down|version|steps N|force V]")
		flag.PrintDefaults()
	}
	flag.Parse()

	os.Exit(migrate(flag.Args()))
}

func migrate(args []string) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		return 1
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: "migrate"})

	m, err := migration.New(cfg.DB.MigrateURL(), log)
	if err != nil {
		log.Error().Err(err).Msg("inicializar migraciones")
		return 1
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn().Err(err).Msg("cerrar migrador")
		}
	}()

	if err := run(m, args); err != nil {
		log.Error().Err(err).Msg("migración fallida")
		return 1
	}
	return 0
}

func run(m *migration.Migrator, args []string) error {
	cmd := "up"
	if len(args) > 0 {
		cmd = args[0]
	}
	switch cmd {
	case "up":
		return m.Up()
	case "down":
		return m.Down()
	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		fmt.Printf("version=%d dirty=%t\n", version, dirty)
		return nil
	case "steps", "force":
		if len(args) < 2 {
			return fmt.Errorf("%s requiere un número", cmd)
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("%s: número inválido %q", cmd, args[1])
		}
		if cmd == "steps" {
			return m.Steps(n)
		}
		return m.Force(n)
	default:
		flag.Usage()
		return fmt.Errorf("comando desconocido: %s", cmd)
	}
}
