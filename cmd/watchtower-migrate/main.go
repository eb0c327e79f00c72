package main

import (
	"flag"
	"log"

	"github.com/chainsafe/watchtower-bridge/pkg/config"
	"github.com/chainsafe/watchtower-bridge/pkg/pgutil"
	mghelper "github.com/chainsafe/watchtower-bridge/pkg/pgutil/migrations"
	"github.com/chainsafe/watchtower-bridge/pkg/store/migrations"

	"github.com/uptrace/bun/migrate"
)

func main() {
	cfgPath := flag.String("config", "config.example.yaml", "Path to configuration file")
	flag.Usage = mghelper.Usage
	flag.Parse()

	cfg, err := config.LoadWatchtowerConfig(*cfgPath)
	if err != nil {
		log.Fatalf("error reading configuration file: %s", err.Error())
	}

	db, err := pgutil.ConnectDB(&cfg.Database)
	if err != nil {
		log.Fatalf("error connecting to database: %s", err.Error())
	}
	defer db.Close()

	log.Printf("Running migrations for watchtower database (%s)...\n", cfg.Database.Database)

	migrator := migrate.NewMigrator(db, migrations.Migrations)
	if err := mghelper.RunMigrations(migrator, flag.Args()...); err != nil {
		mghelper.Exitf(err.Error())
	}
}
