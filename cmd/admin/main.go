package main

import (
	"errors"
	"os"

	"yayasan/internal/config"
	"yayasan/internal/database"
	"yayasan/internal/repository"
	"yayasan/internal/service"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	cfg.ConfigureLogging(os.Stderr)

	db, err := database.NewConnection(cfg.DBDriver, cfg.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}

	tx := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	cli := &commandLine{
		db:     db,
		users:  service.NewUserService(tx, userRepo, repository.NewStaffRepository(db), repository.NewAuditRepository(db), cfg.JWTSecret, cfg.JWTTTL),
		roles:  service.NewRoleService(tx, repository.NewRoleRepository(db)),
		scope:  repository.NewScopeRepository(db),
		stdout: os.Stdout,
	}

	if err := cli.run(os.Args); err != nil {
		if errors.Is(err, errHelp) {
			os.Exit(2)
		}
		log.Fatal().Err(err).Msg("admin")
	}
}
