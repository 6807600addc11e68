package main

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cleanflow/water-recovery-system/internal/analytics"
	"github.com/cleanflow/water-recovery-system/internal/cloud"
	"github.com/cleanflow/water-recovery-system/internal/config"
	"github.com/cleanflow/water-recovery-system/internal/database"
	httpHandlers "github.com/cleanflow/water-recovery-system/internal/http"
	"github.com/cleanflow/water-recovery-system/internal/inference"
	"github.com/cleanflow/water-recovery-system/internal/recovery"
	"github.com/cleanflow/water-recovery-system/internal/repository"
	"github.com/cleanflow/water-recovery-system/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	model, err := inference.New(config.ModelDir())
	if err != nil {
		log.Fatal().Err(err).Msg("model load failed; run the trainer first")
	}

	var store service.HistoryStore
	if config.UseCloudServices() {
		dyn, err := cloud.NewDynamoHistory(config.AWSRegion(), config.DynamoTable())
		if err != nil {
			log.Fatal().Err(err).Msg("dynamodb setup failed")
		}
		store = dyn
	} else {
		db, err := database.Connect()
		if err != nil {
			log.Fatal().Err(err).Msg("db connect failed")
		}
		defer db.Close()
		if err := database.EnsureSchema(context.Background(), db); err != nil {
			log.Fatal().Err(err).Msg("schema setup failed")
		}
		store = repository.NewHistory(db)
	}

	var alerts service.AlertSender
	if config.UseCloudServices() && config.SNSTopicArn() != "" {
		sns, err := cloud.NewSNSClient(config.AWSRegion(), config.SNSTopicArn())
		if err != nil {
			log.Fatal().Err(err).Msg("sns setup failed")
		}
		alerts = sns
	}

	svcs := service.New(store, model, alerts, analytics.Config{
		VolumeRecoveredL: config.VolumeRecoveredL(),
		VolumeTreatedL:   config.VolumeTreatedL(),
		ReusedFraction:   config.ReusedFraction(),
		DailyDays:        config.DailyBreakdownDays(),
	})

	simCfg := recovery.Config{
		CatchmentAreaM2:  config.SimCatchmentM2(),
		RainfallMMPerDay: config.SimRainfallMM(),
		HouseholdSize:    config.SimHouseholdSize(),
		StorageCapacityL: config.SimStorageL(),
		CostPerLiter:     config.SimCostPerLiter(),
		Days:             config.SimDays(),
		Seed:             config.SimSeed(),
	}

	app := fiber.New()
	httpHandlers.Register(app, svcs, simCfg)

	addr := config.APIAddr()
	log.Info().Str("addr", addr).Msg("api listening")
	log.Fatal().Err(app.Listen(addr)).Msg("server exit")
}
