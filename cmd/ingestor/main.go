package main

import (
	"context"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cleanflow/water-recovery-system/internal/analytics"
	"github.com/cleanflow/water-recovery-system/internal/cloud"
	"github.com/cleanflow/water-recovery-system/internal/config"
	"github.com/cleanflow/water-recovery-system/internal/database"
	"github.com/cleanflow/water-recovery-system/internal/inference"
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

	opts := mqtt.NewClientOptions().AddBroker(config.MQTTBroker())
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatal().Err(token.Error()).Msg("mqtt connect")
	}
	defer client.Disconnect(250)

	handler := func(_ mqtt.Client, msg mqtt.Message) {
		if err := svcs.Readings.FromMQTT(msg.Topic(), msg.Payload()); err != nil {
			log.Error().Err(err).Msg("ingest failed")
		}
	}

	if token := client.Subscribe(config.MQTTTopic(), 0, handler); token.Wait() && token.Error() != nil {
		log.Fatal().Err(token.Error()).Msg("subscribe failed")
	}

	log.Info().Str("topic", config.MQTTTopic()).Msg("ingestor running; Ctrl+C to stop")
	for {
		time.Sleep(10 * time.Second)
	}
}
