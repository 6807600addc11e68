package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cleanflow/water-recovery-system/internal/cloud"
	"github.com/cleanflow/water-recovery-system/internal/config"
	"github.com/cleanflow/water-recovery-system/internal/ml"
	"github.com/cleanflow/water-recovery-system/internal/training"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	res, err := training.Run(training.Config{
		Samples:      config.TrainSamples(),
		TestFraction: config.TrainTestFraction(),
		Seed:         config.TrainSeed(),
		Trees:        config.TrainTrees(),
		MaxDepth:     config.TrainMaxDepth(),
		ArtifactDir:  config.ModelDir(),
	}, config.QualityPolicy())
	if err != nil {
		log.Fatal().Err(err).Msg("training failed")
	}

	if config.UseCloudServices() && config.S3Bucket() != "" {
		backup(res)
	}
}

// backup copies the artifact pair to S3. Failures are logged and swallowed;
// the local artifacts stay usable either way.
func backup(res *training.Result) {
	s3c, err := cloud.NewS3Client(config.AWSRegion(), config.S3Bucket())
	if err != nil {
		log.Error().Err(err).Msg("artifact backup skipped")
		return
	}

	ctx := context.Background()
	for name, path := range map[string]string{
		ml.ScalerFileName: res.ScalerPath,
		ml.ModelFileName:  res.ModelPath,
	} {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Error().Err(err).Str("artifact", name).Msg("artifact backup failed")
			continue
		}
		if err := s3c.UploadArtifact(ctx, cloud.ArtifactKey(res.RunID, name), data); err != nil {
			log.Error().Err(err).Str("artifact", name).Msg("artifact backup failed")
			continue
		}
		log.Info().Str("artifact", name).Str("run_id", res.RunID).Msg("artifact backed up")
	}
}
