package main

import (
	goflag "flag"

	flag "github.com/spf13/pflag"
	"github.com/yavik-kapadia/HTML2NDI/pkg/app"
	"github.com/yavik-kapadia/HTML2NDI/pkg/config"
	"github.com/yavik-kapadia/HTML2NDI/pkg/logger"
	"github.com/yavik-kapadia/HTML2NDI/pkg/ndi"
	"github.com/yavik-kapadia/HTML2NDI/pkg/os"
)

var Version = "?"

func main() {
	conf, err := config.NewAppConfig()
	if err != nil {
		logger.Default().Fatal().Err(err).Msg("config load failed")
	}
	flag.CommandLine.AddGoFlagSet(goflag.CommandLine)
	conf.ParseFlags()

	log := logger.NewConsole(conf.App.Debug, conf.App.Tag, false)
	if err := conf.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}
	log.Info().Msgf("version %s", Version)
	if log.GetLevel() < logger.InfoLevel {
		log.Debug().Msgf("config: %+v", conf)
	}

	a, err := app.New(conf, ndi.Discard{}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("init failed")
	}
	if err := a.Run(); err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
	defer func() {
		if err := a.Stop(); err != nil {
			log.Error().Err(err).Msg("service shutdown errors")
		}
	}()

	select {
	case <-os.ExpectTermination():
	case <-a.Done():
	}
}
