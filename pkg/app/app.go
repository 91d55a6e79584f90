// Package app assembles the frame source, pump, sync clock, and the
// HTTP surfaces into one runnable unit.
package app

import (
	"errors"
	"sync"
	"time"

	"github.com/yavik-kapadia/HTML2NDI/pkg/api"
	"github.com/yavik-kapadia/HTML2NDI/pkg/config"
	"github.com/yavik-kapadia/HTML2NDI/pkg/genlock"
	"github.com/yavik-kapadia/HTML2NDI/pkg/logger"
	"github.com/yavik-kapadia/HTML2NDI/pkg/monitoring"
	"github.com/yavik-kapadia/HTML2NDI/pkg/ndi"
	"github.com/yavik-kapadia/HTML2NDI/pkg/os"
	"github.com/yavik-kapadia/HTML2NDI/pkg/pump"
	"github.com/yavik-kapadia/HTML2NDI/pkg/render"
	"github.com/yavik-kapadia/HTML2NDI/pkg/service"
)

const watchdogTimeout = 10 * time.Second

var ErrAlreadyRunning = errors.New("app: another instance holds the lock file")

type App struct {
	conf config.AppConfig
	log  *logger.Logger

	meta     ndi.Meta
	genlock  *genlock.Genlock
	pump     *pump.Pump
	producer *render.Producer
	watchdog *Watchdog
	watcher  *config.Watcher
	lock     *os.Flock
	services service.Group

	quit     chan struct{}
	quitOnce sync.Once
}

func New(conf config.AppConfig, sender ndi.Sender, log *logger.Logger) (*App, error) {
	a := &App{conf: conf, log: log, quit: make(chan struct{})}
	a.meta = ndi.NewMeta(conf.NDI.Name, conf.NDI.Groups)

	mode, err := genlock.ParseMode(conf.Genlock.Mode)
	if err != nil {
		return nil, err
	}
	a.genlock = genlock.New(mode, conf.Genlock.MasterAddress, conf.Genlock.Port, conf.Render.FPS, log)

	a.pump = pump.New(sender, a.genlock, conf.Render.FPS, conf.Render.Progressive, log)
	a.watchdog = NewWatchdog(watchdogTimeout, a.Shutdown, log)
	a.producer = render.NewProducer(func(px []byte, w, h int) {
		a.pump.Submit(px, w, h)
		a.watchdog.Heartbeat()
	}, conf.Render.Width, conf.Render.Height, conf.Render.FPS, log)
	a.producer.SetSource(conf.Render.URL)

	if conf.HTTP.Enabled {
		ctl, err := api.New(conf.HTTP.Server, api.Deps{
			Meta:     a.meta,
			Pump:     a.pump,
			Genlock:  a.genlock,
			Producer: a.producer,
			Shutdown: a.Shutdown,
			Reload:   a.Reload,
			Stalled: func() bool {
				return a.watchdog.IsRunning() && a.watchdog.SinceHeartbeat() > watchdogTimeout
			},
		}, log)
		if err != nil {
			return nil, err
		}
		a.services.Add(ctl)
	}
	a.services.AddIf(conf.HTTP.Monitoring.IsEnabled(), monitoring.New(conf.HTTP.Monitoring, log))

	return a, nil
}

func (a *App) Run() error {
	if path := a.conf.App.LockFile; path != "" {
		lock, err := os.NewFileLock(path)
		if err != nil {
			return err
		}
		ok, err := lock.TryLock()
		if err != nil {
			return err
		}
		if !ok {
			return ErrAlreadyRunning
		}
		a.lock = lock
	}

	if err := a.genlock.Init(); err != nil {
		return err
	}

	monitoring.RegisterPumpMetrics(a.pump)
	monitoring.RegisterGenlockMetrics(a.genlock)

	a.pump.Start()
	a.producer.Start()
	a.watchdog.Start()
	a.services.Start()

	if dir := config.Dir(); dir != "" && os.Exists(dir) {
		a.watcher = config.NewWatcher(dir, a.log)
		a.watcher.OnReload = a.applyConfig
		if err := a.watcher.Start(); err != nil {
			a.log.Warn().Err(err).Msg("config watcher disabled")
			a.watcher = nil
		}
	}

	a.log.Info().Msgf("running as %s (%s), %dx%d @ %d fps, sync %s",
		a.meta.Name, a.meta.InstanceID,
		a.conf.Render.Width, a.conf.Render.Height, a.conf.Render.FPS, a.genlock.Mode())
	return nil
}

// Reload restarts the frame source with its current settings. The
// pump keeps running and holds the last frame through the restart.
func (a *App) Reload() {
	a.log.Info().Msg("restarting frame source")
	a.producer.Stop()
	a.producer.Start()
}

// applyConfig applies the runtime-tunable subset of a freshly loaded
// config. Structural settings (output name, ports) need a restart.
func (a *App) applyConfig(conf config.AppConfig) {
	a.pump.SetTargetFPS(conf.Render.FPS)
	a.producer.SetFPS(conf.Render.FPS)
	a.producer.SetSize(conf.Render.Width, conf.Render.Height)
	if conf.Render.URL != a.producer.Source() {
		a.producer.SetSource(conf.Render.URL)
		a.Reload()
	}

	if mode, err := genlock.ParseMode(conf.Genlock.Mode); err == nil && mode != a.genlock.Mode() {
		if err := a.genlock.SetMode(mode); err != nil {
			a.log.Error().Err(err).Msg("genlock mode change failed")
		}
	}
	if conf.Genlock.MasterAddress != "" && a.genlock.Mode() == genlock.ModeSlave {
		if err := a.genlock.SetMasterAddress(conf.Genlock.MasterAddress); err != nil {
			a.log.Error().Err(err).Msg("genlock master change failed")
		}
	}
}

// Shutdown asks the application to terminate. Safe to call from any
// goroutine, repeatedly.
func (a *App) Shutdown() { a.quitOnce.Do(func() { close(a.quit) }) }

// Done is closed once a shutdown has been requested.
func (a *App) Done() <-chan struct{} { return a.quit }

func (a *App) Stop() error {
	a.log.Info().Msg("shutting down")
	if a.watcher != nil {
		_ = a.watcher.Stop()
	}
	a.watchdog.Stop()
	err := a.services.Stop()
	a.producer.Stop()
	a.pump.Stop()
	a.genlock.Shutdown()
	if a.lock != nil {
		_ = a.lock.Unlock()
	}
	return err
}
