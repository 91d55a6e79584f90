package config

import (
	"github.com/fsnotify/fsnotify"

	"github.com/yavik-kapadia/HTML2NDI/pkg/logger"
)

// Watcher reloads the config file on change and hands a validated copy
// to the OnReload callback. Only runtime-tunable params (fps, url) are
// expected to be applied by the receiver; structural params need a
// restart.
type Watcher struct {
	// dir is watched as a whole so editor save-via-rename is caught too
	dir      string
	watcher  *fsnotify.Watcher
	log      *logger.Logger
	OnReload func(conf AppConfig)
}

func NewWatcher(dir string, log *logger.Logger) *Watcher {
	return &Watcher{dir: dir, log: log}
}

func (w *Watcher) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.watcher = watcher

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
					w.reload()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				w.log.Error().Err(err).Msg("config watch error")
			}
		}
	}()

	return watcher.Add(w.dir)
}

func (w *Watcher) reload() {
	var conf AppConfig
	if err := LoadConfig(&conf, w.dir); err != nil {
		w.log.Error().Err(err).Msg("config reload failed")
		return
	}
	if err := conf.Validate(); err != nil {
		w.log.Error().Err(err).Msg("reloaded config is invalid, keeping the old one")
		return
	}
	w.log.Info().Msg("config reloaded")
	if w.OnReload != nil {
		w.OnReload(conf)
	}
}

func (w *Watcher) Stop() error {
	if w.watcher == nil {
		return nil
	}
	return w.watcher.Close()
}
