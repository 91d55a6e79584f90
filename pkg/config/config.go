package config

import (
	"errors"
	"flag"
	"fmt"
	"strings"
)

// Genlock roles of an instance.
const (
	GenlockDisabled = "disabled"
	GenlockMaster   = "master"
	GenlockSlave    = "slave"
)

type AppConfig struct {
	App     App
	Render  Render
	NDI     NDI
	Genlock Genlock
	HTTP    HTTP
}

type App struct {
	Debug    bool
	Tag      string
	LockFile string
}

// Render describes the frame source surface.
type Render struct {
	URL         string
	Width       int
	Height      int
	FPS         int
	Progressive bool
}

type NDI struct {
	Name       string
	Groups     string
	ClockVideo bool
	ClockAudio bool
}

type Genlock struct {
	Mode          string
	MasterAddress string
	Port          int
}

type HTTP struct {
	Enabled    bool
	Server     Server
	Monitoring Monitoring
}

type Server struct {
	Address string
	Https   bool
	Tls     struct {
		Address   string
		Domain    string
		HttpsKey  string
		HttpsCert string
	}
}

func (s *Server) GetAddr() string {
	if s.Https {
		return s.Tls.Address
	}
	return s.Address
}

type Monitoring struct {
	Port             int
	URLPrefix        string
	MetricEnabled    bool
	ProfilingEnabled bool
}

func (m *Monitoring) IsEnabled() bool { return m.MetricEnabled || m.ProfilingEnabled }

// allows custom config path
var appConfigPath string

// Dir returns the directory the config was loaded from, for watchers.
func Dir() string { return appConfigPath }

func NewAppConfig() (conf AppConfig, err error) {
	if err = LoadConfig(&conf, appConfigPath); err != nil {
		return
	}
	conf.Genlock.Mode = strings.ToLower(conf.Genlock.Mode)
	err = conf.Validate()
	return
}

// ParseFlags updates config values from passed runtime flags.
// Define own flags with default value set to the current config param.
// Don't forget to call flag.Parse().
func (c *AppConfig) ParseFlags() {
	flag.StringVar(&c.Render.URL, "url", c.Render.URL, "Page URL to render")
	flag.IntVar(&c.Render.Width, "width", c.Render.Width, "Frame width")
	flag.IntVar(&c.Render.Height, "height", c.Render.Height, "Frame height")
	flag.IntVar(&c.Render.FPS, "fps", c.Render.FPS, "Target framerate")
	flag.StringVar(&c.NDI.Name, "ndi-name", c.NDI.Name, "NDI source name")
	flag.StringVar(&c.NDI.Groups, "ndi-groups", c.NDI.Groups, "NDI groups, comma-separated")
	flag.StringVar(&c.Genlock.Mode, "genlock", c.Genlock.Mode, "Genlock mode: disabled, master, slave")
	flag.StringVar(&c.Genlock.MasterAddress, "genlock-master", c.Genlock.MasterAddress, "Master address for slave mode")
	flag.StringVar(&c.HTTP.Server.Address, "address", c.HTTP.Server.Address, "HTTP server address (host:port)")
	flag.IntVar(&c.HTTP.Monitoring.Port, "monitoring.port", c.HTTP.Monitoring.Port, "Monitoring server port")
	flag.BoolVar(&c.App.Debug, "debug", c.App.Debug, "Enable debug logging")
	flag.StringVar(&appConfigPath, "conf", appConfigPath, "Set custom configuration file path")
	flag.Parse()
}

func (c *AppConfig) Validate() error {
	if c.Render.Width < 16 || c.Render.Width > 7680 {
		return fmt.Errorf("width must be between 16 and 7680, got %d", c.Render.Width)
	}
	if c.Render.Height < 16 || c.Render.Height > 4320 {
		return fmt.Errorf("height must be between 16 and 4320, got %d", c.Render.Height)
	}
	if c.Render.FPS < 1 || c.Render.FPS > 240 {
		return fmt.Errorf("fps must be between 1 and 240, got %d", c.Render.FPS)
	}
	if c.Render.URL == "" {
		return errors.New("url cannot be empty")
	}
	if c.NDI.Name == "" {
		return errors.New("source name cannot be empty")
	}
	switch c.Genlock.Mode {
	case GenlockDisabled, GenlockMaster, GenlockSlave:
	default:
		return fmt.Errorf("genlock mode must be disabled, master, or slave, got %q", c.Genlock.Mode)
	}
	if c.Genlock.Mode == GenlockSlave && c.Genlock.MasterAddress == "" {
		return errors.New("genlock slave mode needs a master address")
	}
	if c.Genlock.Port < 1 || c.Genlock.Port > 65535 {
		return fmt.Errorf("invalid genlock port %d", c.Genlock.Port)
	}
	if c.HTTP.Enabled && c.HTTP.Server.Address == "" {
		return errors.New("http server address cannot be empty")
	}
	return nil
}
