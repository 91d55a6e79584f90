package config

import (
	"os"
	"strings"
	"testing"
)

func defaults() AppConfig {
	var c AppConfig
	c.Render = Render{URL: "about:blank", Width: 1920, Height: 1080, FPS: 60, Progressive: true}
	c.NDI = NDI{Name: "HTML2NDI", ClockVideo: true, ClockAudio: true}
	c.Genlock = Genlock{Mode: GenlockDisabled, MasterAddress: "127.0.0.1:5960", Port: 5960}
	c.HTTP.Enabled = true
	c.HTTP.Server.Address = "127.0.0.1:8080"
	return c
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*AppConfig)
		err  string
	}{
		{name: "defaults ok", mod: func(c *AppConfig) {}},
		{name: "zero fps", mod: func(c *AppConfig) { c.Render.FPS = 0 }, err: "fps"},
		{name: "fps too high", mod: func(c *AppConfig) { c.Render.FPS = 1000 }, err: "fps"},
		{name: "tiny width", mod: func(c *AppConfig) { c.Render.Width = 1 }, err: "width"},
		{name: "huge height", mod: func(c *AppConfig) { c.Render.Height = 9000 }, err: "height"},
		{name: "empty url", mod: func(c *AppConfig) { c.Render.URL = "" }, err: "url"},
		{name: "empty name", mod: func(c *AppConfig) { c.NDI.Name = "" }, err: "name"},
		{name: "bad genlock mode", mod: func(c *AppConfig) { c.Genlock.Mode = "multi" }, err: "genlock mode"},
		{name: "slave without master", mod: func(c *AppConfig) {
			c.Genlock.Mode = GenlockSlave
			c.Genlock.MasterAddress = ""
		}, err: "master"},
		{name: "bad genlock port", mod: func(c *AppConfig) { c.Genlock.Port = 0 }, err: "port"},
		{name: "master mode ok", mod: func(c *AppConfig) { c.Genlock.Mode = GenlockMaster }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := defaults()
			tt.mod(&c)
			err := c.Validate()
			if tt.err == "" {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.err) {
				t.Errorf("expected error containing %q, got %v", tt.err, err)
			}
		})
	}
}

func TestConfigEnvOverride(t *testing.T) {
	_ = os.Setenv("HTML2NDI_RENDER_FPS", "25")
	_ = os.Setenv("HTML2NDI_GENLOCK_MODE", "master")
	defer func() {
		_ = os.Unsetenv("HTML2NDI_RENDER_FPS")
		_ = os.Unsetenv("HTML2NDI_GENLOCK_MODE")
	}()

	var out AppConfig
	if err := LoadConfigEnv(&out); err != nil {
		t.Fatal(err)
	}
	if out.Render.FPS != 25 {
		t.Errorf("fps is %v, not 25", out.Render.FPS)
	}
	if out.Genlock.Mode != GenlockMaster {
		t.Errorf("mode is %v, not master", out.Genlock.Mode)
	}
}
