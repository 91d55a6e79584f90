// Package api is the HTTP control plane: runtime status, source and
// sync reconfiguration, frame preview, and remote shutdown.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/yavik-kapadia/HTML2NDI/pkg/config"
	"github.com/yavik-kapadia/HTML2NDI/pkg/genlock"
	"github.com/yavik-kapadia/HTML2NDI/pkg/logger"
	"github.com/yavik-kapadia/HTML2NDI/pkg/ndi"
	"github.com/yavik-kapadia/HTML2NDI/pkg/network/httpx"
	"github.com/yavik-kapadia/HTML2NDI/pkg/pump"
	"github.com/yavik-kapadia/HTML2NDI/pkg/render"
)

// Deps are the application parts the control plane operates on.
type Deps struct {
	Meta     ndi.Meta
	Pump     *pump.Pump
	Genlock  *genlock.Genlock
	Producer *render.Producer

	// Shutdown asks the application to terminate. Called on its own
	// goroutine after the HTTP response is written.
	Shutdown func()
	// Reload restarts the frame source with its current settings.
	Reload func()
	// Stalled reports whether the frame source stopped submitting.
	Stalled func() bool
}

type API struct {
	deps   Deps
	log    *logger.Logger
	server *httpx.Server
}

func New(conf config.Server, deps Deps, log *logger.Logger) (*API, error) {
	a := &API{deps: deps, log: log}
	server, err := httpx.NewServer(
		conf.GetAddr(),
		func(*httpx.Server) httpx.Handler { return a.handler() },
		httpx.WithServerConfig(conf),
		httpx.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}
	a.server = server
	return a, nil
}

func (a *API) Run() {
	a.log.Info().Msgf("starting control server at %v", a.server.Addr)
	a.server.Run()
}

func (a *API) Stop() error {
	a.log.Info().Msg("shutting down control server")
	return a.server.Stop()
}

func (a *API) handler() httpx.Handler {
	h := httpx.NewServeMux("")
	h.HandleFunc("/", a.panel)
	routes := map[string]func(httpx.ResponseWriter, *httpx.Request){
		"/status":    a.status,
		"/seturl":    a.setURL,
		"/reload":    a.reload,
		"/fps":       a.setFPS,
		"/genlock":   a.genlock,
		"/thumbnail": a.thumbnail,
		"/events":    a.events,
		"/shutdown":  a.shutdown,
	}
	// every endpoint is reachable bare and under /api
	for path, fn := range routes {
		h.HandleFunc(path, fn)
		h.HandleFunc("/api"+path, fn)
	}
	return cors(h)
}

// cors opens the API to panels served from other origins, the same
// policy the endpoints have always had.
func cors(next httpx.Handler) httpx.Handler {
	return httpx.HandlerFunc(func(w httpx.ResponseWriter, r *httpx.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type genlockStatus struct {
	Mode         string         `json:"mode"`
	Synchronized bool           `json:"synchronized"`
	OffsetUs     int64          `json:"offset_us"`
	Available    bool           `json:"available"`
	Stats        *genlock.Stats `json:"stats,omitempty"`
}

type statusResponse struct {
	URL         string        `json:"url"`
	Width       int           `json:"width"`
	Height      int           `json:"height"`
	FPS         int           `json:"fps"`
	Progressive bool          `json:"progressive"`
	ActualFPS   float64       `json:"actual_fps"`
	NDIName     string        `json:"ndi_name"`
	InstanceID  string        `json:"instance_id"`
	Running     bool          `json:"running"`
	Stalled     bool          `json:"stalled"`
	Frames      pump.Stats    `json:"frames"`
	Genlock     genlockStatus `json:"genlock"`
	Genlocked   bool          `json:"genlocked"`
}

func (a *API) currentStatus() statusResponse {
	w, h, fps := a.deps.Producer.Size()
	st := a.deps.Pump.Stats()
	resp := statusResponse{
		URL:         a.deps.Producer.Source(),
		Width:       w,
		Height:      h,
		FPS:         fps,
		Progressive: true,
		ActualFPS:   st.MeasuredFPS,
		NDIName:     a.deps.Meta.Name,
		InstanceID:  a.deps.Meta.InstanceID,
		Running:     a.deps.Pump.IsRunning(),
		Stalled:     a.deps.Stalled != nil && a.deps.Stalled(),
		Frames:      st,
		Genlock:     genlockStatus{Mode: genlock.ModeDisabled.String()},
	}
	if g := a.deps.Genlock; g != nil {
		stats := g.Stats()
		resp.Genlock = genlockStatus{
			Mode:         g.Mode().String(),
			Synchronized: g.Synchronized(),
			OffsetUs:     g.OffsetUs(),
			Available:    true,
			Stats:        &stats,
		}
		resp.Genlocked = g.Mode() != genlock.ModeDisabled && g.Synchronized()
	}
	return resp
}

func (a *API) status(w httpx.ResponseWriter, r *httpx.Request) {
	writeJSON(w, http.StatusOK, a.currentStatus())
}

func (a *API) setURL(w httpx.ResponseWriter, r *httpx.Request) {
	if !requirePost(w, r) {
		return
	}
	var body struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.URL == "" {
		writeError(w, http.StatusBadRequest, "missing 'url' field")
		return
	}
	a.log.Info().Msgf("api: seturl to %s", body.URL)
	a.deps.Producer.SetSource(body.URL)
	if a.deps.Reload != nil {
		a.deps.Reload()
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "url": body.URL})
}

func (a *API) reload(w httpx.ResponseWriter, r *httpx.Request) {
	if !requirePost(w, r) {
		return
	}
	a.log.Info().Msg("api: reload")
	if a.deps.Reload != nil {
		a.deps.Reload()
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "url": a.deps.Producer.Source()})
}

func (a *API) setFPS(w httpx.ResponseWriter, r *httpx.Request) {
	if !requirePost(w, r) {
		return
	}
	var body struct {
		FPS int `json:"fps"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.FPS < 1 || body.FPS > 240 {
		writeError(w, http.StatusBadRequest, "fps must be between 1 and 240")
		return
	}
	a.log.Info().Msgf("api: fps set to %d", body.FPS)
	a.deps.Pump.SetTargetFPS(body.FPS)
	a.deps.Producer.SetFPS(body.FPS)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "fps": body.FPS})
}

func (a *API) genlock(w httpx.ResponseWriter, r *httpx.Request) {
	g := a.deps.Genlock
	switch r.Method {
	case http.MethodGet:
		if g == nil {
			writeJSON(w, http.StatusOK, genlockStatus{Mode: genlock.ModeDisabled.String()})
			return
		}
		stats := g.Stats()
		writeJSON(w, http.StatusOK, genlockStatus{
			Mode:         g.Mode().String(),
			Synchronized: g.Synchronized(),
			OffsetUs:     g.OffsetUs(),
			Available:    true,
			Stats:        &stats,
		})
	case http.MethodPost:
		if g == nil {
			writeError(w, http.StatusBadRequest, "genlock not initialized")
			return
		}
		var body struct {
			Mode          *string `json:"mode"`
			MasterAddress *string `json:"master_address"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if body.Mode != nil {
			mode, err := genlock.ParseMode(*body.Mode)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid mode, use: master, slave, or disabled")
				return
			}
			a.log.Info().Msgf("api: genlock mode set to %s", mode)
			if err := g.SetMode(mode); err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
		}
		if body.MasterAddress != nil {
			a.log.Info().Msgf("api: genlock master set to %s", *body.MasterAddress)
			if err := g.SetMasterAddress(*body.MasterAddress); err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success":      true,
			"mode":         g.Mode().String(),
			"synchronized": g.Synchronized(),
		})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (a *API) thumbnail(w httpx.ResponseWriter, r *httpx.Request) {
	width := intParam(r, "width", 320, 64, 1920)
	quality := intParam(r, "quality", 75, 10, 100)

	data, err := a.framePreview(width, quality)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "no frame available")
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	_, _ = w.Write(data)
}

func (a *API) shutdown(w httpx.ResponseWriter, r *httpx.Request) {
	if !requirePost(w, r) {
		return
	}
	a.log.Info().Msg("api: shutdown requested")
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
	if a.deps.Shutdown != nil {
		go func() {
			// let the response flush first
			time.Sleep(100 * time.Millisecond)
			a.deps.Shutdown()
		}()
	}
}

func writeJSON(w httpx.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w httpx.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func requirePost(w httpx.ResponseWriter, r *httpx.Request) bool {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func intParam(r *httpx.Request, name string, def, min, max int) int {
	v := def
	if s := r.URL.Query().Get(name); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			v = n
		}
	}
	if v < min {
		v = min
	}
	if v > max {
		v = max
	}
	return v
}
