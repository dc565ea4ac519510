package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log"
	"mime"
	"net/http"
	"sort"
	"strconv"

	"github.com/CodedInternet/gojfrc/onboard"
	"github.com/CodedInternet/gojfrc/onboard/broadcast"
	deverr "github.com/CodedInternet/gojfrc/onboard/errors"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

var (
	ErrContentType = errors.New("request body must be declared as application/json")
	ErrNotObject   = errors.New("request body must be a JSON object")
	ErrTrailing    = errors.New("request body must hold a single JSON value")
)

// API serves the JFRC wire protocol for a single robot.
type API struct {
	Device onboard.JFRC
	Feed   *broadcast.Broadcaster
}

func NewRouter(api *API) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.RedirectSlashes)
	r.Use(middleware.Recoverer) // make sure this is last

	r.Get("/jfrc-test", api.Test)

	r.Get("/jfrc-toggles", api.GetToggles)
	r.Post("/jfrc-toggles", api.PostToggles)

	r.Get("/jfrc-pwms", api.GetPulseWidths)
	r.Post("/jfrc-pwms", api.PostPulseWidths)

	r.Get("/jfrc-ws", api.StateFeed)

	return r
}

//---
// Payloads
//---

// TogglesPayload is the body of a toggle command. Values are kept raw so that
// anything other than a JSON boolean can be refused.
type TogglesPayload map[string]json.RawMessage

func (p *TogglesPayload) Bind(r *http.Request) error {
	return nil
}

func (p TogglesPayload) Toggles() (map[string]bool, error) {
	if p == nil {
		return nil, ErrNotObject
	}

	values := make(map[string]bool, len(p))
	for _, name := range sortedKeys(p) {
		switch string(bytes.TrimSpace(p[name])) {
		case "true":
			values[name] = true
		case "false":
			values[name] = false
		default:
			return nil, deverr.ValueTypeError{Key: name, Want: "a boolean"}
		}
	}
	return values, nil
}

// PulseWidthsPayload is the body of a pwm command, keyed by the channel as a
// decimal string.
type PulseWidthsPayload map[string]json.RawMessage

func (p *PulseWidthsPayload) Bind(r *http.Request) error {
	return nil
}

func (p PulseWidthsPayload) PulseWidths() (map[int]int, error) {
	if p == nil {
		return nil, ErrNotObject
	}

	values := make(map[int]int, len(p))
	for _, key := range sortedKeys(p) {
		// one spelling per channel: "+1", "01" and " 1" are refused
		ch, err := strconv.Atoi(key)
		if err != nil || strconv.Itoa(ch) != key {
			return nil, deverr.ChannelKeyError{Key: key}
		}

		// only a bare JSON integer parses; 1500.0, "1500" and true do not
		v, err := strconv.Atoi(string(bytes.TrimSpace(p[key])))
		if err != nil {
			return nil, deverr.ValueTypeError{Key: key, Want: "an integer"}
		}
		values[ch] = v
	}
	return values, nil
}

func sortedKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

//---
// Views
//---

// Test is the liveness check used by the controller before it connects.
func (api *API) Test(w http.ResponseWriter, r *http.Request) {
	render.PlainText(w, r, "Online")
}

func (api *API) GetToggles(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, api.Device.Toggles())
}

func (api *API) GetPulseWidths(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, api.Device.PulseWidths())
}

func (api *API) PostToggles(w http.ResponseWriter, r *http.Request) {
	data := TogglesPayload{}
	if err := bindJSON(r, &data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	values, err := data.Toggles()
	if err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	toggles, err := api.Device.ApplyToggles(values)
	if err != nil {
		render.Render(w, r, commandError(err))
		return
	}

	render.JSON(w, r, toggles)
}

func (api *API) PostPulseWidths(w http.ResponseWriter, r *http.Request) {
	data := PulseWidthsPayload{}
	if err := bindJSON(r, &data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	values, err := data.PulseWidths()
	if err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	pwms, err := api.Device.ApplyPulseWidths(values)
	if err != nil {
		render.Render(w, r, commandError(err))
		return
	}

	render.JSON(w, r, pwms)
}

// bindJSON refuses bodies that are not declared as application/json, then
// decodes exactly one JSON value. Anything after it fails the request.
func bindJSON(r *http.Request, v render.Binder) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return ErrContentType
	}

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&json.RawMessage{}); err != io.EOF {
		return ErrTrailing
	}
	return v.Bind(r)
}

func commandError(err error) render.Renderer {
	var hwErr deverr.HardwareError

	switch {
	case deverr.IsInvalidRequest(err):
		return ErrInvalidRequest(err)
	case errors.As(err, &hwErr):
		log.Printf("command failed on hardware: %v", err)
		return ErrHardware(err)
	case errors.Is(err, deverr.ErrShutdown):
		return ErrUnavailable(err)
	default:
		return ErrRender(err)
	}
}
