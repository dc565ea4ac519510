package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/CodedInternet/gojfrc/onboard"
	deverr "github.com/CodedInternet/gojfrc/onboard/errors"
	"github.com/CodedInternet/gojfrc/onboard/hardware"
	. "github.com/smartystreets/goconvey/convey"
)

func newTestAPI() (*API, *onboard.Robot, *hardware.Simulator) {
	sim := hardware.NewSimulator(nil)
	robot, err := onboard.NewRobot(onboard.RobotConfig{
		Toggles:         []string{"A", "B", "C"},
		FailsafeToggle:  "A",
		Channels:        []int{0, 1, 2},
		SteeringChannel: 0,
		ThrottleChannel: 1,
		FailsafeTimeout: 40 * time.Millisecond,
		FailsafeDivisor: 10,
	}, sim)
	if err != nil {
		panic(err)
	}
	return &API{Device: robot, Feed: robot.Feed}, robot, sim
}

func do(api *API, method, path, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if contentType != "" {
		req.Header.Add("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	NewRouter(api).ServeHTTP(rr, req)
	return rr
}

func TestLiveness(t *testing.T) {
	Convey("test endpoint reports online", t, func() {
		api, _, _ := newTestAPI()
		rr := do(api, "GET", "/jfrc-test", "", "")

		So(rr.Code, ShouldEqual, http.StatusOK)
		So(rr.Body.String(), ShouldEqual, "Online")
		So(rr.Header().Get("Content-Type"), ShouldStartWith, "text/plain")
	})
}

func TestToggleViews(t *testing.T) {
	Convey("reading toggles", t, func() {
		api, robot, _ := newTestAPI()
		before := robot.SinceLastCommand()
		time.Sleep(time.Millisecond)

		rr := do(api, "GET", "/jfrc-toggles", "", "")
		So(rr.Code, ShouldEqual, http.StatusOK)
		So(rr.Body.String(), ShouldContainSubstring, `"B":false`)

		var toggles map[string]bool
		So(json.Unmarshal(rr.Body.Bytes(), &toggles), ShouldBeNil)
		So(toggles, ShouldResemble, map[string]bool{"A": false, "B": false, "C": false})

		Convey("does not ping the failsafe", func() {
			So(robot.SinceLastCommand(), ShouldBeGreaterThan, before)
		})
	})

	Convey("applying toggles", t, func() {
		api, robot, _ := newTestAPI()

		Convey("valid request returns the full map", func() {
			rr := do(api, "POST", "/jfrc-toggles", "application/json", `{"B": true}`)
			So(rr.Code, ShouldEqual, http.StatusOK)

			var toggles map[string]bool
			So(json.Unmarshal(rr.Body.Bytes(), &toggles), ShouldBeNil)
			So(toggles, ShouldResemble, map[string]bool{"A": false, "B": true, "C": false})
		})

		Convey("a charset parameter is fine", func() {
			rr := do(api, "POST", "/jfrc-toggles", "application/json; charset=utf-8", `{"C": true}`)
			So(rr.Code, ShouldEqual, http.StatusOK)
		})

		Convey("bad requests are rejected whole", func() {
			for _, tc := range []struct {
				contentType, body string
			}{
				{"text/plain", `{"B": true}`},
				{"text/javascript", `{"B": true}`},
				{"application/json-patch+json", `{"B": true}`},
				{"", `{"B": true}`},
				{"application/json", `{"B": true} garbage`},
				{"application/json", `{"B": true} {"C": true}`},
				{"application/json", `{"B": true}}`},
				{"application/json", `{"B": true, "Z": true}`},
				{"application/json", `{"B": true, "C": 1}`},
				{"application/json", `{"B": "true"}`},
				{"application/json", `{"B": null}`},
				{"application/json", `{"A": false}`},
				{"application/json", `[true]`},
				{"application/json", `null`},
				{"application/json", `{"B": tru`},
				{"application/json", ``},
			} {
				rr := do(api, "POST", "/jfrc-toggles", tc.contentType, tc.body)
				So(rr.Code, ShouldEqual, http.StatusBadRequest)
			}
			So(robot.Toggles(), ShouldResemble, map[string]bool{"A": false, "B": false, "C": false})
		})
	})
}

func TestPulseWidthViews(t *testing.T) {
	Convey("reading pwms uses string channel keys", t, func() {
		api, _, _ := newTestAPI()
		rr := do(api, "GET", "/jfrc-pwms", "", "")

		So(rr.Code, ShouldEqual, http.StatusOK)
		var pwms map[string]int
		So(json.Unmarshal(rr.Body.Bytes(), &pwms), ShouldBeNil)
		So(pwms, ShouldResemble, map[string]int{"0": 0, "1": 0, "2": 0})
	})

	Convey("applying pwms", t, func() {
		api, robot, sim := newTestAPI()

		Convey("steering and throttle drive the bridge", func() {
			rr := do(api, "POST", "/jfrc-pwms", "application/json", `{"0": 1500, "1": 2000}`)
			So(rr.Code, ShouldEqual, http.StatusOK)

			var pwms map[string]int
			So(json.Unmarshal(rr.Body.Bytes(), &pwms), ShouldBeNil)
			So(pwms, ShouldResemble, map[string]int{"0": 1500, "1": 2000, "2": 0})
			So(sim.PulseWrites(), ShouldResemble, []hardware.PulseWrite{{Channel: 0, Value: 750}, {Channel: 1, Value: 1000}})
			So(sim.MotorUpdates(), ShouldResemble, []hardware.MotorLines{{DirA: true, DirB: true}})
		})

		Convey("range edges", func() {
			So(do(api, "POST", "/jfrc-pwms", "application/json", `{"2": 0}`).Code, ShouldEqual, http.StatusOK)
			So(do(api, "POST", "/jfrc-pwms", "application/json", `{"2": 2499}`).Code, ShouldEqual, http.StatusOK)
			So(do(api, "POST", "/jfrc-pwms", "application/json", `{"2": 2500}`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(api, "POST", "/jfrc-pwms", "application/json", `{"2": -1}`).Code, ShouldEqual, http.StatusBadRequest)
			So(robot.PulseWidths()[2], ShouldEqual, 2499)
		})

		Convey("bad requests are rejected whole", func() {
			for _, tc := range []struct {
				contentType, body string
			}{
				{"text/plain", `{"0": 1500}`},
				{"text/javascript", `{"0": 1500, "1": 1500}`},
				{"application/json", `{"0": 1500, "1": 1500} garbage`},
				{"application/json", `{"0": 1500, "1": 1500} {}`},
				{"application/json", `{"+0": 1000, "1": 1000}`},
				{"application/json", `{"0": 1000, "01": 1000}`},
				{"application/json", `{" 1": 1000}`},
				{"application/json", `{"-0": 1000}`},
				{"application/json", `{"0": 1500, "7": 1500}`},
				{"application/json", `{"0": 1500, "x": 1500}`},
				{"application/json", `{"0": 1500, "1": 1500.5}`},
				{"application/json", `{"0": 1500, "1": 1500.0}`},
				{"application/json", `{"0": 1500, "1": "1500"}`},
				{"application/json", `{"0": 1500, "1": true}`},
				{"application/json", `{"0": 1500, "1": 1e3}`},
				{"application/json", `{"0": 1500, "00": 1500}`},
				{"application/json", `{"0": 99999999999999999999}`},
				{"application/json", `[1500]`},
			} {
				rr := do(api, "POST", "/jfrc-pwms", tc.contentType, tc.body)
				So(rr.Code, ShouldEqual, http.StatusBadRequest)
			}
			So(robot.PulseWidths(), ShouldResemble, map[int]int{0: 0, 1: 0, 2: 0})
			So(sim.PulseWrites(), ShouldBeEmpty)
			So(sim.MotorUpdates(), ShouldBeEmpty)
		})

		Convey("trailing whitespace after the body is fine", func() {
			rr := do(api, "POST", "/jfrc-pwms", "application/json", "{\"2\": 1200}\n\t ")
			So(rr.Code, ShouldEqual, http.StatusOK)
			So(robot.PulseWidths()[2], ShouldEqual, 1200)
		})

		Convey("hardware failure is a server error", func() {
			sim.FailChannel(0, errors.New("EIO"))
			rr := do(api, "POST", "/jfrc-pwms", "application/json", `{"0": 1500}`)
			So(rr.Code, ShouldEqual, http.StatusInternalServerError)
			So(rr.Body.String(), ShouldContainSubstring, "EIO")
		})

		Convey("after shutdown the robot is unavailable", func() {
			So(robot.Shutdown(), ShouldBeNil)
			rr := do(api, "POST", "/jfrc-pwms", "application/json", `{"0": 1500}`)
			So(rr.Code, ShouldEqual, http.StatusServiceUnavailable)
		})
	})
}

func TestPayloads(t *testing.T) {
	Convey("pulse width payload parsing", t, func() {
		p := PulseWidthsPayload{"0": json.RawMessage("1500"), "1": json.RawMessage(" 2000 ")}
		pwms, err := p.PulseWidths()
		So(err, ShouldBeNil)
		So(pwms, ShouldResemble, map[int]int{0: 1500, 1: 2000})

		Convey("channel keys must be written plainly", func() {
			for _, key := range []string{"+1", "01", "00", "-0", " 1", "1 "} {
				_, err := PulseWidthsPayload{key: json.RawMessage("1500")}.PulseWidths()
				So(err, ShouldResemble, deverr.ChannelKeyError{Key: key})
			}
		})
	})

	Convey("toggle payload parsing", t, func() {
		p := TogglesPayload{"B": json.RawMessage("true"), "C": json.RawMessage("false")}
		toggles, err := p.Toggles()
		So(err, ShouldBeNil)
		So(toggles, ShouldResemble, map[string]bool{"B": true, "C": false})

		var empty TogglesPayload
		_, err = empty.Toggles()
		So(err, ShouldEqual, ErrNotObject)
	})
}
