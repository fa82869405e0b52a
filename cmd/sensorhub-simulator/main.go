// Command sensorhub-simulator generates realistic device telemetry and
// sends it to a running SensorHub ingestion listener. It is meant for
// manual end-to-end verification: register a device, point the simulator
// at it, and watch readings arrive.
//
// Two profiles are built in, chosen by device id prefix: ids starting
// with "T" simulate a temperature/humidity sensor, ids starting with
// "OALLM" simulate a vehicle (ignition, speed, location). Anything else
// falls back to the temperature profile.
package main

import (
	"flag"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dalemusser/sensorhub/internal/app/ingest"
)

func main() {
	host := flag.String("host", "localhost", "ingestion listener host")
	port := flag.Int("port", 8888, "ingestion listener port")
	device := flag.String("device", "OALLM220", "device id to report as")
	interval := flag.Duration("interval", 5*time.Second, "delay between readings")
	count := flag.Int("count", 0, "number of messages to send (0 means until interrupted)")
	flag.Parse()

	addr := fmt.Sprintf("%s:%d", *host, *port)
	client, err := ingest.Dial(addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect to %s: %v\n", addr, err)
		os.Exit(1)
	}
	defer client.Close()
	fmt.Printf("connected to %s as device %s\n", addr, *device)

	sim := newSimulation(*device)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	sent := 0
	for {
		msg := sim.next()
		resp, err := client.Send(msg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "send failed: %v\n", err)
			os.Exit(1)
		}
		report(msg, resp)

		sent++
		if *count > 0 && sent >= *count {
			return
		}
		select {
		case <-stop:
			fmt.Println("\nstopping")
			return
		case <-time.After(*interval):
		}
	}
}

func report(msg ingest.Message, resp ingest.Response) {
	parts := make([]string, 0, len(msg.Data))
	for _, d := range msg.Data {
		if d.Type == "location" {
			parts = append(parts, fmt.Sprintf("location=%s", d.Unit))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%v%s", d.Type, d.Value, d.Unit))
	}
	fmt.Printf("%s  %s  -> %s (%d stored)\n",
		time.Now().Format("15:04:05"), strings.Join(parts, ", "),
		resp.Status, resp.StoredCount)
	for _, e := range resp.Errors {
		fmt.Printf("  server: %s\n", e)
	}
}

// simulation carries the evolving state behind the generated readings so
// consecutive messages look like a coherent device rather than noise.
type simulation struct {
	deviceID string

	baseTemperature float64
	baseHumidity    float64
	tick            int

	engineOn bool
	speed    float64
	placeIdx int
	places   []string
}

func newSimulation(deviceID string) *simulation {
	return &simulation{
		deviceID:        deviceID,
		baseTemperature: 22.0,
		baseHumidity:    50.0,
		places: []string{
			"Downtown Parking", "Highway A1", "Shopping Mall", "Home Garage",
			"Office Building", "Gas Station", "Main Street", "Industrial Park",
		},
	}
}

func (s *simulation) next() ingest.Message {
	if strings.HasPrefix(s.deviceID, "OALLM") {
		return s.vehicleMessage()
	}
	return s.temperatureMessage()
}

func (s *simulation) temperatureMessage() ingest.Message {
	// Daily cycle plus noise, with the occasional extreme swing.
	temp := s.baseTemperature + 3*math.Sin(float64(s.tick)*0.1) + randRange(-2, 2)
	humidity := s.baseHumidity - (temp-s.baseTemperature)*1.5 + randRange(-5, 5)

	if rand.Float64() < 0.05 {
		if rand.IntN(2) == 0 {
			temp += randRange(5, 10)
			humidity -= randRange(10, 20)
		} else {
			temp -= randRange(3, 8)
			humidity += randRange(5, 15)
		}
	}
	humidity = math.Max(0, math.Min(100, humidity))
	s.tick++

	return ingest.Message{
		DeviceID:  s.deviceID,
		Timestamp: time.Now().Format(time.RFC3339),
		Data: []ingest.Element{
			{Type: "temperature", Value: round1(temp), Unit: "°C"},
			{Type: "humidity", Value: round1(humidity), Unit: "%"},
		},
	}
}

func (s *simulation) vehicleMessage() ingest.Message {
	if rand.Float64() < 0.1 {
		s.engineOn = !s.engineOn
	}
	if s.engineOn {
		if s.speed == 0 {
			s.speed = randRange(5, 25)
		} else {
			s.speed = math.Max(0, math.Min(120, s.speed+randRange(-10, 15)))
		}
	} else {
		s.speed = math.Max(0, s.speed-randRange(10, 20))
	}
	if s.speed > 5 && rand.Float64() < 0.3 {
		s.placeIdx = (s.placeIdx + 1) % len(s.places)
	}
	s.tick++

	ignition := 0.0
	if s.engineOn {
		ignition = 1.0
	}
	return ingest.Message{
		DeviceID:  s.deviceID,
		Timestamp: time.Now().Format(time.RFC3339),
		Data: []ingest.Element{
			// The place name rides in the unit field.
			{Type: "location", Value: 0.0, Unit: s.places[s.placeIdx]},
			{Type: "speed", Value: round1(s.speed), Unit: "km/h"},
			{Type: "ignition", Value: ignition, Unit: "on/off"},
		},
	}
}

func randRange(lo, hi float64) float64 {
	return lo + rand.Float64()*(hi-lo)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
