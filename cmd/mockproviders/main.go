// Command mockproviders serves canned OpenWeather, TEMPO gateway, and
// Mapbox geocoding responses so the advisor can run end to end without
// upstream credentials. The scenario query parameter (or the -scenario
// default) picks the conditions.
//
// Usage:
//
//	go run ./cmd/mockproviders -addr :9100
//
//	OPENWEATHER_API_KEY=dev \
//	OPENWEATHER_BASE_URL=http://localhost:9100/openweather/data/2.5 \
//	TEMPO_BASE_URL=http://localhost:9100/tempo \
//	go run ./cmd/advisor
//
//	curl 'http://localhost:9100/openweather/data/2.5/weather?scenario=heatwave'
//
// Scenarios: clear, heatwave, smoke, storm, gap.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

// scenario is one consistent set of conditions served across all three
// providers.
type scenario struct {
	tempC      float64
	feelsLikeC float64
	humidity   float64
	windSpeed  float64
	pressure   float64
	group      string // OpenWeather condition group
	desc       string

	// pollutants in µg/m³; nil means neither source has a reading.
	pollutants map[string]float64
	coverage   string
	quality    string
}

var scenarios = map[string]scenario{
	"clear": {
		tempC: 22.0, feelsLikeC: 22.5, humidity: 45, windSpeed: 3.2, pressure: 1018,
		group: "Clear", desc: "clear sky",
		pollutants: map[string]float64{"pm2_5": 8.1, "pm10": 17.4, "o3": 62.3, "no2": 14.8, "so2": 3.1, "co": 240.5},
		coverage:   "full", quality: "good",
	},
	"heatwave": {
		tempC: 39.2, feelsLikeC: 42.8, humidity: 28, windSpeed: 4.1, pressure: 1009,
		group: "Clear", desc: "clear sky, extreme heat",
		pollutants: map[string]float64{"pm2_5": 18.2, "pm10": 33.9, "o3": 168.4, "no2": 41.2, "so2": 6.8, "co": 410.7},
		coverage:   "full", quality: "good",
	},
	"smoke": {
		tempC: 24.6, feelsLikeC: 24.9, humidity: 38, windSpeed: 2.4, pressure: 1013,
		group: "Smoke", desc: "wildfire smoke",
		pollutants: map[string]float64{"pm2_5": 162.5, "pm10": 238.0, "o3": 88.1, "no2": 52.6, "so2": 11.4, "co": 1480.2},
		coverage:   "partial", quality: "degraded",
	},
	"storm": {
		tempC: 17.8, feelsLikeC: 16.9, humidity: 88, windSpeed: 14.3, pressure: 996,
		group: "Thunderstorm", desc: "thunderstorm with heavy rain",
		pollutants: map[string]float64{"pm2_5": 9.4, "pm10": 15.2, "o3": 41.0, "no2": 22.7, "so2": 4.4, "co": 310.8},
		coverage:   "full", quality: "good",
	},
	"gap": {
		tempC: 20.3, feelsLikeC: 20.1, humidity: 52, windSpeed: 3.8, pressure: 1016,
		group: "Clouds", desc: "scattered clouds",
		coverage: "none", quality: "good",
	},
}

func scenarioNames() string {
	names := make([]string, 0, len(scenarios))
	for n := range scenarios {
		names = append(names, n)
	}
	return strings.Join(names, ", ")
}

func main() {
	addr := flag.String("addr", ":9100", "listen address")
	defaultScenario := flag.String("scenario", "clear", "scenario served when a request has no scenario parameter")
	flag.Parse()

	if _, ok := scenarios[*defaultScenario]; !ok {
		log.Fatalf("unknown scenario %q (have: %s)", *defaultScenario, scenarioNames())
	}

	srv := &server{defaultScenario: *defaultScenario}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /openweather/data/2.5/weather", srv.handleWeather)
	mux.HandleFunc("GET /openweather/data/2.5/air_pollution", srv.handleAirPollution)
	mux.HandleFunc("GET /tempo/v1/retrievals", srv.handleTempo)
	mux.HandleFunc("GET /mapbox/geocoding/v5/mapbox.places/{query}", srv.handleGeocode)

	log.Printf("mock providers listening on %s (default scenario: %s)", *addr, *defaultScenario)
	log.Fatal(http.ListenAndServe(*addr, mux))
}

type server struct {
	defaultScenario string
}

func (s *server) pick(r *http.Request) (string, scenario) {
	name := r.URL.Query().Get("scenario")
	if _, ok := scenarios[name]; !ok {
		name = s.defaultScenario
	}
	return name, scenarios[name]
}

func (s *server) handleWeather(w http.ResponseWriter, r *http.Request) {
	name, sc := s.pick(r)
	now := time.Now().UTC()
	log.Printf("weather: scenario=%s lat=%s lon=%s", name, r.URL.Query().Get("lat"), r.URL.Query().Get("lon"))

	writeJSON(w, map[string]any{
		"dt": now.Unix(),
		"main": map[string]any{
			"temp":       sc.tempC,
			"feels_like": sc.feelsLikeC,
			"humidity":   sc.humidity,
			"pressure":   sc.pressure,
		},
		"wind":    map[string]any{"speed": sc.windSpeed},
		"weather": []map[string]any{{"main": sc.group, "description": sc.desc}},
		"sys": map[string]any{
			"sunrise": now.Add(-6 * time.Hour).Unix(),
			"sunset":  now.Add(6 * time.Hour).Unix(),
		},
	})
}

func (s *server) handleAirPollution(w http.ResponseWriter, r *http.Request) {
	name, sc := s.pick(r)
	log.Printf("air_pollution: scenario=%s", name)

	if sc.pollutants == nil {
		writeJSON(w, map[string]any{"list": []any{}})
		return
	}
	writeJSON(w, map[string]any{
		"list": []map[string]any{{
			"dt":         time.Now().UTC().Unix(),
			"components": sc.pollutants,
		}},
	})
}

func (s *server) handleTempo(w http.ResponseWriter, r *http.Request) {
	name, sc := s.pick(r)
	now := time.Now().UTC()
	log.Printf("tempo: scenario=%s", name)

	pollutants := sc.pollutants
	if pollutants == nil {
		pollutants = map[string]float64{}
	}
	writeJSON(w, map[string]any{
		"granule_id":   fmt.Sprintf("TEMPO_%s_%s", strings.ToUpper(name), now.Format("20060102T150405Z")),
		"observed_at":  now.Format(time.RFC3339),
		"coverage":     sc.coverage,
		"quality_flag": sc.quality,
		"pollutants":   pollutants,
	})
}

// handleGeocode answers every forward lookup with its own query echoed back
// as a Colorado place, and reverse lookups with a fixed neighborhood, which
// is plenty for local development.
func (s *server) handleGeocode(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSuffix(r.PathValue("query"), ".json")
	log.Printf("geocode: query=%q", query)

	text := query
	if strings.Contains(query, ",") {
		text = "Capitol Hill"
	}
	writeJSON(w, map[string]any{
		"features": []map[string]any{{
			"text":       text,
			"place_name": text + ", Colorado, United States",
			"center":     []float64{-104.99, 39.74},
			"relevance":  1.0,
		}},
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}
