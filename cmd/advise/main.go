// Command advise requests one piece of outdoor activity advice from a
// running advisor service and renders it for the terminal.
//
// Usage:
//
//	go run ./cmd/advise -place Denver -activity running
//	go run ./cmd/advise -lat 39.74 -lon -104.99 -activity cycling -sensitivity high
//	go run ./cmd/advise -transcript "how's it looking for a run in Denver"
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/brisalabs/air-advisor/internal/advisor"
	"github.com/brisalabs/air-advisor/internal/domain"
)

const (
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorReset  = "\033[0m"
)

func main() {
	addr := flag.String("addr", "http://localhost:8080", "advisor service base URL")
	place := flag.String("place", "", "place name to check")
	lat := flag.String("lat", "", "latitude in decimal degrees")
	lon := flag.String("lon", "", "longitude in decimal degrees")
	activity := flag.String("activity", "running", "activity to advise on")
	sensitivity := flag.String("sensitivity", "", "air quality sensitivity: none, moderate, or high")
	age := flag.String("age", "", "age bracket: child, adult, or older_adult")
	transcript := flag.String("transcript", "", "voice transcript; uses the voice endpoint instead")
	rawJSON := flag.Bool("json", false, "print the raw JSON response")
	timeout := flag.Duration("timeout", 15*time.Second, "request timeout")
	flag.Parse()

	if *place == "" && *lat == "" && *transcript == "" {
		flag.Usage()
		os.Exit(1)
	}

	client := &http.Client{Timeout: *timeout}

	var code int
	if *transcript != "" {
		code = runVoice(client, *addr, *transcript, *activity, *sensitivity, *age, *rawJSON)
	} else {
		code = runAdvice(client, *addr, *place, *lat, *lon, *activity, *sensitivity, *age, *rawJSON)
	}
	if code != 0 {
		os.Exit(code)
	}
}

func runAdvice(client *http.Client, addr, place, lat, lon, activity, sensitivity, age string, rawJSON bool) int {
	q := url.Values{}
	if place != "" {
		q.Set("place", place)
	}
	if lat != "" {
		q.Set("lat", lat)
	}
	if lon != "" {
		q.Set("lon", lon)
	}
	q.Set("activity", activity)
	if sensitivity != "" {
		q.Set("sensitivity", sensitivity)
	}
	if age != "" {
		q.Set("age", age)
	}

	resp, err := client.Get(addr + "/api/v1/advice?" + q.Encode())
	if err != nil {
		fmt.Fprintf(os.Stderr, "request failed: %v\n", err)
		return 1
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read response: %v\n", err)
		return 1
	}
	if resp.StatusCode != http.StatusOK {
		return printServiceError(resp.StatusCode, body)
	}
	if rawJSON {
		fmt.Println(string(body))
		return 0
	}

	var advice advisor.Advice
	if err := json.Unmarshal(body, &advice); err != nil {
		fmt.Fprintf(os.Stderr, "decode response: %v\n", err)
		return 1
	}
	printAdvice(&advice)
	return 0
}

func runVoice(client *http.Client, addr, transcript, activity, sensitivity, age string, rawJSON bool) int {
	payload := map[string]string{"transcript": transcript}
	if activity != "" {
		payload["activity"] = activity
	}
	if sensitivity != "" {
		payload["sensitivity"] = sensitivity
	}
	if age != "" {
		payload["age"] = age
	}
	data, err := json.Marshal(payload)
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode request: %v\n", err)
		return 1
	}

	resp, err := client.Post(addr+"/api/v1/voice", "application/json", bytes.NewReader(data))
	if err != nil {
		fmt.Fprintf(os.Stderr, "request failed: %v\n", err)
		return 1
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read response: %v\n", err)
		return 1
	}
	if resp.StatusCode != http.StatusOK {
		return printServiceError(resp.StatusCode, body)
	}
	if rawJSON {
		fmt.Println(string(body))
		return 0
	}

	var vr advisor.VoiceResponse
	if err := json.Unmarshal(body, &vr); err != nil {
		fmt.Fprintf(os.Stderr, "decode response: %v\n", err)
		return 1
	}

	if vr.Command.Location != "" {
		fmt.Printf("Heard: %s\n\n", vr.Command.Location)
	}
	if vr.Advice != nil {
		printAdvice(vr.Advice)
	}
	if vr.Prompt != "" {
		fmt.Println(vr.Prompt)
	}
	fmt.Printf("\n[state: %s]\n", vr.State)
	return 0
}

func printAdvice(a *advisor.Advice) {
	obs := a.Observation
	fmt.Println(obs.Location.Label())
	fmt.Printf("  %.1f°C (feels like %.1f°C), humidity %.0f%%, wind %.1f m/s, %s\n",
		obs.TempC, obs.FeelsLikeC, obs.Humidity, obs.WindSpeed, obs.Condition)

	if obs.HasPollutants() {
		fmt.Printf("  air quality (%s):", obs.PollutantProvider)
		for _, p := range domain.CanonicalPollutants {
			if c, ok := obs.Pollutants[p]; ok {
				fmt.Printf(" %s=%.1f", p, c)
			}
		}
		fmt.Println(" µg/m³")
	} else {
		fmt.Println("  air quality data unavailable")
	}

	fmt.Printf("\nScore: %s%d/100 (%s)%s\n", statusColor(a.Score.Status), a.Score.Value, a.Score.Status, colorReset)
	for _, r := range a.Score.Rationale {
		fmt.Printf("  - %s\n", r)
	}

	if len(a.Alerts) > 0 {
		fmt.Println("\nAlerts:")
		for _, al := range a.Alerts {
			fmt.Printf("  %s[%s]%s %s\n", severityColor(al.Severity), al.Severity, colorReset, al.Message)
		}
	}

	fmt.Printf("\n%s\n", a.Summary)
}

func printServiceError(status int, body []byte) int {
	var envelope struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != "" {
		msg = envelope.Error
	}
	fmt.Fprintf(os.Stderr, "service returned %d: %s\n", status, msg)
	return 1
}

func statusColor(s domain.Status) string {
	switch s {
	case domain.StatusRecommended:
		return colorGreen
	case domain.StatusCaution:
		return colorYellow
	default:
		return colorRed
	}
}

func severityColor(s domain.Severity) string {
	switch s {
	case domain.SeverityInfo:
		return colorYellow
	default:
		return colorRed
	}
}
