package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// target is one generate request replayed against both services.
type target struct {
	Name     string          `json:"name"`
	Payload  json.RawMessage `json:"payload"`
	Critical bool            `json:"critical"`
}

type config struct {
	Targets []target `json:"targets"`
}

// outcome is the comparable part of a generate response.
type outcome struct {
	Status       int
	Combinations []string
	Duration     time.Duration
}

type comparison struct {
	Target      target
	Go          outcome
	Legacy      outcome
	StatusMatch bool
	OnlyGo      []string
	OnlyLegacy  []string
	Error       error
}

func (c comparison) matches() bool {
	return c.Error == nil && c.StatusMatch && len(c.OnlyGo) == 0 && len(c.OnlyLegacy) == 0
}

func main() {
	var (
		goURL       string
		legacyURL   string
		targetsPath string
		timeout     time.Duration
	)

	flag.StringVar(&goURL, "go-url", "http://localhost:8080/api/v1/schedules/generate", "Go generate endpoint")
	flag.StringVar(&legacyURL, "legacy-url", "http://localhost:5050/api/schedules/generate", "Legacy generate endpoint")
	flag.StringVar(&targetsPath, "targets", filepath.Join("scripts", "shadow_compare", "targets.json"), "Path to JSON targets file")
	flag.DurationVar(&timeout, "timeout", 35*time.Second, "HTTP client timeout")
	flag.Parse()

	targets, err := loadTargets(targetsPath)
	if err != nil {
		log.Fatalf("failed to load targets: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	var (
		comparisons  []comparison
		breaking     int
		optionalDiff int
	)
	for _, t := range targets {
		comp := compareTarget(client, goURL, legacyURL, t)
		if !comp.matches() {
			if t.Critical {
				breaking++
			} else {
				optionalDiff++
			}
		}
		comparisons = append(comparisons, comp)
	}

	printReport(comparisons)

	fmt.Printf("Breaking diffs: %d, Optional diffs: %d\n", breaking, optionalDiff)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadTargets(path string) ([]target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Targets) == 0 {
		return nil, fmt.Errorf("no targets defined in %s", path)
	}
	return cfg.Targets, nil
}

func compareTarget(client *http.Client, goURL, legacyURL string, tgt target) comparison {
	comp := comparison{Target: tgt}

	goOut, err := generate(client, goURL, tgt.Payload, goSchedules)
	if err != nil {
		comp.Error = fmt.Errorf("go request failed: %w", err)
		return comp
	}
	legacyOut, err := generate(client, legacyURL, tgt.Payload, legacySchedules)
	if err != nil {
		comp.Error = fmt.Errorf("legacy request failed: %w", err)
		return comp
	}

	comp.Go = goOut
	comp.Legacy = legacyOut
	comp.StatusMatch = goOut.Status == legacyOut.Status
	comp.OnlyGo, comp.OnlyLegacy = diffSets(goOut.Combinations, legacyOut.Combinations)
	return comp
}

func generate(client *http.Client, url string, payload json.RawMessage, extract func([]byte) ([]string, error)) (outcome, error) {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return outcome{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return outcome{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return outcome{}, fmt.Errorf("read body: %w", err)
	}
	out := outcome{Status: resp.StatusCode, Duration: time.Since(start)}
	if resp.StatusCode != http.StatusOK {
		return out, nil
	}
	out.Combinations, err = extract(body)
	if err != nil {
		return out, fmt.Errorf("decode body: %w", err)
	}
	return out, nil
}

type scheduleCRNs struct {
	CRNs []string `json:"crns"`
}

// goSchedules reads the envelope returned by this service.
func goSchedules(body []byte) ([]string, error) {
	var envelope struct {
		Data struct {
			Schedules []scheduleCRNs `json:"schedules"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, err
	}
	return combinationKeys(envelope.Data.Schedules), nil
}

// legacySchedules reads the bare legacy payload.
func legacySchedules(body []byte) ([]string, error) {
	var payload struct {
		Schedules []scheduleCRNs `json:"schedules"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	return combinationKeys(payload.Schedules), nil
}

// combinationKeys turns each schedule into its sorted, comma-joined CRNs so that
// the two services can list sections in different orders.
func combinationKeys(schedules []scheduleCRNs) []string {
	keys := make([]string, 0, len(schedules))
	for _, schedule := range schedules {
		crns := append([]string(nil), schedule.CRNs...)
		sort.Strings(crns)
		keys = append(keys, strings.Join(crns, ","))
	}
	sort.Strings(keys)
	return keys
}

func diffSets(a, b []string) (onlyA, onlyB []string) {
	inA := make(map[string]struct{}, len(a))
	for _, key := range a {
		inA[key] = struct{}{}
	}
	inB := make(map[string]struct{}, len(b))
	for _, key := range b {
		inB[key] = struct{}{}
		if _, ok := inA[key]; !ok {
			onlyB = append(onlyB, key)
		}
	}
	for _, key := range a {
		if _, ok := inB[key]; !ok {
			onlyA = append(onlyA, key)
		}
	}
	return onlyA, onlyB
}

func printReport(results []comparison) {
	fmt.Println("Generator Shadow Compare")
	fmt.Println("========================")
	for _, res := range results {
		status := "OK"
		switch {
		case res.Error != nil:
			status = "ERROR"
		case !res.matches():
			status = "DIFF"
		}
		fmt.Printf("[%s] %s\n", status, res.Target.Name)
		fmt.Printf("  Go: %d, %d schedules (%s)\n", res.Go.Status, len(res.Go.Combinations), res.Go.Duration)
		fmt.Printf("  Legacy: %d, %d schedules (%s)\n", res.Legacy.Status, len(res.Legacy.Combinations), res.Legacy.Duration)
		if res.Error != nil {
			fmt.Printf("  Error: %v\n", res.Error)
			continue
		}
		for _, key := range res.OnlyGo {
			fmt.Printf("  only in go: %s\n", key)
		}
		for _, key := range res.OnlyLegacy {
			fmt.Printf("  only in legacy: %s\n", key)
		}
	}
}
