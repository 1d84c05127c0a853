// Command smoke probes a running registrar instance and verifies that the
// core endpoints answer with the expected status codes. Intended for
// post-deploy checks; exit code 1 means at least one critical probe failed.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type probe struct {
	Method   string `json:"method"`
	Path     string `json:"path"`
	Expect   int    `json:"expect"`
	Critical bool   `json:"critical"`
}

type result struct {
	Probe    probe
	Status   int
	OK       bool
	Err      error
	Duration time.Duration
}

func main() {
	var (
		baseURL    string
		probesPath string
		token      string
		timeout    time.Duration
	)

	flag.StringVar(&baseURL, "base", "http://localhost:8080", "API base URL")
	flag.StringVar(&probesPath, "probes", filepath.Join("scripts", "smoke", "probes.json"), "Path to JSON probes file")
	flag.StringVar(&token, "token", "", "Bearer token for authenticated probes")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	probes, err := loadProbes(probesPath)
	if err != nil {
		log.Fatalf("failed to load probes: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	var failedCritical int

	for _, p := range probes {
		res := run(client, baseURL, token, p)
		status := "ok"
		if !res.OK {
			status = "FAIL"
			if p.Critical {
				failedCritical++
			}
		}
		if res.Err != nil {
			fmt.Printf("%-4s %-6s %-40s error: %v\n", status, p.Method, p.Path, res.Err)
			continue
		}
		fmt.Printf("%-4s %-6s %-40s %d (want %d) %s\n",
			status, p.Method, p.Path, res.Status, p.Expect, res.Duration.Round(time.Millisecond))
	}

	if failedCritical > 0 {
		fmt.Printf("\n%d critical probe(s) failed\n", failedCritical)
		os.Exit(1)
	}
}

func loadProbes(path string) ([]probe, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var probes []probe
	if err := json.Unmarshal(raw, &probes); err != nil {
		return nil, err
	}
	for i := range probes {
		if probes[i].Method == "" {
			probes[i].Method = http.MethodGet
		}
		if probes[i].Expect == 0 {
			probes[i].Expect = http.StatusOK
		}
	}
	return probes, nil
}

func run(client *http.Client, baseURL, token string, p probe) result {
	url := strings.TrimRight(baseURL, "/") + p.Path
	req, err := http.NewRequest(p.Method, url, nil)
	if err != nil {
		return result{Probe: p, Err: err}
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := client.Do(req)
	duration := time.Since(start)
	if err != nil {
		return result{Probe: p, Err: err, Duration: duration}
	}
	defer resp.Body.Close() //nolint:errcheck

	return result{
		Probe:    p,
		Status:   resp.StatusCode,
		OK:       resp.StatusCode == p.Expect,
		Duration: duration,
	}
}
