// Command loadtest drives a running frontend with a mix of listing, article,
// search and feed requests and prints latency and status distributions.
//
// Usage:
//
//	go run ./cmd/loadtest -url http://localhost:8080 -slugs hello-world,intro
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/internal/content"
)

type Config struct {
	BaseURL     string
	Concurrency int
	Duration    time.Duration
	Targets     []string
}

type Stats struct {
	totalRequests atomic.Int64
	errorCount    atomic.Int64
	mu            sync.Mutex
	latencies     []time.Duration
	statusCodes   map[int]int64
	routes        map[string]int64
}

func NewStats() *Stats {
	return &Stats{
		latencies:   make([]time.Duration, 0, 100000),
		statusCodes: make(map[int]int64),
		routes:      make(map[string]int64),
	}
}

func (s *Stats) Record(route string, duration time.Duration, statusCode int, err error) {
	s.totalRequests.Add(1)
	if err != nil || statusCode >= http.StatusInternalServerError {
		s.errorCount.Add(1)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[route]++
	if err != nil {
		return
	}
	s.latencies = append(s.latencies, duration)
	s.statusCodes[statusCode]++
}

// buildTargets expands the request mix over every language.
func buildTargets(slugs, searches []string) []string {
	targets := []string{"/rss.xml", "/sitemap.xml", "/robots.txt", "/api/v1/settings"}
	for _, lang := range content.Languages {
		prefix := "/api/v1/" + string(lang)
		targets = append(targets,
			prefix+"/posts",
			prefix+"/posts?page=2",
			prefix+"/categories",
			prefix+"/tags",
		)
		for _, slug := range slugs {
			targets = append(targets, prefix+"/posts/"+url.PathEscape(slug))
		}
		for _, q := range searches {
			targets = append(targets, prefix+"/posts?q="+url.QueryEscape(q))
		}
	}
	return targets
}

func routeOf(target string) string {
	path, _, _ := strings.Cut(target, "?")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) >= 4 && parts[0] == "api" {
		if parts[3] == "posts" && len(parts) == 5 {
			return "article"
		}
		if strings.Contains(target, "q=") {
			return "search"
		}
		return parts[3]
	}
	return path
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "base URL of the frontend")
	concurrency := flag.Int("concurrency", 10, "number of concurrent workers")
	duration := flag.Duration("duration", 30*time.Second, "test duration")
	slugList := flag.String("slugs", "", "comma-separated post slugs to request")
	flag.Parse()

	var slugs []string
	for _, s := range strings.Split(*slugList, ",") {
		if s = strings.TrimSpace(s); s != "" {
			slugs = append(slugs, s)
		}
	}
	searches := []string{"golang", "kubernetes", "yapay zeka", "cache", "release notes"}

	cfg := Config{
		BaseURL:     strings.TrimRight(*baseURL, "/"),
		Concurrency: *concurrency,
		Duration:    *duration,
		Targets:     buildTargets(slugs, searches),
	}

	fmt.Println("=== Blog Frontend Load Test ===")
	fmt.Printf("Target:      %s\n", cfg.BaseURL)
	fmt.Printf("Concurrency: %d\n", cfg.Concurrency)
	fmt.Printf("Duration:    %s\n", cfg.Duration)
	fmt.Printf("Paths:       %d unique\n", len(cfg.Targets))
	fmt.Println()

	stats := runLoadTest(cfg)
	printReport(stats, cfg.Duration)
}

func runLoadTest(cfg Config) *Stats {
	stats := NewStats()
	client := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        cfg.Concurrency * 2,
			MaxIdleConnsPerHost: cfg.Concurrency * 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()

	fmt.Print("Running")
	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fmt.Print(".")
			}
		}
	}()

	var eg errgroup.Group
	for w := range cfg.Concurrency {
		eg.Go(func() error {
			idx := w
			for ctx.Err() == nil {
				target := cfg.Targets[idx%len(cfg.Targets)]
				idx++

				req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.BaseURL+target, nil)
				if err != nil {
					return fmt.Errorf("creating request for %s: %w", target, err)
				}
				// Spread clients so per-IP search limits do not dominate.
				req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.%d.%d", w/250, w%250+1))

				start := time.Now()
				resp, err := client.Do(req)
				elapsed := time.Since(start)
				if err != nil {
					if ctx.Err() != nil {
						return nil
					}
					stats.Record(routeOf(target), elapsed, 0, err)
					continue
				}
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				stats.Record(routeOf(target), elapsed, resp.StatusCode, nil)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		fmt.Fprintf(os.Stderr, "\nload test aborted: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(" done!")
	fmt.Println()
	return stats
}

func printReport(stats *Stats, duration time.Duration) {
	total := stats.totalRequests.Load()
	errors := stats.errorCount.Load()

	fmt.Println("=== Results ===")
	fmt.Printf("Total Requests:  %d\n", total)
	fmt.Printf("Errors:          %d\n", errors)
	if total > 0 {
		fmt.Printf("Error Rate:      %.2f%%\n", float64(errors)/float64(total)*100)
		fmt.Printf("Requests/sec:    %.2f\n", float64(total)/duration.Seconds())
	}

	stats.mu.Lock()
	defer stats.mu.Unlock()

	latencies := append([]time.Duration(nil), stats.latencies...)
	if len(latencies) > 0 {
		sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

		var sum time.Duration
		for _, l := range latencies {
			sum += l
		}
		avg := sum / time.Duration(len(latencies))

		var sumSquared float64
		for _, l := range latencies {
			diff := float64(l - avg)
			sumSquared += diff * diff
		}

		fmt.Println()
		fmt.Println("=== Latency ===")
		fmt.Printf("Min:    %s\n", latencies[0])
		fmt.Printf("Avg:    %s\n", avg)
		fmt.Printf("P50:    %s\n", percentile(latencies, 50))
		fmt.Printf("P95:    %s\n", percentile(latencies, 95))
		fmt.Printf("P99:    %s\n", percentile(latencies, 99))
		fmt.Printf("Max:    %s\n", latencies[len(latencies)-1])
		fmt.Printf("StdDev: %s\n", time.Duration(math.Sqrt(sumSquared/float64(len(latencies)))))
	}

	fmt.Println()
	fmt.Println("=== Routes ===")
	routes := make([]string, 0, len(stats.routes))
	for r := range stats.routes {
		routes = append(routes, r)
	}
	sort.Strings(routes)
	for _, r := range routes {
		fmt.Printf("  %-14s %d\n", r, stats.routes[r])
	}

	fmt.Println()
	fmt.Println("=== Status Codes ===")
	codes := make([]int, 0, len(stats.statusCodes))
	for code := range stats.statusCodes {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	for _, code := range codes {
		fmt.Printf("  %d: %d\n", code, stats.statusCodes[code])
	}

	if total == 0 {
		fmt.Println()
		fmt.Println("WARNING: No requests completed. Is the frontend running?")
		os.Exit(1)
	}
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	return sorted[max(0, min(idx, len(sorted)-1))]
}
