// Command bench fires concurrent order creations at the grocery API and
// reports how they fared. Its main purpose is to demonstrate that concurrent
// orders for the same product never overdraw stock: the sum of successfully
// ordered quantities never exceeds the product's starting stock.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

type authResponse struct {
	Data struct {
		Token string `json:"token"`
	} `json:"data"`
}

type orderResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func main() {
	baseURL := getEnv("API_URL", "http://localhost:8080")
	productID := getEnv("PRODUCT_ID", "")
	concurrency := getEnvInt("CONCURRENCY", 20)
	quantity := getEnvInt("QUANTITY", 1)

	if productID == "" {
		log.Fatal("PRODUCT_ID is required")
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second)

	token, err := registerBenchUser(client)
	if err != nil {
		log.Fatalf("failed to register bench user: %v", err)
	}
	client.SetAuthToken(token)

	log.Printf("🚀 firing %d concurrent orders of %d unit(s) for product %s", concurrency, quantity, productID)

	var (
		mu        sync.Mutex
		created   int
		rejected  int
		failed    int
		latencies []time.Duration
	)

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			body := map[string]any{
				"items": []map[string]any{
					{"product_id": productID, "quantity": quantity},
				},
				"shipping_address": "1 Bench Street",
			}

			start := time.Now()
			resp, err := client.R().SetBody(body).Post("/api/orders")
			elapsed := time.Since(start)

			mu.Lock()
			defer mu.Unlock()
			latencies = append(latencies, elapsed)

			if err != nil {
				failed++
				return
			}
			switch resp.StatusCode() {
			case http.StatusCreated:
				created++
			case http.StatusBadRequest:
				var parsed orderResponse
				if json.Unmarshal(resp.Body(), &parsed) == nil {
					log.Printf("rejected: %s", parsed.Message)
				}
				rejected++
			default:
				failed++
			}
		}()
	}
	wg.Wait()

	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	fmt.Printf("\ncreated:  %d\nrejected: %d\nfailed:   %d\n", created, rejected, failed)
	fmt.Printf("p50: %v  p95: %v  max: %v\n",
		percentile(latencies, 0.50), percentile(latencies, 0.95), percentile(latencies, 1.0))
	fmt.Printf("units sold: %d (must not exceed the product's starting stock)\n", created*quantity)
}

func registerBenchUser(client *resty.Client) (string, error) {
	email := fmt.Sprintf("bench-%d@example.com", time.Now().UnixNano())
	var parsed authResponse
	resp, err := client.R().
		SetBody(map[string]string{
			"full_name": "Bench Runner",
			"email":     email,
			"password":  "bench-pass",
		}).
		SetResult(&parsed).
		Post("/api/auth/register")
	if err != nil {
		return "", err
	}
	if resp.StatusCode() != http.StatusCreated {
		return "", fmt.Errorf("unexpected status %d: %s", resp.StatusCode(), resp.String())
	}
	return parsed.Data.Token, nil
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(float64(len(sorted)-1) * p)
	return sorted[idx]
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
