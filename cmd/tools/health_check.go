package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"
)

// Simple liveness probe against a running dcavault instance.

func main() {
	fmt.Println("dcavault Health Check Utility")
	fmt.Println("-----------------------------")

	url := "http://localhost:8080/health"
	if len(os.Args) > 1 {
		url = os.Args[1]
	}

	healthy, err := checkServiceHealth(url)
	if err != nil {
		log.Fatalf("Health check failed: %v", err)
	}

	if healthy {
		fmt.Println("Service is healthy!")
	} else {
		fmt.Println("Service is NOT healthy!")
		os.Exit(1)
	}
}

func checkServiceHealth(url string) (bool, error) {
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, nil
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, err
	}
	return body["status"] == "ok", nil
}
