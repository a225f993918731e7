package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

func main() {
	url := "http://192.168.58.103:8000/"
	if len(os.Args) > 1 {
		url = os.Args[1]
	}

	client := &http.Client{Timeout: 5 * time.Second}
	start := time.Now()
	resp, err := client.Get(url)
	if err != nil {
		log.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		log.Fatalf("read body: %v", err)
	}
	fmt.Printf("HTTP %s in %s\n", resp.Status, time.Since(start).Round(time.Millisecond))
	fmt.Printf("Body: %s\n", strings.TrimSpace(string(body)))

	var fields map[string]interface{}
	if err := json.Unmarshal(body, &fields); err != nil {
		log.Fatalf("not JSON: %v", err)
	}
	for _, key := range []string{"battery", "network", "status"} {
		v, ok := fields[key]
		if !ok {
			fmt.Printf("%-8s MISSING\n", key+":")
			continue
		}
		fmt.Printf("%-8s %v (%T)\n", key+":", v, v)
	}
	if s, ok := fields["battery"].(string); ok {
		trimmed := strings.TrimSpace(strings.Trim(strings.TrimSpace(s), "%"))
		if v, err := strconv.ParseFloat(trimmed, 64); err == nil {
			fmt.Printf("Parsed battery: %.1f\n", v)
		} else {
			fmt.Printf("Battery value %q does not parse: %v\n", s, err)
		}
	}
}
