package main

import (
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Fires concurrent duplicate check-ins for seeded employees against today's
// session. Every employee must end up with exactly one success; the rest are
// expected to be rejected with 409.
func main() {
	url := "http://localhost:8080/api/v1/attendances/check-in"

	numEmployees := 500
	requestsPerEmployee := 4
	totalRequests := numEmployees * requestsPerEmployee
	concurrency := 50 // bounded to avoid local port exhaustion

	fmt.Printf("Starting load test: %d employees (%d requests each) to %s with concurrency %d\n", numEmployees, requestsPerEmployee, url, concurrency)

	var wg sync.WaitGroup
	sem := make(chan struct{}, concurrency)

	var successCount, conflictCount, failCount int64
	startTime := time.Now()

	for i := 1; i <= numEmployees; i++ {
		employeeCode := fmt.Sprintf("EMP%07d", i)
		for j := 0; j < requestsPerEmployee; j++ {
			wg.Add(1)
			sem <- struct{}{}

			go func(code string) {
				defer wg.Done()
				defer func() { <-sem }()

				req, err := http.NewRequest(http.MethodPost, url, nil)
				if err != nil {
					atomic.AddInt64(&failCount, 1)
					return
				}
				req.Header.Set("X-Employee-Code", code)

				resp, err := http.DefaultClient.Do(req)
				if err != nil {
					atomic.AddInt64(&failCount, 1)
					return
				}
				defer resp.Body.Close()

				switch {
				case resp.StatusCode == http.StatusCreated:
					atomic.AddInt64(&successCount, 1)
				case resp.StatusCode == http.StatusConflict:
					atomic.AddInt64(&conflictCount, 1)
				default:
					atomic.AddInt64(&failCount, 1)
				}
			}(employeeCode)
		}
	}

	wg.Wait()
	duration := time.Since(startTime)

	fmt.Println("\n--- Load Test Results ---")
	fmt.Printf("Total Duration: %v\n", duration)
	fmt.Printf("Total Requests: %d\n", totalRequests)
	fmt.Printf("Checked in:     %d (want at most %d)\n", successCount, numEmployees)
	fmt.Printf("Conflicts:      %d\n", conflictCount)
	fmt.Printf("Failed:         %d\n", failCount)
	fmt.Printf("Requests/Sec:   %.2f\n", float64(totalRequests)/duration.Seconds())
	if successCount > int64(numEmployees) {
		fmt.Println("FAIL: an employee was checked in more than once")
	}
}
