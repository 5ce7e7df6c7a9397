// Command agitator is a load generator for the SHIFT server. It connects
// bots in pairs to rooms; each bot rolls whenever it holds the turn and
// shouts now and then.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/pflag"
)

// Config for the agitator
type Config struct {
	ServerURL    string
	NumBots      int
	BotsPerRoom  int
	ThinkTime    time.Duration
	TestDuration time.Duration
	RoomPrefix   string
	ShoutEvery   int
}

func main() {
	var config Config
	pflag.StringVar(&config.ServerURL, "url", "ws://localhost:8080/ws", "WebSocket server URL")
	pflag.IntVar(&config.NumBots, "bots", 50, "number of concurrent bots")
	pflag.IntVar(&config.BotsPerRoom, "per-room", 2, "bots sharing one room")
	pflag.DurationVar(&config.ThinkTime, "think", 100*time.Millisecond, "delay before a bot rolls")
	pflag.DurationVar(&config.TestDuration, "duration", 60*time.Second, "test duration")
	pflag.StringVar(&config.RoomPrefix, "room", "stress", "room id prefix")
	pflag.IntVar(&config.ShoutEvery, "shout-every", 5, "shout after every n rolls, 0 disables")
	pflag.Parse()

	fmt.Println("=========================================")
	fmt.Println("AGITATOR - SHIFT load generator")
	fmt.Println("=========================================")
	fmt.Printf("Server:   %s\n", config.ServerURL)
	fmt.Printf("Bots:     %d (%d per room)\n", config.NumBots, config.BotsPerRoom)
	fmt.Printf("Think:    %v\n", config.ThinkTime)
	fmt.Printf("Duration: %v\n", config.TestDuration)
	fmt.Println("=========================================")

	ctx, cancel := context.WithTimeout(context.Background(), config.TestDuration)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	stats := run(ctx, config)
	printResults(stats, config)
}

func run(ctx context.Context, config Config) *Stats {
	stats := &Stats{}
	var wg sync.WaitGroup

	perRoom := max(config.BotsPerRoom, 1)
	for i := range config.NumBots {
		b := bot{
			id:     fmt.Sprintf("bot-%03d", i),
			roomID: fmt.Sprintf("%s-%03d", config.RoomPrefix, i/perRoom),
			config: config,
			stats:  stats,
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.run(ctx)
		}()
		// Stagger bot starts to avoid thundering herd
		time.Sleep(10 * time.Millisecond)
	}

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	for {
		select {
		case <-done:
			return stats
		case <-ticker.C:
			fmt.Printf("Progress: rolls=%d recv=%d wins=%d errors=%d\n",
				atomic.LoadInt64(&stats.Rolls), atomic.LoadInt64(&stats.Received),
				atomic.LoadInt64(&stats.Wins), atomic.LoadInt64(&stats.Errors))
		}
	}
}

func printResults(stats *Stats, config Config) {
	summary := stats.Summary(config.TestDuration)

	fmt.Println("\n=========================================")
	fmt.Println("LOAD TEST RESULTS")
	fmt.Println("=========================================")
	fmt.Printf("Rolls:             %d\n", summary.Rolls)
	fmt.Printf("Messages Received: %d\n", summary.Received)
	fmt.Printf("Games Won:         %d\n", summary.Wins)
	fmt.Printf("Errors:            %d\n", summary.Errors)
	fmt.Printf("Throughput:        %.2f rolls/sec\n", summary.Throughput)
	if summary.Samples > 0 {
		fmt.Printf("\nRoll round trip:\n")
		fmt.Printf("  Min: %v\n", summary.MinLatency)
		fmt.Printf("  Avg: %v\n", summary.AvgLatency)
		fmt.Printf("  Max: %v\n", summary.MaxLatency)
	}
	fmt.Println("=========================================")

	data, _ := json.MarshalIndent(summary, "", "  ")
	_ = os.WriteFile("agitator_results.json", data, 0o644)
	fmt.Println("Results exported to agitator_results.json")
}
