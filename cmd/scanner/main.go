package main

import (
	"bufio"
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"self-checkout/catalog"
	"self-checkout/detection"
	"self-checkout/scanner"
)

func main() {
	configPath := flag.String("config", os.Getenv("SCANNER_CONFIG"), "scanner YAML config")
	flag.Parse()

	cfg, err := scanner.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Invalid scanner config: %v", err)
	}

	var aliases map[string]string
	if cfg.AliasesFile != "" {
		if aliases, err = catalog.LoadAliases(cfg.AliasesFile); err != nil {
			log.Fatalf("Failed to load aliases: %v", err)
		}
	}

	sources := make([]detection.Source, 0, len(cfg.Sources))
	for _, s := range cfg.Sources {
		sources = append(sources, detection.NewHTTPSource(s.Category, s.URL, cfg.InferenceTimeout))
	}
	if len(sources) == 0 {
		log.Printf("[scanner] no detection sources configured")
	}

	client := scanner.NewClient(cfg.CartAPIURL, cfg.RequestTimeout)
	sc := scanner.New(sources, client,
		scanner.WithBatchSend(cfg.BatchSend),
		scanner.WithSession(cfg.SessionID),
		scanner.WithAliases(aliases),
		scanner.WithNormalizer(detection.NewNormalizer(cfg.MinConfidence, cfg.IoUThreshold)),
		scanner.WithDebouncer(detection.NewDebouncer(cfg.DebounceWindow)),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// the cart side being down never stops detection
	if status, err := client.Status(ctx); err != nil {
		log.Printf("[scanner] cart service unreachable at %s: %v", cfg.CartAPIURL, err)
	} else {
		log.Printf("[scanner] cart service %s, %d active carts", status.Status, status.ActiveCarts)
	}
	if err := sc.RefreshCatalog(ctx); err != nil {
		log.Printf("[scanner] catalog not loaded, every label resolves as unknown: %v", err)
	}

	cell := &detection.LatestFrame{}
	if cfg.SnapshotURL != "" {
		grabber := scanner.NewSnapshotGrabber(cfg.SnapshotURL, cfg.SnapshotInterval, cfg.RequestTimeout, cell)
		go grabber.Run(ctx)
	} else {
		log.Printf("[scanner] no snapshot_url configured, no frames will be scanned")
	}

	detectTicker := time.NewTicker(cfg.DetectionInterval)
	defer detectTicker.Stop()

	var sendC <-chan time.Time
	if cfg.SendInterval > 0 {
		sendTicker := time.NewTicker(cfg.SendInterval)
		defer sendTicker.Stop()
		sendC = sendTicker.C
	}

	var refreshC <-chan time.Time
	if cfg.CatalogRefresh > 0 {
		refreshTicker := time.NewTicker(cfg.CatalogRefresh)
		defer refreshTicker.Stop()
		refreshC = refreshTicker.C
	}

	// SIGUSR1 sends the pending items, SIGUSR2 starts a new scan batch
	operator := make(chan os.Signal, 1)
	signal.Notify(operator, syscall.SIGUSR1, syscall.SIGUSR2)
	defer signal.Stop(operator)

	// 操作员控制台: list / send / clear / remove <n>
	commands := make(chan string)
	go readCommands(os.Stdin, commands)

	log.Printf("[scanner] running with %d sources, batch=%v", len(sources), cfg.BatchSend)

	var lastSeq uint64
	for {
		select {
		case <-ctx.Done():
			log.Printf("[scanner] shutting down, %d items were not sent", len(sc.Pending()))
			return

		case <-detectTicker.C:
			frame, ok := cell.Load()
			if !ok || frame.Seq == lastSeq {
				continue
			}
			lastSeq = frame.Seq
			res := sc.Scan(ctx, frame)
			for _, d := range res.Accepted {
				log.Printf("[scanner] detected %s -> %s (%s)", d.Record.Label, d.Resolution.Product.ID, d.Resolution.Strategy)
			}

		case <-sendC:
			send(ctx, sc)

		case sig := <-operator:
			if sig == syscall.SIGUSR2 {
				sc.Clear()
				log.Printf("[scanner] pending items cleared")
				continue
			}
			send(ctx, sc)

		case line, ok := <-commands:
			if !ok {
				commands = nil
				continue
			}
			runCommand(ctx, sc, line)

		case <-refreshC:
			if err := sc.RefreshCatalog(ctx); err != nil {
				log.Printf("[scanner] catalog refresh failed: %v", err)
			}
		}
	}
}

func send(ctx context.Context, sc *scanner.Scanner) {
	res := sc.Send(ctx)
	switch res.Outcome {
	case scanner.OutcomeConnectionFailure:
		log.Printf("[scanner] cart service unreachable, %d items kept for retry", len(sc.Pending()))
	case scanner.OutcomeDataFailure:
		log.Printf("[scanner] cart rejected every item: %v", res.Errors)
	case scanner.OutcomePartial:
		log.Printf("[scanner] sent %d items, some failed: %v", res.Sent, res.Errors)
	case scanner.OutcomeSuccess:
		log.Printf("[scanner] sent %d items", res.Sent)
	}
	if len(res.Unmapped) > 0 {
		log.Printf("[scanner] labels need mapping: %v", res.Unmapped)
	}
}

func readCommands(in *os.File, out chan<- string) {
	defer close(out)
	lines := bufio.NewScanner(in)
	for lines.Scan() {
		out <- lines.Text()
	}
}

func runCommand(ctx context.Context, sc *scanner.Scanner, line string) {
	cmd, err := scanner.ParseCommand(line)
	if err != nil {
		log.Printf("[scanner] %v (commands: list, send, clear, remove <n>)", err)
		return
	}

	switch cmd.Kind {
	case scanner.CommandList:
		pending := scanner.FormatPending(sc.Pending())
		if len(pending) == 0 {
			log.Printf("[scanner] no pending items")
		}
		for _, l := range pending {
			log.Printf("[scanner] %s", l)
		}
	case scanner.CommandSend:
		send(ctx, sc)
	case scanner.CommandClear:
		sc.Clear()
		log.Printf("[scanner] pending items cleared")
	case scanner.CommandRemove:
		if !sc.Remove(cmd.Index - 1) {
			log.Printf("[scanner] no pending item %d", cmd.Index)
			return
		}
		log.Printf("[scanner] removed pending item %d, %d left", cmd.Index, len(sc.Pending()))
	}
}
