// cmd/waldump inspects a replay WAL file: verifies sequencing, prints
// records, and summarizes counts per kind.
//
// Usage:
//
//	go run ./cmd/waldump --wal out/replay.wal --tail 20
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"quant-replayv1/internal/wal"
)

func main() {
	walPath := flag.String("wal", "", "Path to WAL file")
	tail := flag.Int("tail", 0, "Print only the last N records (0 = all)")
	kind := flag.String("kind", "", "Filter by record kind: order|trade|rollover")
	quiet := flag.Bool("quiet", false, "Only verify and summarize, don't print records")
	flag.Parse()

	if *walPath == "" {
		log.Fatal("[waldump] --wal is required")
	}

	records, err := wal.ReadAll(*walPath)
	if err != nil {
		log.Fatalf("[waldump] %v", err)
	}

	byKind := make(map[string]int)
	for _, rec := range records {
		byKind[rec.Kind]++
	}

	show := records
	if *kind != "" {
		show = show[:0:0]
		for _, rec := range records {
			if rec.Kind == *kind {
				show = append(show, rec)
			}
		}
	}
	if *tail > 0 && len(show) > *tail {
		show = show[len(show)-*tail:]
	}

	if !*quiet {
		for _, rec := range show {
			printRecord(rec)
		}
	}

	fmt.Printf("\n%d records, sequence verified (1..%d)\n", len(records), len(records))
	for _, k := range []string{wal.KindOrder, wal.KindTrade, wal.KindRollover} {
		if byKind[k] > 0 {
			fmt.Printf("  %-8s %d\n", k, byKind[k])
		}
	}
}

func printRecord(rec wal.Record) {
	ts := time.Unix(0, rec.TimestampNS).UTC().Format("2006-01-02 15:04:05.000")
	switch rec.Kind {
	case wal.KindRollover:
		fmt.Printf("%6d  %s  %-8s  %s -> %s  action=%s ref=%.2f cost=%.4f\n",
			rec.Seq, ts, rec.Kind, rec.FromInstrument, rec.ToInstrument,
			rec.Action, rec.AvgFillPrice, rec.SlippageCost)
	default:
		fmt.Printf("%6d  %s  %-8s  %s  %s  vol=%d filled=%d px=%.2f order=%s\n",
			rec.Seq, ts, rec.Kind, rec.InstrumentID, rec.Status,
			rec.TotalVolume, rec.FilledVolume, rec.AvgFillPrice, rec.OrderID)
	}
}
