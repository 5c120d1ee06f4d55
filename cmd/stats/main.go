package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"github.com/alexivanou/gazetteer/internal/config"
	"github.com/alexivanou/gazetteer/internal/database"
	"github.com/alexivanou/gazetteer/internal/stats"
	"go.uber.org/zap"
)

func main() {
	format := flag.String("format", envOr("OUTPUT_FORMAT", "json"), "output format: json or text")
	timeout := flag.Duration("timeout", 30*time.Second, "collection timeout")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db, err := database.Connect(ctx, cfg.DB)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	s, err := stats.NewCollector(db, cfg.DB).Collect(ctx)
	if err != nil {
		logger.Fatal("Failed to collect statistics", zap.Error(err))
	}

	switch *format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		err = enc.Encode(s)
	case "text", "human":
		err = writeText(os.Stdout, s)
	default:
		logger.Fatal("Unknown output format", zap.String("format", *format))
	}
	if err != nil {
		logger.Fatal("Failed to write statistics", zap.Error(err))
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func writeText(out io.Writer, s *stats.Stats) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)

	fmt.Fprintf(w, "Collected at\t%s\t\n", s.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(w, "Database\t%s\t\n", s.Database.Type)
	fmt.Fprintf(w, "Size\t%s\t\n", formatBytes(uint64(s.Database.SizeBytes)))
	fmt.Fprintf(w, "Heap in use\t%s\t\n", formatBytes(s.Memory.HeapInuse))
	fmt.Fprintf(w, "Goroutines\t%d\t\n", s.Runtime.NumGoroutines)
	fmt.Fprintln(w, "\t\t")

	fmt.Fprintln(w, "Table\tRows\tSize\t")
	for _, ts := range s.Database.TableStats {
		size := "-"
		if ts.SizeBytes > 0 {
			size = formatBytes(uint64(ts.SizeBytes))
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t\n", ts.Name, ts.RowCount, size)
	}
	fmt.Fprintf(w, "total\t%d\t\t\n", s.Database.TotalRecords)
	fmt.Fprintln(w, "\t\t")

	fmt.Fprintln(w, "Language\tNames\tCountries\tRegions\tCities\tComposites\t")
	for _, l := range s.Names.Languages {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\t\n",
			l.Language, l.Names, l.CountryMains, l.RegionMains, l.CityMains, l.CityComposite)
	}
	fmt.Fprintf(w, "%d languages\t\t\t\t%d mains\t\t\n", s.Names.AvailableLanguages, s.Names.MainNames)

	return w.Flush()
}

func formatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
