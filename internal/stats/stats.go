// Package stats reports the size and shape of the gazetteer store together
// with process memory and runtime figures.
package stats

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/alexivanou/gazetteer/internal/config"
	"github.com/alexivanou/gazetteer/internal/model"
	"github.com/jmoiron/sqlx"
)

type Stats struct {
	Timestamp time.Time     `json:"timestamp"`
	Memory    MemoryStats   `json:"memory"`
	Database  DatabaseStats `json:"database"`
	Names     NameStats     `json:"names"`
	Runtime   RuntimeStats  `json:"runtime"`
}

type MemoryStats struct {
	Alloc      uint64 `json:"alloc"`
	TotalAlloc uint64 `json:"total_alloc"`
	Sys        uint64 `json:"sys"`
	NumGC      uint32 `json:"num_gc"`
	HeapAlloc  uint64 `json:"heap_alloc"`
	HeapInuse  uint64 `json:"heap_inuse"`
}

type DatabaseStats struct {
	Type         string      `json:"type"`
	TotalRecords int64       `json:"total_records"`
	SizeBytes    int64       `json:"size_bytes"`
	TableStats   []TableStat `json:"table_stats"`
}

type TableStat struct {
	Name      string `json:"name"`
	RowCount  int64  `json:"row_count"`
	SizeBytes int64  `json:"size_bytes,omitempty"`
}

// NameStats summarizes the alternate names per language
type NameStats struct {
	MainNames          int64          `json:"main_names"`
	AvailableLanguages int            `json:"available_languages"`
	Languages          []LanguageStat `json:"languages"`
}

// LanguageStat counts names of one language, split by entity type for mains
type LanguageStat struct {
	Language      string `json:"language" db:"language"`
	Names         int64  `json:"names" db:"names"`
	CountryMains  int64  `json:"country_mains" db:"country_mains"`
	RegionMains   int64  `json:"region_mains" db:"region_mains"`
	CityMains     int64  `json:"city_mains" db:"city_mains"`
	CityComposite int64  `json:"city_composites" db:"city_composites"`
}

type RuntimeStats struct {
	NumGoroutines int   `json:"num_goroutines"`
	NumCPU        int   `json:"num_cpu"`
	UptimeSeconds int64 `json:"uptime_seconds"`
}

// Tables are the tables reported on, in hierarchy order
var Tables = []string{"countries", "regions", "cities", "alt_names"}

type Collector struct {
	db         *sqlx.DB
	config     config.DBConfig
	startTime  time.Time
	cachedMem  *MemoryStats
	cacheTime  time.Time
	cacheMutex sync.RWMutex
}

var memStatsCacheDuration = 5 * time.Second

func NewCollector(db *sqlx.DB, cfg config.DBConfig) *Collector {
	return &Collector{
		db:        db,
		config:    cfg,
		startTime: time.Now(),
	}
}

func (c *Collector) Collect(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		Timestamp: time.Now(),
		Memory:    c.collectMemoryStats(),
		Runtime:   c.collectRuntimeStats(),
	}

	dbStats, err := c.collectDatabaseStats(ctx)
	if err != nil {
		return nil, err
	}
	stats.Database = *dbStats

	names, err := c.collectNameStats(ctx)
	if err != nil {
		return nil, err
	}
	stats.Names = *names

	return stats, nil
}

func (c *Collector) collectMemoryStats() MemoryStats {
	c.cacheMutex.RLock()
	if c.cachedMem != nil && time.Since(c.cacheTime) < memStatsCacheDuration {
		mem := *c.cachedMem
		c.cacheMutex.RUnlock()
		return mem
	}
	c.cacheMutex.RUnlock()

	c.cacheMutex.Lock()
	defer c.cacheMutex.Unlock()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	mem := MemoryStats{
		Alloc:      m.Alloc,
		TotalAlloc: m.TotalAlloc,
		Sys:        m.Sys,
		NumGC:      m.NumGC,
		HeapAlloc:  m.HeapAlloc,
		HeapInuse:  m.HeapInuse,
	}

	c.cachedMem = &mem
	c.cacheTime = time.Now()

	return mem
}

func (c *Collector) collectDatabaseStats(ctx context.Context) (*DatabaseStats, error) {
	stats := &DatabaseStats{
		Type: string(c.config.Type),
	}

	if totalSize, err := c.getDatabaseSize(ctx); err == nil {
		stats.SizeBytes = totalSize
	}

	for _, table := range Tables {
		stat, err := c.getTableStat(ctx, table)
		if err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		stats.TableStats = append(stats.TableStats, *stat)
		stats.TotalRecords += stat.RowCount
	}

	return stats, nil
}

func (c *Collector) getDatabaseSize(ctx context.Context) (int64, error) {
	var size int64
	var err error

	if c.config.Type == config.DBTypePostgreSQL {
		err = c.db.GetContext(ctx, &size, "SELECT pg_database_size(current_database())")
	} else {
		err = c.db.GetContext(ctx, &size, "SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()")
	}

	if err != nil {
		return 0, err
	}
	return size, nil
}

func (c *Collector) getTableStat(ctx context.Context, tableName string) (*TableStat, error) {
	stat := &TableStat{Name: tableName}

	if err := c.db.GetContext(ctx, &stat.RowCount, "SELECT COUNT(*) FROM "+tableName); err != nil {
		return nil, err
	}

	var size int64
	if c.config.Type == config.DBTypePostgreSQL {
		_ = c.db.GetContext(ctx, &size, `SELECT COALESCE(pg_total_relation_size($1::regclass), 0)`, tableName)
	} else {
		// dbstat is only there when sqlite was built with it
		_ = c.db.GetContext(ctx, &size, `SELECT COALESCE(SUM(pgsize), 0) FROM dbstat WHERE name = ?`, tableName)
	}
	stat.SizeBytes = size

	return stat, nil
}

func (c *Collector) collectNameStats(ctx context.Context) (*NameStats, error) {
	q := c.db.Rebind(`
		SELECT
			language,
			COUNT(*) AS names,
			SUM(CASE WHEN is_main = ? AND type = ? THEN 1 ELSE 0 END) AS country_mains,
			SUM(CASE WHEN is_main = ? AND type = ? THEN 1 ELSE 0 END) AS region_mains,
			SUM(CASE WHEN is_main = ? AND type = ? THEN 1 ELSE 0 END) AS city_mains,
			SUM(CASE WHEN is_main = ? AND type = ? AND url <> '' THEN 1 ELSE 0 END) AS city_composites
		FROM alt_names
		GROUP BY language
		ORDER BY language`)

	var langs []LanguageStat
	err := c.db.SelectContext(ctx, &langs, q,
		true, int(model.EntityCountry),
		true, int(model.EntityRegion),
		true, int(model.EntityCity),
		true, int(model.EntityCity),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get language stats: %w", err)
	}

	stats := &NameStats{AvailableLanguages: len(langs), Languages: langs}
	for _, l := range langs {
		stats.MainNames += l.CountryMains + l.RegionMains + l.CityMains
	}
	return stats, nil
}

func (c *Collector) collectRuntimeStats() RuntimeStats {
	return RuntimeStats{
		NumGoroutines: runtime.NumGoroutine(),
		NumCPU:        runtime.NumCPU(),
		UptimeSeconds: int64(time.Since(c.startTime).Seconds()),
	}
}
