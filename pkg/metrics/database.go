package metrics

import (
	"database/sql"
	"time"
)

// DBMetrics records connection pool health for the SQL backend.
type DBMetrics struct {
	registry *Registry
}

// DB returns the database metrics interface for the registry.
func (r *Registry) DB() *DBMetrics {
	return &DBMetrics{registry: r}
}

// UpdateFromDBStats updates connection pool gauges from sql.DBStats.
func (d *DBMetrics) UpdateFromDBStats(stats sql.DBStats) {
	d.registry.dbConnectionsActive.Set(float64(stats.InUse))
	d.registry.dbConnectionsIdle.Set(float64(stats.Idle))
	d.registry.dbConnectionsMax.Set(float64(stats.MaxOpenConnections))
}

// StartConnectionStatsCollector starts a goroutine that periodically updates
// connection stats from a sql.DB instance. The returned function stops it.
func (d *DBMetrics) StartConnectionStatsCollector(db *sql.DB, interval time.Duration) func() {
	done := make(chan struct{})

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				d.UpdateFromDBStats(db.Stats())
			case <-done:
				return
			}
		}
	}()

	return func() {
		close(done)
	}
}
