package seeder

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ridoystarlord/seedato/database"
)

const seedsDir = "seeds"

// SeedRecord represents one seed file execution record
type SeedRecord struct {
	ID            int
	Filename      string
	AppliedAt     time.Time
	ExecutionTime time.Duration
	ExecutedBy    string
	Status        string
	ErrorMessage  string
	Checksum      string
}

// SeedLog represents a seed activity log entry
type SeedLog struct {
	ID        int
	Timestamp time.Time
	Level     string
	Message   string
	User      string
	Details   string
	SeedName  string
}

func getPool() (*pgxpool.Pool, context.Context, error) {
	ctx := context.Background()
	pool, err := database.GetPool()
	if err != nil {
		return nil, nil, fmt.Errorf("get connection pool: %v", err)
	}
	return pool, ctx, nil
}

func ensureSeedTables(pool *pgxpool.Pool, ctx context.Context) error {
	_, err := pool.Exec(ctx, `
	CREATE TABLE IF NOT EXISTS seedato_runs (
		id SERIAL PRIMARY KEY,
		filename TEXT NOT NULL UNIQUE,
		applied_at TIMESTAMP DEFAULT now(),
		execution_time INTERVAL,
		executed_by TEXT,
		status TEXT DEFAULT 'success',
		error_message TEXT,
		checksum TEXT
	);
	`)
	if err != nil {
		return fmt.Errorf("failed to create seedato_runs table: %v", err)
	}

	_, err = pool.Exec(ctx, `
	CREATE TABLE IF NOT EXISTS seedato_logs (
		id SERIAL PRIMARY KEY,
		timestamp TIMESTAMP DEFAULT now(),
		level TEXT NOT NULL,
		message TEXT NOT NULL,
		user_name TEXT,
		details TEXT,
		seed_name TEXT
	);
	`)
	if err != nil {
		return fmt.Errorf("failed to create seedato_logs table: %v", err)
	}

	return nil
}

func getCurrentUser() string {
	currentUser, err := user.Current()
	if err != nil {
		return "unknown"
	}
	return currentUser.Username
}

func calculateChecksum(content string) string {
	hash := sha256.Sum256([]byte(content))
	return fmt.Sprintf("%x", hash)
}

func logSeedActivity(pool *pgxpool.Pool, ctx context.Context, level, message, seedName, details string) {
	userName := getCurrentUser()
	_, _ = pool.Exec(ctx, `
		INSERT INTO seedato_logs (level, message, user_name, seed_name, details)
		VALUES ($1, $2, $3, $4, $5)
	`, level, message, userName, seedName, details)
}

func getAppliedSeeds(pool *pgxpool.Pool, ctx context.Context) (map[string]bool, error) {
	rows, err := pool.Query(ctx, `SELECT filename FROM seedato_runs WHERE status = 'success';`)
	if err != nil {
		return nil, fmt.Errorf("query applied seeds: %v", err)
	}
	defer rows.Close()

	applied := map[string]bool{}
	for rows.Next() {
		var fname string
		if err := rows.Scan(&fname); err != nil {
			return nil, fmt.Errorf("scan filename: %v", err)
		}
		applied[fname] = true
	}
	return applied, nil
}

func getAppliedSeedsOrdered(pool *pgxpool.Pool, ctx context.Context) ([]string, error) {
	rows, err := pool.Query(ctx, `SELECT filename FROM seedato_runs WHERE status = 'success' ORDER BY applied_at DESC;`)
	if err != nil {
		return nil, fmt.Errorf("query applied seeds: %v", err)
	}
	defer rows.Close()

	var applied []string
	for rows.Next() {
		var fname string
		if err := rows.Scan(&fname); err != nil {
			return nil, fmt.Errorf("scan filename: %v", err)
		}
		applied = append(applied, fname)
	}
	return applied, nil
}

func getFailedSeeds(pool *pgxpool.Pool, ctx context.Context) ([]SeedRecord, error) {
	rows, err := pool.Query(ctx, `SELECT filename, error_message FROM seedato_runs WHERE status = 'failed';`)
	if err != nil {
		return nil, fmt.Errorf("query failed seeds: %v", err)
	}
	defer rows.Close()

	var failed []SeedRecord
	for rows.Next() {
		var record SeedRecord
		if err := rows.Scan(&record.Filename, &record.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scan failed seed: %v", err)
		}
		failed = append(failed, record)
	}
	return failed, nil
}

func getSeedFiles() ([]string, error) {
	entries, err := os.ReadDir(seedsDir)
	if err != nil {
		return nil, fmt.Errorf("read seeds dir: %v", err)
	}

	var filenames []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			filenames = append(filenames, e.Name())
		}
	}
	sort.Strings(filenames) // Ensure in order
	return filenames, nil
}

func parseSeedFile(filename string) (string, string, error) {
	content, err := os.ReadFile(filepath.Join(seedsDir, filename))
	if err != nil {
		return "", "", fmt.Errorf("read file %s: %v", filename, err)
	}

	// Split content into apply and cleanup sections
	parts := strings.Split(string(content), "-- Cleanup (Rollback)")
	if len(parts) < 2 {
		return "", "", fmt.Errorf("seed file %s does not contain cleanup section", filename)
	}

	applyParts := strings.Split(parts[0], "-- Seed (Apply)")
	if len(applyParts) < 2 {
		return "", "", fmt.Errorf("seed file %s does not contain seed section", filename)
	}

	cleanupParts := strings.Split(parts[1], "-- ==================")
	if len(cleanupParts) < 2 {
		return "", "", fmt.Errorf("seed file %s does not contain valid cleanup section", filename)
	}

	applySQL := strings.TrimSpace(applyParts[1])
	cleanupSQL := strings.TrimSpace(cleanupParts[1])

	return applySQL, cleanupSQL, nil
}

func applySeed(pool *pgxpool.Pool, ctx context.Context, filename string) error {
	startTime := time.Now()
	applySQL, _, err := parseSeedFile(filename)
	if err != nil {
		return fmt.Errorf("parse seed file %s: %v", filename, err)
	}

	logSeedActivity(pool, ctx, "INFO", fmt.Sprintf("Starting seed: %s", filename), filename, "Seed execution started")

	_, err = pool.Exec(ctx, applySQL)
	executionTime := time.Since(startTime)

	if err != nil {
		logSeedActivity(pool, ctx, "ERROR", fmt.Sprintf("Seed failed: %s", filename), filename, err.Error())

		checksum := calculateChecksum(applySQL)
		userName := getCurrentUser()
		_, insertErr := pool.Exec(ctx, `
			INSERT INTO seedato_runs (filename, execution_time, executed_by, status, error_message, checksum)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, filename, executionTime, userName, "failed", err.Error(), checksum)

		if insertErr != nil {
			return fmt.Errorf("recording failed seed %s: %v", filename, insertErr)
		}

		return fmt.Errorf("executing seed %s: %v", filename, err)
	}

	logSeedActivity(pool, ctx, "SUCCESS", fmt.Sprintf("Seed completed: %s", filename), filename, fmt.Sprintf("Execution time: %v", executionTime))

	checksum := calculateChecksum(applySQL)
	userName := getCurrentUser()
	_, err = pool.Exec(ctx, `
		INSERT INTO seedato_runs (filename, execution_time, executed_by, status, checksum)
		VALUES ($1, $2, $3, $4, $5)
	`, filename, executionTime, userName, "success", checksum)

	if err != nil {
		return fmt.Errorf("recording seed %s: %v", filename, err)
	}

	return nil
}

func rollbackSeed(pool *pgxpool.Pool, ctx context.Context, filename string) error {
	startTime := time.Now()
	_, cleanupSQL, err := parseSeedFile(filename)
	if err != nil {
		return fmt.Errorf("parse seed file %s: %v", filename, err)
	}

	logSeedActivity(pool, ctx, "INFO", fmt.Sprintf("Starting cleanup: %s", filename), filename, "Cleanup execution started")

	_, err = pool.Exec(ctx, cleanupSQL)
	executionTime := time.Since(startTime)

	if err != nil {
		logSeedActivity(pool, ctx, "ERROR", fmt.Sprintf("Cleanup failed: %s", filename), filename, err.Error())
		return fmt.Errorf("executing cleanup for %s: %v", filename, err)
	}

	logSeedActivity(pool, ctx, "SUCCESS", fmt.Sprintf("Cleanup completed: %s", filename), filename, fmt.Sprintf("Execution time: %v", executionTime))

	_, err = pool.Exec(ctx, `DELETE FROM seedato_runs WHERE filename = $1;`, filename)
	if err != nil {
		return fmt.Errorf("removing seed record for %s: %v", filename, err)
	}

	return nil
}

// ApplySeeds executes every pending seed file in filename order.
func ApplySeeds() error {
	pool, ctx, err := getPool()
	if err != nil {
		return err
	}

	if err := ensureSeedTables(pool, ctx); err != nil {
		return fmt.Errorf("ensure seed tables: %v", err)
	}

	failedSeeds, err := getFailedSeeds(pool, ctx)
	if err != nil {
		return fmt.Errorf("check failed seeds: %v", err)
	}

	if len(failedSeeds) > 0 {
		fmt.Println("❌ Found failed seed runs that need to be resolved:")
		for _, record := range failedSeeds {
			fmt.Printf("   - %s: %s\n", record.Filename, record.ErrorMessage)
		}
		fmt.Println("💡 Please fix the issues and run 'seedato seed' again.")
		return fmt.Errorf("failed seed runs detected")
	}

	applied, err := getAppliedSeeds(pool, ctx)
	if err != nil {
		return err
	}

	files, err := getSeedFiles()
	if err != nil {
		return err
	}

	var pending []string
	for _, f := range files {
		if !applied[f] {
			pending = append(pending, f)
		}
	}

	if len(pending) == 0 {
		fmt.Println("✅ No pending seed files.")
		return nil
	}

	fmt.Printf("Applying %d seed file(s)...\n", len(pending))
	for _, f := range pending {
		fmt.Printf("Applying: %s\n", f)
		if err := applySeed(pool, ctx, f); err != nil {
			return err
		}
	}

	fmt.Println("✅ All seed files applied.")
	return nil
}

// RollbackSeeds runs the cleanup section of the most recent seed runs,
// newest first.
func RollbackSeeds(steps int) error {
	pool, ctx, err := getPool()
	if err != nil {
		return err
	}

	if err := ensureSeedTables(pool, ctx); err != nil {
		return fmt.Errorf("ensure seed tables: %v", err)
	}

	applied, err := getAppliedSeedsOrdered(pool, ctx)
	if err != nil {
		return err
	}

	if len(applied) == 0 {
		fmt.Println("✅ No seed runs to roll back.")
		return nil
	}

	toRollback := steps
	if toRollback > len(applied) {
		toRollback = len(applied)
		fmt.Printf("⚠️  Only %d seed runs available, rolling back all.\n", len(applied))
	}

	fmt.Printf("Rolling back %d seed run(s)...\n", toRollback)
	for _, f := range applied[:toRollback] {
		fmt.Printf("Rolling back: %s\n", f)
		if err := rollbackSeed(pool, ctx, f); err != nil {
			return err
		}
	}

	fmt.Println("✅ Rollback completed.")
	return nil
}

// Status reports applied, pending and failed seed files.
func Status() ([]string, []string, []SeedRecord, error) {
	pool, ctx, err := getPool()
	if err != nil {
		return nil, nil, nil, err
	}

	if err := ensureSeedTables(pool, ctx); err != nil {
		return nil, nil, nil, err
	}

	appliedMap, err := getAppliedSeeds(pool, ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	var applied []string
	for k := range appliedMap {
		applied = append(applied, k)
	}
	sort.Strings(applied)

	files, err := getSeedFiles()
	if err != nil {
		return nil, nil, nil, err
	}

	var pending []string
	for _, f := range files {
		if !appliedMap[f] {
			pending = append(pending, f)
		}
	}

	failed, err := getFailedSeeds(pool, ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	return applied, pending, failed, nil
}

// GetSeedHistory returns seed run records, newest first. A limit of 0 returns
// every record.
func GetSeedHistory(limit int) ([]SeedRecord, error) {
	pool, ctx, err := getPool()
	if err != nil {
		return nil, err
	}

	if err := ensureSeedTables(pool, ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, filename, applied_at, execution_time, executed_by,
		       status, COALESCE(error_message, ''), COALESCE(checksum, '')
		FROM seedato_runs
		ORDER BY applied_at DESC
	`
	var rows pgx.Rows
	if limit > 0 {
		rows, err = pool.Query(ctx, query+" LIMIT $1", limit)
	} else {
		rows, err = pool.Query(ctx, query)
	}
	if err != nil {
		return nil, fmt.Errorf("query seed history: %v", err)
	}
	defer rows.Close()

	var history []SeedRecord
	for rows.Next() {
		var record SeedRecord
		var interval pgtype.Interval
		if err := rows.Scan(
			&record.ID,
			&record.Filename,
			&record.AppliedAt,
			&interval,
			&record.ExecutedBy,
			&record.Status,
			&record.ErrorMessage,
			&record.Checksum,
		); err != nil {
			return nil, fmt.Errorf("scan seed record: %v", err)
		}
		if interval.Valid {
			record.ExecutionTime = time.Duration(interval.Microseconds) * time.Microsecond
		}
		history = append(history, record)
	}
	return history, rows.Err()
}

// GetSeedLogs returns recent seed activity log entries, newest first.
func GetSeedLogs(limit int) ([]SeedLog, error) {
	pool, ctx, err := getPool()
	if err != nil {
		return nil, err
	}

	if err := ensureSeedTables(pool, ctx); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 50
	}

	rows, err := pool.Query(ctx, `
		SELECT id, timestamp, level, message,
		       COALESCE(user_name, ''), COALESCE(details, ''), COALESCE(seed_name, '')
		FROM seedato_logs
		ORDER BY timestamp DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query seed logs: %v", err)
	}
	defer rows.Close()

	var logs []SeedLog
	for rows.Next() {
		var entry SeedLog
		if err := rows.Scan(
			&entry.ID,
			&entry.Timestamp,
			&entry.Level,
			&entry.Message,
			&entry.User,
			&entry.Details,
			&entry.SeedName,
		); err != nil {
			return nil, fmt.Errorf("scan log entry: %v", err)
		}
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}

// PreviewSeeds prints the SQL of all pending seed files without applying
// them.
func PreviewSeeds() error {
	pool, ctx, err := getPool()
	if err != nil {
		return err
	}

	if err := ensureSeedTables(pool, ctx); err != nil {
		return fmt.Errorf("ensure seed tables: %v", err)
	}

	applied, err := getAppliedSeeds(pool, ctx)
	if err != nil {
		return err
	}

	files, err := getSeedFiles()
	if err != nil {
		return err
	}

	var pending []string
	for _, f := range files {
		if !applied[f] {
			pending = append(pending, f)
		}
	}

	if len(pending) == 0 {
		fmt.Println("✅ No pending seed files.")
		return nil
	}

	fmt.Println("\n================ DRY RUN: Seed Preview ================")
	for _, f := range pending {
		fmt.Printf("\n-- Seed file: %s --\n", f)
		applySQL, cleanupSQL, err := parseSeedFile(f)
		if err != nil {
			return fmt.Errorf("parse seed file %s: %v", f, err)
		}
		fmt.Println("-- Seed SQL --")
		fmt.Println(applySQL)
		fmt.Println("\n-- Cleanup (Rollback) SQL --")
		fmt.Println(cleanupSQL)
	}
	fmt.Println("=======================================================")
	fmt.Println("(Dry run only. No seed files were applied.)")
	return nil
}
