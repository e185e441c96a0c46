// Package backup snapshots the SQLite database file and restores it.
package backup

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/habitlit/internal/constants"
	"github.com/julianstephens/habitlit/internal/logger"
	"github.com/julianstephens/habitlit/internal/utils"
)

// stampLayout is the UTC timestamp embedded in snapshot file names.
const stampLayout = "20060102T150405Z"

// Snapshot describes one backup file.
type Snapshot struct {
	Path  string
	Taken time.Time
	Size  int64
	seq   int
}

// Name returns the snapshot's file name.
func (s Snapshot) Name() string {
	return filepath.Base(s.Path)
}

// Manager creates, lists, prunes and restores snapshots of one database.
// Snapshots live in a "backups" directory next to the database file.
type Manager struct {
	dbPath string
	dir    string
	keep   int
	clock  utils.Clock
}

type Option func(*Manager)

// WithKeep sets how many snapshots survive pruning.
func WithKeep(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.keep = n
		}
	}
}

// WithClock replaces the clock used to stamp new snapshots.
func WithClock(c utils.Clock) Option {
	return func(m *Manager) {
		if c != nil {
			m.clock = c
		}
	}
}

func NewManager(dbPath string, opts ...Option) *Manager {
	m := &Manager{
		dbPath: dbPath,
		dir:    filepath.Join(filepath.Dir(dbPath), constants.BackupDirName),
		keep:   constants.DefaultBackupKeep,
		clock:  utils.RealClock{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Dir returns the snapshot directory.
func (m *Manager) Dir() string {
	return m.dir
}

// Keep returns the retention limit.
func (m *Manager) Keep() int {
	return m.keep
}

// Create snapshots the database and prunes snapshots beyond the retention
// limit. A pruning failure is logged and does not fail the snapshot.
func (m *Manager) Create() (Snapshot, error) {
	snap, err := m.create()
	if err != nil {
		return Snapshot{}, err
	}
	if _, err := m.Prune(); err != nil {
		logger.Warn("Failed to prune old backups", "dir", m.dir, "error", err)
	}
	return snap, nil
}

func (m *Manager) create() (Snapshot, error) {
	if _, err := os.Stat(m.dbPath); err != nil {
		if os.IsNotExist(err) {
			return Snapshot{}, fmt.Errorf("database does not exist: %s", m.dbPath)
		}
		return Snapshot{}, fmt.Errorf("failed to access database: %w", err)
	}
	if err := os.MkdirAll(m.dir, 0700); err != nil {
		return Snapshot{}, fmt.Errorf("failed to create backup directory: %w", err)
	}

	taken := m.clock.Now().UTC().Truncate(time.Second)
	path, seq, err := m.freePath(taken)
	if err != nil {
		return Snapshot{}, err
	}
	if err := m.copyDatabase(path); err != nil {
		return Snapshot{}, fmt.Errorf("failed to back up database: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to stat backup: %w", err)
	}
	logger.Debug("Created backup", "path", path)
	return Snapshot{Path: path, Taken: taken, Size: info.Size(), seq: seq}, nil
}

// freePath returns the first unused file name for a snapshot taken at t.
func (m *Manager) freePath(t time.Time) (string, int, error) {
	stamp := t.Format(stampLayout)
	for seq := 0; seq <= 100; seq++ {
		name := constants.BackupFilePrefix + stamp
		if seq > 0 {
			name += "-" + strconv.Itoa(seq)
		}
		path := filepath.Join(m.dir, name+constants.BackupFileSuffix)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path, seq, nil
		}
	}
	return "", 0, fmt.Errorf("failed to generate unique backup filename")
}

// copyDatabase writes a consistent copy with VACUUM INTO, falling back to a
// plain file copy when the statement is unavailable.
func (m *Manager) copyDatabase(dest string) error {
	db, err := sql.Open("sqlite", m.dbPath+"?mode=ro")
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := verify(db); err != nil {
		return fmt.Errorf("database appears to be corrupted: %w", err)
	}
	if _, err := db.Exec("VACUUM INTO ?", dest); err != nil {
		logger.Debug("VACUUM INTO failed, copying file", "error", err)
		_ = os.Remove(dest)
		return copyFile(m.dbPath, dest)
	}
	return nil
}

// List returns the snapshots in the backup directory, newest first. Files
// that do not follow the snapshot naming scheme are ignored.
func (m *Manager) List() ([]Snapshot, error) {
	entries, err := os.ReadDir(m.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var snaps []Snapshot
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		taken, seq, ok := parseName(entry.Name())
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		snaps = append(snaps, Snapshot{
			Path:  filepath.Join(m.dir, entry.Name()),
			Taken: taken,
			Size:  info.Size(),
			seq:   seq,
		})
	}

	sort.Slice(snaps, func(i, j int) bool {
		if !snaps[i].Taken.Equal(snaps[j].Taken) {
			return snaps[i].Taken.After(snaps[j].Taken)
		}
		return snaps[i].seq > snaps[j].seq
	})
	return snaps, nil
}

func parseName(name string) (time.Time, int, bool) {
	if !strings.HasPrefix(name, constants.BackupFilePrefix) || !strings.HasSuffix(name, constants.BackupFileSuffix) {
		return time.Time{}, 0, false
	}
	core := strings.TrimSuffix(strings.TrimPrefix(name, constants.BackupFilePrefix), constants.BackupFileSuffix)

	seq := 0
	if stamp, counter, found := strings.Cut(core, "-"); found {
		n, err := strconv.Atoi(counter)
		if err != nil || n <= 0 {
			return time.Time{}, 0, false
		}
		core, seq = stamp, n
	}
	taken, err := time.Parse(stampLayout, core)
	if err != nil {
		return time.Time{}, 0, false
	}
	return taken, seq, true
}

// Prune removes the oldest snapshots beyond the retention limit and reports
// how many were removed.
func (m *Manager) Prune() (int, error) {
	snaps, err := m.List()
	if err != nil {
		return 0, err
	}
	removed := 0
	for i := m.keep; i < len(snaps); i++ {
		if err := os.Remove(snaps[i].Path); err != nil {
			return removed, fmt.Errorf("failed to remove old backup %s: %w", snaps[i].Name(), err)
		}
		removed++
	}
	return removed, nil
}

// Resolve finds a snapshot given an absolute path, a path relative to the
// working directory, or a bare file name in the backup directory.
func (m *Manager) Resolve(ref string) (string, error) {
	if filepath.IsAbs(ref) {
		if _, err := os.Stat(ref); err != nil {
			return "", fmt.Errorf("backup file not found: %s", ref)
		}
		return ref, nil
	}
	if _, err := os.Stat(ref); err == nil {
		return filepath.Abs(ref)
	}
	candidate := filepath.Join(m.dir, ref)
	if _, err := os.Stat(candidate); err == nil {
		return candidate, nil
	}
	return "", fmt.Errorf("backup file not found: tried current directory and %s", m.dir)
}

// Restore replaces the database with the snapshot at path. The current
// database, if any, is snapshotted first without pruning so the restore can
// be undone; that safety snapshot is returned. Every handle on the database
// must be closed before calling Restore.
func (m *Manager) Restore(path string) (Snapshot, error) {
	if _, err := os.Stat(path); err != nil {
		return Snapshot{}, fmt.Errorf("backup file does not exist: %s", path)
	}
	if err := verifyFile(path); err != nil {
		return Snapshot{}, fmt.Errorf("backup file is corrupted or invalid: %w", err)
	}

	var safety Snapshot
	if _, err := os.Stat(m.dbPath); err == nil {
		safety, err = m.create()
		if err != nil {
			return Snapshot{}, fmt.Errorf("failed to back up current database before restore: %w", err)
		}
	}

	tmp := m.dbPath + ".restore.tmp"
	if err := copyFile(path, tmp); err != nil {
		return Snapshot{}, fmt.Errorf("failed to copy backup file: %w", err)
	}
	if err := os.Rename(tmp, m.dbPath); err != nil {
		if rmErr := os.Remove(tmp); rmErr != nil {
			logger.Warn("Failed to remove temporary restore file", "path", tmp, "error", rmErr)
		}
		return Snapshot{}, fmt.Errorf("failed to restore database: %w", err)
	}
	logger.Info("Restored database from backup", "backup", path, "safety", safety.Path)
	return safety, nil
}

// verifyFile checks that path is a SQLite database carrying a habitlit schema.
func verifyFile(path string) error {
	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return err
	}
	defer db.Close()
	if err := verify(db); err != nil {
		return err
	}
	var version int
	if err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version); err != nil {
		return fmt.Errorf("not a habitlit database: %w", err)
	}
	return nil
}

func verify(db *sql.DB) error {
	var count int
	return db.QueryRow("SELECT COUNT(*) FROM sqlite_master").Scan(&count)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := out.ReadFrom(in); err != nil {
		return err
	}
	return out.Sync()
}
