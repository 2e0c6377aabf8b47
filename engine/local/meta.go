package local

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	// SQLite driver using pure Go implementation
	_ "modernc.org/sqlite"
)

// storageVersion is written to akumuli_configuration and checked on open.
const storageVersion = 1

var errNotInstance = errors.New("metadata file is not an akumuli instance")

// instanceConfig is the per-instance configuration kept in the metadata file.
type instanceConfig struct {
	BaseName       string
	PageSize       uint64
	NumVolumes     int
	VolumeCapacity uint32 // pages per volume
	Compression    uint8
	ActiveVolume   int
	Created        time.Time
}

// volumeInfo is one row of akumuli_volumes.
type volumeInfo struct {
	ID         int
	Path       string
	Capacity   uint32
	Generation uint64
	NBlocks    uint32
}

// metaStore is the SQLite metadata file of an instance: configuration,
// volume bookkeeping and the series name dictionary.
type metaStore struct {
	db   *sql.DB
	path string
}

const metaSchema = `
	CREATE TABLE IF NOT EXISTS akumuli_configuration (
		name  TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS akumuli_volumes (
		id         INTEGER PRIMARY KEY,
		path       TEXT NOT NULL UNIQUE,
		capacity   INTEGER NOT NULL,
		generation INTEGER NOT NULL,
		nblocks    INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS akumuli_series (
		id          INTEGER PRIMARY KEY,
		series_name TEXT NOT NULL UNIQUE
	);
`

func openSQLite(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// One connection: all access is serialized by the owning database.
	db.SetMaxOpenConns(1)

	return db, nil
}

// createMeta writes a new metadata file. It fails if path exists.
func createMeta(path string, cfg instanceConfig, vols []volumeInfo) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", os.ErrExist, path)
	}

	db, err := openSQLite(path)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(metaSchema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	settings := map[string]string{
		"base_name":         cfg.BaseName,
		"page_size":         strconv.FormatUint(cfg.PageSize, 10),
		"num_volumes":       strconv.Itoa(cfg.NumVolumes),
		"volume_capacity":   strconv.FormatUint(uint64(cfg.VolumeCapacity), 10),
		"compression":       strconv.Itoa(int(cfg.Compression)),
		"active_volume":     "0",
		"creation_datetime": cfg.Created.UTC().Format(time.RFC3339Nano),
		"storage_version":   strconv.Itoa(storageVersion),
	}
	for name, value := range settings {
		if _, err := tx.Exec(`INSERT INTO akumuli_configuration (name, value) VALUES (?, ?)`, name, value); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}

	for _, v := range vols {
		if _, err := tx.Exec(
			`INSERT INTO akumuli_volumes (id, path, capacity, generation, nblocks) VALUES (?, ?, ?, ?, ?)`,
			v.ID, v.Path, v.Capacity, v.Generation, v.NBlocks,
		); err != nil {
			return fmt.Errorf("failed to register volume %d: %w", v.ID, err)
		}
	}

	return tx.Commit()
}

// openMeta opens an existing metadata file.
func openMeta(path string) (*metaStore, error) {
	// sqlite would silently create a missing file
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	db, err := openSQLite(path)
	if err != nil {
		return nil, err
	}

	m := &metaStore{db: db, path: path}
	if _, err := m.config(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return m, nil
}

func (m *metaStore) config() (instanceConfig, error) {
	rows, err := m.db.Query(`SELECT name, value FROM akumuli_configuration`)
	if err != nil {
		return instanceConfig{}, fmt.Errorf("%w: %v", errNotInstance, err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return instanceConfig{}, err
		}
		values[name] = value
	}
	if err := rows.Err(); err != nil {
		return instanceConfig{}, err
	}

	if v, err := strconv.Atoi(values["storage_version"]); err != nil || v != storageVersion {
		return instanceConfig{}, fmt.Errorf("%w: storage version %q", errNotInstance, values["storage_version"])
	}

	cfg := instanceConfig{BaseName: values["base_name"]}
	var errs []error
	cfg.PageSize, err = strconv.ParseUint(values["page_size"], 10, 64)
	errs = append(errs, err)
	cfg.NumVolumes, err = strconv.Atoi(values["num_volumes"])
	errs = append(errs, err)
	capacity, err := strconv.ParseUint(values["volume_capacity"], 10, 32)
	errs = append(errs, err)
	cfg.VolumeCapacity = uint32(capacity)
	compression, err := strconv.ParseUint(values["compression"], 10, 8)
	errs = append(errs, err)
	cfg.Compression = uint8(compression)
	cfg.ActiveVolume, err = strconv.Atoi(values["active_volume"])
	errs = append(errs, err)
	cfg.Created, err = time.Parse(time.RFC3339Nano, values["creation_datetime"])
	errs = append(errs, err)
	if err := errors.Join(errs...); err != nil {
		return instanceConfig{}, fmt.Errorf("%w: %v", errNotInstance, err)
	}

	return cfg, nil
}

func (m *metaStore) volumes() ([]volumeInfo, error) {
	rows, err := m.db.Query(`SELECT id, path, capacity, generation, nblocks FROM akumuli_volumes ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vols []volumeInfo
	for rows.Next() {
		var v volumeInfo
		if err := rows.Scan(&v.ID, &v.Path, &v.Capacity, &v.Generation, &v.NBlocks); err != nil {
			return nil, err
		}
		vols = append(vols, v)
	}

	return vols, rows.Err()
}

func (m *metaStore) series() (map[string]uint64, error) {
	rows, err := m.db.Query(`SELECT id, series_name FROM akumuli_series`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]uint64)
	for rows.Next() {
		var (
			id   uint64
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		out[name] = id
	}

	return out, rows.Err()
}

func (m *metaStore) insertSeries(id uint64, name string) error {
	_, err := m.db.Exec(`INSERT INTO akumuli_series (id, series_name) VALUES (?, ?)`, int64(id), name) //nolint:gosec
	return err
}

func (m *metaStore) updateVolume(v volumeInfo) error {
	_, err := m.db.Exec(
		`UPDATE akumuli_volumes SET generation = ?, nblocks = ? WHERE id = ?`,
		int64(v.Generation), v.NBlocks, v.ID, //nolint:gosec
	)

	return err
}

func (m *metaStore) setActiveVolume(i int) error {
	_, err := m.db.Exec(`UPDATE akumuli_configuration SET value = ? WHERE name = 'active_volume'`, strconv.Itoa(i))
	return err
}

func (m *metaStore) close() error {
	return m.db.Close()
}
