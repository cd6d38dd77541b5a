package storage

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/minsql/minsql/internal/catalog"
	"github.com/minsql/minsql/internal/engine"
	"github.com/minsql/minsql/pkg"
)

// WriteSettings controls when and where the whole catalog state is
// persisted. In-memory mode never touches disk.
type WriteSettings struct {
	WritePath     string
	InMem         bool
	WriteInterval time.Duration
}

func NewWriteSettings(writePath string, inMem bool, writeIntervalMs int) *WriteSettings {
	if !inMem && len(writePath) == 0 {
		pkg.FatalLog("Must either provide db path or use in-memory mode")
	}
	return &WriteSettings{
		WritePath:     writePath,
		InMem:         inMem,
		WriteInterval: time.Duration(writeIntervalMs) * time.Millisecond,
	}
}

// savedTable is the on-disk shape of one table: schema, rows in
// insertion order, and which columns carry an index. Unique sets and
// index contents are rebuilt on load, not persisted.
type savedTable struct {
	Columns []engine.Column  `json:"columns"`
	Rows    []map[string]any `json:"rows"`
	Indexes []string         `json:"indexes"`
}

type savedState map[string]map[string]savedTable

// Store persists committed catalog state after the fact. It is never
// invoked mid-query; the engine only sees it through MarkChanged.
type Store struct {
	settings *WriteSettings
	catalog  *catalog.Catalog

	// held for reading while a flush snapshots the catalog; mutation
	// paths take it for writing through GetLocker
	state_locker sync.RWMutex

	locker      sync.Mutex
	last_change time.Time
	last_write  time.Time
	stop        chan struct{}
}

func NewStore(settings *WriteSettings, c *catalog.Catalog) *Store {
	return &Store{settings: settings, catalog: c, stop: make(chan struct{})}
}

// GetLocker exposes the lock every catalog mutation must hold for
// writing so the background flush reads a consistent snapshot.
func (s *Store) GetLocker() *sync.RWMutex {
	return &s.state_locker
}

// MarkChanged records that catalog state moved past what is on disk.
func (s *Store) MarkChanged() {
	s.locker.Lock()
	defer s.locker.Unlock()
	s.last_change = time.Now()
}

// Start launches the background write loop. No-op in in-memory mode.
func (s *Store) Start() {
	if s.settings.InMem {
		return
	}
	ticker := time.NewTicker(s.settings.WriteInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.writeIfChanged()
			case <-s.stop:
				s.writeIfChanged()
				return
			}
		}
	}()
}

// Stop ends the write loop after one final flush.
func (s *Store) Stop() {
	if s.settings.InMem {
		return
	}
	close(s.stop)
}

func (s *Store) writeIfChanged() {
	s.locker.Lock()
	changed := s.last_change.After(s.last_write)
	s.locker.Unlock()
	if !changed {
		return
	}
	if err := s.WriteToFile(); err != nil {
		pkg.ErrorLog("failed to write db to file", err)
		return
	}
	s.locker.Lock()
	s.last_write = time.Now()
	s.locker.Unlock()
}

// WriteToFile serializes every database and table to the write path.
func (s *Store) WriteToFile() error {
	if s.settings.InMem {
		return nil
	}

	s.state_locker.RLock()
	defer s.state_locker.RUnlock()

	state := savedState{}
	for _, dbName := range s.catalog.DatabaseNames() {
		db, ok := s.catalog.Database(dbName)
		if !ok {
			continue
		}
		tables := map[string]savedTable{}
		for tableName, table := range db.Tables {
			rows := table.Rows()
			saved := savedTable{
				Columns: table.Columns(),
				Rows:    make([]map[string]any, len(rows)),
				Indexes: table.IndexedColumns(),
			}
			for i, row := range rows {
				saved.Rows[i] = row
			}
			tables[tableName] = saved
		}
		state[dbName] = tables
	}

	f, err := os.Create(s.settings.WritePath)
	if err != nil {
		return errors.Wrap(err, "failed to open db file for writing")
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(state); err != nil {
		return errors.Wrap(err, "failed to encode db state")
	}
	return nil
}

// Load reads persisted state from the write path into a fresh catalog.
// A missing or empty file yields an empty catalog. Rows are re-inserted
// through the engine so unique sets and indexes are rebuilt as a side
// effect of loading. No database is selected afterwards; the caller
// still has to USE one.
func Load(settings *WriteSettings) (*catalog.Catalog, error) {
	c := catalog.New()
	if settings.InMem || len(settings.WritePath) == 0 {
		return c, nil
	}

	f, err := os.Open(settings.WritePath)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, errors.Wrap(err, "failed to open db file")
	}
	defer f.Close()

	state := savedState{}
	if err := json.NewDecoder(f).Decode(&state); err != nil {
		if err == io.EOF {
			pkg.WarnLog("read empty db file")
			return c, nil
		}
		return nil, errors.Wrap(err, "failed to decode db file")
	}

	for dbName, tables := range state {
		if _, err := c.CreateDatabase(dbName, false); err != nil {
			return nil, err
		}
		db, _ := c.Database(dbName)
		for tableName, saved := range tables {
			table, err := engine.NewTable(tableName, saved.Columns)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to restore table %s", tableName)
			}
			for _, raw := range saved.Rows {
				row := restoreRow(saved.Columns, raw)
				if _, err := table.Insert(row); err != nil {
					return nil, errors.Wrapf(err, "failed to restore row in table %s", tableName)
				}
			}
			for _, column := range saved.Indexes {
				if err := table.CreateIndex(column); err != nil {
					return nil, err
				}
			}
			db.Tables.Set(tableName, table)
		}
	}

	pkg.InfoLog("loaded database from file", settings.WritePath)
	return c, nil
}

// restoreRow undoes json number widening: integer columns come back from
// the decoder as float64 and need to be int64 again.
func restoreRow(columns []engine.Column, raw map[string]any) engine.Row {
	row := engine.Row{}
	for _, col := range columns {
		value, ok := raw[col.Name]
		if !ok || value == nil {
			row.Set(col.Name, nil)
			continue
		}
		if col.Type == engine.TypeInt {
			value = pkg.NumToInt64(value)
		}
		row.Set(col.Name, value)
	}
	return row
}
