// Package persistence stores the small amount of state that must survive a
// restart: the probe blacklist and the last-applied set point.
// Grounded on fan2go's bbolt persistence layer: one bucket per concern,
// JSON-marshalled values, self-healing on corrupt reads.
package persistence

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
	"github.com/yuri-rage/pit-ninja/internal/ui"
)

const (
	bucketProbes = "probes"
	bucketPit    = "pit"

	keyBlacklist = "blacklist"
	keySetPoint  = "setPoint"
)

// Persistence is the small bbolt-backed key/value store pitmasterd restores
// its probe blacklist and last set point from at startup.
type Persistence interface {
	Init() error

	LoadBlacklist() ([]string, error)
	SaveBlacklist(macs []string) error

	LoadSetPoint() (float64, bool, error)
	SaveSetPoint(value float64) error
}

type persistence struct {
	dbPath string
}

func New(dbPath string) Persistence {
	return &persistence{dbPath: dbPath}
}

func (p *persistence) Init() error {
	parentDir := filepath.Dir(p.dbPath)
	if _, err := os.Stat(parentDir); errors.Is(err, os.ErrNotExist) {
		ui.Info("Creating directory for db: %s", parentDir)
		if err := os.MkdirAll(parentDir, 0755); err != nil {
			return err
		}
	}
	return nil
}

func (p *persistence) open() (*bolt.DB, error) {
	return bolt.Open(p.dbPath, 0600, &bolt.Options{Timeout: 1 * time.Minute})
}

func (p *persistence) LoadBlacklist() ([]string, error) {
	db, err := p.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var macs []string
	err = db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketProbes))
		if b == nil {
			return nil
		}
		v := b.Get([]byte(keyBlacklist))
		if v == nil {
			return nil
		}
		if err := json.Unmarshal(v, &macs); err != nil {
			ui.Warning("Unable to unmarshal saved blacklist: %v", err)
			macs = nil
			return nil
		}
		return nil
	})
	return macs, err
}

func (p *persistence) SaveBlacklist(macs []string) error {
	db, err := p.open()
	if err != nil {
		return err
	}
	defer db.Close()

	data, err := json.Marshal(macs)
	if err != nil {
		return err
	}
	return db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucketProbes))
		if err != nil {
			return err
		}
		return b.Put([]byte(keyBlacklist), data)
	})
}

func (p *persistence) LoadSetPoint() (value float64, found bool, err error) {
	db, err := p.open()
	if err != nil {
		return 0, false, err
	}
	defer db.Close()

	err = db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketPit))
		if b == nil {
			return nil
		}
		v := b.Get([]byte(keySetPoint))
		if v == nil {
			return nil
		}
		if err := json.Unmarshal(v, &value); err != nil {
			ui.Warning("Unable to unmarshal saved set point: %v", err)
			return nil
		}
		found = true
		return nil
	})
	return value, found, err
}

func (p *persistence) SaveSetPoint(value float64) error {
	db, err := p.open()
	if err != nil {
		return err
	}
	defer db.Close()

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucketPit))
		if err != nil {
			return err
		}
		return b.Put([]byte(keySetPoint), data)
	})
}
