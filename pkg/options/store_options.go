package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*StoreOptions)(nil)

// Supported storage drivers.
const (
	StoreDriverMemory = "memory"
	StoreDriverSQLite = "sqlite"
	StoreDriverMySQL  = "mysql"
)

// StoreOptions selects and configures the persistence backend.
type StoreOptions struct {
	// Driver is one of memory, sqlite or mysql.
	Driver string `json:"driver" mapstructure:"driver"`

	// DSN is the driver specific data source name. Ignored by memory.
	DSN string `json:"dsn" mapstructure:"dsn"`

	MaxOpenConns    int           `json:"max-open-conns" mapstructure:"max-open-conns"`
	MaxIdleConns    int           `json:"max-idle-conns" mapstructure:"max-idle-conns"`
	ConnMaxLifetime time.Duration `json:"conn-max-lifetime" mapstructure:"conn-max-lifetime"`

	// AutoMigrate creates or updates the schema on startup.
	AutoMigrate bool `json:"auto-migrate" mapstructure:"auto-migrate"`
}

// NewStoreOptions returns the defaults: an in-process memory store.
func NewStoreOptions() *StoreOptions {
	return &StoreOptions{
		Driver:          StoreDriverMemory,
		DSN:             "file:ota-hub.db?_busy_timeout=5000&_foreign_keys=on",
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
		AutoMigrate:     true,
	}
}

func (o *StoreOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errors := []error{}

	switch o.Driver {
	case StoreDriverMemory:
	case StoreDriverSQLite, StoreDriverMySQL:
		if o.DSN == "" {
			errors = append(errors, fmt.Errorf("--store.dsn is required for driver %q", o.Driver))
		}
	default:
		errors = append(errors, fmt.Errorf("--store.driver must be one of memory, sqlite, mysql; got %q", o.Driver))
	}

	if o.MaxOpenConns < 0 {
		errors = append(errors, fmt.Errorf("--store.max-open-conns must not be negative"))
	}

	return errors
}

func (o *StoreOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Driver, "store.driver", o.Driver, "Storage backend: memory, sqlite or mysql.")
	fs.StringVar(&o.DSN, "store.dsn", o.DSN, "Data source name for the sqlite or mysql driver.")
	fs.IntVar(&o.MaxOpenConns, "store.max-open-conns", o.MaxOpenConns, "Maximum number of open database connections.")
	fs.IntVar(&o.MaxIdleConns, "store.max-idle-conns", o.MaxIdleConns, "Maximum number of idle database connections.")
	fs.DurationVar(&o.ConnMaxLifetime, "store.conn-max-lifetime", o.ConnMaxLifetime, "Maximum lifetime of a database connection.")
	fs.BoolVar(&o.AutoMigrate, "store.auto-migrate", o.AutoMigrate, "Create or update the schema on startup.")
}
