// Package migrations holds the schema history applied with goose. Migrations
// are Go functions that open gorm over the goose transaction.
package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"slices"

	"github.com/glebarez/sqlite"
	"github.com/pressly/goose/v3"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Skotchmaster/portfolio/internal/models"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

func all(dialect string) []*goose.Migration {
	return []*goose.Migration{
		goose.NewGoMigration(1,
			&goose.GoFunc{RunTx: withGorm(dialect, upInit)},
			&goose.GoFunc{RunTx: withGorm(dialect, downInit)},
		),
	}
}

// NewProvider builds a goose provider for db. dialect is a gorm dialector
// name.
func NewProvider(dialect string, db *sql.DB, log *slog.Logger) (*goose.Provider, error) {
	var gd goose.Dialect
	switch dialect {
	case DialectPostgres:
		gd = goose.DialectPostgres
	case DialectSQLite:
		gd = goose.DialectSQLite3
	default:
		return nil, fmt.Errorf("migrations: unsupported dialect %q", dialect)
	}
	opts := []goose.ProviderOption{
		goose.WithGoMigrations(all(dialect)...),
		goose.WithDisableGlobalRegistry(true),
	}
	if log != nil {
		opts = append(opts, goose.WithSlog(log))
	}
	return goose.NewProvider(gd, db, nil, opts...)
}

// Up applies every pending migration through the connection pool behind gdb.
func Up(ctx context.Context, gdb *gorm.DB, log *slog.Logger) ([]*goose.MigrationResult, error) {
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	p, err := NewProvider(gdb.Dialector.Name(), sqlDB, log)
	if err != nil {
		return nil, err
	}
	return p.Up(ctx)
}

// AutoMigrate brings the schema of gdb up to date without version tracking.
// Tests use it on throwaway databases.
func AutoMigrate(ctx context.Context, gdb *gorm.DB) error {
	return upInit(ctx, gdb)
}

func withGorm(dialect string, fn func(context.Context, *gorm.DB) error) func(context.Context, *sql.Tx) error {
	return func(ctx context.Context, tx *sql.Tx) error {
		var d gorm.Dialector
		if dialect == DialectSQLite {
			d = &sqlite.Dialector{Conn: tx}
		} else {
			d = postgres.New(postgres.Config{Conn: tx, PreferSimpleProtocol: true})
		}
		gdb, err := gorm.Open(d, &gorm.Config{
			Logger:                                   logger.Default.LogMode(logger.Silent),
			DisableForeignKeyConstraintWhenMigrating: dialect == DialectSQLite,
		})
		if err != nil {
			return err
		}
		return fn(ctx, gdb)
	}
}

func upInit(ctx context.Context, gdb *gorm.DB) error {
	return gdb.WithContext(ctx).AutoMigrate(models.All()...)
}

func downInit(ctx context.Context, gdb *gorm.DB) error {
	tables := models.All()
	slices.Reverse(tables)
	return gdb.WithContext(ctx).Migrator().DropTable(tables...)
}
