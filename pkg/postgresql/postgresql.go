package postgresql

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/lib/pq"

	"github.com/Praitheesh/alf.io/config"
)

var (
	db   *sql.DB
	once sync.Once
)

// GetDatabase returns the shared PostgreSQL connection pool.
func GetDatabase() *sql.DB {
	once.Do(func() {
		c := config.Get()

		dsn := fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Postgres.Host, c.Postgres.Port, c.Postgres.User, c.Postgres.Password, c.Postgres.Name, c.Postgres.SSLMode,
		)

		var err error
		db, err = sql.Open("postgres", dsn)
		if err != nil {
			panic(err)
		}

		db.SetMaxOpenConns(c.Postgres.MaxOpenConns)
		db.SetMaxIdleConns(c.Postgres.MaxIdleConns)
		db.SetConnMaxLifetime(c.Postgres.ConnMaxLifetime)
	})

	return db
}
