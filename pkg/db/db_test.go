package db_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"coursework_service/pkg/db"
)

func TestPostgres(t *testing.T) {
	t.Run("empty dsn", func(t *testing.T) {
		_, err := db.NewPostgres(db.Config{})
		require.Error(t, err)
	})

	t.Run("connection error", func(t *testing.T) {
		cfg := db.Config{
			DSN: "host=invalid port=9999 user=user password=pass dbname=db sslmode=disable",
		}

		_, err := db.NewPostgres(cfg)
		require.Error(t, err)
	})
}
