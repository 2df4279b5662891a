package db

import (
	"strings"
	"testing"

	"github.com/smallbiznis/gstbook/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialect(t *testing.T) {
	for _, typ := range []string{"postgres", "mysql", "sqlite"} {
		t.Run(typ, func(t *testing.T) {
			d, err := Dialect(config.Config{DBType: typ, DBName: "gstbook"})
			require.NoError(t, err)
			assert.Equal(t, typ, d.Name())
		})
	}

	_, err := Dialect(config.Config{DBType: "oracle"})
	assert.Error(t, err)
}

func TestPostgresDSN(t *testing.T) {
	dsn := PostgresDSN(config.Config{
		DBHost: "db", DBPort: "5432", DBUser: "gst", DBPassword: "p w'd",
		DBName: "gstbook", DBSSLMode: "disable",
	})
	assert.Equal(t, `host=db port=5432 user=gst password='p w\'d' dbname=gstbook sslmode=disable TimeZone=UTC`, dsn)
}

func TestMySQLDSN(t *testing.T) {
	dsn := MySQLDSN(config.Config{
		DBHost: "db", DBPort: "3306", DBUser: "gst", DBPassword: "secret", DBName: "gstbook",
	})
	assert.True(t, strings.HasPrefix(dsn, "gst:secret@tcp(db:3306)/gstbook?"), dsn)
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")
}
