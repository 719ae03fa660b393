package pg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_DSN(t *testing.T) {
	cfg := Config{
		User:     "scheduler",
		Host:     "db.internal",
		Port:     "5432",
		Password: "secret",
		Database: "calls",
	}

	assert.Equal(t,
		"host=db.internal port=5432 user=scheduler password=secret dbname=calls sslmode=disable",
		cfg.DSN())
}
