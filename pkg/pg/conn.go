package pg

import (
	"database/sql"
	"strings"
)

type Config struct {
	User     string
	Host     string
	Port     string
	Password string
	Database string
}

// DSN renders the keyword/value connection string shared by the gorm pool and
// the plain database/sql connection the migration runner uses. TLS stays off;
// both services sit on the same private network as the database.
func (c Config) DSN() string {
	pairs := []string{
		"host=" + c.Host,
		"port=" + c.Port,
		"user=" + c.User,
		"password=" + c.Password,
		"dbname=" + c.Database,
		"sslmode=disable",
	}
	return strings.Join(pairs, " ")
}

func newSqlConnection(config Config) (*sql.DB, error) {
	return sql.Open("postgres", config.DSN())
}
