package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/student-planner/pkg/config"
)

func TestDSN(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "planner",
		Password: "s3cret",
		Name:     "student_planner",
		SSLMode:  "disable",
	}
	assert.Equal(t, "host=localhost port=5432 user=planner password=s3cret dbname=student_planner sslmode=disable", DSN(cfg))

	cfg.Password = ""
	assert.NotContains(t, DSN(cfg), "password=")
}

func TestDSNQuotesSpecialValues(t *testing.T) {
	cfg := config.DatabaseConfig{Host: "db", Port: 5432, Password: `it's a \secret`}
	assert.Equal(t, `host=db port=5432 password='it\'s a \\secret'`, DSN(cfg))
}
