package database

import (
	"fmt"
	"strings"

	etlerrors "github.com/BartekS5/irisetl/pkg/errors"
)

// PredictionsTable is the destination table for scored rows.
const PredictionsTable = "iris_predictions"

// Dialect captures the SQL differences between supported drivers.
type Dialect struct {
	Name string
	// CreateTable creates PredictionsTable only when it does not exist.
	CreateTable string
	placeholder func(n int) string
}

// Placeholder returns the n-th (1-based) positional parameter marker.
func (d Dialect) Placeholder(n int) string {
	return d.placeholder(n)
}

// InsertPrediction is the five-column positional insert for one prediction.
func (d Dialect) InsertPrediction() string {
	marks := make([]string, 5)
	for i := range marks {
		marks[i] = d.Placeholder(i + 1)
	}
	return fmt.Sprintf(
		"INSERT INTO %s (sepal_length, sepal_width, petal_length, petal_width, predicted_target) VALUES (%s)",
		PredictionsTable, strings.Join(marks, ", "))
}

var dialects = map[string]Dialect{
	"mysql": {
		Name: "mysql",
		CreateTable: `CREATE TABLE IF NOT EXISTS iris_predictions (
	id INT AUTO_INCREMENT PRIMARY KEY,
	sepal_length FLOAT,
	sepal_width FLOAT,
	petal_length FLOAT,
	petal_width FLOAT,
	predicted_target INT
)`,
		placeholder: func(int) string { return "?" },
	},
	"postgres": {
		Name: "postgres",
		CreateTable: `CREATE TABLE IF NOT EXISTS iris_predictions (
	id SERIAL PRIMARY KEY,
	sepal_length DOUBLE PRECISION,
	sepal_width DOUBLE PRECISION,
	petal_length DOUBLE PRECISION,
	petal_width DOUBLE PRECISION,
	predicted_target INTEGER
)`,
		placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	},
	"sqlserver": {
		Name: "sqlserver",
		CreateTable: `IF OBJECT_ID(N'iris_predictions', N'U') IS NULL
CREATE TABLE iris_predictions (
	id INT IDENTITY(1,1) PRIMARY KEY,
	sepal_length FLOAT,
	sepal_width FLOAT,
	petal_length FLOAT,
	petal_width FLOAT,
	predicted_target INT
)`,
		placeholder: func(n int) string { return fmt.Sprintf("@p%d", n) },
	},
	"sqlite3": {
		Name: "sqlite3",
		CreateTable: `CREATE TABLE IF NOT EXISTS iris_predictions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	sepal_length REAL,
	sepal_width REAL,
	petal_length REAL,
	petal_width REAL,
	predicted_target INTEGER
)`,
		placeholder: func(int) string { return "?" },
	},
}

// LookupDialect returns the dialect registered for a database/sql driver name.
func LookupDialect(driver string) (Dialect, error) {
	d, ok := dialects[driver]
	if !ok {
		return Dialect{}, etlerrors.Newf("unsupported SQL driver %q", driver)
	}
	return d, nil
}
