// database_utils should be the canonical place to put shared DB utils.
// It should not include:
// 1. Any util that doesn't manipulate DB
// 2. Any util that contains business logic
package utils

import (
	"fmt"
	"log"
	"os"
	"strings"
	"testing"

	"github.com/dice-app/dice/model"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	TestDBPrefix         = "testonlydb_"
	TestDBNameCharLength = 8

	PostgresDriver = "postgres"
	SqliteDriver   = "sqlite"
)

// GormTransaction is the callback function used during db.Transaction in Gorm.
type GormTransaction func(tx *gorm.DB) error

func isTempDB(dbName string) bool {
	return strings.HasPrefix(dbName, TestDBPrefix)
}

func randomTestDBName() string {
	return TestDBPrefix + RandomAlphabetString(TestDBNameCharLength)
}

// GetDBConnection get a connection to the database specified by env
func GetDBConnection() (*gorm.DB, error) {
	if os.Getenv("DB_DRIVER") == SqliteDriver {
		path := os.Getenv("SQLITE_PATH")
		if path == "" {
			path = "dice.db"
		}
		return getSqliteDB(path)
	}
	return GetCustomizedConnection(os.Getenv("DB_NAME"))
}

// GetCustomizedConnection connect to any postgres db
func GetCustomizedConnection(dbName string) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable", os.Getenv("DB_HOST"), os.Getenv("DB_USER"), os.Getenv("DB_PASS"), dbName, os.Getenv("DB_PORT"))
	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}

// Create a temp DB for testing, note that this function should only be called
// in a testing environment with test state manager testing.T
// The DB is an in-memory sqlite database private to the test case, it is
// closed (and thereby dropped) after the test.
func CreateTempDB(t *testing.T) (*gorm.DB, string) {
	t.Helper()
	dbName := randomTestDBName()
	if !isTempDB(dbName) {
		log.Fatalln("cannot create a non-testing DB")
	}
	db, err := getSqliteDB(fmt.Sprintf("file:%s?mode=memory&cache=shared", dbName))
	if err != nil {
		log.Fatalln("fail to create temp DB with name: ", dbName)
	}
	DatabaseSetupAndMigration(db)
	t.Cleanup(func() {
		conn, _ := db.DB()
		conn.Close()
	})

	return db, dbName
}

func getSqliteDB(dsn string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}

func DatabaseSetupAndMigration(db *gorm.DB) {
	if err := db.AutoMigrate(&model.Session{}, &model.Participant{}); err != nil {
		panic("failed to migrate database: " + err.Error())
	}
}
