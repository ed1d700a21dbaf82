package database

import (
	"fmt"
	"log"

	"slidereview_backend/internal/config"
	"slidereview_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	return db, nil
}

// Migrate creates or updates the schema for every entity. Shared with the
// sqlite based test harness.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.CaseList{},
		&model.UserCaseList{},
		&model.CaseListInvitation{},
		&model.Case{},
		&model.CaseSlide{},
		&model.Question{},
		&model.QuestionItem{},
		&model.CaseInstance{},
		&model.Answer{},
		&model.AnswerAnnotation{},
		&model.CaseBookmark{},
		&model.QuestionBookmark{},
	)
}
