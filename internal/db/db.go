package db

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/stundenapp/stundenapp-back/internal/models"
	"github.com/stundenapp/stundenapp-back/internal/notify"
)

var DB *gorm.DB

func InitDB(dsn string) {
	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	err = DB.AutoMigrate(
		&models.Lesson{},
		&models.ImportWatermark{},
		&models.CancellationNotice{},
		&models.User{},
		&models.UserCourse{},
	)
	if err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	fmt.Println("✅ Database connected and migrated")
}

// Conn exposes the shared connection for the store layer.
func Conn() *gorm.DB {
	return DB
}

func PingDB() error {
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func SaveOrUpdateUser(ctx context.Context, u models.User) error {
	var existing models.User
	if err := DB.WithContext(ctx).Where("username = ?", u.Username).First(&existing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return DB.WithContext(ctx).Create(&u).Error
		}
		return err
	}
	return DB.WithContext(ctx).Model(&existing).Updates(u).Error
}

func GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := DB.WithContext(ctx).Preload("Courses").Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func UpdateUserCourses(ctx context.Context, username string, primary, secondary int) error {
	return DB.WithContext(ctx).Model(&models.User{}).
		Where("username = ?", username).
		Updates(map[string]interface{}{"primary_course_nr": primary, "secondary_course_nr": secondary}).Error
}

func GetUserCourses(ctx context.Context, username string) ([]models.UserCourse, error) {
	user, err := GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return user.Courses, nil
}

func AddUserCourse(ctx context.Context, username, courseKey string, notifyMe bool) error {
	var user models.User
	if err := DB.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return err
	}
	course := models.UserCourse{UserID: user.ID, CourseKey: courseKey, Notify: notifyMe}
	return DB.WithContext(ctx).Create(&course).Error
}

func DeleteUserCourse(ctx context.Context, username, courseID string) error {
	var user models.User
	if err := DB.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return err
	}
	return DB.WithContext(ctx).Where("id = ? AND user_id = ?", courseID, user.ID).Delete(&models.UserCourse{}).Error
}

// Directory implements the notification membership lookup on the user
// tables. Matching is by subscribed course key or primary/secondary class.
type Directory struct{}

func (Directory) Targets(ctx context.Context, courseKey string) ([]notify.Target, error) {
	var users []models.User
	err := DB.WithContext(ctx).
		Distinct("users.*").
		Joins("LEFT JOIN user_courses ON user_courses.user_id = users.id").
		Where("user_courses.course_key = ? AND user_courses.notify", courseKey).
		Or("CAST(users.primary_course_nr AS TEXT) = ?", courseKey).
		Or("CAST(users.secondary_course_nr AS TEXT) = ?", courseKey).
		Find(&users).Error
	if err != nil {
		return nil, err
	}

	targets := make([]notify.Target, 0, len(users))
	for _, u := range users {
		t := notify.Target{Name: u.Username, Addresses: map[string]string{}}
		if u.TelegramChatID != "" {
			t.Addresses["telegram"] = u.TelegramChatID
		}
		if u.Email != "" {
			t.Addresses["mail"] = u.Email
		}
		if u.WebhookURL != "" {
			t.Addresses["webhook"] = u.WebhookURL
		}
		targets = append(targets, t)
	}
	return targets, nil
}

func (Directory) IsRegistered(ctx context.Context, name string) (bool, error) {
	var count int64
	err := DB.WithContext(ctx).Model(&models.User{}).Where("username = ?", name).Count(&count).Error
	return count > 0, err
}
