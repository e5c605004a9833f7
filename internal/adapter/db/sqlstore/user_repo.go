package sqlstore

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"andrew-web-services/internal/domain/user"
)

// UserRepo is the durable user store, backed by GORM. It runs on PostgreSQL in
// production and on SQLite for local runs and tests.
type UserRepo struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewUserRepo creates a new UserRepo.
func NewUserRepo(db *gorm.DB, log *zap.Logger) *UserRepo {
	return &UserRepo{db: db, log: log}
}

// UserSchema is the users table row.
type UserSchema struct {
	ID   int64  `gorm:"primaryKey;autoIncrement"`
	Name string `gorm:"not null;uniqueIndex;size:100"`
	PIN  int    `gorm:"column:pin;not null"`
}

// TableName specifies the table name for the UserSchema model.
func (UserSchema) TableName() string {
	return "users"
}

// Migrate creates or updates the users table.
func (r *UserRepo) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&UserSchema{}); err != nil {
		return fmt.Errorf("failed to migrate users table: %w", err)
	}
	return nil
}

// FindByName retrieves a user by name. It returns (nil, nil) when there is no such user.
func (r *UserRepo) FindByName(ctx context.Context, name string) (*user.User, error) {
	var model UserSchema
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Debug("user not found by name", zap.String("name", name))
			return nil, nil
		}
		r.log.Error("failed to get user by name from db", zap.Error(err), zap.String("name", name))
		return nil, fmt.Errorf("failed to get user by name: %w", err)
	}

	return &user.User{
		ID:   model.ID,
		Name: model.Name,
		PIN:  model.PIN,
	}, nil
}

// Save inserts u, or updates the PIN of the existing row with the same name.
func (r *UserRepo) Save(ctx context.Context, u *user.User) (int64, error) {
	if u == nil {
		return 0, errors.New("user cannot be nil")
	}

	var id int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model UserSchema
		err := tx.Where("name = ?", u.Name).First(&model).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			model = UserSchema{Name: u.Name, PIN: u.PIN}
			if err := tx.Create(&model).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			if err := tx.Model(&model).Update("pin", u.PIN).Error; err != nil {
				return err
			}
		}
		id = model.ID
		return nil
	})
	if err != nil {
		r.log.Error("failed to save user in db", zap.Error(err), zap.String("name", u.Name))
		return 0, fmt.Errorf("failed to save user: %w", err)
	}

	r.log.Info("user saved in db", zap.Int64("id", id), zap.String("name", u.Name))
	return id, nil
}

// Delete removes the user with the given name.
func (r *UserRepo) Delete(ctx context.Context, name string) error {
	if name == "" {
		return errors.New("invalid user name")
	}

	if err := r.db.WithContext(ctx).Where("name = ?", name).Delete(&UserSchema{}).Error; err != nil {
		r.log.Error("failed to delete user in db", zap.Error(err), zap.String("name", name))
		return fmt.Errorf("failed to delete user: %w", err)
	}

	r.log.Info("user deleted in db", zap.String("name", name))
	return nil
}
