package services

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
	"unicode"

	"gorm.io/gorm"

	"github.com/example/snowstore/internal/models"
	"github.com/example/snowstore/internal/utils"
)

// ValidRoles lists the roles an administrator may assign.
var ValidRoles = []string{models.RoleUser, models.RoleAdmin, models.RoleManager, models.RoleEditor}

// ErrInvalidCredentials is returned by Authenticate for an unknown email or wrong password.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrForbidden is returned when the acting user may not touch the target account.
var ErrForbidden = errors.New("operation not permitted")

// RegisterInput is a self-service sign-up.
type RegisterInput struct {
	Name     string `validate:"required,max=100"`
	Email    string `validate:"required,email,max=255"`
	Password string `validate:"required,min=6,max=100"`
}

// UserInput is an administrator-created account.
type UserInput struct {
	Name     string `validate:"required,max=100"`
	Email    string `validate:"required,email,max=255"`
	Password string `validate:"required,max=100"`
	Role     string `validate:"required,oneof=User Admin Manager Editor"`
}

// UserEdit changes an existing account. An empty NewPassword keeps the current one.
type UserEdit struct {
	Name        string `validate:"required,max=100"`
	Email       string `validate:"required,email,max=255"`
	Role        string `validate:"required,oneof=User Admin Manager Editor"`
	NewPassword string `validate:"omitempty,min=8,max=100"`
}

// UserFilter narrows the admin user list.
type UserFilter struct {
	Search   string
	Role     string
	Page     int
	PageSize int
}

// UserService manages accounts.
type UserService struct {
	db *gorm.DB
}

// NewUserService constructs UserService.
func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidatePassword enforces length and character class rules for admin-set passwords.
func ValidatePassword(password string) error {
	if len([]rune(password)) < 8 {
		return invalid("password", "must be at least 8 characters with uppercase, lowercase, number, and special character")
	}
	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case !unicode.IsLetter(r):
			special = true
		}
	}
	if !(upper && lower && digit && special) {
		return invalid("password", "must be at least 8 characters with uppercase, lowercase, number, and special character")
	}
	return nil
}

const (
	lowerChars   = "abcdefghijklmnopqrstuvwxyz"
	upperChars   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digitChars   = "1234567890"
	specialChars = "!@#$%^&*"
)

// GeneratePassword returns a random password of the given length that
// satisfies ValidatePassword.
func GeneratePassword(length int) (string, error) {
	if length < 8 {
		length = 8
	}
	all := lowerChars + upperChars + digitChars + specialChars

	chars := make([]byte, length)
	for i, set := range []string{upperChars, lowerChars, digitChars, specialChars} {
		c, err := randomChar(set)
		if err != nil {
			return "", err
		}
		chars[i] = c
	}
	for i := 4; i < length; i++ {
		c, err := randomChar(all)
		if err != nil {
			return "", err
		}
		chars[i] = c
	}

	for i := length - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		chars[i], chars[j.Int64()] = chars[j.Int64()], chars[i]
	}
	return string(chars), nil
}

func randomChar(set string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
	if err != nil {
		return 0, err
	}
	return set[n.Int64()], nil
}

func (s *UserService) emailTaken(tx *gorm.DB, email string, exceptID uint) (bool, error) {
	var n int64
	query := tx.Model(&models.User{}).Where("LOWER(email) = LOWER(?)", email)
	if exceptID != 0 {
		query = query.Where("id <> ?", exceptID)
	}
	err := query.Count(&n).Error
	return n > 0, err
}

// Register creates a storefront account with role User.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Name, in.Email = strings.TrimSpace(in.Name), normalizeEmail(in.Email)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	return s.create(ctx, in.Name, in.Email, in.Password, models.RoleUser)
}

// Create adds an account on behalf of an administrator.
func (s *UserService) Create(ctx context.Context, in UserInput) (*models.User, error) {
	in.Name, in.Email = strings.TrimSpace(in.Name), normalizeEmail(in.Email)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if err := ValidatePassword(in.Password); err != nil {
		return nil, err
	}
	return s.create(ctx, in.Name, in.Email, in.Password, in.Role)
}

func (s *UserService) create(ctx context.Context, name, email, password, role string) (*models.User, error) {
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := models.User{Name: name, Email: email, PasswordHash: hash, Role: role}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := s.emailTaken(tx, email, 0)
		if err != nil {
			return err
		}
		if taken {
			return invalid("email", "email already exists")
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Authenticate returns the user when email and password match.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", normalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !utils.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// Get loads a user.
func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("user", id)
		}
		return nil, err
	}
	return &user, nil
}

// List searches name and email, filters by role and pages the result newest first.
func (s *UserService) List(ctx context.Context, f UserFilter) ([]models.User, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.User{})
	if term := strings.TrimSpace(f.Search); term != "" {
		pattern := likePattern(strings.ToLower(term))
		query = query.Where("LOWER(name) LIKE LOWER(?) OR LOWER(email) LIKE LOWER(?)", pattern, pattern)
	}
	if role := strings.TrimSpace(f.Role); role != "" {
		query = query.Where("role = ?", role)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	err := query.Order("created_at DESC").Order("id DESC").
		Offset(ListParams{Page: f.Page, PageSize: f.PageSize}.offset()).
		Limit(f.PageSize).
		Find(&users).Error
	return users, total, err
}

// Edit updates an account. Administrators may edit their own account or
// accounts with role User, and may not change their own role.
func (s *UserService) Edit(ctx context.Context, actorID, id uint, in UserEdit) (*models.User, error) {
	in.Name, in.Email = strings.TrimSpace(in.Name), normalizeEmail(in.Email)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("user", id)
			}
			return err
		}

		self := user.ID == actorID
		if !self && user.Role != models.RoleUser {
			return ErrForbidden
		}

		taken, err := s.emailTaken(tx, in.Email, user.ID)
		if err != nil {
			return err
		}
		if taken {
			return invalid("email", "email already exists")
		}

		user.Name, user.Email = in.Name, in.Email
		if !self {
			user.Role = in.Role
		}
		if in.NewPassword != "" {
			hash, err := utils.HashPassword(in.NewPassword)
			if err != nil {
				return err
			}
			user.PasswordHash = hash
		}
		return tx.Save(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Delete removes an account. Administrators cannot delete themselves or
// accounts with role Admin.
func (s *UserService) Delete(ctx context.Context, actorID, id uint) error {
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if user.ID == actorID {
		return invalid("id", "you cannot delete your own account")
	}
	if user.Role == models.RoleAdmin {
		return invalid("id", "admin accounts cannot be deleted")
	}
	return s.db.WithContext(ctx).Delete(user).Error
}

// EnsureAdmin creates an Admin account unless one already exists. It
// reports whether an account was created.
func (s *UserService) EnsureAdmin(ctx context.Context, name, email, password string) (bool, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&n).Error; err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}

	email = normalizeEmail(email)
	if err := validateInput(UserInput{Name: name, Email: email, Password: password, Role: models.RoleAdmin}); err != nil {
		return false, err
	}
	if _, err := s.create(ctx, strings.TrimSpace(name), email, password, models.RoleAdmin); err != nil {
		return false, err
	}
	return true, nil
}
