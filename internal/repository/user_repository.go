package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/peerrent/verification/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, email, passwordHash, role string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	SaveProfile(ctx context.Context, id int64, req *domain.ProfileRequest) (*domain.User, error)
	SaveAddress(ctx context.Context, id int64, req *domain.AddressRequest) (*domain.User, error)
	UpdatePhone(ctx context.Context, id int64, phone string) error
}

type userRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userCols = `id, role, email, password_hash, first_name, last_name, phone,
	date_of_birth, bio, street, city, state, postal_code, country,
	profile_status, email_status, phone_status, id_status, address_status,
	created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u                                       domain.User
		firstName, lastName, phone, bio         *string
		street, city, state, postal, country    *string
		profileSt, emailSt, phoneSt, idSt, adSt string
	)

	err := row.Scan(
		&u.ID, &u.Role, &u.Email, &u.PasswordHash, &firstName, &lastName, &phone,
		&u.DateOfBirth, &bio, &street, &city, &state, &postal, &country,
		&profileSt, &emailSt, &phoneSt, &idSt, &adSt,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if firstName != nil {
		u.FirstName = *firstName
	}
	if lastName != nil {
		u.LastName = *lastName
	}
	if phone != nil {
		u.Phone = *phone
	}
	if bio != nil {
		u.Bio = *bio
	}
	if street != nil {
		u.Address = &domain.Address{
			Street:     *street,
			City:       deref(city),
			State:      deref(state),
			PostalCode: deref(postal),
			Country:    deref(country),
		}
	}

	u.Verification = domain.VerificationState{
		Profile: domain.StepStatus(profileSt),
		Email:   domain.StepStatus(emailSt),
		Phone:   domain.StepStatus(phoneSt),
		ID:      domain.StepStatus(idSt),
		Address: domain.StepStatus(adSt),
	}

	return &u, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (r *userRepository) Create(ctx context.Context, email, passwordHash, role string) (*domain.User, error) {
	const q = `
		INSERT INTO users (role, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING ` + userCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanUser(r.pool.QueryRow(ctx, q, role, email, passwordHash))
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE email = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	u, err := scanUser(r.pool.QueryRow(ctx, q, email))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return u, err
}

func (r *userRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	u, err := scanUser(r.pool.QueryRow(ctx, q, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return u, err
}

func (r *userRepository) SaveProfile(ctx context.Context, id int64, req *domain.ProfileRequest) (*domain.User, error) {
	const q = `
		UPDATE users
		SET first_name = $2,
			last_name = $3,
			phone = $4,
			date_of_birth = $5,
			bio = $6,
			updated_at = now()
		WHERE id = $1
		RETURNING ` + userCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	dob := req.BirthDate()
	u, err := scanUser(r.pool.QueryRow(ctx, q, id, req.FirstName, req.LastName, req.Phone, dob, req.Bio))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return u, err
}

func (r *userRepository) SaveAddress(ctx context.Context, id int64, req *domain.AddressRequest) (*domain.User, error) {
	const q = `
		UPDATE users
		SET street = $2,
			city = $3,
			state = $4,
			postal_code = $5,
			country = $6,
			updated_at = now()
		WHERE id = $1
		RETURNING ` + userCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	u, err := scanUser(r.pool.QueryRow(ctx, q, id, req.Street, req.City, req.State, req.PostalCode, req.Country))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return u, err
}

func (r *userRepository) UpdatePhone(ctx context.Context, id int64, phone string) error {
	const q = `UPDATE users SET phone = $2, updated_at = now() WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, id, phone)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
