package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Profile is a named set of pipeline tuning parameters.
type Profile struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Tolerance       int       `json:"tolerance"`
	BinaryThreshold int       `json:"binary_threshold"`
	MinDefectDepth  int       `json:"min_defect_depth"`
	DisplayScale    float64   `json:"display_scale"`
	BlurSize        int       `json:"blur_size"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ProfileRepository provides CRUD operations for tuning profiles.
type ProfileRepository struct {
	db *sql.DB
}

// Profiles returns the profile repository for this store.
func (s *Store) Profiles() *ProfileRepository {
	return &ProfileRepository{db: s.db}
}

const profileColumns = `id, name, tolerance, binary_threshold, min_defect_depth, display_scale, blur_size, created_at, updated_at`

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(s scanner) (*Profile, error) {
	p := &Profile{}
	err := s.Scan(&p.ID, &p.Name, &p.Tolerance, &p.BinaryThreshold, &p.MinDefectDepth,
		&p.DisplayScale, &p.BlurSize, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Create inserts a new profile. An ID is generated when p.ID is empty.
func (r *ProfileRepository) Create(p *Profile) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := r.db.Exec(
		`INSERT INTO profiles (`+profileColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Tolerance, p.BinaryThreshold, p.MinDefectDepth,
		p.DisplayScale, p.BlurSize, p.CreatedAt, p.UpdatedAt,
	)
	return err
}

// GetByID retrieves a profile by its ID.
func (r *ProfileRepository) GetByID(id string) (*Profile, error) {
	p, err := scanProfile(r.db.QueryRow(
		`SELECT `+profileColumns+` FROM profiles WHERE id = ?`, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// GetByName retrieves a profile by its name.
func (r *ProfileRepository) GetByName(name string) (*Profile, error) {
	p, err := scanProfile(r.db.QueryRow(
		`SELECT `+profileColumns+` FROM profiles WHERE name = ?`, name,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// List retrieves all profiles ordered by name.
func (r *ProfileRepository) List() ([]*Profile, error) {
	rows, err := r.db.Query(`SELECT ` + profileColumns + ` FROM profiles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return profiles, nil
}

// Update updates an existing profile.
func (r *ProfileRepository) Update(p *Profile) error {
	p.UpdatedAt = time.Now()

	result, err := r.db.Exec(
		`UPDATE profiles SET name = ?, tolerance = ?, binary_threshold = ?, min_defect_depth = ?,
		 display_scale = ?, blur_size = ?, updated_at = ?
		 WHERE id = ?`,
		p.Name, p.Tolerance, p.BinaryThreshold, p.MinDefectDepth,
		p.DisplayScale, p.BlurSize, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Save creates the profile named p.Name or overwrites it when it exists.
func (r *ProfileRepository) Save(p *Profile) error {
	existing, err := r.GetByName(p.Name)
	if errors.Is(err, ErrNotFound) {
		return r.Create(p)
	}
	if err != nil {
		return err
	}

	p.ID = existing.ID
	p.CreatedAt = existing.CreatedAt
	return r.Update(p)
}

// Delete removes a profile by its ID.
func (r *ProfileRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM profiles WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
