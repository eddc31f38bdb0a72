package store

import (
	"database/sql"
	"errors"
)

// UpsertAthlete inserts or updates the mirrored athlete profile.
func (s *Store) UpsertAthlete(a *Athlete) error {
	_, err := s.db.Exec(`
		INSERT INTO athletes (id, username, firstname, lastname, city, country, sex, weight, profile, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			username = excluded.username,
			firstname = excluded.firstname,
			lastname = excluded.lastname,
			city = excluded.city,
			country = excluded.country,
			sex = excluded.sex,
			weight = excluded.weight,
			profile = excluded.profile,
			updated_at = CURRENT_TIMESTAMP
	`, a.ID, a.Username, a.Firstname, a.Lastname, a.City, a.Country, a.Sex, a.Weight, a.Profile)
	return err
}

// GetAthlete retrieves a mirrored athlete by ID.
func (s *Store) GetAthlete(id int64) (*Athlete, error) {
	row := s.db.QueryRow(`
		SELECT id, username, firstname, lastname, city, country, sex, weight, profile
		FROM athletes
		WHERE id = ?
	`, id)

	var a Athlete
	var username, firstname, lastname, city, country, sex, profile sql.NullString
	var weight sql.NullFloat64
	err := row.Scan(&a.ID, &username, &firstname, &lastname, &city, &country, &sex, &weight, &profile)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAthleteNotFound
	}
	if err != nil {
		return nil, err
	}

	a.Username = username.String
	a.Firstname = firstname.String
	a.Lastname = lastname.String
	a.City = city.String
	a.Country = country.String
	a.Sex = sex.String
	a.Profile = profile.String
	a.Weight = nullToPtr(weight)
	return &a, nil
}
