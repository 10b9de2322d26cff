// Package memory provides in-process implementations of the repositories,
// used by tests and by the server when database.driver is "memory".
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"city-tours/internal/models"

	"github.com/google/uuid"
)

// Store holds every table behind one lock so cascades stay consistent
type Store struct {
	mu       sync.RWMutex
	seq      int64
	now      func() time.Time
	users    map[string]*models.Account
	profiles map[string]*models.Profile
	tours    map[string]*models.Tour
	stops    map[string]*stopRow
	images   map[string]*models.TourImage
}

type stopRow struct {
	stop models.Stop
	seq  int64
}

// New creates an empty store
func New() *Store {
	return &Store{
		now:      func() time.Time { return time.Now().UTC() },
		users:    make(map[string]*models.Account),
		profiles: make(map[string]*models.Profile),
		tours:    make(map[string]*models.Tour),
		stops:    make(map[string]*stopRow),
		images:   make(map[string]*models.TourImage),
	}
}

// WithClock replaces the time source, for deterministic ordering in tests
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Users returns the user table
func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }

// Profiles returns the profile table
func (s *Store) Profiles() *ProfileRepository { return &ProfileRepository{s: s} }

// Tours returns the tour table
func (s *Store) Tours() *TourRepository { return &TourRepository{s: s} }

// Stops returns the stop table
func (s *Store) Stops() *StopRepository { return &StopRepository{s: s} }

// Images returns the tour image table
func (s *Store) Images() *TourImageRepository { return &TourImageRepository{s: s} }

// UserRepository stores accounts in memory
type UserRepository struct{ s *Store }

// Create inserts an account; emails are unique
func (r *UserRepository) Create(_ context.Context, account *models.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, account.Email) {
			return models.NewConflictError("user already exists")
		}
	}
	account.ID = uuid.New().String()
	account.CreatedAt = r.s.now()
	cp := *account
	r.s.users[cp.ID] = &cp
	return nil
}

// GetByID retrieves an account by ID
func (r *UserRepository) GetByID(_ context.Context, id string) (*models.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, models.NewNotFoundError("user", id)
	}
	cp := *u
	return &cp, nil
}

// GetByEmail retrieves an account by email
func (r *UserRepository) GetByEmail(_ context.Context, email string) (*models.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, models.NewNotFoundError("user", email)
}

// UpdatePassword replaces the stored credential
func (r *UserRepository) UpdatePassword(_ context.Context, id, hash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return models.NewNotFoundError("user", id)
	}
	u.PasswordHash = hash
	return nil
}

// ProfileRepository stores profiles in memory
type ProfileRepository struct{ s *Store }

// GetByID retrieves a profile
func (r *ProfileRepository) GetByID(_ context.Context, id string) (*models.Profile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.profiles[id]
	if !ok {
		return nil, models.NewNotFoundError("profile", id)
	}
	cp := *p
	return &cp, nil
}

// Create inserts a profile keyed by its owner id
func (r *ProfileRepository) Create(_ context.Context, profile *models.Profile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.profiles[profile.ID]; ok {
		return models.NewConflictError("profile already exists")
	}
	profile.CreatedAt = r.s.now()
	cp := *profile
	r.s.profiles[cp.ID] = &cp
	return nil
}

// Update applies a partial update
func (r *ProfileRepository) Update(_ context.Context, id string, patch models.ProfilePatch) (*models.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.profiles[id]
	if !ok {
		return nil, models.NewNotFoundError("profile", id)
	}
	if patch.Username != nil {
		p.Username = *patch.Username
	}
	if patch.ProfileImage != nil {
		p.ProfileImage = *patch.ProfileImage
	}
	cp := *p
	return &cp, nil
}

// TourRepository stores tours in memory
type TourRepository struct{ s *Store }

// List returns tours matching the filter, newest first
func (r *TourRepository) List(_ context.Context, filter models.TourFilter) ([]*models.Tour, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var tours []*models.Tour
	for _, t := range r.s.tours {
		if filter.City != "" && t.City != filter.City {
			continue
		}
		if filter.CreatedBy != "" && t.CreatedBy != filter.CreatedBy {
			continue
		}
		cp := *t
		tours = append(tours, &cp)
	}
	sort.SliceStable(tours, func(i, j int) bool {
		if tours[i].CreatedAt.Equal(tours[j].CreatedAt) {
			return tours[i].ID > tours[j].ID
		}
		return tours[i].CreatedAt.After(tours[j].CreatedAt)
	})
	return tours, nil
}

// GetByID retrieves a tour by ID
func (r *TourRepository) GetByID(_ context.Context, id string) (*models.Tour, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.tours[id]
	if !ok {
		return nil, models.NewNotFoundError("tour", id)
	}
	cp := *t
	return &cp, nil
}

// Create inserts a tour
func (r *TourRepository) Create(_ context.Context, tour *models.Tour) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	tour.ID = uuid.New().String()
	tour.CreatedAt = r.s.now()
	cp := *tour
	r.s.tours[cp.ID] = &cp
	return nil
}

// Update applies a partial update
func (r *TourRepository) Update(_ context.Context, id string, u models.TourUpdate) (*models.Tour, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tours[id]
	if !ok {
		return nil, models.NewNotFoundError("tour", id)
	}
	if u.Title != nil {
		t.Title = *u.Title
	}
	if u.Description != nil {
		t.Description = *u.Description
	}
	if u.City != nil {
		t.City = *u.City
	}
	if u.Language != nil {
		t.Language = *u.Language
	}
	if u.Price != nil {
		t.Price = *u.Price
	}
	if u.Duration != nil {
		t.Duration = *u.Duration
	}
	if u.Imagenes != nil {
		t.Imagenes = *u.Imagenes
	}
	cp := *t
	return &cp, nil
}

// Delete removes a tour together with its stops and images
func (r *TourRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tours[id]; !ok {
		return models.NewNotFoundError("tour", id)
	}
	delete(r.s.tours, id)
	for sid, row := range r.s.stops {
		if row.stop.TourID == id {
			delete(r.s.stops, sid)
		}
	}
	for iid, img := range r.s.images {
		if img.TourID == id {
			delete(r.s.images, iid)
		}
	}
	return nil
}

// StopRepository stores stops in memory
type StopRepository struct{ s *Store }

// ListByTour returns the stops of a tour ordered by stop order, then creation
func (r *StopRepository) ListByTour(_ context.Context, tourID string) ([]*models.Stop, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var rows []*stopRow
	for _, row := range r.s.stops {
		if row.stop.TourID == tourID {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.stop.StopOrder != b.stop.StopOrder {
			return a.stop.StopOrder < b.stop.StopOrder
		}
		if !a.stop.CreatedAt.Equal(b.stop.CreatedAt) {
			return a.stop.CreatedAt.Before(b.stop.CreatedAt)
		}
		return a.seq < b.seq
	})

	stops := make([]*models.Stop, 0, len(rows))
	for _, row := range rows {
		cp := row.stop
		stops = append(stops, &cp)
	}
	return stops, nil
}

// GetByID retrieves a stop by ID
func (r *StopRepository) GetByID(_ context.Context, id string) (*models.Stop, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	row, ok := r.s.stops[id]
	if !ok {
		return nil, models.NewNotFoundError("stop", id)
	}
	cp := row.stop
	return &cp, nil
}

// Create inserts a stop; the parent tour must exist
func (r *StopRepository) Create(_ context.Context, stop *models.Stop) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tours[stop.TourID]; !ok {
		return &models.Error{Kind: models.KindNotFound, Message: "referenced record of stop not found"}
	}
	stop.ID = uuid.New().String()
	stop.CreatedAt = r.s.now()
	r.s.seq++
	r.s.stops[stop.ID] = &stopRow{stop: *stop, seq: r.s.seq}
	return nil
}

// Update applies a partial update
func (r *StopRepository) Update(_ context.Context, id string, u models.StopUpdate) (*models.Stop, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	row, ok := r.s.stops[id]
	if !ok {
		return nil, models.NewNotFoundError("stop", id)
	}
	if u.Title != nil {
		row.stop.Title = *u.Title
	}
	if u.Description != nil {
		row.stop.Description = *u.Description
	}
	if u.Latitude != nil {
		row.stop.Latitude = *u.Latitude
	}
	if u.Longitude != nil {
		row.stop.Longitude = *u.Longitude
	}
	if u.StopOrder != nil {
		row.stop.StopOrder = *u.StopOrder
	}
	cp := row.stop
	return &cp, nil
}

// Delete removes a stop
func (r *StopRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.stops[id]; !ok {
		return models.NewNotFoundError("stop", id)
	}
	delete(r.s.stops, id)
	return nil
}

// DeleteByTour removes every stop of a tour
func (r *StopRepository) DeleteByTour(_ context.Context, tourID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, row := range r.s.stops {
		if row.stop.TourID == tourID {
			delete(r.s.stops, id)
			n++
		}
	}
	return n, nil
}

// TourImageRepository stores tour images in memory
type TourImageRepository struct{ s *Store }

// ListByTour returns the images of a tour
func (r *TourImageRepository) ListByTour(_ context.Context, tourID string) ([]*models.TourImage, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var images []*models.TourImage
	for _, img := range r.s.images {
		if img.TourID == tourID {
			cp := *img
			images = append(images, &cp)
		}
	}
	sort.Slice(images, func(i, j int) bool { return images[i].Imagen < images[j].Imagen })
	return images, nil
}

// GetByID retrieves an image by ID
func (r *TourImageRepository) GetByID(_ context.Context, id string) (*models.TourImage, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	img, ok := r.s.images[id]
	if !ok {
		return nil, models.NewNotFoundError("image", id)
	}
	cp := *img
	return &cp, nil
}

// Create attaches an image; the parent tour must exist
func (r *TourImageRepository) Create(_ context.Context, img *models.TourImage) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tours[img.TourID]; !ok {
		return &models.Error{Kind: models.KindNotFound, Message: "referenced record of tour not found"}
	}
	img.ID = uuid.New().String()
	cp := *img
	r.s.images[cp.ID] = &cp
	return nil
}

// Delete removes one image
func (r *TourImageRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.images[id]; !ok {
		return models.NewNotFoundError("image", id)
	}
	delete(r.s.images, id)
	return nil
}

// DeleteByTour removes every image of a tour
func (r *TourImageRepository) DeleteByTour(_ context.Context, tourID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, img := range r.s.images {
		if img.TourID == tourID {
			delete(r.s.images, id)
			n++
		}
	}
	return n, nil
}
