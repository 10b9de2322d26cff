package models

import "time"

// AuthUser is the identity projection held by a session
type AuthUser struct {
	ID        string  `json:"id" yaml:"id"`
	Email     string  `json:"email" yaml:"email"`
	Name      *string `json:"name,omitempty" yaml:"name,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty" yaml:"avatar_url,omitempty"`
}

// UserPatch is a shallow patch applied to an AuthUser; nil fields are left untouched
type UserPatch struct {
	Email     *string `json:"email,omitempty"`
	Name      *string `json:"name,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// Apply returns a copy of u with the patch merged in
func (p UserPatch) Apply(u AuthUser) AuthUser {
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Name != nil {
		u.Name = p.Name
	}
	if p.AvatarURL != nil {
		u.AvatarURL = p.AvatarURL
	}
	return u
}

// Account is a stored identity with its credential
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	Name         *string
	AvatarURL    *string
	CreatedAt    time.Time
}

// AuthUser projects the account without its credential
func (a *Account) AuthUser() *AuthUser {
	return &AuthUser{
		ID:        a.ID,
		Email:     a.Email,
		Name:      a.Name,
		AvatarURL: a.AvatarURL,
	}
}

// UserAttributes are the optional attributes supplied on sign-up
type UserAttributes struct {
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// AuthSession is the result of a successful sign-up or sign-in
type AuthSession struct {
	User        *AuthUser `json:"user"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// PasswordReset is the payload returned when a reset has been requested
type PasswordReset struct {
	Email  string    `json:"email"`
	SentAt time.Time `json:"sent_at"`
}

// Tour represents a city tour authored by a user
type Tour struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	City        string    `json:"city"`
	Language    string    `json:"language"`
	Price       float64   `json:"price"`
	Duration    int       `json:"duration"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	Imagenes    string    `json:"imagenes,omitempty"`
}

// Stop represents a geographic stop of a tour
type Stop struct {
	ID          string    `json:"id"`
	TourID      string    `json:"tour_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	StopOrder   int       `json:"stop_order"`
	CreatedAt   time.Time `json:"created_at"`
}

// TourImage is an image attached to a tour
type TourImage struct {
	ID     string `json:"id"`
	TourID string `json:"idtour"`
	Imagen string `json:"imagen"`
}

// Profile is the public profile of a user
type Profile struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	ProfileImage string    `json:"profile_image,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// ProfilePatch updates a profile; nil fields are left untouched
type ProfilePatch struct {
	Username     *string `json:"username,omitempty"`
	ProfileImage *string `json:"profile_image,omitempty"`
}

// ProfileOverview is a profile plus the number of tours its owner created
type ProfileOverview struct {
	Profile   *Profile `json:"profile"`
	TourCount int      `json:"tour_count"`
}

// TourFilter narrows a tour listing; empty fields do not filter
type TourFilter struct {
	City      string
	CreatedBy string
}

// TourInput holds tour form fields as entered
type TourInput struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	City        string    `json:"city"`
	Language    string    `json:"language,omitempty"`
	Price       FormValue `json:"price"`
	Duration    FormValue `json:"duration,omitempty"`
	Imagenes    string    `json:"imagenes,omitempty"`
}

// TourPatch holds the tour form fields that were provided for an update
type TourPatch struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	City        *string    `json:"city,omitempty"`
	Language    *string    `json:"language,omitempty"`
	Price       *FormValue `json:"price,omitempty"`
	Duration    *FormValue `json:"duration,omitempty"`
	Imagenes    *string    `json:"imagenes,omitempty"`
}

// TourUpdate is a validated, typed partial update of a tour
type TourUpdate struct {
	Title       *string
	Description *string
	City        *string
	Language    *string
	Price       *float64
	Duration    *int
	Imagenes    *string
}

// StopInput holds stop form fields as entered
type StopInput struct {
	TourID      string    `json:"tour_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Latitude    FormValue `json:"latitude"`
	Longitude   FormValue `json:"longitude"`
	StopOrder   FormValue `json:"stop_order"`
}

// StopPatch holds the stop form fields that were provided for an update
type StopPatch struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Latitude    *FormValue `json:"latitude,omitempty"`
	Longitude   *FormValue `json:"longitude,omitempty"`
	StopOrder   *FormValue `json:"stop_order,omitempty"`
}

// StopUpdate is a validated, typed partial update of a stop
type StopUpdate struct {
	Title       *string
	Description *string
	Latitude    *float64
	Longitude   *float64
	StopOrder   *int
}

// MapMarker is a stop placed on the map
type MapMarker struct {
	StopID      string  `json:"stop_id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	StopOrder   int     `json:"stop_order"`
}

// MapView is the region and markers needed to draw a tour on a map
type MapView struct {
	TourID         string      `json:"tour_id"`
	Latitude       float64     `json:"latitude"`
	Longitude      float64     `json:"longitude"`
	LatitudeDelta  float64     `json:"latitude_delta"`
	LongitudeDelta float64     `json:"longitude_delta"`
	Markers        []MapMarker `json:"markers"`
}

// ChatReply is the assistant answer to one user message
type ChatReply struct {
	Messages []string `json:"messages"`
	Fallback bool     `json:"fallback"`
	Bucket   string   `json:"bucket,omitempty"`
}
