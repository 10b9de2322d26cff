package client

import (
	"context"
	"encoding/base64"
	"io"
	"mime"
	"net/http"
	"net/url"

	"city-tours/internal/models"
)

// ListTours lists tours, newest first
func (c *Client) ListTours(ctx context.Context, filter models.TourFilter) ([]*models.Tour, error) {
	q := url.Values{}
	if filter.City != "" {
		q.Set("city", filter.City)
	}
	if filter.CreatedBy != "" {
		q.Set("created_by", filter.CreatedBy)
	}
	path := "/tours"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var tours []*models.Tour
	if err := c.do(ctx, http.MethodGet, path, nil, false, &tours); err != nil {
		return nil, err
	}
	return tours, nil
}

// GetTour fetches one tour
func (c *Client) GetTour(ctx context.Context, id string) (*models.Tour, error) {
	var tour models.Tour
	if err := c.do(ctx, http.MethodGet, "/tours/"+url.PathEscape(id), nil, false, &tour); err != nil {
		return nil, err
	}
	return &tour, nil
}

// CreateTour creates a tour owned by the signed-in user
func (c *Client) CreateTour(ctx context.Context, input models.TourInput) (*models.Tour, error) {
	var tour models.Tour
	if err := c.do(ctx, http.MethodPost, "/tours", input, true, &tour); err != nil {
		return nil, err
	}
	return &tour, nil
}

// UpdateTour applies a partial update
func (c *Client) UpdateTour(ctx context.Context, id string, patch models.TourPatch) (*models.Tour, error) {
	var tour models.Tour
	if err := c.do(ctx, http.MethodPatch, "/tours/"+url.PathEscape(id), patch, true, &tour); err != nil {
		return nil, err
	}
	return &tour, nil
}

// DeleteTour deletes a tour with its stops and images
func (c *Client) DeleteTour(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/tours/"+url.PathEscape(id), nil, true, nil)
}

// ListStops lists the stops of a tour in stop order
func (c *Client) ListStops(ctx context.Context, tourID string) ([]*models.Stop, error) {
	var stops []*models.Stop
	if err := c.do(ctx, http.MethodGet, "/tours/"+url.PathEscape(tourID)+"/stops", nil, false, &stops); err != nil {
		return nil, err
	}
	return stops, nil
}

// GetStop fetches one stop
func (c *Client) GetStop(ctx context.Context, id string) (*models.Stop, error) {
	var stop models.Stop
	if err := c.do(ctx, http.MethodGet, "/stops/"+url.PathEscape(id), nil, false, &stop); err != nil {
		return nil, err
	}
	return &stop, nil
}

// CreateStop adds a stop to a tour
func (c *Client) CreateStop(ctx context.Context, input models.StopInput) (*models.Stop, error) {
	var stop models.Stop
	if err := c.do(ctx, http.MethodPost, "/stops", input, true, &stop); err != nil {
		return nil, err
	}
	return &stop, nil
}

// UpdateStop applies a partial update
func (c *Client) UpdateStop(ctx context.Context, id string, patch models.StopPatch) (*models.Stop, error) {
	var stop models.Stop
	if err := c.do(ctx, http.MethodPatch, "/stops/"+url.PathEscape(id), patch, true, &stop); err != nil {
		return nil, err
	}
	return &stop, nil
}

// DeleteStop deletes a stop
func (c *Client) DeleteStop(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/stops/"+url.PathEscape(id), nil, true, nil)
}

// MapView fetches the map region and markers of a tour
func (c *Client) MapView(ctx context.Context, tourID string) (*models.MapView, error) {
	var view models.MapView
	if err := c.do(ctx, http.MethodGet, "/tours/"+url.PathEscape(tourID)+"/map", nil, false, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// Report downloads the PDF report of a tour and returns its file name and content
func (c *Client) Report(ctx context.Context, tourID string) (string, []byte, error) {
	resp, err := c.send(ctx, http.MethodGet, "/tours/"+url.PathEscape(tourID)+"/report", nil, false)
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, models.NewRemoteError("failed to read report", err)
	}

	name := "tour.pdf"
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		name = params["filename"]
	}
	return name, content, nil
}

type imageUpload struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Data        string `json:"data"`
}

// UploadImage attaches an image to a tour
func (c *Client) UploadImage(ctx context.Context, tourID, fileName, contentType string, data []byte) (*models.TourImage, error) {
	body := imageUpload{
		FileName:    fileName,
		ContentType: contentType,
		Data:        base64.StdEncoding.EncodeToString(data),
	}
	var image models.TourImage
	if err := c.do(ctx, http.MethodPost, "/tours/"+url.PathEscape(tourID)+"/images", body, true, &image); err != nil {
		return nil, err
	}
	return &image, nil
}

// ListImages lists the images of a tour
func (c *Client) ListImages(ctx context.Context, tourID string) ([]*models.TourImage, error) {
	var images []*models.TourImage
	if err := c.do(ctx, http.MethodGet, "/tours/"+url.PathEscape(tourID)+"/images", nil, false, &images); err != nil {
		return nil, err
	}
	return images, nil
}

// DeleteImage removes an image
func (c *Client) DeleteImage(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/images/"+url.PathEscape(id), nil, true, nil)
}

// Profile loads the profile of the signed-in user, creating it on first use
func (c *Client) Profile(ctx context.Context) (*models.ProfileOverview, error) {
	var overview models.ProfileOverview
	if err := c.do(ctx, http.MethodGet, "/profile", nil, true, &overview); err != nil {
		return nil, err
	}
	return &overview, nil
}

// UpdateProfile changes the profile of the signed-in user
func (c *Client) UpdateProfile(ctx context.Context, patch models.ProfilePatch) (*models.Profile, error) {
	var profile models.Profile
	if err := c.do(ctx, http.MethodPatch, "/profile", patch, true, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Chat sends one message to the assistant
func (c *Client) Chat(ctx context.Context, sender, message string) (*models.ChatReply, error) {
	body := map[string]string{"sender": sender, "message": message}
	var reply models.ChatReply
	if err := c.do(ctx, http.MethodPost, "/chat", body, false, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// ChatStatus reports whether the assistant backend is reachable
func (c *Client) ChatStatus(ctx context.Context) (bool, error) {
	var status struct {
		Online bool `json:"online"`
	}
	if err := c.do(ctx, http.MethodGet, "/chat/status", nil, false, &status); err != nil {
		return false, err
	}
	return status.Online, nil
}
