package tmdb

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var ErrImageHostNotAllowed = errors.New("image host is not allowed")

// ImageKind selects the width variant of an image.
type ImageKind string

const (
	Backdrop ImageKind = "w780"
	Poster   ImageKind = "w500"
)

// ImageURLs turns catalog image paths into absolute CDN URLs.
type ImageURLs struct {
	base string
}

// NewImageURLs validates the CDN root against the allowed host.
func NewImageURLs(baseURL, allowedHost string) (*ImageURLs, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse image base url: %w", err)
	}
	if !strings.EqualFold(u.Hostname(), allowedHost) {
		return nil, fmt.Errorf("%w: %s", ErrImageHostNotAllowed, u.Hostname())
	}

	return &ImageURLs{base: strings.TrimRight(baseURL, "/")}, nil
}

// URL returns the absolute URL of an image path in the given width variant.
func (b *ImageURLs) URL(kind ImageKind, path string) string {
	if path == "" {
		return ""
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return b.base + "/" + string(kind) + path
}
