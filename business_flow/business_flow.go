// Package businessflow contains the business logic for the application.
package businessflow

import (
	"net/url"
	"strings"
	"time"

	"github.com/outlinkhq/outlink/app/dto"
	"github.com/outlinkhq/outlink/models"
)

const RequestIDKey = "X-Request-ID"

// ClientMetadata holds client-related information captured on the redirect path
type ClientMetadata struct {
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
	RequestID string `json:"request_id,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// ValidateTargetURL checks that raw is an absolute http or https URL with a host
func ValidateTargetURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", ErrInvalidURL
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", ErrInvalidURL
	}
	return u.String(), nil
}

// ToLinkDTO converts a link model to its API representation
// publicBaseURL may be empty, in which case ShortURL is omitted
func ToLinkDTO(link *models.Link, publicBaseURL string) dto.LinkDTO {
	out := dto.LinkDTO{
		UUID:      link.UUID.String(),
		Slug:      link.Slug,
		Title:     link.Title,
		TargetURL: link.TargetURL,
		IsManual:  link.IsManual,
		Clicks:    link.Clicks,
		CreatedAt: link.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: link.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if publicBaseURL != "" {
		out.ShortURL = strings.TrimRight(publicBaseURL, "/") + "/s/" + link.Slug
	}
	return out
}

// ToLinkDTOs converts a slice of link models
func ToLinkDTOs(links []*models.Link, publicBaseURL string) []dto.LinkDTO {
	out := make([]dto.LinkDTO, 0, len(links))
	for _, l := range links {
		out = append(out, ToLinkDTO(l, publicBaseURL))
	}
	return out
}
