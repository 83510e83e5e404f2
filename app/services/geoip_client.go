package services

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/outlinkhq/outlink/utils"
	"github.com/redis/go-redis/v9"
)

// GeoIPClient resolves a country code for a client IP
// Resolution is best-effort enrichment: every failure mode returns nil and
// must never block or fail the caller
type GeoIPClient interface {
	ResolveCountry(ctx context.Context, ip string) *string
}

// HTTPGeoIPClient resolves countries against an ip-api style endpoint
type HTTPGeoIPClient struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

func NewHTTPGeoIPClient(baseURL string, timeout time.Duration) *HTTPGeoIPClient {
	if timeout <= 0 {
		timeout = utils.GeoLookupTimeout
	}
	return &HTTPGeoIPClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
		Timeout:    timeout,
	}
}

type geoIPResp struct {
	Status      string `json:"status"`
	CountryCode string `json:"countryCode"`
}

func (c *HTTPGeoIPClient) ResolveCountry(ctx context.Context, ip string) *string {
	if !resolvable(ip) {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	url := c.BaseURL + "/json/" + ip
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil
	}
	var out geoIPResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil
	}
	if out.Status != "success" || out.CountryCode == "" {
		return nil
	}
	return &out.CountryCode
}

// resolvable filters addresses the upstream cannot answer for
func resolvable(ip string) bool {
	if ip == "" || ip == "unknown" {
		return false
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	if parsed.IsLoopback() || parsed.IsUnspecified() || parsed.IsPrivate() {
		return false
	}
	return true
}

// CachedGeoIPClient caches successful resolutions in redis
// A cache miss or a redis outage falls through to the inner client
type CachedGeoIPClient struct {
	inner  GeoIPClient
	rc     *redis.Client
	prefix string
	ttl    time.Duration
}

func NewCachedGeoIPClient(inner GeoIPClient, rc *redis.Client, prefix string, ttl time.Duration) *CachedGeoIPClient {
	if ttl <= 0 {
		ttl = utils.GeoCacheTTL
	}
	return &CachedGeoIPClient{
		inner:  inner,
		rc:     rc,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (c *CachedGeoIPClient) ResolveCountry(ctx context.Context, ip string) *string {
	if c.rc == nil {
		return c.inner.ResolveCountry(ctx, ip)
	}

	key := c.cacheKey(ip)
	if val, err := c.rc.Get(ctx, key).Result(); err == nil && val != "" {
		return &val
	}

	country := c.inner.ResolveCountry(ctx, ip)
	if country != nil {
		_ = c.rc.Set(ctx, key, *country, c.ttl).Err()
	}
	return country
}

func (c *CachedGeoIPClient) cacheKey(ip string) string {
	return c.prefix + "geoip:country:" + ip
}
