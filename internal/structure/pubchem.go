package structure

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/singleflight"

	"ochem-lab-service/internal/logger"
)

const (
	DefaultBaseURL = "https://pubchem.ncbi.nlm.nih.gov/rest/pug"
	// FallbackText is what a widget shows instead of a structure it could not load.
	FallbackText = "structure not available"
	defaultSize  = 300
)

// ErrUnavailable means PubChem did not return usable data for the compound.
var ErrUnavailable = errors.New("structure unavailable")

// Structure is what a step needs to render a compound.
type Structure struct {
	CID       int    `json:"cid"`
	ImageURL  string `json:"imageUrl"`
	SDF       string `json:"sdf,omitempty"`
	Available bool   `json:"available"`
	Fallback  string `json:"fallback,omitempty"`
}

// Client talks to the PubChem PUG REST API. Failures never surface to the
// learner; Lookup degrades to the textual fallback.
type Client struct {
	base string
	http *resty.Client
	log  *logger.Logger
	sf   singleflight.Group

	mu    sync.RWMutex
	cache map[int]Structure
}

func NewClient(baseURL string, timeout time.Duration, log *logger.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		base:  baseURL,
		http:  resty.New().SetBaseURL(baseURL).SetTimeout(timeout),
		log:   log,
		cache: make(map[int]Structure),
	}
}

// ImageURL builds the 2D depiction URL; it does not touch the network.
func (c *Client) ImageURL(cid, size int) string {
	if size <= 0 {
		size = defaultSize
	}
	return fmt.Sprintf("%s/compound/cid/%d/PNG?image_size=%dx%d", c.base, cid, size, size)
}

// FetchSDF downloads the 3D conformer record of a compound.
func (c *Client) FetchSDF(ctx context.Context, cid int) (string, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("cid", strconv.Itoa(cid)).
		SetQueryParam("record_type", "3d").
		Get("/compound/cid/{cid}/SDF")
	if err != nil {
		return "", fmt.Errorf("fetch sdf %d: %w", cid, err)
	}
	if resp.StatusCode() != http.StatusOK || len(resp.Body()) == 0 {
		return "", fmt.Errorf("fetch sdf %d: status %d: %w", cid, resp.StatusCode(), ErrUnavailable)
	}
	return resp.String(), nil
}

type cidList struct {
	IdentifierList struct {
		CID []int `json:"CID"`
	} `json:"IdentifierList"`
}

// ResolveCID looks up the first compound id registered for a name.
func (c *Client) ResolveCID(ctx context.Context, name string) (int, error) {
	var out cidList
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("name", name).
		SetResult(&out).
		Get("/compound/name/{name}/cids/JSON")
	if err != nil {
		return 0, fmt.Errorf("resolve %q: %w", name, err)
	}
	if resp.StatusCode() != http.StatusOK || len(out.IdentifierList.CID) == 0 {
		return 0, fmt.Errorf("resolve %q: status %d: %w", name, resp.StatusCode(), ErrUnavailable)
	}
	return out.IdentifierList.CID[0], nil
}

// Lookup returns the structure of a compound, or the fallback when PubChem
// cannot serve it. Successful lookups are cached for the process lifetime.
func (c *Client) Lookup(ctx context.Context, cid int) Structure {
	if s, ok := c.cached(cid); ok {
		return s
	}
	v, _, _ := c.sf.Do(strconv.Itoa(cid), func() (interface{}, error) {
		s := Structure{CID: cid, ImageURL: c.ImageURL(cid, defaultSize)}
		sdf, err := c.FetchSDF(ctx, cid)
		if err != nil {
			c.log.Warn("structure lookup failed", "cid", cid, "error", err)
			s.Fallback = FallbackText
			return s, nil
		}
		s.SDF = sdf
		s.Available = true
		c.mu.Lock()
		c.cache[cid] = s
		c.mu.Unlock()
		return s, nil
	})
	return v.(Structure)
}

func (c *Client) cached(cid int) (Structure, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.cache[cid]
	return s, ok
}
