package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pensaconnect/connect/internal/model"
	"github.com/pensaconnect/connect/internal/repository"
)

var _ repository.PrayerRepository = (*Client)(nil)

const prayersPath = "/prayers"

func prayerPath(id int64) string {
	return prayersPath + "/" + strconv.FormatInt(id, 10)
}

// FetchOne calls GET /prayers/{id}.
func (c *Client) FetchOne(ctx context.Context, id int64) (model.Mapping, error) {
	data, err := c.do(ctx, http.MethodGet, prayerPath(id), nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeObject(data)
}

// FetchMany calls GET /prayers?filter=&page=&per_page=.
// Zero values are left out of the query so the server applies its own defaults.
func (c *Client) FetchMany(ctx context.Context, opts repository.ListOptions) ([]model.Mapping, error) {
	q := url.Values{}
	if opts.Filter != "" {
		q.Set("filter", string(opts.Filter))
	}
	if opts.Page > 0 {
		q.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(opts.PerPage))
	}

	data, err := c.do(ctx, http.MethodGet, prayersPath, q, nil)
	if err != nil {
		return nil, err
	}
	return decodeList(data)
}

// Create calls POST /prayers/ (the trailing slash is part of the route).
func (c *Client) Create(ctx context.Context, body model.Mapping) (model.Mapping, error) {
	data, err := c.do(ctx, http.MethodPost, prayersPath+"/", nil, body)
	if err != nil {
		return nil, err
	}
	return decodeObject(data)
}

// Update calls PATCH /prayers/{id}. The server only looks at title, content,
// is_anonymous, category and status; anything else in body is ignored.
func (c *Client) Update(ctx context.Context, id int64, body model.Mapping) (model.Mapping, error) {
	data, err := c.do(ctx, http.MethodPatch, prayerPath(id), nil, body)
	if err != nil {
		return nil, err
	}
	return decodeObject(data)
}

// Delete calls DELETE /prayers/{id}. The response carries no data.
func (c *Client) Delete(ctx context.Context, id int64) error {
	if _, err := c.do(ctx, http.MethodDelete, prayerPath(id), nil, nil); err != nil {
		return err
	}
	return nil
}

// TogglePrayer calls POST /prayers/{id}/toggle_prayer: the first call records
// "I prayed for this", the second one takes it back. The server answers with
// the refreshed record (new prayers_count and has_prayed).
func (c *Client) TogglePrayer(ctx context.Context, id int64) (model.Mapping, error) {
	data, err := c.do(ctx, http.MethodPost, fmt.Sprintf("%s/toggle_prayer", prayerPath(id)), nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeObject(data)
}
