package airtable

import (
	"net/http"
	"time"

	"github.com/okian/huddle/pkg/logger"
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithAPIURL sets the API root, e.g. https://api.airtable.com.
func WithAPIURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.apiURL = u
		}
	}
}

// WithBaseID sets the base that holds the table.
func WithBaseID(id string) Option {
	return func(c *Client) {
		c.baseID = id
	}
}

// WithToken sets the static bearer credential.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithTable sets the table name.
func WithTable(table string) Option {
	return func(c *Client) {
		if table != "" {
			c.table = table
		}
	}
}

// WithTimeout bounds a single fetch.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient sets the base client whose transport carries the requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.base = hc
		}
	}
}

// WithLogger sets a custom logger for the client.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}
