package config

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

// PlaceholderDirectoryToken is the development default for DIRECTORY_TOKEN.
const PlaceholderDirectoryToken = "dev-placeholder-token"

// DirectoryConfig contains the Schoolbox user API configuration.
type DirectoryConfig struct {
	BaseURL string        `env:"BASE_URL" envDefault:"http://localhost:9090"`
	Token   string        `env:"TOKEN"    envDefault:"dev-placeholder-token"`
	Timeout time.Duration `env:"TIMEOUT"  envDefault:"10s"`

	// PageSize is the limit sent with filtered list requests.
	PageSize int `env:"PAGE_SIZE" envDefault:"100"`

	// MaxPages is the safety ceiling for cursor pagination.
	MaxPages int `env:"MAX_PAGES" envDefault:"20"`

	// ItemsPath and CursorPath are JMESPath expressions applied to list/get responses.
	ItemsPath  string `env:"ITEMS_PATH"  envDefault:"data"`
	CursorPath string `env:"CURSOR_PATH" envDefault:"metadata.cursor.next"`
}

// Sanitize applies guardrails to directory values.
func (c *DirectoryConfig) Sanitize() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	c.Token = strings.TrimSpace(c.Token)
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.PageSize <= 0 {
		c.PageSize = 100
	}
	if c.MaxPages <= 0 {
		c.MaxPages = 20
	}
	if strings.TrimSpace(c.ItemsPath) == "" {
		c.ItemsPath = "data"
	}
	if strings.TrimSpace(c.CursorPath) == "" {
		c.CursorPath = "metadata.cursor.next"
	}
}

// Validate checks the directory endpoint and credentials.
func (c *DirectoryConfig) Validate(isDev bool) error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("DIRECTORY_BASE_URL must be an absolute http(s) URL")
	}
	if c.Token == "" {
		return errors.New("DIRECTORY_TOKEN is required")
	}
	if !isDev && c.Token == PlaceholderDirectoryToken {
		return errors.New("DIRECTORY_TOKEN is still the development placeholder")
	}
	return nil
}
