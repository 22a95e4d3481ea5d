package api

import "time"

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Bind      string
	Port      int
	APIKey    string // empty disables authentication
	CacheSize int    // decoded lookups kept in memory, 0 disables the cache
}

// PadasResponse lists the decoded readings of one word.
type PadasResponse struct {
	Key    string        `json:"key"`
	Padas  []interface{} `json:"padas"`
	Errors []string      `json:"errors,omitempty"`
}

// ContainsResponse answers exact and prefix membership for one string.
type ContainsResponse struct {
	Key    string `json:"key"`
	Exists bool   `json:"exists"`
	Prefix bool   `json:"prefix"`
}

// PrefixResponse lists keys sharing a prefix.
type PrefixResponse struct {
	Prefix string   `json:"prefix"`
	Keys   []string `json:"keys"`
	Limit  int      `json:"limit"`
}

// StatsResponse summarises the served kosha.
type StatsResponse struct {
	BuildID          string    `json:"build_id"`
	CreatedAt        time.Time `json:"created_at"`
	Keys             int       `json:"keys"`
	Records          uint64    `json:"records"`
	DataSize         int64     `json:"data_size"`
	IndexSize        int64     `json:"index_size"`
	IndexCompression string    `json:"index_compression"`
}
