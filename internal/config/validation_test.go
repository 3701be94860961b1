package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"scholaria/backend/internal/config"
)

func validConfig() *config.Config {
	return &config.Config{
		DBHost:             "localhost",
		DBUser:             "u",
		DBName:             "db",
		ChunkSize:          300,
		ChunkOverlap:       50,
		EmbedBatchSize:     10,
		EmbedMaxAttempts:   3,
		SearchTopK:         5,
		SearchThreshold:    0.7,
		MaxMessages:        50,
		MaxContextMessages: 20,
		TokenBudget:        3000,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr bool
	}{
		{"Valid", func(c *config.Config) {}, false},
		{"Missing DB Host", func(c *config.Config) { c.DBHost = "" }, true},
		{"Missing DB User", func(c *config.Config) { c.DBUser = "" }, true},
		{"Missing DB Name", func(c *config.Config) { c.DBName = "" }, true},
		{"Zero Chunk Size", func(c *config.Config) { c.ChunkSize = 0 }, true},
		{"Overlap Equals Chunk Size", func(c *config.Config) { c.ChunkOverlap = 300 }, true},
		{"Negative Overlap", func(c *config.Config) { c.ChunkOverlap = -1 }, true},
		{"Zero Overlap OK", func(c *config.Config) { c.ChunkOverlap = 0 }, false},
		{"Zero Batch Size", func(c *config.Config) { c.EmbedBatchSize = 0 }, true},
		{"Zero Attempts", func(c *config.Config) { c.EmbedMaxAttempts = 0 }, true},
		{"Zero TopK", func(c *config.Config) { c.SearchTopK = 0 }, true},
		{"Threshold Above One", func(c *config.Config) { c.SearchThreshold = 1.5 }, true},
		{"Threshold Zero OK", func(c *config.Config) { c.SearchThreshold = 0 }, false},
		{"Context Window Above Cap", func(c *config.Config) { c.MaxContextMessages = 60 }, true},
		{"Zero Token Budget", func(c *config.Config) { c.TokenBudget = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, config.ErrInvalid)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
