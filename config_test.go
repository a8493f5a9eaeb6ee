// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdf2text

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		shouldErr bool
	}{
		{
			name:      "default config is valid",
			mutate:    func(c *Config) {},
			shouldErr: false,
		},
		{
			name: "valid strict config",
			mutate: func(c *Config) {
				c.ParsingMode = Strict
				c.MaxWorkersPerPDF = 8
				c.Merge.TextTableOverlap = 0.3
			},
			shouldErr: false,
		},
		{
			name:      "invalid MaxConcurrentPDFs (too low)",
			mutate:    func(c *Config) { c.MaxConcurrentPDFs = 0 },
			shouldErr: true,
		},
		{
			name:      "invalid MaxWorkersPerPDF (too low)",
			mutate:    func(c *Config) { c.MaxWorkersPerPDF = 0 },
			shouldErr: true,
		},
		{
			name:      "missing OCRTimeout",
			mutate:    func(c *Config) { c.OCRTimeout = 0 },
			shouldErr: true,
		},
		{
			name:      "invalid ParsingMode",
			mutate:    func(c *Config) { c.ParsingMode = "invalid-mode" },
			shouldErr: true,
		},
		{
			name:      "invalid MaxRetries (too high)",
			mutate:    func(c *Config) { c.MaxRetries = 10 },
			shouldErr: true,
		},
		{
			name:      "missing OCRLanguage",
			mutate:    func(c *Config) { c.OCRLanguage = "" },
			shouldErr: true,
		},
		{
			name:      "invalid Normalization",
			mutate:    func(c *Config) { c.Normalization = "nfd" },
			shouldErr: true,
		},
		{
			name:      "invalid TextTableOverlap (zero)",
			mutate:    func(c *Config) { c.Merge.TextTableOverlap = 0 },
			shouldErr: true,
		},
		{
			name:      "invalid TextTableOverlap (above one)",
			mutate:    func(c *Config) { c.Merge.TextTableOverlap = 1.5 },
			shouldErr: true,
		},
		{
			name:      "negative LineTolerance",
			mutate:    func(c *Config) { c.Merge.LineTolerance = -1 },
			shouldErr: true,
		},
		{
			name:      "invalid DrawingZoom",
			mutate:    func(c *Config) { c.DrawingZoom = 0 },
			shouldErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.shouldErr {
				assert.Error(t, err, "expected validation error")
			} else {
				assert.NoError(t, err, "expected validation to pass")
			}
		})
	}
}

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	assert.Equal(t, 30*time.Second, cfg.OCRTimeout)
	assert.Equal(t, BestEffort, cfg.ParsingMode)
	assert.Equal(t, 1, cfg.MaxWorkersPerPDF)
	assert.Equal(t, DefaultPageMarker, cfg.Render.PageMarker)
	assert.Equal(t, 1.0, cfg.Merge.TextTableOverlap)
}

func TestNewProcessor_InvalidConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.MaxConcurrentPDFs = 0
	_, err := NewProcessor(cfg)
	assert.Error(t, err)
}
