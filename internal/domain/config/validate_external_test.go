// Package config_test provides black-box tests for configuration document
// validation.
package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/orlv/nsrvm/internal/domain/config"
)

// TestSnapshot_Validate verifies the structural and per-service
// validation rules Validate enforces.
//
// Params:
//   - t: testing context for assertions
func TestSnapshot_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		snap    config.Snapshot
		wantErr error
	}{
		{
			name:    "nil services",
			snap:    config.Snapshot{},
			wantErr: config.ErrMissingServices,
		},
		{
			name:    "empty services is valid",
			snap:    config.Snapshot{Services: map[string]config.ServiceConfig{}},
			wantErr: nil,
		},
		{
			name: "zero apiPort means no api port",
			snap: config.Snapshot{Services: map[string]config.ServiceConfig{
				"web": {Name: "web", APIPort: 0},
			}},
			wantErr: nil,
		},
		{
			name: "valid apiPort",
			snap: config.Snapshot{Services: map[string]config.ServiceConfig{
				"web": {Name: "web", APIPort: 8080},
			}},
			wantErr: nil,
		},
		{
			name: "negative apiPort",
			snap: config.Snapshot{Services: map[string]config.ServiceConfig{
				"web": {Name: "web", APIPort: -1},
			}},
			wantErr: config.ErrInvalidAPIPort,
		},
		{
			name: "apiPort above maximum",
			snap: config.Snapshot{Services: map[string]config.ServiceConfig{
				"web": {Name: "web", APIPort: 70000},
			}},
			wantErr: config.ErrInvalidAPIPort,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.snap.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
