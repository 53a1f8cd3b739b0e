package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{BindAddress: "0.0.0.0", Port: 6380, WSBind: "0.0.0.0:6381"}, false},
		{"bad ip", Config{BindAddress: "not-an-ip", Port: 6380, WSBind: "0.0.0.0:6381"}, true},
		{"port too low", Config{BindAddress: "127.0.0.1", Port: 0, WSBind: "0.0.0.0:6381"}, true},
		{"port too high", Config{BindAddress: "127.0.0.1", Port: 70000, WSBind: "0.0.0.0:6381"}, true},
		{"missing ws-bind", Config{BindAddress: "127.0.0.1", Port: 6380, WSBind: ""}, true},
		{"malformed ws-bind", Config{BindAddress: "127.0.0.1", Port: 6380, WSBind: "nocolon"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAddr(t *testing.T) {
	cfg := Config{BindAddress: "127.0.0.1", Port: 6380}
	assert.Equal(t, "127.0.0.1:6380", cfg.Addr())
}
