package server_test

import (
	"testing"

	"library-alert/core/server"

	"github.com/stretchr/testify/assert"
)

func TestConfig_ListenAddr(t *testing.T) {
	tests := []struct {
		name string
		port string
		want string
	}{
		{"Bare port", "9000", ":9000"},
		{"Host and port", "127.0.0.1:9000", "127.0.0.1:9000"},
		{"Already prefixed", ":8081", ":8081"},
		{"Empty", "", ":8080"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := server.Config{Port: tt.port}
			assert.Equal(t, tt.want, c.ListenAddr())
		})
	}
}
