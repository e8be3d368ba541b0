package cmd

import (
	"context"
	"testing"
	"time"

	"github.com/shiroyk/mqjs/lib/config"
	"github.com/stretchr/testify/assert"
)

func TestServe(t *testing.T) {
	cfg := *config.DefaultConfig()
	cfg.Api.Address = "127.0.0.1:0"
	cfg.Store.Path = t.TempDir()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	assert.NoError(t, serve(ctx, cfg))
}
