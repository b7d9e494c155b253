package gateway

import (
	"context"
	"fmt"
)

func (c *Client) ListStrategies(ctx context.Context) ([]StrategyOption, error) {
	var opts []StrategyOption
	if err := c.Get(ctx, "/api/strategies", &opts); err != nil {
		return nil, err
	}
	return opts, nil
}

func (c *Client) ListConfigs(ctx context.Context) ([]StrategyConfig, error) {
	var cfgs []StrategyConfig
	if err := c.Get(ctx, "/api/strategies/configs", &cfgs); err != nil {
		return nil, err
	}
	return cfgs, nil
}

// GetActiveConfig returns nil when no configuration is active.
func (c *Client) GetActiveConfig(ctx context.Context) (*StrategyConfig, error) {
	var cfg *StrategyConfig
	if err := c.Get(ctx, "/api/strategies/configs/active", &cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Client) CreateConfig(ctx context.Context, body StrategyConfigCreate) (*StrategyConfig, error) {
	var cfg StrategyConfig
	if err := c.Post(ctx, "/api/strategies/configs", body, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Client) UpdateConfig(ctx context.Context, id int64, body StrategyConfigUpdate) (*StrategyConfig, error) {
	var cfg StrategyConfig
	if err := c.Patch(ctx, fmt.Sprintf("/api/strategies/configs/%d", id), body, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Client) DeleteConfig(ctx context.Context, id int64) error {
	return c.Delete(ctx, fmt.Sprintf("/api/strategies/configs/%d", id))
}

func (c *Client) RunStrategy(ctx context.Context) (*RunResult, error) {
	var res RunResult
	if err := c.Post(ctx, "/api/strategies/run", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
