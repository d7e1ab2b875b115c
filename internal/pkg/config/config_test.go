package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *DicentisConfig {
	return &DicentisConfig{
		Host:     "10.0.0.5",
		Username: "api",
		Password: "secret",
	}
}

func TestValidate(t *testing.T) {
	tests := map[string]struct {
		mutate func(*DicentisConfig)
		want   error
	}{
		"valid":            {mutate: func(*DicentisConfig) {}, want: nil},
		"missing host":     {mutate: func(c *DicentisConfig) { c.Host = "" }, want: ErrMissingHost},
		"missing username": {mutate: func(c *DicentisConfig) { c.Username = "" }, want: ErrMissingCredentials},
		"missing password": {mutate: func(c *DicentisConfig) { c.Password = "" }, want: ErrMissingCredentials},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), tc.want)
		})
	}
}

func TestClampedPollInterval(t *testing.T) {
	tests := map[string]struct {
		in   time.Duration
		want time.Duration
	}{
		"unset defaults":  {in: 0, want: DefaultPollInterval},
		"below minimum":   {in: time.Millisecond, want: MinPollInterval},
		"at minimum":      {in: MinPollInterval, want: MinPollInterval},
		"in range":        {in: 2 * time.Second, want: 2 * time.Second},
		"above maximum":   {in: time.Minute, want: MaxPollInterval},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := validConfig()
			cfg.PollInterval = tc.in
			assert.Equal(t, tc.want, cfg.ClampedPollInterval())
		})
	}
}

func TestConnectionFieldsEqual(t *testing.T) {
	base := validConfig()

	same := validConfig()
	same.PollInterval = time.Second
	same.Verbose = true
	assert.True(t, base.ConnectionFieldsEqual(same),
		"poll interval and verbosity are not connection fields")

	host := validConfig()
	host.Host = "10.0.0.6"
	assert.False(t, base.ConnectionFieldsEqual(host))

	creds := validConfig()
	creds.Password = "other"
	assert.False(t, base.ConnectionFieldsEqual(creds))

	assert.False(t, base.ConnectionFieldsEqual(nil))
}

func TestFromEnv(t *testing.T) {
	t.Setenv("DICENTIS_HOST", "10.1.1.1")
	t.Setenv("DICENTIS_USERNAME", "api")
	t.Setenv("DICENTIS_PASSWORD", "secret")
	t.Setenv("POLL_INTERVAL", "250ms")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "10.1.1.1", cfg.Host)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	assert.True(t, cfg.Reconnect, "reconnect defaults on")
}
