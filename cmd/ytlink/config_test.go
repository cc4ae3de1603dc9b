package main

import (
	"io/ioutil"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mxpv/ytlink/pkg/model"
	"github.com/mxpv/ytlink/pkg/server"
)

func TestLoadConfig(t *testing.T) {
	const file = `
[server]
port = 80
path = "v1"

[log]
filename = "/var/log/ytlink.log"
max_size = 10
compress = true

[database]
dir = "/home/user/db/"

[history]
schedule = "0 3 * * *"
max_age = "48h"
`
	path := setup(t, file)
	defer os.Remove(path)

	config, err := LoadConfig(path)
	assert.NoError(t, err)
	require.NotNil(t, config)

	assert.EqualValues(t, 80, config.Server.Port)
	assert.Equal(t, "v1", config.Server.Path)
	assert.Equal(t, "http://localhost", config.Server.Hostname)

	assert.Equal(t, "/var/log/ytlink.log", config.Log.Filename)
	assert.Equal(t, 10, config.Log.MaxSize)
	assert.Equal(t, model.DefaultLogMaxAge, config.Log.MaxAge)
	assert.Equal(t, model.DefaultLogMaxBackups, config.Log.MaxBackups)
	assert.True(t, config.Log.Compress)

	assert.Equal(t, "/home/user/db/", config.Database.Dir)
	assert.Nil(t, config.Database.Badger)

	assert.Equal(t, "0 3 * * *", config.History.Schedule)
	assert.EqualValues(t, 48*time.Hour, config.History.MaxAge)
}

func TestApplyDefaults(t *testing.T) {
	const file = `
[server]
port = 7979
`
	path := setup(t, file)
	defer os.Remove(path)

	config, err := LoadConfig(path)
	assert.NoError(t, err)
	require.NotNil(t, config)

	assert.Equal(t, "http://localhost:7979", config.Server.Hostname)
	assert.Equal(t, model.DefaultHistorySchedule, config.History.Schedule)
	assert.EqualValues(t, model.DefaultHistoryMaxAge, config.History.MaxAge)
	assert.Empty(t, config.Log.Filename)
	assert.Zero(t, config.Log.MaxSize)
}

func TestDisableCleanup(t *testing.T) {
	const file = `
[history]
max_age = "0s"
`
	path := setup(t, file)
	defer os.Remove(path)

	config, err := LoadConfig(path)
	assert.NoError(t, err)
	require.NotNil(t, config)
	assert.EqualValues(t, 0, config.History.MaxAge)
}

func TestInvalidConfig(t *testing.T) {
	const file = `
[server]
path = "not/valid"
port = 70000

[history]
schedule = "every now and then"
`
	path := setup(t, file)
	defer os.Remove(path)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server handle path")
	assert.Contains(t, err.Error(), "invalid server port")
	assert.Contains(t, err.Error(), "invalid history schedule")
}

func TestMissingConfig(t *testing.T) {
	_, err := LoadConfig("/definitely/not/here/config.toml")
	assert.Error(t, err)
}

func TestDefaultHostname(t *testing.T) {
	cfg := Config{
		Server: server.Config{},
	}

	t.Run("empty hostname", func(t *testing.T) {
		cfg.applyDefaults("")
		assert.Equal(t, "http://localhost:8080", cfg.Server.Hostname)
		assert.Equal(t, model.DefaultServerPort, cfg.Server.Port)
	})

	t.Run("default http port", func(t *testing.T) {
		cfg.Server.Hostname = ""
		cfg.Server.Port = 80
		cfg.applyDefaults("")
		assert.Equal(t, "http://localhost", cfg.Server.Hostname)
	})

	t.Run("empty hostname with port", func(t *testing.T) {
		cfg.Server.Hostname = ""
		cfg.Server.Port = 7979
		cfg.applyDefaults("")
		assert.Equal(t, "http://localhost:7979", cfg.Server.Hostname)
	})

	t.Run("skip overwrite", func(t *testing.T) {
		cfg.Server.Hostname = "https://my.host:4443"
		cfg.Server.Port = 80
		cfg.applyDefaults("")
		assert.Equal(t, "https://my.host:4443", cfg.Server.Hostname)
	})
}

func TestDefaultDatabasePath(t *testing.T) {
	cfg := Config{}
	cfg.applyDefaults("/home/user/ytlink/config.toml")
	assert.Equal(t, "/home/user/ytlink/db", cfg.Database.Dir)
}

func TestLoadBadgerConfig(t *testing.T) {
	const file = `
[database]
  badger = { truncate = true, file_io = true }
`
	path := setup(t, file)
	defer os.Remove(path)

	config, err := LoadConfig(path)
	assert.NoError(t, err)
	require.NotNil(t, config)
	require.NotNil(t, config.Database.Badger)

	assert.True(t, config.Database.Badger.Truncate)
	assert.True(t, config.Database.Badger.FileIO)
}

func setup(t *testing.T, file string) string {
	t.Helper()

	f, err := ioutil.TempFile("", "")
	require.NoError(t, err)

	defer f.Close()

	_, err = f.WriteString(file)
	require.NoError(t, err)

	return f.Name()
}
