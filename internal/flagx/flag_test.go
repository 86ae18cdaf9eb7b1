package flagx

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		allowedFlags []string
		want         []string
	}{
		{
			name:         "short flag with separate value",
			args:         []string{"-c", "bot.json", "-t", "telegram"},
			allowedFlags: []string{"-c", "-config"},
			want:         []string{"-c", "bot.json"},
		},
		{
			name:         "equals form",
			args:         []string{"-config=alt.json", "-t", "console"},
			allowedFlags: []string{"-c", "-config"},
			want:         []string{"-config=alt.json"},
		},
		{
			name:         "unknown flags ignored",
			args:         []string{"-x", "1", "--y=2", "positional"},
			allowedFlags: []string{"-c"},
			want:         []string{},
		},
		{
			name:         "flag without value at end",
			args:         []string{"-c"},
			allowedFlags: []string{"-c"},
			want:         []string{"-c"},
		},
		{
			name:         "next dash token is not a value",
			args:         []string{"-u", "-d", "postgres://x"},
			allowedFlags: []string{"-u", "-d"},
			want:         []string{"-u", "-d", "postgres://x"},
		},
		{
			name:         "repeated flag keeps order",
			args:         []string{"-u", "1", "-u", "2"},
			allowedFlags: []string{"-u"},
			want:         []string{"-u", "1", "-u", "2"},
		},
		{
			name:         "empty args",
			args:         []string{},
			allowedFlags: []string{"-c"},
			want:         []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowedFlags))
		})
	}
}

func TestConfigFile(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	t.Run("short flag", func(t *testing.T) {
		os.Args = []string{"bot", "-c", "/etc/bot.json"}
		assert.Equal(t, "/etc/bot.json", ConfigFile())
	})

	t.Run("long flag wins over env", func(t *testing.T) {
		t.Setenv(ConfigFileEnv, "/env.json")
		os.Args = []string{"bot", "-config", "/flag.json"}
		assert.Equal(t, "/flag.json", ConfigFile())
	})

	t.Run("env fallback", func(t *testing.T) {
		t.Setenv(ConfigFileEnv, "/env.json")
		os.Args = []string{"bot"}
		assert.Equal(t, "/env.json", ConfigFile())
	})

	t.Run("nothing set", func(t *testing.T) {
		t.Setenv(ConfigFileEnv, "")
		os.Args = []string{"bot", "-x", "1"}
		assert.Empty(t, ConfigFile())
	})
}

func TestConfigFileFrom(t *testing.T) {
	t.Setenv(ConfigFileEnv, "")
	assert.Equal(t, "bot.json", ConfigFileFrom([]string{"-t", "console", "-c=bot.json"}))
	assert.Equal(t, "", ConfigFileFrom([]string{"-t", "console"}))
}
