package version

import (
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	info := Get()

	assert.NotEmpty(t, info.Version)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
}

func TestBuildInfoFormatting(t *testing.T) {
	tests := []struct {
		name  string
		info  BuildInfo
		short string
	}{
		{
			name:  "unknown commit",
			info:  BuildInfo{Version: "dev", GitCommit: "unknown"},
			short: "dev",
		},
		{
			name:  "full commit",
			info:  BuildInfo{Version: "v1.2.0", GitCommit: "0123456789abcdef"},
			short: "v1.2.0 (0123456)",
		},
		{
			name:  "truncated commit",
			info:  BuildInfo{Version: "v1.2.0", GitCommit: "abc"},
			short: "v1.2.0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.short, tt.info.Short())
			assert.True(t, strings.HasPrefix(tt.info.String(), "sigil "+tt.short))
		})
	}

	t.Run("details", func(t *testing.T) {
		info := BuildInfo{
			Version:   "v1.0.0",
			GitCommit: "unknown",
			BuildTime: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
			GoVersion: "go1.24",
			Platform:  "linux/amd64",
			Dirty:     true,
		}
		assert.Equal(t,
			"sigil v1.0.0\nBuilt: 2024-01-02T03:04:05Z\nGo: go1.24\nPlatform: linux/amd64\nWorking directory: dirty",
			info.String())
	})
}
