package cli

import (
	"testing"
	"time"

	"github.com/rileyhilliard/vorax/internal/errors"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeout(t *testing.T) {
	tests := []struct {
		name    string
		flag    string
		want    time.Duration
		wantErr bool
	}{
		{name: "empty string returns zero", flag: "", want: 0},
		{name: "valid seconds", flag: "5s", want: 5 * time.Second},
		{name: "valid minutes", flag: "2m", want: 2 * time.Minute},
		{name: "valid milliseconds", flag: "500ms", want: 500 * time.Millisecond},
		{name: "missing unit", flag: "30", wantErr: true},
		{name: "garbage", flag: "soon", wantErr: true},
		{name: "negative", flag: "-5s", wantErr: true},
		{name: "zero", flag: "0s", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimeout(tt.flag)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsCode(err, errors.ErrConfig))
				assert.Contains(t, err.Error(), tt.flag)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAddSessionFlags(t *testing.T) {
	var flags SessionFlags
	cmd := &cobra.Command{Use: "test", RunE: func(*cobra.Command, []string) error { return nil }}
	AddSessionFlags(cmd, &flags)

	require.NoError(t, cmd.ParseFlags([]string{"-p", "prod", "--timeout", "1m", "--raw"}))
	assert.Equal(t, "prod", flags.Profile)
	assert.Equal(t, "1m", flags.Timeout)
	assert.True(t, flags.Raw)
}
