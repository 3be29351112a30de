package main

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/urfave/cli/v2"
)

func newLogLevelContext(level string) *cli.Context {
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	set.String("log-level", level, "")
	return cli.NewContext(cli.NewApp(), set, nil)
}

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		level   string
		wantErr bool
	}{
		{"debug", false},
		{"info", false},
		{"warn", false},
		{"error", false},
		{"INFO", false},
		{"verbose", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			err := setupLogger(newLogLevelContext(tt.level))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestStoreFlags(t *testing.T) {
	flags := storeFlags()
	assert.Len(t, flags, 3)

	db, ok := flags[0].(*cli.StringFlag)
	assert.True(t, ok)
	assert.Equal(t, "db", db.Name)
	assert.True(t, db.Required)
}
