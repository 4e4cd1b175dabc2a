package logger

import (
	"os"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, log.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, log.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, log.InfoLevel, ParseLevel(""))
	assert.Equal(t, log.InfoLevel, ParseLevel("verbose"))
}

func TestInitLogger(t *testing.T) {
	file := filepath.Join(t.TempDir(), "analyzer.log")
	InitLogger(&Config{Level: "debug", File: file})
	defer InitLogger(&Config{Level: DefaultLevel})

	assert.Equal(t, log.DebugLevel, log.GetLevel())
	log.Info("written to file")

	data, err := os.ReadFile(file)
	assert.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
}
