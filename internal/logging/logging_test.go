package logging

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestNewQuietRestrictsToErrorLevel(t *testing.T) {
	l := New(true)
	require.Equal(t, logrus.ErrorLevel, l.GetLevel())
}

func TestNewNormalAllowsInfoLevel(t *testing.T) {
	l := New(false)
	require.Equal(t, logrus.InfoLevel, l.GetLevel())
}
