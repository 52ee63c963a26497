package http

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := parseDate(" 2025-04-02 ")
	require.NoError(t, err)
	assert.Equal(t, time.Local, d.Location())
	assert.True(t, d.Equal(time.Date(2025, time.April, 2, 0, 0, 0, 0, time.Local)))

	d, err = parseDate("2025-04-02T23:30:00+02:00")
	require.NoError(t, err)
	_, offset := d.Zone()
	assert.Equal(t, 2*60*60, offset)

	_, err = parseDate("02/04/2025")
	assert.ErrorIs(t, err, errBadRequest)
}
