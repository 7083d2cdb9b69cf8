package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateJSON(t *testing.T) {
	var s Student
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Ana","birthdate":"2001-04-09"}`), &s))
	assert.Equal(t, NewDate(2001, time.April, 9), s.Birthdate)

	out, err := json.Marshal(s.Birthdate)
	require.NoError(t, err)
	assert.JSONEq(t, `"2001-04-09"`, string(out))
}

func TestDateRejectsGarbage(t *testing.T) {
	var d Date
	assert.Error(t, json.Unmarshal([]byte(`"09/04/2001"`), &d))
}

func TestDateScan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(1999, time.December, 31, 23, 0, 0, 0, time.FixedZone("X", 3600))))
	assert.Equal(t, "1999-12-31", d.String())

	require.NoError(t, d.Scan([]byte("2000-01-02")))
	assert.Equal(t, "2000-01-02", d.String())

	v, err := d.Value()
	require.NoError(t, err)
	assert.Equal(t, "2000-01-02", v)
}

func TestNormalizePage(t *testing.T) {
	page, size := NormalizePage(0, 500)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, size)
}
