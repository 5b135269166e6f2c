package id

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProducesValidIDs(t *testing.T) {
	a := New()
	b := New()

	assert.Len(t, a, 26)
	assert.True(t, Valid(a))
	assert.True(t, Valid(b))
	assert.NotEqual(t, a, b)
}

func TestNewIsSortable(t *testing.T) {
	a := New()
	time.Sleep(2 * time.Millisecond)
	b := New()
	assert.Less(t, a, b)
}

func TestValidRejectsGarbage(t *testing.T) {
	assert.False(t, Valid(""))
	assert.False(t, Valid("not-an-id"))
	assert.False(t, Valid("0000000000000000000000000!"))
}

func TestTime(t *testing.T) {
	before := time.Now().Add(-time.Second)
	got, err := Time(New())
	require.NoError(t, err)
	assert.True(t, got.After(before))
	assert.True(t, got.Before(time.Now().Add(time.Second)))

	_, err = Time("garbage")
	assert.Error(t, err)
}
