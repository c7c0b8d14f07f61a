package date

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"
)

func TestParse(t *testing.T) {
	d, err := Parse("2024-03-09")
	require.NoError(t, err)
	assert.Equal(t, New(2024, time.March, 9), d)
	assert.Equal(t, "2024-03-09", d.String())

	for _, bad := range []string{"", "2024-3-9", "2024-02-30", "tomorrow"} {
		_, err := Parse(bad)
		assert.Error(t, err, bad)
	}
}

func TestArithmetic(t *testing.T) {
	d := New(2024, time.December, 31)
	assert.Equal(t, New(2025, time.January, 1), d.AddDays(1))
	assert.Equal(t, New(2024, time.December, 24), d.AddDays(-7))

	assert.True(t, d.AddDays(-1).Before(d))
	assert.False(t, d.Before(d))
	assert.True(t, d.AddDays(1).After(d))

	assert.True(t, d.Between(d, d))
	assert.True(t, d.Between(d.AddDays(-1), d.AddDays(1)))
	assert.False(t, d.Between(d.AddDays(1), d.AddDays(3)))
}

func TestOfDropsClock(t *testing.T) {
	ts := time.Date(2025, time.June, 2, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, New(2025, time.June, 2), Of(ts))
}

func TestEncoding(t *testing.T) {
	d := New(2025, time.July, 4)

	js, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `"2025-07-04"`, string(js))

	var fromJSON Date
	require.NoError(t, json.Unmarshal(js, &fromJSON))
	assert.Equal(t, d, fromJSON)

	ys, err := yaml.Marshal(struct {
		Due Date `yaml:"due"`
	}{d})
	require.NoError(t, err)
	assert.Contains(t, string(ys), "2025-07-04")
}
