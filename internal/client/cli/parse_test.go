package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/annosync/internal/models"
)

func TestParsePoint(t *testing.T) {
	p, err := parsePoint("45.5", "-40")
	require.NoError(t, err)
	assert.Equal(t, models.Point{X: 45.5, Y: -40}, p)

	_, err = parsePoint("abc", "1")
	assert.Error(t, err)

	_, err = parsePoint("1", "")
	assert.Error(t, err)
}

func TestParsePositiveFloat(t *testing.T) {
	v, err := parsePositiveFloat("30", "radius")
	require.NoError(t, err)
	assert.Equal(t, 30.0, v)

	_, err = parsePositiveFloat("0", "radius")
	assert.Error(t, err)

	_, err = parsePositiveFloat("-2", "radius")
	assert.Error(t, err)

	_, err = parsePositiveFloat("big", "radius")
	assert.Error(t, err)
}

func TestParsePage(t *testing.T) {
	n, err := parsePage("3")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = parsePage("0")
	assert.Error(t, err)

	_, err = parsePage("x")
	assert.Error(t, err)
}

func TestResolveID(t *testing.T) {
	all := []models.Annotation{
		{ID: "aabbccdd-1111"},
		{ID: "aaff0011-2222"},
		{ID: "ff00ff00-3333"},
	}

	id, err := resolveID("aabb", all)
	require.NoError(t, err)
	assert.Equal(t, "aabbccdd-1111", id)

	id, err = resolveID("ff00ff00-3333", all)
	require.NoError(t, err)
	assert.Equal(t, "ff00ff00-3333", id)

	_, err = resolveID("aa", all)
	assert.Error(t, err, "ambiguous prefix")

	_, err = resolveID("zz", all)
	assert.Error(t, err, "no match")
}

func TestChannelURL(t *testing.T) {
	assert.Equal(t, "ws://h:8081/ws?document=shared%2Fexample.pdf",
		channelURL("ws://h:8081/ws", "shared/example.pdf"))
	assert.Equal(t, "ws://h/ws?x=1&document=doc",
		channelURL("ws://h/ws?x=1", "doc"))
}
