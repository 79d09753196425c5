package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseItem(t *testing.T) {
	r, err := parseItem("Pergola Deluxe; 4200 ;2300;Brno; Líšeň")
	require.NoError(t, err)
	assert.Equal(t, "Pergola Deluxe", r.Product)
	assert.Equal(t, 4200, r.Width)
	require.NotNil(t, r.Height)
	assert.Equal(t, 2300, *r.Height)
	assert.Equal(t, "Brno; Líšeň", r.Place)

	r, err = parseItem("Screen;3000")
	require.NoError(t, err)
	assert.Nil(t, r.Height)
	assert.Empty(t, r.Place)

	for _, bad := range []string{"Screen", ";3000", "Screen;abc", "Screen;3000;-5", "Screen;0"} {
		_, err := parseItem(bad)
		assert.Error(t, err, bad)
	}
}

func TestAxis(t *testing.T) {
	assert.Equal(t, "-", axis(nil))
	assert.Equal(t, "3000, 4000", axis([]int{3000, 4000}))
	assert.Equal(t, "3000..6000 (4)", axis([]int{3000, 4000, 5000, 6000}))
}

func TestMoney(t *testing.T) {
	assert.Contains(t, money(18400), "Kč")
	assert.Contains(t, money(12), "12")
}
