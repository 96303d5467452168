package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listing-harvester/config"
)

func TestSelectCategories(t *testing.T) {
	all := config.DefaultCategories

	got, err := selectCategories(all, nil)
	require.NoError(t, err)
	assert.Equal(t, all, got)

	got, err = selectCategories(all, []string{"SELL_FLAT", "RENT_HOUSE"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "/butai/vilniuje", got[0].Path)
	assert.Equal(t, "/namu-nuoma/vilniuje", got[1].Path)

	_, err = selectCategories(all, []string{"SELL_LAND"})
	require.Error(t, err)
}
