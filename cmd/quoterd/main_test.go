package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSendLatest_ReplacesPendingList(t *testing.T) {
	ch := make(chan []string, 1)
	sendLatest(ch, []string{"ceniky.txt"})
	sendLatest(ch, []string{"ceniky.txt", "pergola.csv"})

	assert.Equal(t, []string{"ceniky.txt", "pergola.csv"}, <-ch)
	assert.Empty(t, ch)
}
