package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllListsEveryPersistedModel(t *testing.T) {
	all := All()
	require.Len(t, all, 7)
	require.Contains(t, all, &MockTestSession{})
	require.Contains(t, all, &ChatMessage{})
}
