// Copyright 2026 The nngraph Authors. SPDX-License-Identifier: Apache-2.0

package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSet(t *testing.T) {
	s := MakeSet[int]()
	require.False(t, s.Has(3))
	s.Insert(3, 7)
	require.True(t, s.Has(3))
	require.True(t, s.Has(7))
	require.False(t, s.Has(5))

	s2 := SetWith("a", "b")
	require.Len(t, s2, 2)
	require.True(t, s2.Has("a"))
	require.False(t, s2.Has("c"))
}
