package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"warzone-tracker/internal/domain"
)

func TestSquadKeyOrderIndependent(t *testing.T) {
	t.Parallel()

	a := SquadKey([]string{"64a1", "5f03", "71bc"})
	b := SquadKey([]string{"71bc", "64a1", "5f03"})
	c := SquadKey([]string{"5f03", "71bc", "64a1"})

	assert.Equal(t, a, b)
	assert.Equal(t, b, c)
	assert.Equal(t, "5f0364a171bc", a)
}

func TestSquadKeyDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	ids := []string{"zzz", "aaa"}
	_ = SquadKey(ids)
	assert.Equal(t, []string{"zzz", "aaa"}, ids)
}

func TestSquadKeyDistinguishesGroups(t *testing.T) {
	t.Parallel()

	assert.NotEqual(t,
		SquadKey([]string{"aaa", "bbb"}),
		SquadKey([]string{"aaa", "ccc"}))
}

func TestNormalizeMembersLowercasesUsernames(t *testing.T) {
	t.Parallel()

	got := normalizeMembers([]domain.SquadMember{
		{Username: "ShadowFiend", Platform: "battle"},
		{Username: "BRAVO", Platform: "psn"},
	})

	assert.Equal(t, []domain.SquadMember{
		{Username: "shadowfiend", Platform: "battle"},
		{Username: "bravo", Platform: "psn"},
	}, got)
}
