package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mquispe/accessdir/internal/directory/types"
)

func seedRecords(t *testing.T, svc *Service) {
	t.Helper()
	ctx := context.Background()

	rows := []map[string]string{
		{"identifier": "jperez", "first_names": "Juan", "last_names": "Perez",
			"site": "CENTRAL", "department": "IT", "vpn_active": "SI", "access_tier": "REMOTE"},
		{"identifier": "mgarcia", "first_names": "Maria", "last_names": "Garcia",
			"site": "CENTRAL", "department": "OPERATIONS"},
		{"identifier": "avaldez", "first_names": "Ana", "last_names": "Valdez",
			"site": "NORTH", "department": "IT", "status": "INACTIVE"},
	}
	for _, row := range rows {
		_, _, err := svc.Register(ctx, row, "admin")
		require.NoError(t, err)
	}
}

func identifiers(recs []types.AccessRecord) []string {
	var out []string
	for _, r := range recs {
		out = append(out, r.Identifier)
	}
	return out
}

func TestFilterDefaultsToActive(t *testing.T) {
	svc, _ := newTestService(t)
	seedRecords(t, svc)

	got := svc.Filter(Query{})
	assert.Equal(t, []string{"jperez", "mgarcia"}, identifiers(got))

	got = svc.Filter(Query{IncludeInactive: true})
	assert.Equal(t, []string{"jperez", "mgarcia", "avaldez"}, identifiers(got))
}

func TestFilterExplicitStatusOverridesDefault(t *testing.T) {
	svc, _ := newTestService(t)
	seedRecords(t, svc)

	got := svc.Filter(Query{Status: "inactive"})
	assert.Equal(t, []string{"avaldez"}, identifiers(got))
}

func TestFilterConjunctivePredicates(t *testing.T) {
	svc, _ := newTestService(t)
	seedRecords(t, svc)

	got := svc.Filter(Query{Site: "CENTRAL", Department: "IT"})
	assert.Equal(t, []string{"jperez"}, identifiers(got))

	got = svc.Filter(Query{Site: "CENTRAL", VPN: "si"})
	assert.Equal(t, []string{"jperez"}, identifiers(got))

	got = svc.Filter(Query{Site: "CENTRAL", Department: "LEGAL"})
	assert.Empty(t, got)
}

func TestFilterTextMatchesNamesAndIdentifier(t *testing.T) {
	svc, _ := newTestService(t)
	seedRecords(t, svc)

	got := svc.Filter(Query{Text: "garc"})
	assert.Equal(t, []string{"mgarcia"}, identifiers(got))

	got = svc.Filter(Query{Text: "JUAN"})
	assert.Equal(t, []string{"jperez"}, identifiers(got))
}

func TestCountActive(t *testing.T) {
	svc, _ := newTestService(t)
	seedRecords(t, svc)

	assert.Equal(t, 2, svc.CountActive())
}

func TestCountByBucketsBlanksUnderNone(t *testing.T) {
	svc, _ := newTestService(t)
	seedRecords(t, svc)

	counts, err := svc.CountBy("department")
	require.NoError(t, err)
	// avaldez is INACTIVE and excluded from counts.
	assert.Equal(t, map[string]int{"IT": 1, "OPERATIONS": 1}, counts)

	counts, err = svc.CountBy("sub_department")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{NoneLabel: 2}, counts)
}

func TestCountByUnknownDimension(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CountBy("shoe_size")
	assert.ErrorIs(t, err, ErrUnknownDimension)
}

func TestDimensionsListsCountable(t *testing.T) {
	for _, d := range Dimensions() {
		_, ok := countDimensions[d]
		assert.True(t, ok, d)
	}
}
