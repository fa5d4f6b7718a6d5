package dedup

import (
	"diningsync/lib/food"
	"diningsync/lib/history"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func rec(name string, calories float64) food.Record {
	return food.Record{Name: name, Calories: food.Amount(calories)}
}

func TestFilterNewScenario(t *testing.T) {
	batch := []food.Record{
		rec("Biscuit", 190),
		rec("Biscuit", 190),
		rec("Apple", 95),
	}
	hist := history.NewSet("Biscuit_190")

	out, err := FilterNew(batch, hist)
	require.NoError(t, err)

	diff := cmp.Diff([]food.Record{rec("Apple", 95)}, out)
	if diff != "" {
		t.Fatal(diff)
	}
}

func TestFilterNewIntraBatch(t *testing.T) {
	first := rec("Scrambled Eggs", 140)
	first.Meal = "Breakfast"
	second := rec("Scrambled Eggs", 140)
	second.Meal = "Brunch"
	second.Protein = food.Amount(12)

	out, err := FilterNew([]food.Record{first, second, rec("Grits", 100)}, history.NewSet())
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, "Breakfast", out[0].Meal)
	require.Equal(t, "Grits", out[1].Name)
}

func TestFilterNewIdempotent(t *testing.T) {
	batches := [][]food.Record{
		{},
		{rec("Biscuit", 190)},
		{rec("Biscuit", 190), rec("Biscuit", 200), rec("Apple", 95), rec("Apple", 95)},
		{rec("Pizza", 300), rec("Pizza", 300), rec("Salad", 50)},
	}
	histories := []*history.Set{
		history.NewSet(),
		history.NewSet("Biscuit_190"),
		history.NewSet("Pizza_300", "Salad_50"),
	}

	for _, batch := range batches {
		for _, hist := range histories {
			once, err := FilterNew(batch, hist)
			require.NoError(t, err)
			twice, err := FilterNew(once, hist)
			require.NoError(t, err)
			// the second pass only sees records the first already let
			// through, so feeding the first output back must not change it
			require.Equal(t, once, twice)

			// and once those keys are confirmed, nothing is new anymore
			confirmed := hist.Clone()
			for _, r := range once {
				key, _ := r.IdentityKey()
				confirmed.Add(key)
			}
			again, err := FilterNew(batch, confirmed)
			require.NoError(t, err)
			require.Empty(t, again)
		}
	}
}

func TestFilterNewNeverEmitsHistory(t *testing.T) {
	hist := history.NewSet("Biscuit_190", "Apple_95")
	batch := []food.Record{rec("Apple", 95), rec("Biscuit", 190), rec("Biscuit", 180)}

	out, err := FilterNew(batch, hist)
	require.NoError(t, err)
	for _, r := range out {
		key, _ := r.IdentityKey()
		require.False(t, hist.Has(key), key)
	}
	require.Len(t, out, 1)
}

func TestFilterNewDoesNotMutateHistory(t *testing.T) {
	hist := history.NewSet("Biscuit_190")
	_, err := FilterNew([]food.Record{rec("Apple", 95)}, hist)
	require.NoError(t, err)
	require.Equal(t, []string{"Biscuit_190"}, hist.Keys())
}

func TestFilterNewEmpty(t *testing.T) {
	out, err := FilterNew(nil, history.NewSet())
	require.NoError(t, err)
	require.NotNil(t, out)
	require.Len(t, out, 0)
}

func TestFilterNewMalformed(t *testing.T) {
	_, err := FilterNew([]food.Record{rec("Apple", 95), {Calories: food.Amount(10)}}, history.NewSet())
	require.True(t, errors.Is(err, food.ErrMalformedRecord))
}

func TestFilterSkipPolicy(t *testing.T) {
	batch := []food.Record{
		rec("Apple", 95),
		{Calories: food.Amount(10)},
		rec("Apple", 95),
		rec("Biscuit", 190),
	}
	res, err := Filter{Policy: PolicySkip}.Run(batch, history.NewSet("Biscuit_190"))
	require.NoError(t, err)
	require.Len(t, res.New, 1)
	require.Len(t, res.Malformed, 1)
	require.Equal(t, 1, res.Malformed[0].Index)
	require.Equal(t, 1, res.SkippedBatch)
	require.Equal(t, 1, res.SkippedHistory)
}

func TestFilterNearMatches(t *testing.T) {
	hist := history.NewSet("Buttermilk Biscuit_190", "Apple_95")
	batch := []food.Record{
		rec("Buttermilk Biscuits", 200),
		rec("Roast Beef", 250),
	}

	res, err := Filter{SimilarityThreshold: DefaultSimilarityThreshold}.Run(batch, hist)
	require.NoError(t, err)
	// near matches are reported, never filtered
	require.Len(t, res.New, 2)
	require.Len(t, res.NearMatches, 1)
	require.Equal(t, "Buttermilk Biscuits_200", res.NearMatches[0].Key)
	require.Equal(t, "Buttermilk Biscuit_190", res.NearMatches[0].Similar)

	res, err = Filter{}.Run(batch, hist)
	require.NoError(t, err)
	require.Empty(t, res.NearMatches)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	require.Equal(t, PolicyFail, p)

	p, err = ParsePolicy("SKIP")
	require.NoError(t, err)
	require.Equal(t, PolicySkip, p)

	_, err = ParsePolicy("ignore")
	require.Error(t, err)
}
