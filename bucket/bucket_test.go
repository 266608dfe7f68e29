package bucket

import (
	"math/rand"
	"sort"
	"strings"
	"testing"

	"github.com/ar90n/modica"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const aggregate = `--------------------
main_2_test_small_05_module_0_nc_0.25, best_f1score = 0.61
main_2_test_small_05_module_0_nc_0.4, best_f1score = 0.58
main_2_test_small_05_module_0_x_0.25, f1score = 0.72, 0.91, 0.09
main_2_test_small_05_module_0_y_0.4, f1score = 0.70
--------------------
main_2_test_small_06_module_1_nc_0.25, best_f1score = 0.64, 0.80, 0.20
main_2_test_small_06_module_1_nc_0.4, best_f1score = 0.55
main_2_test_small_06_module_1_y_0.25, f1score = 0.77, 0.88, 0.12
main_2_test_small_06_module_1_x_0.4, f1score = 0.69
`

func Test_ReadAggregate(t *testing.T) {
	records, err := ReadAggregate(strings.NewReader(aggregate))
	require.NoError(t, err)
	require.Len(t, records, 8)

	assert.Equal(t, "main_2_test_small_05_module_0_nc_0.25", records[0].ID)
	assert.Equal(t, 0.61, records[0].Score)
	assert.Empty(t, records[0].Extra)
	assert.Equal(t, []float64{0.91, 0.09}, records[2].Extra)
}

func Test_ReadAggregateErrors(t *testing.T) {
	for _, input := range []string{
		"id_only\n",
		"a_nc_0.25,not-a-number\n",
		"a_nc_0.25,0.5,bad\n",
	} {
		_, err := ReadAggregate(strings.NewReader(input))
		assert.True(t, errors.Is(err, modica.ErrParse), "%q: %v", input, err)
	}
}

func Test_PartitionExample(t *testing.T) {
	s := DefaultScheme()
	records, err := ReadAggregate(strings.NewReader("nc_0.25_run3,0.81\n"))
	require.NoError(t, err)

	for _, tagger := range []Tagger{NewTokenTagger(s), NewSubstringTagger(s)} {
		b, err := Partition(records, s, tagger)
		require.NoError(t, err)

		for tag, values := range b.Scores {
			if tag == (Tag{Level: "0.25", Method: "NetClust"}) {
				assert.Equal(t, []float64{0.81}, values)
			} else {
				assert.Empty(t, values, "%v", tag)
			}
		}
	}
}

func Test_Partition(t *testing.T) {
	s := DefaultScheme()
	records, err := ReadAggregate(strings.NewReader(aggregate))
	require.NoError(t, err)

	b, err := Partition(records, s, NewTokenTagger(s))
	require.NoError(t, err)

	assert.Len(t, b.Scores, 6)
	assert.Equal(t, []float64{0.61, 0.64}, b.Get("0.25", "NetClust"))
	assert.Equal(t, []float64{0.72, 0.77}, b.Get("0.25", "MIQP-ICA"))
	assert.Equal(t, []float64{0.58, 0.55}, b.Get("0.4", "NetClust"))
	assert.Equal(t, []float64{0.70, 0.69}, b.Get("0.4", "MIQP-ICA"))
	assert.Empty(t, b.Get("0.5", "NetClust"))
	assert.Empty(t, b.Get("0.5", "MIQP-ICA"))

	assert.Equal(t, []float64{0.80}, b.ROC["NetClust"])
	assert.Equal(t, []float64{0.91, 0.88}, b.ROC["MIQP-ICA"])
	assert.Equal(t, []float64{0.20}, b.ROCOpposite["NetClust"])
	assert.Equal(t, []float64{0.09, 0.12}, b.ROCOpposite["MIQP-ICA"])
}

func Test_PartitionROCColumns(t *testing.T) {
	s := DefaultScheme()
	records, err := ReadAggregate(strings.NewReader("a_nc_0.25,0.5,0.7,0.3\nb_x_0.25,0.6,0.8,0.2\nc_y_0.4,0.6,0.9,0.1\nd_x_0.25,0.4,0.6\n"))
	require.NoError(t, err)

	b, err := Partition(records, s, NewTokenTagger(s))
	require.NoError(t, err)

	assert.Equal(t, map[string][]float64{"NetClust": {0.7}, "MIQP-ICA": {0.8, 0.6}}, b.ROC)
	assert.Equal(t, map[string][]float64{"NetClust": {0.3}, "MIQP-ICA": {0.2}}, b.ROCOpposite)
}

func Test_PartitionOrderIndependent(t *testing.T) {
	s := DefaultScheme()
	records, err := ReadAggregate(strings.NewReader(aggregate))
	require.NoError(t, err)

	shuffled := append([]Record(nil), records...)
	rand.New(rand.NewSource(3)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	b1, err := Partition(records, s, NewTokenTagger(s))
	require.NoError(t, err)
	b2, err := Partition(shuffled, s, NewTokenTagger(s))
	require.NoError(t, err)

	sorted := func(v []float64) []float64 {
		v = append([]float64(nil), v...)
		sort.Float64s(v)
		return v
	}
	for tag := range b1.Scores {
		assert.Equal(t, sorted(b1.Scores[tag]), sorted(b2.Scores[tag]))
	}
	for m := range b1.ROC {
		assert.Equal(t, sorted(b1.ROC[m]), sorted(b2.ROC[m]))
	}
	for m := range b1.ROCOpposite {
		assert.Equal(t, sorted(b1.ROCOpposite[m]), sorted(b2.ROCOpposite[m]))
	}
}

func Test_TokenTaggerExclusive(t *testing.T) {
	s := Scheme{
		Levels: []string{"0.4", "0.45"},
		Methods: []Method{
			{Name: "NetClust", Markers: []string{"nc"}},
			{Name: "MIQP-ICA", Markers: []string{"x", "y"}},
		},
	}

	// "x_0.4" is a substring of "x_0.45": the substring tagger double
	// counts, the token tagger does not.
	sub, err := NewSubstringTagger(s).Tags("run_x_0.45")
	require.NoError(t, err)
	assert.Len(t, sub, 2)

	tok, err := NewTokenTagger(s).Tags("run_x_0.45")
	require.NoError(t, err)
	assert.Equal(t, []Tag{{Level: "0.45", Method: "MIQP-ICA"}}, tok)

	_, err = NewTokenTagger(s).Tags("run_nc_0.4_x_0.45")
	assert.True(t, errors.Is(err, ErrAmbiguousTag))
	assert.True(t, errors.Is(err, modica.ErrPrecondition))

	// Repeating the same tag is not ambiguous.
	tok, err = NewTokenTagger(s).Tags("x_0.4_y_0.4")
	require.NoError(t, err)
	assert.Len(t, tok, 1)

	tok, err = NewTokenTagger(s).Tags("unrelated_row")
	require.NoError(t, err)
	assert.Empty(t, tok)
}

func Test_SchemeValidate(t *testing.T) {
	assert.NoError(t, DefaultScheme().Validate())

	type TestCase struct {
		Name   string
		Scheme Scheme
	}

	testCases := []TestCase{
		{Name: "no levels", Scheme: Scheme{Methods: DefaultScheme().Methods}},
		{Name: "one method", Scheme: Scheme{Levels: []string{"0.25"}, Methods: DefaultScheme().Methods[:1]}},
		{
			Name: "shared marker",
			Scheme: Scheme{Levels: []string{"0.25"}, Methods: []Method{
				{Name: "a", Markers: []string{"x"}},
				{Name: "b", Markers: []string{"x"}},
			}},
		},
		{
			Name:   "unknown roc level",
			Scheme: Scheme{Levels: []string{"0.25"}, Methods: DefaultScheme().Methods, ROCLevel: "0.9"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			assert.True(t, errors.Is(tc.Scheme.Validate(), modica.ErrPrecondition))
		})
	}
}

func Test_NewTagger(t *testing.T) {
	s := DefaultScheme()
	tg, err := NewTagger("substring", s)
	require.NoError(t, err)
	assert.IsType(t, &SubstringTagger{}, tg)

	tg, err = NewTagger("", s)
	require.NoError(t, err)
	assert.IsType(t, &TokenTagger{}, tg)

	_, err = NewTagger("regex", s)
	assert.Error(t, err)
}
