package generic_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/compliance-engine/generic"
)

func TestParseDate_Layouts(t *testing.T) {
	want := generic.NewDate(2025, time.June, 3)

	for _, in := range []string{"2025-06-03", "2025-06-03T15:04:05Z", "06/03/2025", "6/3/2025", "06/03/25", " 2025-06-03 "} {
		t.Run(in, func(t *testing.T) {
			got, err := generic.ParseDate(in)
			require.NoError(t, err)
			assert.True(t, want.Equal(got), "got %s", got)
		})
	}

	_, err := generic.ParseDate("June 3rd")
	assert.Error(t, err)
	assert.Nil(t, generic.ParseDatePtr(""))
	assert.Nil(t, generic.ParseDatePtr("soon"))
}

func TestDate_JSON(t *testing.T) {
	type doc struct {
		When generic.Date `json:"when"`
	}

	b, err := json.Marshal(doc{When: generic.NewDate(2025, time.January, 31)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"when": "2025-01-31"}`, string(b))

	b, err = json.Marshal(doc{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"when": null}`, string(b))

	var d doc
	require.NoError(t, json.Unmarshal([]byte(`{"when": "01/31/2025"}`), &d))
	assert.Equal(t, "2025-01-31", d.When.String())
}

func TestTerm_Contains(t *testing.T) {
	jun1 := generic.NewDate(2025, time.June, 1)
	jun30 := generic.NewDate(2025, time.June, 30)

	tests := []struct {
		name string
		term generic.Term
		want bool
	}{
		{"inside", generic.NewTerm(jun1, jun30), true},
		{"open end", generic.Term{Start: &jun1}, true},
		{"unknown start", generic.Term{End: &jun30}, false},
		{"starts later", generic.Term{Start: generic.DatePtr(jun30.AddDays(1))}, false},
		{"ended", generic.NewTerm(jun1.AddMonths(-2), jun1.AddDays(-1)), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.term.Contains(jun30.AddDays(-15)))
		})
	}

	assert.True(t, generic.Term{}.SameAs(generic.Term{}))
	assert.False(t, generic.Term{Start: &jun1}.SameAs(generic.Term{}))
}

func TestParseMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"31200", "31200", true},
		{"$1,150.00", "1150", true},
		{" 37,150 ", "37150", true},
		{"(250.00)", "-250", true},
		{"", "0", false},
		{"N/A", "0", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := generic.ParseMoney(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}

	assert.Nil(t, generic.ParseMoneyPtr("TBD"))
	assert.True(t, generic.SameMoney(nil, nil))
	assert.True(t, generic.SameMoney(generic.MoneyPtr(10), generic.ParseMoneyPtr("10.00")))
	assert.True(t, decimal.NewFromInt(5).Equal(generic.ValueOr(nil, decimal.NewFromInt(5))))
}

func TestErrorClassification(t *testing.T) {
	precondition := &generic.PreconditionError{PropertyID: "p1", UnitNumber: "101", Err: generic.ErrMissingUnitID}
	validation := &generic.ValidationError{Fields: []string{"snapshot.date"}}
	notFound := fmt.Errorf("%w: p9", generic.ErrPropertyNotFound)

	assert.Equal(t, "unit 101: missing unit identifier", precondition.Error())
	assert.True(t, generic.IsClientError(precondition))
	assert.True(t, generic.IsClientError(validation))
	assert.True(t, errors.Is(validation, generic.ErrInvalidSnapshot))
	assert.False(t, generic.IsClientError(notFound))
	assert.True(t, generic.IsNotFound(notFound))
	assert.False(t, generic.IsNotFound(errors.New("disk full")))
}
