package valueobject

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	t.Run("creates money with valid amount", func(t *testing.T) {
		m, err := NewMoney(decimal.RequireFromString("100.50"))
		require.NoError(t, err)
		assert.True(t, m.Amount().Equal(decimal.RequireFromString("100.5")))
	})

	t.Run("rejects negative amount", func(t *testing.T) {
		_, err := NewMoney(decimal.NewFromInt(-1))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidAmount))
		assert.Contains(t, err.Error(), "cannot be negative")
	})

	t.Run("rejects more than two decimal places", func(t *testing.T) {
		_, err := NewMoney(decimal.RequireFromString("1.005"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidAmount))
	})

	t.Run("zero value is a valid zero amount", func(t *testing.T) {
		var m Money
		assert.True(t, m.IsZero())
		assert.False(t, m.IsPositive())
		assert.Equal(t, "0", m.String())
	})
}

func TestParseMoney(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"integer", "1395", "1395", false},
		{"two decimals", "12.50", "12.5", false},
		{"surrounding whitespace", "  300 ", "300", false},
		{"zero", "0", "0", false},
		{"empty", "", "", true},
		{"blank", "   ", "", true},
		{"not a number", "abc", "", true},
		{"negative", "-5", "", true},
		{"three decimals", "10.125", "", true},
		{"trailing garbage", "10rs", "", true},
		{"leading zeros", "007.50", "7.5", false},
		{"fifteen integer digits", "999999999999999.99", "999999999999999.99", false},
		{"sixteen integer digits", "1000000000000000", "", true},
		{"exponent", "1e2", "", true},
		{"upper case exponent", "1E5", "", true},
		{"huge exponent", "1e100000000", "", true},
		{"explicit plus", "+5", "", true},
		{"bare fraction", ".5", "", true},
		{"trailing point", "5.", "", true},
		{"digit grouping", "1,000", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseMoney(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidAmount))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.String())
		})
	}
}

func TestParsePositiveMoney(t *testing.T) {
	_, err := ParsePositiveMoney("0")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidAmount))

	_, err = ParsePositiveMoney("0.00")
	assert.Error(t, err)

	m, err := ParsePositiveMoney("0.01")
	require.NoError(t, err)
	assert.True(t, m.IsPositive())
}

func TestMoneyArithmetic(t *testing.T) {
	a := MoneyFromInt(1000)
	b := MustNewMoney(decimal.RequireFromString("1395"))

	t.Run("add", func(t *testing.T) {
		assert.Equal(t, "2395", a.Add(b).String())
	})

	t.Run("sub clamps at zero", func(t *testing.T) {
		assert.Equal(t, "395", b.Sub(a).String())
		assert.True(t, a.Sub(b).IsZero())
	})

	t.Run("multiply by int", func(t *testing.T) {
		assert.Equal(t, "900", MoneyFromInt(450).MultiplyByInt(2).String())
		assert.True(t, MoneyFromInt(450).MultiplyByInt(0).IsZero())
	})

	t.Run("decimal cents do not drift", func(t *testing.T) {
		total := Zero()
		tenth := MustNewMoney(decimal.RequireFromString("0.10"))
		for range 10 {
			total = total.Add(tenth)
		}
		assert.True(t, total.Equals(MoneyFromInt(1)))
		for range 10 {
			total = total.Sub(tenth)
		}
		assert.True(t, total.IsZero())
	})
}

func TestMoneyComparison(t *testing.T) {
	small := MoneyFromInt(150)
	big := MoneyFromInt(350)

	assert.Equal(t, -1, small.Compare(big))
	assert.Equal(t, 1, big.Compare(small))
	assert.Equal(t, 0, small.Compare(MustNewMoney(decimal.RequireFromString("150.00"))))
	assert.True(t, small.LessThan(big))
	assert.True(t, small.LessThanOrEqual(small))
	assert.True(t, big.GreaterThan(small))
	assert.True(t, big.GreaterThanOrEqual(big))
	assert.True(t, MinMoney(small, big).Equals(small))
	assert.True(t, MinMoney(big, small).Equals(small))
}

func TestMoneyFormatting(t *testing.T) {
	m := MustNewMoney(decimal.RequireFromString("1234.5"))
	assert.Equal(t, "1234.5", m.String())
	assert.Equal(t, "1234.50", m.StringFixed(2))
	assert.Equal(t, "₹1234.5", m.Display())
}

func TestMoneyJSON(t *testing.T) {
	t.Run("marshals as fixed decimal string", func(t *testing.T) {
		data, err := json.Marshal(MoneyFromInt(200))
		require.NoError(t, err)
		assert.JSONEq(t, `"200.00"`, string(data))
	})

	t.Run("unmarshals string and number", func(t *testing.T) {
		var v struct {
			A Money `json:"a"`
			B Money `json:"b"`
		}
		require.NoError(t, json.Unmarshal([]byte(`{"a":"12.34","b":56}`), &v))
		assert.Equal(t, "12.34", v.A.String())
		assert.Equal(t, "56", v.B.String())
	})

	t.Run("rejects negative", func(t *testing.T) {
		var m Money
		err := json.Unmarshal([]byte(`"-1"`), &m)
		assert.True(t, errors.Is(err, ErrInvalidAmount))
	})

	t.Run("rejects exponent string and number", func(t *testing.T) {
		var m Money
		assert.True(t, errors.Is(json.Unmarshal([]byte(`"1e2"`), &m), ErrInvalidAmount))
		assert.True(t, errors.Is(json.Unmarshal([]byte(`1e100000000`), &m), ErrInvalidAmount))
		assert.True(t, m.IsZero())
	})

	t.Run("rejects unbalanced quotes", func(t *testing.T) {
		var m Money
		err := m.UnmarshalJSON([]byte(`"12`))
		assert.True(t, errors.Is(err, ErrInvalidAmount))
		assert.True(t, m.IsZero())
	})

	t.Run("null leaves value unchanged", func(t *testing.T) {
		m := MoneyFromInt(42)
		require.NoError(t, json.Unmarshal([]byte(`null`), &m))
		assert.Equal(t, "42", m.String())

		var v struct {
			A Money  `json:"a"`
			B *Money `json:"b"`
		}
		require.NoError(t, json.Unmarshal([]byte(`{"a":null,"b":null}`), &v))
		assert.True(t, v.A.IsZero())
		assert.Nil(t, v.B)
	})
}
