package core

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMoney(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"800000", 80000000, true},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseMoney(tc.in)
		if tc.ok {
			if err != nil || got.Cents != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyValidate(t *testing.T) {
	assert.NoError(t, Money{Cents: 1}.Validate())

	for _, m := range []Money{{Cents: 0}, {Cents: -100}} {
		err := m.Validate()
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidArgument), "amount %d should be an invalid argument", m.Cents)
	}
}

func TestMoneyFormat(t *testing.T) {
	cases := map[int64]string{
		0:            "0.00",
		5:            "0.05",
		40000000:     "400,000.00",
		10000000:     "100,000.00",
		123456789:    "1,234,567.89",
		-250050:      "-2,500.50",
		100000000000: "1,000,000,000.00",
	}
	for cents, want := range cases {
		assert.Equal(t, want, Money{Cents: cents}.Format(), "cents=%d", cents)
	}
}

func TestMoneyJSON(t *testing.T) {
	var req struct {
		Amount Money `json:"amount"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"amount": 800000}`), &req))
	assert.Equal(t, int64(80000000), req.Amount.Cents)

	require.NoError(t, json.Unmarshal([]byte(`{"amount": "12.345"}`), &req))
	assert.Equal(t, int64(1235), req.Amount.Cents)

	out, err := json.Marshal(Money{Cents: 1234})
	require.NoError(t, err)
	assert.Equal(t, "12.34", string(out))

	err = json.Unmarshal([]byte(`{"amount": "twelve"}`), &req)
	assert.Error(t, err)
}
