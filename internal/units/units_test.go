package units

import (
	"errors"
	"math/big"
	"testing"
)

func TestToWei(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
		err      bool
	}{
		{name: "whole ether", input: "1", expected: "1000000000000000000"},
		{name: "fraction", input: "0.05", expected: "50000000000000000"},
		{name: "surrounding space", input: " 2.5 ", expected: "2500000000000000000"},
		{name: "zero", input: "0", expected: "0"},
		{name: "smallest unit", input: "0.000000000000000001", expected: "1"},
		{name: "not a number", input: "lots", err: true},
		{name: "empty", input: "", err: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			wei, err := ToWei(tc.input)
			if tc.err {
				if err == nil {
					t.Fatalf("Expected an error for %q, but got %s", tc.input, wei)
				}
				return
			}
			if err != nil {
				t.Fatalf("ToWei(%q) returned an unexpected error: %v", tc.input, err)
			}
			if wei.String() != tc.expected {
				t.Errorf("Expected %s wei, but got %s", tc.expected, wei)
			}
		})
	}
}

func TestToWeiRejectsInvalidAmounts(t *testing.T) {
	if _, err := ToWei("-1"); !errors.Is(err, ErrNegativeAmount) {
		t.Errorf("Expected ErrNegativeAmount, but got %v", err)
	}
	if _, err := ToWei("0.0000000000000000001"); !errors.Is(err, ErrTooPrecise) {
		t.Errorf("Expected ErrTooPrecise, but got %v", err)
	}
}

func TestFormatEther(t *testing.T) {
	wei, _ := new(big.Int).SetString("1500000000000000000", 10)
	if got := FormatEther(wei); got != "1.5" {
		t.Errorf("Expected '1.5', but got '%s'", got)
	}
	if got := FormatEther(nil); got != "0" {
		t.Errorf("Expected '0' for nil, but got '%s'", got)
	}
}
