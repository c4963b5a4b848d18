package core

import (
	"encoding/json"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
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
		{"-1", 0, false},
		{"0", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestParseSignedDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"-200", -20000, true},
		{"+5,5", 550, true},
		{"12.34", 1234, true},
		{"-0", 0, false},
		{"--1", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseSignedDecimalToCents(tc.in)
		if tc.ok && (err != nil || got != tc.out) {
			t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestMoneyStringAndJSON(t *testing.T) {
	if got := (Money{Cents: -1230}).String(); got != "-12.30" {
		t.Fatalf("String() = %q", got)
	}
	if got := (Money{Cents: 5}).String(); got != "0.05" {
		t.Fatalf("String() = %q", got)
	}

	var m Money
	if err := json.Unmarshal([]byte(`"-20.5"`), &m); err != nil || m.Cents != -2050 {
		t.Fatalf("decimal string decode: %v %d", err, m.Cents)
	}
	if err := json.Unmarshal([]byte(`1500`), &m); err != nil || m.Cents != 1500 {
		t.Fatalf("cents decode: %v %d", err, m.Cents)
	}
	if err := json.Unmarshal([]byte(`"x"`), &m); err == nil {
		t.Fatalf("expected error for garbage amount")
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: -1}).Validate(); err != nil {
		t.Fatalf("expected ok for negative, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
}
