package parse

import (
	"math"
	"testing"
)

func TestNumber(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"1200", 1200, true},
		{"1,200.00", 1200, true},
		{"19,666,101.24", 19666101.24, true},
		{"₱1,200.00", 1200, true},
		{"PHP 350", 350, true},
		{"Php 99.50", 99.5, true},
		{"$42", 42, true},
		{"50%", 50, true},
		{"(123.45)", -123.45, true},
		{"( 500 )", -500, true},
		{"  75.5  ", 75.5, true},
		{"-10", -10, true},
		{"1.5e3", 1500, true},
		{"abc", 0, false},
		{"", 0, false},
		{"₱", 0, false},
		{"12abc", 0, false},
		{"1,2,3,", 123, true}, // commas stripped, trailing nothing
	}

	for _, tt := range tests {
		got, ok := Number(tt.in)
		if ok != tt.wantOK {
			t.Errorf("Number(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
			continue
		}
		if ok && math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Number(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDay(t *testing.T) {
	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"9", 9, true},
		{"09", 9, true},
		{"31", 31, true},
		{"9 (EA)", 9, true},
		{"31 - promo", 31, true},
		{"1st", 1, true},
		{"0", 0, false},
		{"32", 0, false},
		{"", 0, false},
		{"  ", 0, false},
		{"promo 9", 0, false},
		{"-5", 0, false},
	}

	for _, tt := range tests {
		got, ok := Day(tt.in)
		if ok != tt.wantOK {
			t.Errorf("Day(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("Day(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{200, 200},
		{123.454, 123.45},
		{123.456, 123.46},
		{-9.876, -9.88},
		{0, 0},
	}

	for _, tt := range tests {
		if got := Round2(tt.in); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Round2(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
