package utils

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
)

func TestNormalizePhoneNumber(t *testing.T) {
	cases := []struct {
		phone   string
		region  string
		want    string
		wantErr bool
	}{
		{"+91 98765 43210", "IN", "+919876543210", false},
		{"9876543210", "IN", "+919876543210", false},
		{"98765 43210", "IN", "+919876543210", false},
		{"12345", "IN", "", true},
		{"not-a-number", "IN", "", true},
	}
	for _, tc := range cases {
		got, err := NormalizePhoneNumber(tc.phone, tc.region)
		if (err != nil) != tc.wantErr {
			t.Fatalf("NormalizePhoneNumber(%q, %q) err=%v, wantErr=%v", tc.phone, tc.region, err, tc.wantErr)
		}
		if got != tc.want {
			t.Fatalf("NormalizePhoneNumber(%q, %q) = %q, want %q", tc.phone, tc.region, got, tc.want)
		}
	}
}

func TestProcessValidationErrors(t *testing.T) {
	type input struct {
		TableName string `validate:"required"`
		Operation string `validate:"oneof=create update delete"`
	}
	err := validator.New().Struct(input{Operation: "upsert"})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	got := ProcessValidationErrors(err)
	if got["TableName"] != "required" || got["Operation"] != "oneof" {
		t.Fatalf("unexpected map: %v", got)
	}

	got = ProcessValidationErrors(errors.New("unexpected EOF"))
	if got["body"] != "unexpected EOF" {
		t.Fatalf("non-validation errors should map to body: %v", got)
	}
}
