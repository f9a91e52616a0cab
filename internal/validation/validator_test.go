// Paperwise - Research Paper Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/paperwise

package validation

import (
	"errors"
	"strings"
	"testing"
)

type testRating struct {
	UserID int64  `validate:"gt=0"`
	Rating int    `validate:"gte=1,lte=5"`
	Folder string `validate:"omitempty,max=10"`
	Kind   string `validate:"required,oneof=rating bookmark"`
}

func TestGetValidator_Singleton(t *testing.T) {
	if GetValidator() != GetValidator() {
		t.Error("GetValidator() returned different instances")
	}
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name       string
		input      testRating
		wantFields []string
	}{
		{
			name:  "valid",
			input: testRating{UserID: 1, Rating: 5, Kind: "rating"},
		},
		{
			name:       "rating out of range",
			input:      testRating{UserID: 1, Rating: 6, Kind: "rating"},
			wantFields: []string{"Rating"},
		},
		{
			name:       "multiple failures",
			input:      testRating{UserID: 0, Rating: 0, Folder: "a-very-long-folder", Kind: "like"},
			wantFields: []string{"UserID", "Rating", "Folder", "Kind"},
		},
		{
			name:       "missing required",
			input:      testRating{UserID: 2, Rating: 3},
			wantFields: []string{"Kind"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.input)
			if len(tt.wantFields) == 0 {
				if err != nil {
					t.Fatalf("ValidateStruct() error = %v, want nil", err)
				}
				return
			}

			var verr *Error
			if !errors.As(err, &verr) {
				t.Fatalf("ValidateStruct() error = %v, want *Error", err)
			}
			if len(verr.Errors()) != len(tt.wantFields) {
				t.Fatalf("field errors = %d, want %d (%v)", len(verr.Errors()), len(tt.wantFields), err)
			}
			for i, fe := range verr.Errors() {
				if fe.Field() != tt.wantFields[i] {
					t.Errorf("field %d = %q, want %q", i, fe.Field(), tt.wantFields[i])
				}
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name  string
		input testRating
		want  string
	}{
		{"lte", testRating{UserID: 1, Rating: 9, Kind: "rating"}, "Rating must be less than or equal to 5"},
		{"gte", testRating{UserID: 1, Rating: 0, Kind: "rating"}, "Rating must be greater than or equal to 1"},
		{"gt", testRating{UserID: -1, Rating: 1, Kind: "rating"}, "UserID must be greater than 0"},
		{"oneof", testRating{UserID: 1, Rating: 1, Kind: "view"}, "Kind must be one of: rating bookmark"},
		{"required", testRating{UserID: 1, Rating: 1}, "Kind is required"},
		{"max string", testRating{UserID: 1, Rating: 1, Kind: "rating", Folder: "abcdefghijk"}, "Folder must be at most 10 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.input)
			if err == nil {
				t.Fatal("ValidateStruct() error = nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.want)
			}
		})
	}
}

func TestError_Empty(t *testing.T) {
	if got := (&Error{}).Error(); got != "validation failed" {
		t.Errorf("Error() = %q, want %q", got, "validation failed")
	}
}
