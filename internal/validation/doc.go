// Paperwise - Research Paper Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/paperwise

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is shared by the whole process; it caches
// struct metadata and is safe for concurrent use. Event envelopes and
// imported datasets are validated through ValidateStruct:
//
//	type Rating struct {
//	    UserID int64 `validate:"gt=0"`
//	    Rating int   `validate:"gte=1,lte=5"`
//	}
//
//	if err := validation.ValidateStruct(&r); err != nil {
//	    var verr *validation.Error
//	    if errors.As(err, &verr) {
//	        for _, fe := range verr.Errors() {
//	            log.Printf("%s: %s", fe.Field(), fe.Error())
//	        }
//	    }
//	}
package validation
