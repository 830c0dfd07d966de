// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package id

import (
	"strings"
	"testing"

	"github.com/hashicorp/go-uuid"
)

func TestNew(t *testing.T) {
	type args struct {
		prefix string
	}
	tests := []struct {
		name    string
		args    args
		wantErr bool
		wantLen int
	}{
		{
			name: "valid",
			args: args{
				prefix: "corr",
			},
			wantErr: false,
			wantLen: 36 + len("corr_"),
		},
		{
			name: "no-prefix",
			args: args{
				prefix: "",
			},
			wantErr: false,
			wantLen: 36,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New(tt.args.prefix)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && tt.args.prefix != "" && !strings.HasPrefix(got, tt.args.prefix+"_") {
				t.Errorf("New() = %v, wanted it to start with %v", got, tt.args.prefix)
			}
			if len(got) != tt.wantLen {
				t.Errorf("New() = %v, with len of %d and wanted len of %v", got, len(got), tt.wantLen)
			}
		})
	}
}

func TestNewCorrelationID(t *testing.T) {
	got, err := NewCorrelationID()
	if err != nil {
		t.Fatalf("NewCorrelationID() error = %v", err)
	}
	if _, err := uuid.ParseUUID(got); err != nil {
		t.Errorf("NewCorrelationID() = %v, not a uuid: %v", got, err)
	}
}
