package query

import (
	"strings"
	"testing"
	"time"

	"mercator-hq/wardgate/pkg/audit"
)

func TestValidate(t *testing.T) {
	now := time.Now()
	past := now.Add(-24 * time.Hour)

	tests := []struct {
		name    string
		query   *audit.Query
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid query with all filters",
			query: &audit.Query{
				StartTime: &past,
				EndTime:   &now,
				ActorName: "dr_x",
				Actions:   []audit.Action{audit.ActionReadSensitive, audit.ActionAccessDenied},
				Resource:  audit.ResourcePatients,
				Limit:     100,
				SortOrder: "desc",
			},
		},
		{
			name:  "valid query with minimal filters",
			query: &audit.Query{Limit: 50},
		},
		{
			name:    "negative limit",
			query:   &audit.Query{Limit: -1},
			wantErr: true,
			errMsg:  "limit must be >= 0",
		},
		{
			name:    "limit exceeds max",
			query:   &audit.Query{Limit: MaxLimit + 1},
			wantErr: true,
			errMsg:  "limit must be <=",
		},
		{
			name:    "negative offset",
			query:   &audit.Query{Offset: -1},
			wantErr: true,
			errMsg:  "offset must be >= 0",
		},
		{
			name:    "invalid sort order",
			query:   &audit.Query{SortOrder: "sideways"},
			wantErr: true,
			errMsg:  "invalid sort order",
		},
		{
			name:    "inverted time range",
			query:   &audit.Query{StartTime: &now, EndTime: &past},
			wantErr: true,
			errMsg:  "start_time must be before end_time",
		},
		{
			name:    "unknown action",
			query:   &audit.Query{Actions: []audit.Action{"READ_EVERYTHING"}},
			wantErr: true,
			errMsg:  "unknown action",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.query)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Validate() expected error containing %q, got nil", tt.errMsg)
				}
				if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("Validate() error = %q, want containing %q", err.Error(), tt.errMsg)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() unexpected error: %v", err)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	q := &audit.Query{}
	ApplyDefaults(q)

	if q.Limit != DefaultLimit {
		t.Errorf("Limit = %d, want %d", q.Limit, DefaultLimit)
	}
	if q.SortOrder != "desc" {
		t.Errorf("SortOrder = %q, want desc", q.SortOrder)
	}

	q = &audit.Query{Limit: 5, SortOrder: "asc"}
	ApplyDefaults(q)
	if q.Limit != 5 || q.SortOrder != "asc" {
		t.Errorf("ApplyDefaults() overwrote explicit values: %+v", q)
	}
}
