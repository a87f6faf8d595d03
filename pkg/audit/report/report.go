// Package report builds the security audit dashboard for the compliance
// service account.
package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"mercator-hq/wardgate/pkg/audit"
	"mercator-hq/wardgate/pkg/identity"
)

// SectionLimit is the number of entries in the alert and clinical sections.
const SectionLimit = 5

// AlertActions are the actions listed as security alerts.
var AlertActions = []audit.Action{audit.ActionAccessDenied, audit.ActionLoginFail}

// ErrUnauthorized indicates the actor is not the compliance service.
var ErrUnauthorized = errors.New("only etl_service may generate the audit report")

// Source reads the audit trail.
type Source interface {
	Query(ctx context.Context, query *audit.Query) ([]*audit.Entry, error)
	CountByRole(ctx context.Context) ([]audit.RoleCount, error)
}

// Report is one rendering of the dashboard.
type Report struct {
	GeneratedAt   time.Time         `json:"generated_at"`
	GeneratedBy   string            `json:"generated_by"`
	RoleCounts    []audit.RoleCount `json:"role_counts"`
	Alerts        []*audit.Entry    `json:"alerts"`
	ClinicalReads []*audit.Entry    `json:"clinical_reads"`
}

// Builder assembles reports.
type Builder struct {
	source Source
	sink   audit.Sink
	now    func() time.Time
	logger *slog.Logger
}

// NewBuilder creates a builder over source. Report generation is audited
// to sink.
func NewBuilder(source Source, sink audit.Sink) *Builder {
	if sink == nil {
		sink = audit.Discard
	}
	return &Builder{
		source: source,
		sink:   sink,
		now:    time.Now,
		logger: slog.Default().With("component", "audit.report"),
	}
}

// Build returns the dashboard for actor, who must hold etl_service.
func (b *Builder) Build(ctx context.Context, actor *identity.Identity) (*Report, error) {
	if actor == nil || actor.Role != identity.RoleETLService {
		return nil, ErrUnauthorized
	}

	counts, err := b.source.CountByRole(ctx)
	if err != nil {
		return nil, fmt.Errorf("count by role: %w", err)
	}
	alerts, err := b.source.Query(ctx, &audit.Query{Actions: AlertActions, Limit: SectionLimit})
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	reads, err := b.source.Query(ctx, &audit.Query{ActionPrefix: "READ", Limit: SectionLimit})
	if err != nil {
		return nil, fmt.Errorf("query clinical reads: %w", err)
	}

	b.sink.Record(ctx, audit.Entry{
		ActorID:   actor.ID,
		ActorName: actor.Username,
		Action:    audit.ActionReportGenerate,
		Resource:  audit.ResourceAuditLog,
		Detail:    "Generated security audit report",
	})
	b.logger.Info("audit report generated",
		"by", actor.Username,
		"alerts", len(alerts),
		"clinical_reads", len(reads),
	)

	return &Report{
		GeneratedAt:   b.now().UTC(),
		GeneratedBy:   actor.Username,
		RoleCounts:    counts,
		Alerts:        alerts,
		ClinicalReads: reads,
	}, nil
}

// WriteText renders r as the three-section dashboard.
func WriteText(w io.Writer, r *Report) error {
	var sb strings.Builder
	rule := strings.Repeat("=", 60)

	sb.WriteString("\n" + rule + "\n")
	sb.WriteString("      HOSPITAL SYSTEM - SECURITY AUDIT DASHBOARD      \n")
	sb.WriteString(rule + "\n")

	sb.WriteString("\n[1] ACCESS SUMMARY BY ROLE\n")
	fmt.Fprintf(&sb, "%-15s | %-10s\n", "Role", "Count")
	sb.WriteString(strings.Repeat("-", 30) + "\n")
	for _, rc := range r.RoleCounts {
		fmt.Fprintf(&sb, "%-15s | %-10d\n", rc.Role, rc.Count)
	}

	sb.WriteString("\n[2] RECENT SECURITY ALERTS (Violations & Failures)\n")
	if len(r.Alerts) == 0 {
		sb.WriteString(">> No recent security violations detected.\n")
	} else {
		fmt.Fprintf(&sb, "%-15s | %-15s | %-20s | %s\n", "User", "Action", "Time", "Details")
		sb.WriteString(strings.Repeat("-", 80) + "\n")
		for _, e := range r.Alerts {
			fmt.Fprintf(&sb, "%-15s | %-15s | %-20s | %s\n", e.ActorName, e.Action, clock(e.Timestamp), e.Detail)
		}
	}

	sb.WriteString("\n[3] RECENT CLINICAL DATA ACCESS\n")
	if len(r.ClinicalReads) == 0 {
		sb.WriteString(">> No recent clinical access recorded.\n")
	} else {
		for _, e := range r.ClinicalReads {
			fmt.Fprintf(&sb, "[%s] %s performed %s: %s\n", clock(e.Timestamp), e.ActorName, e.Action, e.Detail)
		}
	}

	sb.WriteString("\n" + rule + "\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

func clock(t time.Time) string {
	return t.UTC().Format(time.TimeOnly)
}
