package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// ErrorDump is the log-side view of a failed request or job. It never reaches
// a client.
type ErrorDump struct {
	TopMessage string   `json:"top_message"`
	Code       Code     `json:"code,omitempty"`
	Retryable  bool     `json:"retryable,omitempty"`
	Step       string   `json:"step,omitempty"`
	Chain      []string `json:"chain,omitempty"`

	PG *PGFailure `json:"pg,omitempty"`
}

// PGFailure holds the postgres fields of the first driver error in the chain.
// Violation names the storefront rule that was broken when the constraint is
// one of ours.
type PGFailure struct {
	Code       string `json:"code"`
	Constraint string `json:"constraint,omitempty"`
	Table      string `json:"table,omitempty"`
	Column     string `json:"column,omitempty"`
	Detail     string `json:"detail,omitempty"`
	Message    string `json:"message,omitempty"`
	Violation  string `json:"violation,omitempty"`
}

var constraintViolations = map[string]string{
	"uq_products_slug":                "product slug already taken",
	"uq_carts_active_user":            "user already has an active cart",
	"uq_orders_payment_session_id":    "checkout session already fulfilled",
	"uq_crawled_articles_url":         "article already stored",
	"uq_newsletter_subscribers_email": "email already subscribed",
	"chk_products_sizes_stock":        "size stock would go negative",
}

var sqlStateViolations = map[string]string{
	"23505": "unique_violation",
	"23503": "foreign_key_violation",
	"23514": "check_violation",
	"40001": "serialization_failure",
	"40P01": "deadlock_detected",
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{TopMessage: err.Error()}

	if te := As(err); te != nil {
		d.Code = te.Code()
		d.Retryable = MetadataFor(te.Code()).Retryable
		if details, ok := te.Details().(map[string]any); ok {
			if step, ok := details["step"].(string); ok {
				d.Step = step
			}
		}
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var pgxErr *pgconn.PgError
	var pqErr *pq.Error
	switch {
	case errors.As(err, &pgxErr):
		d.PG = &PGFailure{
			Code:       pgxErr.Code,
			Constraint: pgxErr.ConstraintName,
			Table:      pgxErr.TableName,
			Column:     pgxErr.ColumnName,
			Detail:     pgxErr.Detail,
			Message:    pgxErr.Message,
		}
	case errors.As(err, &pqErr):
		d.PG = &PGFailure{
			Code:       string(pqErr.Code),
			Constraint: pqErr.Constraint,
			Table:      pqErr.Table,
			Column:     pqErr.Column,
			Detail:     pqErr.Detail,
			Message:    pqErr.Message,
		}
	}
	if d.PG != nil {
		d.PG.Violation = violationFor(d.PG.Code, d.PG.Constraint)
	}

	return d
}

func violationFor(sqlState, constraint string) string {
	if v, ok := constraintViolations[constraint]; ok {
		return v
	}
	return sqlStateViolations[sqlState]
}

// Fields flattens the dump into logger fields, leaving out empty values.
func (d ErrorDump) Fields() map[string]any {
	fields := map[string]any{"error": d.TopMessage}
	if d.Code != "" {
		fields["error_code"] = d.Code
		fields["retryable"] = d.Retryable
	}
	if d.Step != "" {
		fields["step"] = d.Step
	}
	if len(d.Chain) > 1 {
		fields["error_chain"] = d.Chain
	}
	if d.PG == nil {
		return fields
	}
	fields["pg_code"] = d.PG.Code
	for key, value := range map[string]string{
		"pg_constraint": d.PG.Constraint,
		"pg_table":      d.PG.Table,
		"pg_column":     d.PG.Column,
		"pg_detail":     d.PG.Detail,
		"pg_message":    d.PG.Message,
		"pg_violation":  d.PG.Violation,
	} {
		if value != "" {
			fields[key] = value
		}
	}
	return fields
}
