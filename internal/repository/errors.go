package repository

import (
	"errors"
	"fmt"

	"city-tours/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgInvalidText         = "22P02"
)

// scanner is satisfied by pgx.Row and pgx.Rows
type scanner interface {
	Scan(dest ...any) error
}

// classify turns driver errors into domain errors; everything else is wrapped with op
func classify(err error, op, entity, id string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return models.NewNotFoundError(entity, id)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return models.NewConflictError(fmt.Sprintf("%s already exists", entity))
		case pgForeignKeyViolation:
			return &models.Error{Kind: models.KindNotFound, Message: fmt.Sprintf("referenced record of %s not found", entity), Err: err}
		case pgInvalidText:
			// malformed ids can never match a row
			return models.NewNotFoundError(entity, id)
		}
	}

	return fmt.Errorf("failed to %s: %w", op, err)
}

// isInvalidText reports whether err comes from a value Postgres could not parse, such as a malformed uuid
func isInvalidText(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgInvalidText
}

// setClause accumulates "col = $n" fragments for partial updates
type setClause struct {
	cols []string
	args []any
}

func (s *setClause) add(col string, v any) {
	s.args = append(s.args, v)
	s.cols = append(s.cols, fmt.Sprintf("%s = $%d", col, len(s.args)))
}

func (s *setClause) empty() bool {
	return len(s.cols) == 0
}

// next returns the placeholder for the argument appended after the SET values
func (s *setClause) next(v any) string {
	s.args = append(s.args, v)
	return fmt.Sprintf("$%d", len(s.args))
}
