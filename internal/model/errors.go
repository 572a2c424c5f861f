package model

import "errors"

var (
	// ErrFetchFailure means the data source or network was unavailable.
	ErrFetchFailure = errors.New("fetch failure")
	// ErrEmptySeries means no rows were returned for the requested range.
	ErrEmptySeries = errors.New("empty series")
	// ErrInsufficientHistory means fewer rows than the longest indicator window.
	ErrInsufficientHistory = errors.New("insufficient history")
	// ErrDegenerateStatistic means a statistic is undefined, e.g. zero-variance Sharpe.
	ErrDegenerateStatistic = errors.New("degenerate statistic")
	// ErrInvalidRequest means the caller supplied a bad symbol or date range.
	ErrInvalidRequest = errors.New("invalid request")
)
