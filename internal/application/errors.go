package application

import "errors"

var (
	ErrUnexpectedStatus = errors.New("unexpected response status")
	ErrMissingResults   = errors.New("response does not contain results")
	ErrEmptyResult      = errors.New("response contains no results")
	ErrFieldMismatch    = errors.New("result fields differ from the first result")
	ErrMixedDataTypes   = errors.New("results contain more than one data type")
)
