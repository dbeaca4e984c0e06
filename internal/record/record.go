// Package record converts raw delimited transaction records into typed transactions.
package record

import (
	"strconv"
	"strings"
)

// Type identifies the five supported transaction kinds.
type Type string

const (
	TypeDeposit    Type = "deposit"
	TypeWithdrawal Type = "withdrawal"
	TypeDispute    Type = "dispute"
	TypeResolve    Type = "resolve"
	TypeChargeback Type = "chargeback"
)

// ParseType parses a transaction type field. Matching is case-insensitive
// and ignores surrounding whitespace.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "deposit":
		return TypeDeposit, nil
	case "withdrawal":
		return TypeWithdrawal, nil
	case "dispute":
		return TypeDispute, nil
	case "resolve":
		return TypeResolve, nil
	case "chargeback":
		return TypeChargeback, nil
	default:
		return "", &UnknownTypeError{Value: strings.TrimSpace(s)}
	}
}

// Transaction is a single parsed transaction record.
//
// Amount is nil when the record carried no amount field. Deposits and
// withdrawals require an amount, but that requirement is enforced by the
// ledger at apply time, not here: the parser's contract is purely syntactic.
type Transaction struct {
	Type   Type
	Client uint16
	Tx     uint32
	Amount *float64
}

// Parse builds a Transaction from the ordered fields of one record.
//
// Field layout: type, client, tx, [amount]. At least three fields are
// required. A fourth field, if present and non-empty, must parse as a
// decimal number. Extra trailing fields are ignored so that inputs with
// inconsistent field counts can still be processed.
func Parse(fields []string) (*Transaction, error) {
	trimmed := make([]string, len(fields))
	for i, f := range fields {
		trimmed[i] = strings.TrimSpace(f)
	}

	if len(trimmed) < 3 {
		return nil, &TooFewFieldsError{Fields: trimmed}
	}

	txType, err := ParseType(trimmed[0])
	if err != nil {
		return nil, err
	}

	client, err := strconv.ParseUint(trimmed[1], 10, 16)
	if err != nil {
		return nil, &FieldError{Field: "client", Value: trimmed[1], Err: err}
	}

	tx, err := strconv.ParseUint(trimmed[2], 10, 32)
	if err != nil {
		return nil, &FieldError{Field: "tx", Value: trimmed[2], Err: err}
	}

	var amount *float64
	if len(trimmed) >= 4 && trimmed[3] != "" {
		a, err := strconv.ParseFloat(trimmed[3], 64)
		if err != nil {
			return nil, &FieldError{Field: "amount", Value: trimmed[3], Err: err}
		}
		amount = &a
	}

	return &Transaction{
		Type:   txType,
		Client: uint16(client),
		Tx:     uint32(tx),
		Amount: amount,
	}, nil
}
