package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type (
	MetaKind          string
	TransferDirection string
)

const (
	MetaNone         MetaKind = "none"
	MetaTransferLink MetaKind = "transfer_link"

	TransferIn  TransferDirection = "in"
	TransferOut TransferDirection = "out"
)

// TransferLink ties one transfer leg to its counterpart.
type TransferLink struct {
	LinkID    string            `json:"link_id"`
	Direction TransferDirection `json:"direction"`
}

// TransactionMeta is a tagged variant: either no metadata or a transfer link.
// The zero value is MetaNone.
type TransactionMeta struct {
	kind     MetaKind
	transfer TransferLink
}

func NoMeta() TransactionMeta { return TransactionMeta{kind: MetaNone} }

func TransferMeta(linkID string, dir TransferDirection) TransactionMeta {
	return TransactionMeta{kind: MetaTransferLink, transfer: TransferLink{LinkID: linkID, Direction: dir}}
}

func (m TransactionMeta) Kind() MetaKind {
	if m.kind == "" {
		return MetaNone
	}
	return m.kind
}

// Transfer returns the link when the metadata is a transfer link.
func (m TransactionMeta) Transfer() (TransferLink, bool) {
	if m.kind != MetaTransferLink {
		return TransferLink{}, false
	}
	return m.transfer, true
}

func (m TransactionMeta) IsZero() bool { return m.Kind() == MetaNone }

func (m TransactionMeta) Validate() error {
	switch m.Kind() {
	case MetaNone:
		return nil
	case MetaTransferLink:
		if strings.TrimSpace(m.transfer.LinkID) == "" {
			return errors.New("transfer link requires link_id")
		}
		if m.transfer.Direction != TransferIn && m.transfer.Direction != TransferOut {
			return fmt.Errorf("unknown transfer direction %q", m.transfer.Direction)
		}
		return nil
	}
	return fmt.Errorf("unknown meta kind %q", m.kind)
}

type metaWire struct {
	Kind      MetaKind          `json:"kind"`
	LinkID    string            `json:"link_id,omitempty"`
	Direction TransferDirection `json:"direction,omitempty"`
}

func (m TransactionMeta) MarshalJSON() ([]byte, error) {
	w := metaWire{Kind: m.Kind()}
	if t, ok := m.Transfer(); ok {
		w.LinkID = t.LinkID
		w.Direction = t.Direction
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes and validates the variant. null and {} decode to none.
func (m *TransactionMeta) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = NoMeta()
		return nil
	}
	var w metaWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	var decoded TransactionMeta
	switch w.Kind {
	case "", MetaNone:
		decoded = NoMeta()
	case MetaTransferLink:
		decoded = TransferMeta(w.LinkID, w.Direction)
	default:
		return fmt.Errorf("unknown meta kind %q", w.Kind)
	}
	if err := decoded.Validate(); err != nil {
		return err
	}
	*m = decoded
	return nil
}
