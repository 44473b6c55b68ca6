// Package feed subscribes to the exchange's push feed and turns raw trade
// messages into domain trade events.
package feed

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"github.com/quangkl1998/polymarket/internal/domain"
)

// wsEnvelope is the outer frame of a push-feed message.
type wsEnvelope struct {
	Topic   string          `json:"topic"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// tradePayload is one trade as delivered by the activity feed. Numeric
// fields arrive as either JSON numbers or strings depending on the feed
// revision, so everything decodes through flexNumber.
type tradePayload struct {
	Asset           string     `json:"asset"`
	ConditionID     string     `json:"conditionId"`
	Slug            string     `json:"slug"`
	EventSlug       string     `json:"eventSlug"`
	Outcome         string     `json:"outcome"`
	OutcomeIndex    *int       `json:"outcomeIndex"`
	Price           flexNumber `json:"price"`
	Size            flexNumber `json:"size"`
	Side            string     `json:"side"`
	ProxyWallet     string     `json:"proxyWallet"`
	Timestamp       *int64     `json:"timestamp"`
	TransactionHash string     `json:"transactionHash"`
}

// flexNumber decodes a JSON number or a quoted numeric string. Missing or
// unparsable values stay 0; the engine treats them as zero-value trades.
type flexNumber float64

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*n = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*n = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*n = flexNumber(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*n = flexNumber(f)
	return nil
}

// ParseMessage decodes one raw feed frame into trade events. Non-trade
// frames (subscription acks, pings, comments) yield an empty slice and no
// error. A frame that claims to be a trade but cannot be decoded returns
// domain.ErrMalformedRecord wrapped with detail; callers log and continue.
func ParseMessage(data []byte) ([]domain.TradeEvent, error) {
	var env wsEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: envelope: %v", domain.ErrMalformedRecord, err)
	}
	if env.Type != "trades" && env.Type != "trade" {
		return nil, nil
	}
	if len(env.Payload) == 0 {
		return nil, fmt.Errorf("%w: empty trade payload", domain.ErrMalformedRecord)
	}

	// The payload is a single trade object or an array of them.
	var payloads []tradePayload
	if env.Payload[0] == '[' {
		if err := json.Unmarshal(env.Payload, &payloads); err != nil {
			return nil, fmt.Errorf("%w: trade array: %v", domain.ErrMalformedRecord, err)
		}
	} else {
		var one tradePayload
		if err := json.Unmarshal(env.Payload, &one); err != nil {
			return nil, fmt.Errorf("%w: trade object: %v", domain.ErrMalformedRecord, err)
		}
		payloads = []tradePayload{one}
	}

	events := make([]domain.TradeEvent, 0, len(payloads))
	for _, p := range payloads {
		ev, err := p.toEvent()
		if err != nil {
			return events, err
		}
		events = append(events, ev)
	}
	return events, nil
}

// toEvent validates and converts one payload. Wallet addresses must be
// well-formed hex addresses; anything else is a malformed record.
func (p tradePayload) toEvent() (domain.TradeEvent, error) {
	wallet := domain.NormalizeWallet(p.ProxyWallet)
	if wallet != "" && !common.IsHexAddress(wallet) {
		return domain.TradeEvent{}, fmt.Errorf("%w: wallet %q", domain.ErrMalformedRecord, p.ProxyWallet)
	}

	side := domain.NormalizeSide(p.Side)
	if side != domain.SideBuy && side != domain.SideSell {
		return domain.TradeEvent{}, fmt.Errorf("%w: side %q", domain.ErrMalformedRecord, p.Side)
	}

	ev := domain.TradeEvent{
		SessionID:    p.Slug,
		Wallet:       wallet,
		Side:         side,
		Size:         float64(p.Size),
		Price:        float64(p.Price),
		OutcomeLabel: p.Outcome,
		OutcomeIndex: p.OutcomeIndex,
		TxHash:       p.TransactionHash,
		ConditionID:  p.ConditionID,
	}
	if ev.SessionID == "" {
		ev.SessionID = p.EventSlug
	}

	// Feed timestamps are milliseconds; the on-chain key is seconds.
	if p.Timestamp != nil {
		secs := *p.Timestamp
		if secs > 1e12 {
			secs /= 1000
		}
		ev.OnChainTimestamp = &secs
	}

	return ev, nil
}
