package domain

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// RecordIDPrefix prefixes every generated donation record ID.
const RecordIDPrefix = "D-"

// DonationRecord is the row written to the ledger when a sender confirms.
type DonationRecord struct {
	ID           string    `json:"id" dynamodbav:"id"`
	Congregation string    `json:"congregation" dynamodbav:"congregation"`
	PersonName   string    `json:"personName" dynamodbav:"personName"`
	PersonPhone  string    `json:"personPhone" dynamodbav:"personPhone"`
	TaxID        string    `json:"taxId" dynamodbav:"taxId"`
	Amount       string    `json:"amount" dynamodbav:"amount"`
	CreatedAt    time.Time `json:"createdAt" dynamodbav:"createdAt"`
	Note         string    `json:"note,omitempty" dynamodbav:"note,omitempty"`
}

// Row returns the record as the ordered tuple used by spreadsheet sinks.
func (r DonationRecord) Row() []string {
	return []string{
		r.ID,
		r.Congregation,
		r.PersonName,
		r.PersonPhone,
		r.TaxID,
		r.Amount,
		r.CreatedAt.UTC().Format(time.RFC3339),
		r.Note,
	}
}

// NewRecordID builds an ID of the form D-<last 6 digits of epoch ms>-<3 random digits>.
// Uniqueness is best effort.
func NewRecordID(now time.Time) string {
	ms := fmt.Sprintf("%06d", now.UnixMilli())
	return fmt.Sprintf("%s%s-%03d", RecordIDPrefix, ms[len(ms)-6:], rand.IntN(1000))
}

// NewDonationRecord builds a record from a completed session.
func NewDonationRecord(id string, s *Session, now time.Time) DonationRecord {
	return DonationRecord{
		ID:           id,
		Congregation: s.Get(FieldCongregation),
		PersonName:   s.Get(FieldPersonName),
		PersonPhone:  s.Get(FieldPersonPhone),
		TaxID:        s.Get(FieldTaxID),
		Amount:       s.Get(FieldAmount),
		CreatedAt:    now.UTC(),
		Note:         s.Get(FieldNote),
	}
}

// Direction marks a transcript line as received or sent.
type Direction string

const (
	Inbound  Direction = "inbound"
	Outbound Direction = "outbound"
)

// MessageLog is one transcript line written to the audit log.
type MessageLog struct {
	At        time.Time `json:"at" dynamodbav:"at"`
	Identity  string    `json:"identity" dynamodbav:"identity"`
	Direction Direction `json:"direction" dynamodbav:"direction"`
	Step      *Step     `json:"step,omitempty" dynamodbav:"step,omitempty"`
	Text      string    `json:"text" dynamodbav:"text"`
}

// Row returns the transcript line as a spreadsheet tuple.
func (m MessageLog) Row() []string {
	step := ""
	if m.Step != nil {
		step = fmt.Sprintf("%d", int(*m.Step))
	}
	return []string{
		m.At.UTC().Format(time.RFC3339),
		m.Identity,
		string(m.Direction),
		step,
		m.Text,
	}
}

// Job describes a delayed callback used for the inactivity check.
type Job struct {
	CallbackURL string
	Delay       time.Duration
	Payload     map[string]string
}

// Delivery is the provider receipt for a sent message.
type Delivery struct {
	ID       string
	Provider string
}
