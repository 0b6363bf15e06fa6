package models

import "time"

// Document is a tag/date-keyed JSON record. The id is derived from the tags
// and date parts, so a full key addresses exactly one document.
type Document struct {
	ID            string      `bson:"_id" json:"id"`
	Tag           string      `bson:"tag" json:"tag"`
	SecondaryTag  string      `bson:"secondary_tag,omitempty" json:"secondary_tag,omitempty"`
	TertiaryTag   string      `bson:"tertiary_tag,omitempty" json:"tertiary_tag,omitempty"`
	QuaternaryTag string      `bson:"quaternary_tag,omitempty" json:"quaternary_tag,omitempty"`
	QuinaryTag    string      `bson:"quinary_tag,omitempty" json:"quinary_tag,omitempty"`
	Year          *int        `bson:"year,omitempty" json:"year,omitempty"`
	Month         *int        `bson:"month,omitempty" json:"month,omitempty"`
	Day           *int        `bson:"day,omitempty" json:"day,omitempty"`
	Data          interface{} `bson:"data" json:"data"`
	UpdatedAt     time.Time   `bson:"updatedAt" json:"updatedAt"`
}

// LogEntry is one appended line inside a day's log document.
type LogEntry struct {
	Timestamp    string `bson:"timestamp" json:"timestamp"`
	Base         string `bson:"base" json:"base"`
	Message      string `bson:"message" json:"message"`
	SecondaryTag string `bson:"secondary_tag,omitempty" json:"secondary_tag,omitempty"`
	TertiaryTag  string `bson:"tertiary_tag,omitempty" json:"tertiary_tag,omitempty"`
}
