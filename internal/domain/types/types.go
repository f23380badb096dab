// Package types contains common types shared by the service and its transports.
package types

import "github.com/okian/wellscreen/internal/domain/model"

// Receipt is the outcome of a submission.
type Receipt struct {
	ID        string       `json:"id"`
	Record    model.Record `json:"doc"`
	Duplicate bool         `json:"duplicate"`
}
