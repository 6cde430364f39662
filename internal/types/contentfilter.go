package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ContentFilter enumerates the supported search dimensions. All set fields
// compose conjunctively. UserID is mandatory: every storage operation is
// scoped to one owner.
type ContentFilter struct {
	UserID           uuid.UUID
	DocumentID       *uuid.UUID
	DocumentIDs      []uuid.UUID
	Kinds            []ContentKind
	ContentSubstring string
	PageNumber       *int
	CreatedFrom      *time.Time
	CreatedTo        *time.Time
}

func (f ContentFilter) Validate() error {
	if f.UserID == uuid.Nil {
		return fmt.Errorf("content filter requires an owner")
	}
	for _, k := range f.Kinds {
		if !k.Valid() {
			return fmt.Errorf("unsupported content kind %q", k)
		}
	}
	if f.PageNumber != nil && *f.PageNumber < 1 {
		return fmt.Errorf("page number must be positive")
	}
	return nil
}
