package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

// replyTokenRecord is one consumed reply token. The token itself is the
// primary key, so a concurrent double-consume surfaces as a unique violation
// inside the database rather than a race in application code.
type replyTokenRecord struct {
	bun.BaseModel `bun:"table:reply_tokens,alias:rt"`

	Token      string    `bun:"token,pk"`
	ID         string    `bun:"id,notnull"`
	ConsumedAt time.Time `bun:"consumed_at,notnull"`
}
