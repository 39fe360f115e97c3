package sqlstore

import (
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

func replyTokenHandlers() repository.ModelHandlers[*replyTokenRecord] {
	return repository.ModelHandlers[*replyTokenRecord]{
		NewRecord: func() *replyTokenRecord {
			return &replyTokenRecord{}
		},
		GetID: func(record *replyTokenRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.ID)
		},
		SetID: func(record *replyTokenRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string {
			return "token"
		},
		GetIdentifierValue: func(record *replyTokenRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.Token)
		},
	}
}

func parseUUID(value string) uuid.UUID {
	parsed, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return uuid.Nil
	}
	return parsed
}
