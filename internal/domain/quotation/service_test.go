package quotation

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateQuotationNumber(t *testing.T) {
	pattern := regexp.MustCompile(`^QUO-\d{13}-[0-9A-Z]{4}$`)

	now := time.Now().UTC()
	for i := 0; i < 100; i++ {
		number := generateQuotationNumber(now)
		assert.Regexp(t, pattern, number)
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from    QuotationStatus
		to      QuotationStatus
		allowed bool
	}{
		{StatusDraft, StatusPending, true},
		{StatusDraft, StatusExpired, true},
		{StatusDraft, StatusApproved, false},
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusExpired, true},
		{StatusPending, StatusDraft, false},
		{StatusApproved, StatusRejected, false},
		{StatusRejected, StatusPending, false},
		{StatusExpired, StatusPending, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.allowed, CanTransition(tt.from, tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestQuotationIsExpired(t *testing.T) {
	now := time.Now().UTC()
	q := Quotation{ValidUntil: now.Add(24 * time.Hour)}

	assert.False(t, q.IsExpired(now))
	assert.True(t, q.IsExpired(now.Add(48*time.Hour)))
}
