// Package idgen produces the human-facing identifiers used by the ledger:
// type-coded account numbers, transaction ids and transfer reference numbers.
// It is a capability passed to the services, not process-global state.
package idgen

import (
	"encoding/binary"
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shivam-0510/Banking-app/internal/core/domain"
)

type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
	now func() time.Time
}

func New() *Generator {
	return &Generator{
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
		now: time.Now,
	}
}

// AccountNumber returns a 2-letter type code followed by a 10-digit random
// suffix, e.g. "SV0048271934". Uniqueness is enforced by the store; callers
// retry with a fresh number on collision.
func (g *Generator) AccountNumber(t domain.AccountType) string {
	u := uuid.New()
	n := binary.BigEndian.Uint64(u[8:]) % 10_000_000_000
	return fmt.Sprintf("%s%010d", typeCode(t), n)
}

// TransactionID returns "TXN" plus 16 uppercase hex characters.
func (g *Generator) TransactionID() string {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "TXN" + strings.ToUpper(hex[:16])
}

// ReferenceNumber correlates related transactions, e.g. the two legs of a
// transfer: "REF" + unix milliseconds + 3-digit random suffix.
func (g *Generator) ReferenceNumber() string {
	g.mu.Lock()
	n := g.rnd.Intn(1000)
	g.mu.Unlock()
	return fmt.Sprintf("REF%d%03d", g.now().UnixMilli(), n)
}

func typeCode(t domain.AccountType) string {
	switch t {
	case domain.Savings:
		return "SV"
	case domain.Checking:
		return "CK"
	case domain.Credit:
		return "CR"
	case domain.Loan:
		return "LN"
	case domain.Investment:
		return "IN"
	default:
		return "AC"
	}
}

var accountNumberPattern = regexp.MustCompile(`^[A-Z]{2}\d{10}$`)

// ValidAccountNumber checks the shape of an account number (type code plus
// numeric suffix). It does not check existence.
func ValidAccountNumber(accountNumber string) bool {
	return accountNumberPattern.MatchString(accountNumber)
}
