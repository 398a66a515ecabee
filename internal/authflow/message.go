package authflow

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/AlexZinkM/phantom-wallet/internal/model"
)

// MessageBanner opens every authorization message
const MessageBanner = "PhanAI Operation Authorization"

const messageFooter = "By signing this message, you authorize the execution of this operation."

// isoMillis matches the millisecond UTC timestamps wallets display
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// BuildMessage renders the human-readable message the account signs for desc
func BuildMessage(desc model.OperationDescriptor, account string, ts time.Time) (string, error) {
	details := desc.Details
	if details == nil {
		details = map[string]any{}
	}
	dump, err := json.MarshalIndent(details, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal operation details: %w", err)
	}

	var b strings.Builder
	b.WriteString(MessageBanner)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Operation: %s\n", desc.Title)
	fmt.Fprintf(&b, "Type: %s\n", desc.Type)
	fmt.Fprintf(&b, "Account: %s\n", account)
	fmt.Fprintf(&b, "Timestamp: %s\n", ts.UTC().Format(isoMillis))
	b.WriteString("\nDetails:\n")
	b.Write(dump)
	b.WriteString("\n\n")
	b.WriteString(messageFooter)
	return b.String(), nil
}
