// Package ofx parses OFX/QFX bank statements into backend create
// requests so an exported statement can seed a ledger.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/aclindsa/ofxgo"

	"github.com/Veraticus/insight-ledger/internal/model"
)

// Parser implements OFX/QFX file parsing.
type Parser struct{}

// NewParser creates a new OFX parser.
func NewParser() *Parser {
	return &Parser{}
}

// preprocessOFX fixes common formatting issues in OFX files.
func (p *Parser) preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")

	// Fix mixed-case SEVERITY values (should be INFO, WARN, or ERROR)
	severityRegex := regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)

	// Fix missing closing angle brackets in SGML-style OFX files:
	// opening tags at end of line with no closing bracket.
	tagFixRegex := regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
	content = tagFixRegex.ReplaceAllString(content, "$1>")

	return content
}

// ParseFile parses an OFX/QFX statement and returns one create
// request per statement transaction. The amount sign is preserved:
// OFX debits stay negative so normalization classifies them as
// expenses.
func (p *Parser) ParseFile(_ context.Context, reader io.Reader) ([]model.BackendTransaction, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	var transactions []model.BackendTransaction
	var bankStmts, ccStmts int

	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			bankStmts++
			transactions = append(transactions, p.statementTransactions(stmt.BankTranList, string(stmt.BankAcctFrom.AcctID))...)
		}
	}

	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			ccStmts++
			transactions = append(transactions, p.statementTransactions(stmt.BankTranList, string(stmt.CCAcctFrom.AcctID))...)
		}
	}

	slog.Info("Parsed OFX file",
		"total_transactions", len(transactions),
		"bank_statements", bankStmts,
		"cc_statements", ccStmts)

	return transactions, nil
}

func (p *Parser) statementTransactions(list *ofxgo.TransactionList, accountID string) []model.BackendTransaction {
	if list == nil {
		return nil
	}

	var transactions []model.BackendTransaction
	for _, ofxTx := range list.Transactions {
		transactions = append(transactions, p.convertTransaction(ofxTx, accountID))
	}
	return transactions
}

// convertTransaction maps an OFX transaction onto a backend create
// request.
func (p *Parser) convertTransaction(ofxTx ofxgo.Transaction, accountID string) model.BackendTransaction {
	amount, _ := ofxTx.TrnAmt.Float64()

	description := strings.TrimSpace(string(ofxTx.Memo))
	if accountID != "" {
		if description != "" {
			description += " "
		}
		description += fmt.Sprintf("(account %s)", accountID)
	}

	return model.BackendTransaction{
		Title:           p.extractTitle(ofxTx),
		Amount:          amount,
		TransactionType: transactionType(fmt.Sprintf("%v", ofxTx.TrnType), amount),
		Description:     description,
		Date:            ofxTx.DtPosted.Time.Format("2006-01-02"),
	}
}

// transactionType infers the underscore-style category key the backend
// expects from the OFX transaction type.
func transactionType(trnType string, amount float64) string {
	switch trnType {
	case "INT", "DIV":
		return "interest"
	case "FEE", "SRVCHG":
		return "bank_fees"
	case "ATM", "CASH":
		return "cash_withdrawal"
	case "DIRECTDEP", "DEP":
		return "deposit"
	case "CHECK":
		return "check_payment"
	case "XFER", "PAYMENT":
		return "transfer"
	}
	if amount >= 0 {
		return "deposit"
	}
	return "general"
}

// extractTitle tries to get a clean merchant name from OFX data.
func (p *Parser) extractTitle(tx ofxgo.Transaction) string {
	// Prefer PAYEE if available (cleaner merchant name)
	if tx.Payee != nil && tx.Payee.Name != "" {
		return string(tx.Payee.Name)
	}

	name := string(tx.Name)

	// Use MEMO field if NAME is generic
	if tx.Memo != "" && isGenericDescription(name) {
		name = string(tx.Memo)
	}

	name = strings.TrimSpace(name)

	// Remove common processor prefixes
	prefixes := []string{
		"POS PURCHASE ",
		"PURCHASE AUTHORIZED ON ",
		"DEBIT CARD PURCHASE ",
		"ACH DEBIT ",
		"CHECK CARD ",
		"VISA PURCHASE ",
		"MC PURCHASE ",
		"DEBIT PURCHASE ",
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(strings.ToUpper(name), prefix) {
			name = name[len(prefix):]
			break
		}
	}

	// Clean up date patterns like "MM/DD " at the beginning
	if len(name) > 5 && name[2] == '/' && name[5] == ' ' {
		name = strings.TrimSpace(name[6:])
	}

	return name
}

// isGenericDescription checks if a transaction name is too generic.
func isGenericDescription(name string) bool {
	generic := []string{
		"DEBIT",
		"CREDIT",
		"PURCHASE",
		"PAYMENT",
		"POS TRANSACTION",
		"CARD PURCHASE",
	}

	upperName := strings.ToUpper(name)
	for _, g := range generic {
		if upperName == g {
			return true
		}
	}
	return false
}
